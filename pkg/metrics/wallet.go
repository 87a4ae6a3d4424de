package metrics

import "github.com/prometheus/client_golang/prometheus"

// WalletMetrics tracks top-up attempts and credited coins.
type WalletMetrics struct {
	topUps   *prometheus.CounterVec
	credited prometheus.Counter
}

// NewWalletMetrics registers the wallet metrics on the provided registerer.
func NewWalletMetrics(reg prometheus.Registerer) *WalletMetrics {
	if reg == nil {
		return &WalletMetrics{}
	}
	topUps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_top_ups_total",
		Help: "Wallet top-up attempts by outcome.",
	}, []string{"outcome"})
	credited := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wallet_coins_credited_total",
		Help: "Coins credited through wallet top-ups.",
	})
	reg.MustRegister(topUps, credited)
	return &WalletMetrics{topUps: topUps, credited: credited}
}

// IncTopUp counts a top-up attempt with its outcome.
func (w *WalletMetrics) IncTopUp(outcome string) {
	if w == nil || w.topUps == nil {
		return
	}
	w.topUps.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddCredited adds coins credited by a successful top-up.
func (w *WalletMetrics) AddCredited(coins int64) {
	if w == nil || w.credited == nil {
		return
	}
	w.credited.Add(float64(coins))
}
