package ledger

import "github.com/shiksha-labs/prashnagen/pkg/db/models"

// Fold replays entries in order starting from a zero balance. consistent is
// false when a running total goes negative or disagrees with an entry's
// recorded resulting_balance; firstBad is the seq of the first such entry.
func Fold(entries []models.LedgerEntry) (balance int64, consistent bool, firstBad int64) {
	consistent = true
	for _, e := range entries {
		balance += e.Delta()
		if consistent && (balance < 0 || balance != e.ResultingBalance) {
			consistent = false
			firstBad = e.Seq
		}
	}
	return balance, consistent, firstBad
}
