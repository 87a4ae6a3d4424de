package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
	OpenAI        OpenAIConfig
	Generation    GenerationConfig
	Wallet        WalletConfig
	Sendgrid      SendgridConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Wallet.validate(); err != nil {
		return nil, err
	}
	if cfg.Generation.MaxCount <= 0 {
		return nil, fmt.Errorf("%s must be positive", EnvGenerationMaxCount)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRASHNAGEN_APP_ENV" required:"true"`
	Port         string `envconfig:"PRASHNAGEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRASHNAGEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRASHNAGEN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN string `envconfig:"PRASHNAGEN_DB_DSN"`

	LegacyHost     string `envconfig:"PRASHNAGEN_DB_HOST"`
	LegacyPort     int    `envconfig:"PRASHNAGEN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRASHNAGEN_DB_USER"`
	LegacyPassword string `envconfig:"PRASHNAGEN_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRASHNAGEN_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRASHNAGEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRASHNAGEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRASHNAGEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRASHNAGEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRASHNAGEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRASHNAGEN_REDIS_URL"`
	Address      string        `envconfig:"PRASHNAGEN_REDIS_ADDR"`
	Password     string        `envconfig:"PRASHNAGEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRASHNAGEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRASHNAGEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRASHNAGEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRASHNAGEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRASHNAGEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRASHNAGEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PRASHNAGEN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PRASHNAGEN_JWT_ISSUER" default:"prashnagen"`
	ExpirationMinutes      int    `envconfig:"PRASHNAGEN_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"PRASHNAGEN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the lifetime of a minted access token.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PRASHNAGEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PRASHNAGEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PRASHNAGEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PRASHNAGEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PRASHNAGEN_ARGON_KEY_LEN" default:"32"`
	MinLength        int `envconfig:"PRASHNAGEN_PASSWORD_MIN_LENGTH" default:"8"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PRASHNAGEN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PRASHNAGEN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PRASHNAGEN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PRASHNAGEN_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PRASHNAGEN_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PRASHNAGEN_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate   bool `envconfig:"PRASHNAGEN_AUTO_MIGRATE" default:"false"`
	AdminRegister bool `envconfig:"PRASHNAGEN_FEATURE_ADMIN_REGISTER" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PRASHNAGEN_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type OpenAIConfig struct {
	APIKey      string        `envconfig:"PRASHNAGEN_OPENAI_API_KEY"`
	BaseURL     string        `envconfig:"PRASHNAGEN_OPENAI_BASE_URL"`
	Model       string        `envconfig:"PRASHNAGEN_OPENAI_MODEL" default:"gpt-4o-mini"`
	MaxTokens   int           `envconfig:"PRASHNAGEN_OPENAI_MAX_TOKENS" default:"4096"`
	Temperature float32       `envconfig:"PRASHNAGEN_OPENAI_TEMPERATURE" default:"0.7"`
	Timeout     time.Duration `envconfig:"PRASHNAGEN_OPENAI_TIMEOUT" default:"60s"`
}

type GenerationConfig struct {
	MaxCount        int           `envconfig:"PRASHNAGEN_GENERATION_MAX_COUNT" default:"20"`
	SampleLimit     int           `envconfig:"PRASHNAGEN_GENERATION_SAMPLE_LIMIT" default:"3"`
	RateLimit       int           `envconfig:"PRASHNAGEN_GENERATION_RATE_LIMIT" default:"10"`
	RateLimitWindow time.Duration `envconfig:"PRASHNAGEN_GENERATION_RATE_LIMIT_WINDOW" default:"1m"`
}

type WalletConfig struct {
	MinTopUp         decimal.Decimal `envconfig:"PRASHNAGEN_WALLET_MIN_TOP_UP" default:"10"`
	MaxTopUp         decimal.Decimal `envconfig:"PRASHNAGEN_WALLET_MAX_TOP_UP" default:"50000"`
	CoinsPerRupee    decimal.Decimal `envconfig:"PRASHNAGEN_WALLET_COINS_PER_RUPEE" default:"1"`
	SignupBonusCoins int64           `envconfig:"PRASHNAGEN_WALLET_SIGNUP_BONUS" default:"0"`
	// Simulated payments above this amount are declined; zero disables declines.
	DeclineAbove decimal.Decimal `envconfig:"PRASHNAGEN_WALLET_DECLINE_ABOVE" default:"0"`
}

func (w WalletConfig) validate() error {
	if w.MinTopUp.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%s must be positive", EnvWalletMinTopUp)
	}
	if w.MaxTopUp.LessThan(w.MinTopUp) {
		return fmt.Errorf("%s must not be below %s", EnvWalletMaxTopUp, EnvWalletMinTopUp)
	}
	if w.CoinsPerRupee.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%s must be positive", EnvWalletCoinsPerRupee)
	}
	if w.SignupBonusCoins < 0 {
		return fmt.Errorf("%s must not be negative", EnvWalletSignupBonus)
	}
	return nil
}

type SendgridConfig struct {
	APIKey      string `envconfig:"PRASHNAGEN_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"PRASHNAGEN_SENDGRID_FROM_EMAIL" default:"no-reply@prashnagen.in"`
	AppName     string `envconfig:"PRASHNAGEN_SENDGRID_APP_NAME" default:"Prashnagen"`
}

// Enabled reports whether outbound mail should go through SendGrid.
func (s SendgridConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
