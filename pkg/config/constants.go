package config

// EnvPrefix scopes every environment variable read by Load.
const EnvPrefix = "PRASHNAGEN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "PRASHNAGEN_APP_ENV"
	EnvPort                   = "PRASHNAGEN_APP_PORT"
	EnvDBDSN                  = "PRASHNAGEN_DB_DSN"
	EnvDBHost                 = "PRASHNAGEN_DB_HOST"
	EnvDBUser                 = "PRASHNAGEN_DB_USER"
	EnvDBName                 = "PRASHNAGEN_DB_NAME"
	EnvDBPassword             = "PRASHNAGEN_DB_PASSWORD"
	EnvRedisURL               = "PRASHNAGEN_REDIS_URL"
	EnvJWTSecret              = "PRASHNAGEN_JWT_SECRET"
	EnvJWTIssuer              = "PRASHNAGEN_JWT_ISSUER"
	EnvJWTExpMins             = "PRASHNAGEN_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "PRASHNAGEN_REFRESH_TOKEN_TTL_MINUTES"
	EnvOpenAIAPIKey           = "PRASHNAGEN_OPENAI_API_KEY"
	EnvOpenAITimeout          = "PRASHNAGEN_OPENAI_TIMEOUT"
	EnvGenerationMaxCount     = "PRASHNAGEN_GENERATION_MAX_COUNT"
	EnvWalletMinTopUp         = "PRASHNAGEN_WALLET_MIN_TOP_UP"
	EnvWalletMaxTopUp         = "PRASHNAGEN_WALLET_MAX_TOP_UP"
	EnvWalletCoinsPerRupee    = "PRASHNAGEN_WALLET_COINS_PER_RUPEE"
	EnvWalletSignupBonus      = "PRASHNAGEN_WALLET_SIGNUP_BONUS"
	EnvCORSAllowedOrigins     = "PRASHNAGEN_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
