package auth

import (
	"time"

	"github.com/shiksha-labs/prashnagen/internal/users"
	"github.com/shiksha-labs/prashnagen/pkg/config"
)

const bearerTokenType = "Bearer"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

// TokenPair is what login, registration and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewTokenPair stamps the access token lifetime configured in cfg, counted from issuedAt.
func NewTokenPair(access, refresh string, cfg config.JWTConfig, issuedAt time.Time) TokenPair {
	ttl := cfg.AccessTokenTTL()
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    bearerTokenType,
		ExpiresIn:    int(ttl.Seconds()),
		ExpiresAt:    issuedAt.Add(ttl),
	}
}

// LoginResponse carries the profile too, so the client can show the coin balance straight away.
type LoginResponse struct {
	TokenPair
	User *users.UserDTO `json:"user"`
}
