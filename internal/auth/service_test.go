package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiksha-labs/prashnagen/internal/users"
	pkgAuth "github.com/shiksha-labs/prashnagen/pkg/auth"
	"github.com/shiksha-labs/prashnagen/pkg/config"
	"github.com/shiksha-labs/prashnagen/pkg/db/dbtest"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
)

var testJWTConfig = config.JWTConfig{
	Secret:                 "secret",
	Issuer:                 "prashnagen",
	ExpirationMinutes:      30,
	RefreshTokenTTLMinutes: 600,
}

type loginFixture struct {
	repo     *users.Repository
	sessions *stubSessionManager
	svc      Service
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()
	repo := users.NewRepository(dbtest.Open(t))
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		Passwords:      testHasher(),
		JWTConfig:      testJWTConfig,
	})
	require.NoError(t, err)
	return &loginFixture{repo: repo, sessions: sessions, svc: svc}
}

func (f *loginFixture) seed(t *testing.T, email, password string, role enums.SystemRole) uuid.UUID {
	t.Helper()
	hash, err := testHasher().Hash(password)
	require.NoError(t, err)
	user, err := f.repo.Create(context.Background(), users.CreateUserDTO{
		Email: email, PasswordHash: hash, FirstName: "Kavya", LastName: "Nair", SystemRole: role,
	})
	require.NoError(t, err)
	return user.ID
}

func TestLoginIssuesTokensBoundToSession(t *testing.T) {
	f := newLoginFixture(t)
	userID := f.seed(t, "kavya@school.in", "correct-horse", enums.SystemRoleUser)

	resp, err := f.svc.Login(context.Background(), LoginRequest{Email: " KAVYA@school.in ", Password: "correct-horse"})
	require.NoError(t, err)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.SystemRoleUser, claims.Role)
	require.Len(t, f.sessions.accessIDs, 1)
	assert.Equal(t, f.sessions.accessIDs[0], claims.ID)
	assert.Equal(t, userID, f.sessions.userIDs[0])
	assert.Equal(t, "refresh-"+claims.ID, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 30*60, resp.ExpiresIn)
	assert.WithinDuration(t, claims.ExpiresAt.Time, resp.ExpiresAt, time.Second)
	require.NotNil(t, resp.User.LastLoginAt)
	assert.WithinDuration(t, time.Now(), *resp.User.LastLoginAt, time.Minute)

	stored, err := f.repo.FindByID(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	f := newLoginFixture(t)
	userID := f.seed(t, "ravi@school.in", "correct-horse", enums.SystemRoleUser)

	cases := []LoginRequest{
		{Email: "ravi@school.in", Password: "wrong-pass"},
		{Email: "nobody@school.in", Password: "correct-horse"},
		{Email: "", Password: "correct-horse"},
	}
	for _, req := range cases {
		_, err := f.svc.Login(context.Background(), req)
		require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized), "req=%+v err=%v", req, err)
	}

	_, err := f.repo.SetActive(context.Background(), userID, false)
	require.NoError(t, err)
	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "ravi@school.in", Password: "correct-horse"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, invalidCredentialsMessage, pkgerrors.As(err).Message())
	assert.Empty(t, f.sessions.accessIDs)
}

func TestAdminLoginRequiresAdminRole(t *testing.T) {
	f := newLoginFixture(t)
	f.seed(t, "user@school.in", "correct-horse", enums.SystemRoleUser)
	f.seed(t, "admin@school.in", "correct-horse", enums.SystemRoleAdmin)

	_, err := f.svc.AdminLogin(context.Background(), LoginRequest{Email: "user@school.in", Password: "correct-horse"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))

	resp, err := f.svc.AdminLogin(context.Background(), LoginRequest{Email: "admin@school.in", Password: "correct-horse"})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.SystemRoleAdmin, claims.Role)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
