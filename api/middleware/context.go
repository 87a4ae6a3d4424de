package middleware

import (
	"context"

	"github.com/google/uuid"
)

type principalKey struct{}

// principal is whoever the bearer token identified. Anonymous requests carry none.
type principal struct {
	userID string
	role   string
}

func principalFrom(ctx context.Context) principal {
	if ctx == nil {
		return principal{}
	}
	p, _ := ctx.Value(principalKey{}).(principal)
	return p
}

func withPrincipal(ctx context.Context, update func(*principal)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	p := principalFrom(ctx)
	update(&p)
	return context.WithValue(ctx, principalKey{}, p)
}

func UserIDFromContext(ctx context.Context) string {
	return principalFrom(ctx).userID
}

// UserUUIDFromContext parses the authenticated principal; ok is false for anonymous requests.
func UserUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func RoleFromContext(ctx context.Context) string {
	return principalFrom(ctx).role
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return withPrincipal(ctx, func(p *principal) { p.userID = userID })
}

func WithRole(ctx context.Context, role string) context.Context {
	return withPrincipal(ctx, func(p *principal) { p.role = role })
}
