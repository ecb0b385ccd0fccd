// Package tenancy carries the authenticated principal and its tenant binding
// on the request context. It is populated once by the JWT middleware.
package tenancy

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"wms-admin/internal/domain"
)

type ctxKey struct{}

// Principal is the identity decoded from a validated access token.
type Principal struct {
	UserID    string
	Username  string
	TenantID  *string
	Roles     []string
	RequestID string
}

func (p Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

// Actor is the free-text identifier stamped in CreatedBy/UpdatedBy/DeletedBy.
func (p Principal) Actor() string {
	if p.Username != "" {
		return p.Username
	}
	return p.UserID
}

// Scope is what every tenant-scoped operation receives.
type Scope struct {
	TenantID string
	UserID   string
	Actor    string
}

// Scope binds the principal to its tenant. It fails when the token carried no
// tenant or a malformed one.
func (p Principal) Scope() (Scope, error) {
	if p.TenantID == nil || *p.TenantID == "" {
		return Scope{}, domain.ErrTenantRequired
	}
	if _, err := uuid.Parse(*p.TenantID); err != nil {
		return Scope{}, domain.ErrTenantRequired
	}
	return Scope{TenantID: *p.TenantID, UserID: p.UserID, Actor: p.Actor()}, nil
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// ActorFromContext falls back to "system" for unauthenticated flows.
func ActorFromContext(ctx context.Context) string {
	if p, ok := FromContext(ctx); ok {
		return p.Actor()
	}
	return "system"
}

type clientKey struct{}

// Client describes the caller of an unauthenticated or authenticated request.
type Client struct {
	IP        string
	UserAgent string
	RequestID string
}

func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

func ClientFromContext(ctx context.Context) Client {
	if ctx == nil {
		return Client{}
	}
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}
