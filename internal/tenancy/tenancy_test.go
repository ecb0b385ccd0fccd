package tenancy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wms-admin/internal/domain"
)

func strp(s string) *string { return &s }

func TestScopeRequiresTenant(t *testing.T) {
	_, err := Principal{UserID: "u1"}.Scope()
	assert.ErrorIs(t, err, domain.ErrTenantRequired)

	_, err = Principal{UserID: "u1", TenantID: strp("not-a-uuid")}.Scope()
	assert.ErrorIs(t, err, domain.ErrTenantRequired)

	tid := uuid.NewString()
	sc, err := Principal{UserID: "u1", Username: "ana", TenantID: &tid}.Scope()
	require.NoError(t, err)
	assert.Equal(t, Scope{TenantID: tid, UserID: "u1", Actor: "ana"}, sc)
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "system", ActorFromContext(ctx))

	ctx = WithPrincipal(ctx, Principal{UserID: "u1", Roles: []string{"Admin"}})
	p, ok := FromContext(ctx)
	require.True(t, ok)
	assert.True(t, p.HasRole("admin"))
	assert.Equal(t, "u1", ActorFromContext(ctx))

	ctx = WithClient(ctx, Client{IP: "10.0.0.1", RequestID: "r1"})
	assert.Equal(t, "10.0.0.1", ClientFromContext(ctx).IP)
	assert.Equal(t, Client{}, ClientFromContext(context.Background()))
}
