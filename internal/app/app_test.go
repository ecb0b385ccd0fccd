package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wms-admin/internal/core/auth"
	"wms-admin/internal/core/config"
	"wms-admin/internal/core/database/dbtest"
	"wms-admin/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWT{
			Secret:            "0123456789abcdef0123456789abcdef",
			Issuer:            "wms-admin",
			Audience:          "wms-clients",
			AccessTokenTTLMin: 15,
			RefreshTokenDays:  7,
			RememberMeDays:    30,
		},
		Lockout: config.Lockout{MaxFailedAttempts: 5, DurationMin: 30},
		Redis:   config.Redis{GrantTTLSec: 60},
	}
}

func TestOpenCacheWithoutAddr(t *testing.T) {
	c, err := OpenCache(context.Background(), config.Redis{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestContainerReadyWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := OpenCache(context.Background(), config.Redis{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, rc)

	c := New(testConfig(), nil, dbtest.New(t), WithCache(rc), WithHasher(auth.PasswordHasher{Cost: bcrypt.MinCost}))
	require.NoError(t, c.Ready(context.Background()))
}

func TestContainerWiresSeedAndLogin(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := OpenCache(context.Background(), config.Redis{Addr: mr.Addr()})
	require.NoError(t, err)

	ctx := context.Background()
	c := New(testConfig(), nil, dbtest.New(t), WithCache(rc), WithHasher(auth.PasswordHasher{Cost: bcrypt.MinCost}))
	_, err = c.Seeder.Seed(ctx)
	require.NoError(t, err)
	u, err := c.Seeder.CreateAdmin(ctx, service.AdminInput{
		Username: "admin", Email: "admin@example.com", Password: "Adm1nPass",
	})
	require.NoError(t, err)

	g, err := c.Authz.Resolve(ctx, u.ID)
	require.NoError(t, err)
	assert.Contains(t, g.Roles, "SuperAdmin")
	assert.NotEmpty(t, mr.Keys())

	opts := c.HTTPOptions()
	assert.Zero(t, opts.MaxBodyBytes)
	assert.Equal(t, 15*60, int(c.JWT.TTL.Seconds()))
}
