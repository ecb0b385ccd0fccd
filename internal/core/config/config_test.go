package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: wms-admin
  http:
    port: 9090
jwt:
  secret: "0123456789abcdef0123456789abcdef"
db:
  driver: sqlite
  dsn: "file::memory:"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, 60, c.JWT.AccessTokenTTLMin)
	assert.Equal(t, 7, c.JWT.RefreshTokenDays)
	assert.Equal(t, 5, c.Lockout.MaxFailedAttempts)
	assert.Equal(t, 30, c.Lockout.DurationMin)
	assert.Equal(t, "sqlite", c.DB.Driver)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_JWT_ACCESSTOKENTTLMIN", "15")
	c, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, 15, c.JWT.AccessTokenTTLMin)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	_, err := Load(writeConfig(t, "jwt:\n  secret: short\n"))
	require.Error(t, err)
}
