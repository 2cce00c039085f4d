// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "nowageneracja.org", cfg.Roles.OrgDomain)
	assert.Contains(t, cfg.Roles.NationalAdmins, "zarzad")
	assert.Len(t, cfg.Roles.RegionalAdmins, 16)
	assert.Equal(t, "kkrd", cfg.Roles.NationalAuditor)
	assert.Equal(t, "krd.", cfg.Roles.AuditorPrefix)

	epoch, err := cfg.Dues.EpochDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), epoch)

	require.Len(t, cfg.Dues.Rates, 3)
	assert.Equal(t, RateTier{MinAge: 0, MaxAge: 19, Rate: 5}, cfg.Dues.Rates[0])
	assert.Equal(t, RateTier{MinAge: 31, MaxAge: -1, Rate: 15}, cfg.Dues.Rates[2])
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("REJESTR_HTTP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTP.Port)
}
