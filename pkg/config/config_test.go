package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Planner.SessionTTL)
	assert.Equal(t, "@every 5m", cfg.Planner.SweepSpec)
	assert.Equal(t, 2*time.Second, cfg.Autosave.Delay)
	assert.Equal(t, 2, cfg.Autosave.Workers)
	assert.Equal(t, "UTC", cfg.Planner.Timezone)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DB_DRIVER", "SQLite")
	v.Set("AUTOSAVE_DELAY", "bogus")
	v.Set("PLANNER_SESSION_TTL", "5m")
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := fromViper(v)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 2*time.Second, cfg.Autosave.Delay)
	assert.Equal(t, 5*time.Minute, cfg.Planner.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		v := viper.New()
		setDefaults(v)
		return fromViper(v)
	}
	require.NoError(t, valid().Validate())

	cases := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"dev secret in production": {func(c *Config) { c.Env = EnvProduction }, "JWT_SECRET"},
		"unknown driver":           {func(c *Config) { c.Database.Driver = "oracle" }, "DB_DRIVER"},
		"sqlite without path":      {func(c *Config) { c.Database.Driver = DriverSQLite; c.Database.Path = "" }, "DB_PATH"},
		"bad timezone":             {func(c *Config) { c.Planner.Timezone = "Mars/Olympus" }, "PLANNER_TIMEZONE"},
		"bad sweep spec":           {func(c *Config) { c.Planner.SweepSpec = "sometimes" }, "PLANNER_SWEEP_SPEC"},
		"no workers":               {func(c *Config) { c.Autosave.Workers = 0 }, "AUTOSAVE_WORKERS"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
