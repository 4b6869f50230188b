package config

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_NAME", "JWT_EXPIRE_HOURS", "ALERT_CHECK_CRON", "GEMINI_API_KEY", "CORS_ALLOWED_ORIGINS", "METRICS_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "ammotrack", cfg.DBName)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry())
	assert.Equal(t, "@every 5m", cfg.AlertCheckCron)
	assert.False(t, cfg.AIEnabled())
	assert.Nil(t, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "-1")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,http://localhost:3000")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 7, cfg.DBMaxOpenConns)
	assert.Equal(t, 5, cfg.DBMaxIdleConns, "non-positive values fall back to default")
	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, []string{"https://a.example", "http://localhost:3000"}, cfg.CORSAllowedOrigins)
}

func TestLoad_MetricsEnabled(t *testing.T) {
	cases := map[string]bool{"false": false, "0": false, "true": true, "nonsense": true}
	for v, want := range cases {
		t.Run(v, func(t *testing.T) {
			t.Setenv("METRICS_ENABLED", v)
			assert.Equal(t, want, Load().MetricsEnabled)
		})
	}
}

func TestValidate(t *testing.T) {
	ok := Config{Env: "prod", JWTSecret: "long-random", LogFormat: "json"}
	require.NoError(t, ok.Validate())

	bad := Config{Env: "prod", JWTSecret: DefaultJWTSecret, LogFormat: "xml", TLSCertFile: "cert.pem"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "TLS_KEY_FILE")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestDatabaseURL(t *testing.T) {
	cfg := Config{DBUser: "u", DBPass: "p", DBHost: "h", DBPort: "5432", DBName: "d"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.DatabaseURL())
}

func TestDatabaseURL_EscapesCredentials(t *testing.T) {
	cfg := Config{DBUser: "app user", DBPass: "p@ss:w/rd?", DBHost: "db.internal", DBPort: "6432", DBName: "ammo"}

	u, err := url.Parse(cfg.DatabaseURL())
	require.NoError(t, err)
	assert.Equal(t, "db.internal:6432", u.Host)
	assert.Equal(t, "/ammo", u.Path)
	assert.Equal(t, "app user", u.User.Username())
	pass, ok := u.User.Password()
	require.True(t, ok)
	assert.Equal(t, "p@ss:w/rd?", pass)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}
