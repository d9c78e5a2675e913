package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("AUTHOR_API_KEYS", "")
	t.Setenv("ALLOW_ORIGINS", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("PUBLIC_BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "http://localhost:8080", cfg.Server.PublicBaseURL)
	assert.Equal(t, 24*time.Hour, cfg.Render.ExportMaxAge)
	assert.Empty(t, cfg.Auth.APIKeys)
	assert.Contains(t, cfg.Server.AllowOrigins, "http://localhost:3000")
}

func TestLoadParsesAPIKeysAndOrigins(t *testing.T) {
	t.Setenv("AUTHOR_API_KEYS", "alpha-key:owner-1, beta-key:owner-2")
	t.Setenv("ALLOW_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("DB_DRIVER", "SQLite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"alpha-key": "owner-1", "beta-key": "owner-2"}, cfg.Auth.APIKeys)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadRejectsMalformedAPIKeys(t *testing.T) {
	t.Setenv("AUTHOR_API_KEYS", "no-owner-here")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSNUnixSocket(t *testing.T) {
	d := DatabaseConfig{Host: "/cloudsql/project:region:instance", User: "app", Password: "pw", DBName: "df"}
	assert.Equal(t, "app:pw@unix(/cloudsql/project:region:instance)/df?charset=utf8mb4&parseTime=True&loc=UTC", d.DSN())

	d = DatabaseConfig{Host: "db", Port: "3306", User: "app", Password: "pw", DBName: "df"}
	assert.Equal(t, "app:pw@tcp(db:3306)/df?charset=utf8mb4&parseTime=True&loc=UTC", d.DSN())
}
