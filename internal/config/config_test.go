package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 168*time.Hour, cfg.Auth.JWTTTL)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTTL)
	assert.Equal(t, EngineNative, cfg.Render.Engine)
	assert.Contains(t, cfg.App.CORSOrigins, "http://localhost:5173")
	assert.Equal(t, "130,\nUniversity Drive,\nCallaghan", cfg.Brand.Address)
	assert.False(t, cfg.Mail.Enabled())
}

func TestLoadMissingDSNIsFatal(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "DATABASE_DSN"), err.Error())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://x"},
			Auth:     AuthConfig{JWTSecret: "s", JWTTTL: time.Hour, ResetTTL: time.Hour},
			Render:   RenderConfig{Engine: EngineNative},
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Database.Driver = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "unknown STORE_DRIVER")

	cfg = base()
	cfg.App.Env = "production"
	cfg.Auth.JWTSecret = devJWTSecret
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET must be set")

	cfg = base()
	cfg.Render.Engine = "wkhtmltopdf"
	assert.ErrorContains(t, cfg.Validate(), "RENDER_ENGINE")
}

func TestCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSOrigins)
}
