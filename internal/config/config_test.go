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

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "door_leads", cfg.Store.MongoDatabase)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 10, cfg.Intake.RatePerMinute)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.False(t, cfg.Mail.Enabled())
	assert.False(t, cfg.App.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://leads@localhost/leads?sslmode=disable")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("INTAKE_RATE_PER_MINUTE", "30")
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("NOTIFY_EMAIL_TO", "sales@doors.example, owner@doors.example ,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://doors.example,https://admin.doors.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 750*time.Millisecond, cfg.Store.Timeout)
	assert.Equal(t, 30, cfg.Intake.RatePerMinute)
	assert.True(t, cfg.Mail.Enabled())
	assert.Equal(t, []string{"sales@doors.example", "owner@doors.example"}, cfg.Mail.NotifyTo)
	assert.Len(t, cfg.HTTP.CORSAllowedOrigins, 2)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORE_DRIVER": "dynamo"}},
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres"}},
		{"zero timeout", map[string]string{"STORE_TIMEOUT": "0s"}},
		{"zero rate", map[string]string{"INTAKE_RATE_PER_MINUTE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
