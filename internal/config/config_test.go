package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/aparthus-be/internal/models"
)

func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, key := range []string{
		"PORT", "STORAGE_DRIVER", "MONGODB_URI", "MONGODB_DATABASE", "DATABASE_URL",
		"JWT_SECRET", "JWT_ISSUER", "JWT_TTL_MINUTES", "CORS_ALLOWED_ORIGINS",
		"ADMIN_USERNAME", "ADMIN_PASSWORD", "RESIDENT_USERNAME", "RESIDENT_PASSWORD",
		"SECURITY_USERNAME", "SECURITY_PASSWORD", "LOGIN_RATE_PER_MINUTE",
		"DUES_REMINDER_INTERVAL", "SEED_FILE",
	} {
		t.Setenv(key, "")
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "memory"})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":5001", cfg.HTTPAddress())
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, "aparthus", cfg.MongoDatabase)
	assert.Equal(t, 60*time.Minute, cfg.JWTTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
	assert.Equal(t, 24*time.Hour, cfg.DuesReminderInterval)
	assert.Empty(t, cfg.StaticAccounts)
}

func TestLoadDriverSelection(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    string
		wantErr bool
	}{
		{name: "mongo preferred", env: map[string]string{"MONGODB_URI": "mongodb://x", "DATABASE_URL": "postgres://x"}, want: DriverMongo},
		{name: "postgres fallback", env: map[string]string{"DATABASE_URL": "postgres://x"}, want: DriverPostgres},
		{name: "explicit postgres", env: map[string]string{"STORAGE_DRIVER": "postgres", "MONGODB_URI": "mongodb://x", "DATABASE_URL": "postgres://x"}, want: DriverPostgres},
		{name: "nothing configured", env: map[string]string{}, wantErr: true},
		{name: "mongo without uri", env: map[string]string{"STORAGE_DRIVER": "mongo"}, wantErr: true},
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "sqlite"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{"JWT_SECRET": "s"}
			for k, v := range tt.env {
				env[k] = v
			}
			setEnv(t, env)
			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.StorageDriver)
		})
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	setEnv(t, map[string]string{"STORAGE_DRIVER": "memory"})
	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoadStaticAccounts(t *testing.T) {
	setEnv(t, map[string]string{
		"JWT_SECRET":        "s",
		"STORAGE_DRIVER":    "memory",
		"ADMIN_USERNAME":    "admin",
		"ADMIN_PASSWORD":    "adminpass",
		"SECURITY_USERNAME": "guard",
	})
	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.StaticAccounts, 1)
	assert.Equal(t, models.RoleAdmin, cfg.StaticAccounts[0].Role)
}

func TestLoadIntervals(t *testing.T) {
	setEnv(t, map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "memory", "DUES_REMINDER_INTERVAL": "0", "JWT_TTL_MINUTES": "-5"})
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.DuesReminderInterval)
	assert.Equal(t, 60*time.Minute, cfg.JWTTTL)

	setEnv(t, map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "memory", "DUES_REMINDER_INTERVAL": "soon"})
	_, err = Load()
	assert.Error(t, err)
}

func TestParseCSV(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, parseCSV(" http://a, ,http://b "))
	assert.Equal(t, []string{"*"}, parseCSV(" , "))
}
