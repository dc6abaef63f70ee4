package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("OUTBOX_POLL_INTERVAL", "nonsense")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.test , ,https://b.test")
	t.Setenv("REPORT_CURRENCY", "")

	cfg := Load()
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CorsAllowedOrigins)
	assert.Equal(t, "", cfg.ReportCurrency)
}

func TestLoadReportCurrency(t *testing.T) {
	t.Setenv("REPORT_CURRENCY", " tzs ")

	cfg := Load()
	assert.Equal(t, "TZS", cfg.ReportCurrency)
}

func TestLoadPicksPostgresWhenDatabaseURLSet(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/opsboard")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.StoreDriver)
}

func TestLoadR2AccountEndpoint(t *testing.T) {
	t.Setenv("OBJECT_STORE_ENDPOINT", "")
	t.Setenv("R2_S3_ENDPOINT", "")
	t.Setenv("R2_ACCOUNT_ID", "abc123")

	cfg := Load()
	assert.Equal(t, "https://abc123.r2.cloudflarestorage.com", cfg.ObjectStoreEndpoint)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "missing secret", cfg: Config{StoreDriver: "memory"}, wantErr: true},
		{name: "memory in development", cfg: Config{JWTSecret: "s", StoreDriver: "memory", Env: "development"}},
		{name: "memory in production", cfg: Config{JWTSecret: "s", StoreDriver: "memory", Env: "production"}, wantErr: true},
		{name: "postgres without url", cfg: Config{JWTSecret: "s", StoreDriver: "postgres"}, wantErr: true},
		{name: "postgres", cfg: Config{JWTSecret: "s", StoreDriver: "postgres", DatabaseURL: "postgres://x"}},
		{name: "unknown driver", cfg: Config{JWTSecret: "s", StoreDriver: "mongo"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
