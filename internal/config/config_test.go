package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "http://localhost:3000", cfg.Server.BasePublicURL)
	assert.Equal(t, StorageDriverPostgres, cfg.Database.Driver)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Hour, cfg.Redis.CacheTTL)
	assert.Equal(t, "photobooth", cfg.Cloudinary.Folder)
	assert.Equal(t, 15*time.Second, cfg.Reel.NetworkTimeout)
	assert.Equal(t, 5, cfg.Reel.SlugMaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("BASE_PUBLIC_URL", "https://booth.example/")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REEL_NETWORK_TIMEOUT", "3s")
	t.Setenv("SLUG_MAX_ATTEMPTS", "9")
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("EMAIL_PROVIDER", "relay")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://booth.example", cfg.Server.BasePublicURL)
	assert.Equal(t, StorageDriverMemory, cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 3*time.Second, cfg.Reel.NetworkTimeout)
	assert.Equal(t, 9, cfg.Reel.SlugMaxAttempts)
	assert.Equal(t, EmailProviderRelay, cfg.Email.Provider)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing cloud name", env: map[string]string{}},
		{name: "unknown driver", env: map[string]string{"CLOUDINARY_CLOUD_NAME": "demo", "STORAGE_DRIVER": "mongo"}},
		{name: "zero attempts", env: map[string]string{"CLOUDINARY_CLOUD_NAME": "demo", "SLUG_MAX_ATTEMPTS": "0"}},
		{name: "unknown email provider", env: map[string]string{"CLOUDINARY_CLOUD_NAME": "demo", "EMAIL_ENABLED": "true", "EMAIL_PROVIDER": "pigeon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CLOUDINARY_CLOUD_NAME", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDSNAndAddr(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", db.DSN())

	r := RedisConfig{Host: "cache", Port: "6379"}
	assert.Equal(t, "cache:6379", r.Addr())
}
