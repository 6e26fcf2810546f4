package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "https://randomuser.me/api/", cfg.Source.BaseURL)
	assert.Equal(t, 5, cfg.Source.PageSize)
	assert.Equal(t, "torodev", cfg.Source.Seed)
	assert.Equal(t, 2, cfg.Source.MaxPage)
	assert.Equal(t, 10*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "userdir:page:", cfg.Cache.Prefix)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.Empty(t, cfg.Database.URL)
	assert.Zero(t, cfg.Deletion.FailureRate)
	assert.Equal(t, 10*time.Second, cfg.Deletion.Timeout)
	assert.Equal(t, language.English, cfg.LocaleTag())
	assert.True(t, cfg.IsDevelopment())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("RANDOMUSER_PAGE_SIZE", "20")
	t.Setenv("RANDOMUSER_MAX_PAGE", "3")
	t.Setenv("PAGE_CACHE_TTL", "30s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DELETION_FAILURE_RATE", "0.25")
	t.Setenv("VIEW_LOCALE", "es")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, https://example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Source.PageSize)
	assert.Equal(t, 3, cfg.Source.MaxPage)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.Equal(t, 0.25, cfg.Deletion.FailureRate)
	assert.Equal(t, language.Spanish, cfg.LocaleTag())
	assert.Equal(t, []string{"http://localhost:5173", "https://example.com"}, cfg.Server.AllowedOrigins)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("RANDOMUSER_PAGE_SIZE", "many")
	t.Setenv("PAGE_CACHE_TTL", "soon")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Source.PageSize)
	assert.Equal(t, 10*time.Second, cfg.Cache.TTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"page size too small", map[string]string{"RANDOMUSER_PAGE_SIZE": "0"}, "RANDOMUSER_PAGE_SIZE"},
		{"page size too large", map[string]string{"RANDOMUSER_PAGE_SIZE": "5001"}, "RANDOMUSER_PAGE_SIZE"},
		{"max page", map[string]string{"RANDOMUSER_MAX_PAGE": "0"}, "RANDOMUSER_MAX_PAGE"},
		{"relative base url", map[string]string{"RANDOMUSER_BASE_URL": "/api/"}, "RANDOMUSER_BASE_URL"},
		{"failure rate", map[string]string{"DELETION_FAILURE_RATE": "1.5"}, "DELETION_FAILURE_RATE"},
		{"locale", map[string]string{"VIEW_LOCALE": "not_a-locale!"}, "VIEW_LOCALE"},
		{"production needs origins", map[string]string{"APP_ENV": "production"}, "ALLOWED_ORIGINS"},
		{"idle above open", map[string]string{"DB_MAX_IDLE_CONNS": "20", "DB_MAX_OPEN_CONNS": "5"}, "DB_MAX_IDLE_CONNS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestString_RedactsSecrets(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: "postgres://user:secret@db:5432/app"},
		Cache:    CacheConfig{RedisURL: "redis://:hunter2@cache:6379/0"},
	}

	s := cfg.String()
	assert.NotContains(t, s, "secret")
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "@db:5432/app")
}
