package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"en", "ar"}, cfg.Languages)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 0, cfg.PageOrphans)
	assert.Equal(t, "memory", cfg.LiveBackend)
	assert.False(t, cfg.TranslationEnabled())
	assert.False(t, cfg.SMSEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9000")
	t.Setenv("LANGUAGES", "en,fr")
	t.Setenv("DEFAULT_LANGUAGE", "fr")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "news")
	t.Setenv("HF_TOKEN", "hf_x")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"en", "fr"}, cfg.Languages)
	assert.Equal(t, "db", cfg.DB.Host)
	assert.Contains(t, cfg.DB.DSN(), "dbname=news")
	assert.True(t, cfg.TranslationEnabled())
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing secret",
			env:  map[string]string{"JWT_SECRET": ""},
			want: "JWT_SECRET is required",
		},
		{
			name: "default language not listed",
			env:  map[string]string{"JWT_SECRET": "s", "DEFAULT_LANGUAGE": "de"},
			want: "DEFAULT_LANGUAGE",
		},
		{
			name: "bad page size",
			env:  map[string]string{"JWT_SECRET": "s", "PAGE_SIZE": "0"},
			want: "PAGE_SIZE",
		},
		{
			name: "unknown live backend",
			env:  map[string]string{"JWT_SECRET": "s", "LIVE_BACKEND": "kafka"},
			want: "LIVE_BACKEND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
