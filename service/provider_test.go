package services

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/stretchr/testify/assert"
)

func TestRetryHint(t *testing.T) {
	t.Run("Retry-After Header Wins", func(t *testing.T) {
		header := http.Header{"Retry-After": []string{"7"}}
		body := []byte(`{"error":{"message":"try again in 2s"}}`)
		assert.Equal(t, 7*time.Second, retryHint(header, body))
	})

	t.Run("Body Hint Rounded Up", func(t *testing.T) {
		body := []byte(`{"error":{"message":"Rate limit reached. Please try again in 7.66s."}}`)
		assert.Equal(t, 8*time.Second, retryHint(http.Header{}, body))
	})

	t.Run("Whole Second Body Hint", func(t *testing.T) {
		body := []byte("try again in 3s")
		assert.Equal(t, 3*time.Second, retryHint(http.Header{}, body))
	})

	t.Run("Default When No Hint", func(t *testing.T) {
		assert.Equal(t, defaultRetryDelay, retryHint(http.Header{}, []byte("slow down")))
	})

	t.Run("Malformed Header Falls Back To Body", func(t *testing.T) {
		header := http.Header{"Retry-After": []string{"soon"}}
		body := []byte("try again in 4s")
		assert.Equal(t, 4*time.Second, retryHint(header, body))
	})
}

func TestLoadProviderConfig(t *testing.T) {
	t.Run("Defaults When Env Empty", func(t *testing.T) {
		patches := gomonkey.ApplyFunc(os.Getenv, func(key string) string {
			return ""
		})
		defer patches.Reset()

		cfg := LoadProviderConfig()
		assert.False(t, cfg.Configured())
		assert.Equal(t, defaultEndpoint, cfg.Endpoint)
		assert.Equal(t, defaultModel, cfg.Model)
		assert.Equal(t, defaultFallbackModel, cfg.FallbackModel)
		assert.False(t, cfg.SurfaceErrors)
	})

	t.Run("Env Overrides", func(t *testing.T) {
		env := map[string]string{
			"GROQ_API_KEY":            "sk-test",
			"GROQ_API_URL":            "http://localhost:9999/v1/chat/completions",
			"GROQ_MODEL":              "custom-model",
			"GROQ_FALLBACK_MODEL":     "custom-backup",
			"SURFACE_UPSTREAM_ERRORS": "true",
		}
		patches := gomonkey.ApplyFunc(os.Getenv, func(key string) string {
			return env[key]
		})
		defer patches.Reset()

		cfg := LoadProviderConfig()
		assert.True(t, cfg.Configured())
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, "http://localhost:9999/v1/chat/completions", cfg.Endpoint)
		assert.Equal(t, "custom-model", cfg.Model)
		assert.Equal(t, "custom-backup", cfg.FallbackModel)
		assert.True(t, cfg.SurfaceErrors)
	})
}
