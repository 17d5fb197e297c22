package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, 24*time.Hour, cfg.Redis.DescriptionTTL)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
env: prod
database_url: sqlite:data/hostprompt.db
auth:
  jwt_secret: from-file
ai:
  provider: gemini
  model: gemini-2.5-flash
  timeout: 30s
media:
  bucket: photos
  region: eu-north-1
`), 0o644))

	t.Setenv("APP_PORT", "9100")
	t.Setenv("S3_KEY_PREFIX", "/uploads/")
	t.Setenv("AI_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("AI_EDIT_MODEL", "gpt-4o-mini")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "sqlite:data/hostprompt.db", cfg.DatabaseURL)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 0.5, cfg.AI.RequestsPerSecond)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.EditModel)
	assert.Empty(t, cfg.AI.VoiceModel)
	assert.Equal(t, "uploads", cfg.Media.KeyPrefix)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.AI.Provider = "llama"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Env = "prod"
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}
