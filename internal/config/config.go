package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration values.
type Config struct {
	Port        string      `yaml:"port"`
	Env         string      `yaml:"env"`
	DatabaseURL string      `yaml:"database_url"`
	CORSOrigins []string    `yaml:"cors_origins"`
	StaticDir   string      `yaml:"static_dir"`
	Auth        AuthConfig  `yaml:"auth"`
	AI          AIConfig    `yaml:"ai"`
	Media       MediaConfig `yaml:"media"`
	Redis       RedisConfig `yaml:"redis"`
}

// AuthConfig controls session tokens.
type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	CookieName   string        `yaml:"cookie_name"`
	SecureCookie bool          `yaml:"secure_cookie"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

// AIConfig selects and configures the language-model providers.
type AIConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	VisionProvider    string        `yaml:"vision_provider"`
	VisionModel       string        `yaml:"vision_model"`
	EditModel         string        `yaml:"edit_model"`
	VoiceModel        string        `yaml:"voice_model"`
	OpenAIAPIKey      string        `yaml:"openai_api_key"`
	OpenAIBaseURL     string        `yaml:"openai_base_url"`
	GeminiAPIKey      string        `yaml:"gemini_api_key"`
	VertexProject     string        `yaml:"vertex_project"`
	VertexLocation    string        `yaml:"vertex_location"`
	CredentialsFile   string        `yaml:"credentials_file"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

// MediaConfig describes S3/media related configuration.
type MediaConfig struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PublicURL       string `yaml:"public_url"`
	KeyPrefix       string `yaml:"key_prefix"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	LocalDir        string `yaml:"local_dir"`
}

// RedisConfig points at the cache used for photo descriptions.
type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	Password       string        `yaml:"password"`
	DB             int           `yaml:"db"`
	DescriptionTTL time.Duration `yaml:"description_ttl"`
}

// Default returns the configuration used when nothing else is provided.
func Default() Config {
	return Config{
		Port:        "8080",
		Env:         "dev",
		CORSOrigins: []string{"http://localhost:5173"},
		StaticDir:   "web",
		Auth: AuthConfig{
			CookieName: "hostprompt_session",
			SessionTTL: 7 * 24 * time.Hour,
		},
		AI: AIConfig{
			Provider:          "openai",
			Model:             "gpt-4o",
			VisionModel:       "gpt-4o-mini",
			VertexLocation:    "us-central1",
			RequestsPerSecond: 2,
			Timeout:           60 * time.Second,
		},
		Redis: RedisConfig{
			DescriptionTTL: 24 * time.Hour,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file at path
// and environment variables, in that order of precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("port cannot be empty")
	}
	switch c.AI.Provider {
	case "", "openai", "gemini", "vertex":
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	if c.Env != "dev" && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required outside dev")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getenv("APP_PORT", cfg.Port)
	cfg.Env = getenv("APP_ENV", cfg.Env)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.StaticDir = getenv("STATIC_DIR", cfg.StaticDir)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}

	cfg.Auth.JWTSecret = getenv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.CookieName = getenv("SESSION_COOKIE", cfg.Auth.CookieName)
	cfg.Auth.SecureCookie = getenvBool("SESSION_SECURE", cfg.Auth.SecureCookie)
	cfg.Auth.SessionTTL = getenvDuration("SESSION_TTL", cfg.Auth.SessionTTL)

	cfg.AI.Provider = strings.ToLower(getenv("AI_PROVIDER", cfg.AI.Provider))
	cfg.AI.Model = getenv("AI_MODEL", cfg.AI.Model)
	cfg.AI.VisionProvider = strings.ToLower(getenv("AI_VISION_PROVIDER", cfg.AI.VisionProvider))
	cfg.AI.VisionModel = getenv("AI_VISION_MODEL", cfg.AI.VisionModel)
	cfg.AI.EditModel = getenv("AI_EDIT_MODEL", cfg.AI.EditModel)
	cfg.AI.VoiceModel = getenv("AI_VOICE_MODEL", cfg.AI.VoiceModel)
	cfg.AI.OpenAIAPIKey = getenv("OPENAI_API_KEY", cfg.AI.OpenAIAPIKey)
	cfg.AI.OpenAIBaseURL = getenv("OPENAI_BASE_URL", cfg.AI.OpenAIBaseURL)
	cfg.AI.GeminiAPIKey = getenv("GEMINI_API_KEY", cfg.AI.GeminiAPIKey)
	cfg.AI.VertexProject = getenv("VERTEX_PROJECT", cfg.AI.VertexProject)
	cfg.AI.VertexLocation = getenv("VERTEX_LOCATION", cfg.AI.VertexLocation)
	cfg.AI.CredentialsFile = getenv("GOOGLE_APPLICATION_CREDENTIALS", cfg.AI.CredentialsFile)
	cfg.AI.RequestsPerSecond = getenvFloat("AI_REQUESTS_PER_SECOND", cfg.AI.RequestsPerSecond)
	cfg.AI.Timeout = getenvDuration("AI_TIMEOUT", cfg.AI.Timeout)

	cfg.Media.Bucket = getenv("S3_BUCKET", cfg.Media.Bucket)
	cfg.Media.Region = getenv("S3_REGION", cfg.Media.Region)
	cfg.Media.Endpoint = getenv("S3_ENDPOINT", cfg.Media.Endpoint)
	cfg.Media.PublicURL = getenv("S3_PUBLIC_URL", cfg.Media.PublicURL)
	cfg.Media.KeyPrefix = strings.Trim(getenv("S3_KEY_PREFIX", cfg.Media.KeyPrefix), "/")
	cfg.Media.ForcePathStyle = getenvBool("S3_FORCE_PATH_STYLE", cfg.Media.ForcePathStyle)
	cfg.Media.AccessKeyID = getenv("S3_ACCESS_KEY_ID", cfg.Media.AccessKeyID)
	cfg.Media.SecretAccessKey = getenv("S3_SECRET_ACCESS_KEY", cfg.Media.SecretAccessKey)
	cfg.Media.LocalDir = getenv("MEDIA_LOCAL_DIR", cfg.Media.LocalDir)

	cfg.Redis.Addr = getenv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getenv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getenvInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.DescriptionTTL = getenvDuration("REDIS_DESCRIPTION_TTL", cfg.Redis.DescriptionTTL)
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func getenvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}

	return parsed
}

func getenvInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	parsed, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
