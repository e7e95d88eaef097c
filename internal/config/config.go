package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Image store backends.
const (
	ImageStoreNone       = "none"
	ImageStoreCloudinary = "cloudinary"
	ImageStoreS3         = "s3"
)

// Config is the API server configuration, read from the environment.
type Config struct {
	MongoURI    string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017/ediary"`
	PostgresURI string `envconfig:"POSTGRES_URI" default:"postgres://localhost:5432/ediary?sslmode=disable"`
	RedisURI    string `envconfig:"REDIS_URI" default:"redis://localhost:6379/0"`

	JWTSecret     string        `envconfig:"JWT_SECRET" default:"your-secret-key-change-in-production"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"360h"`
	EncryptionKey string        `envconfig:"ENCRYPTION_KEY"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	Port        string `envconfig:"PORT" default:"8080"`
	Host        string `envconfig:"HOST" default:"http://localhost:8080"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s); derived in Load.
	RawAllowedOrigins string   `envconfig:"ALLOWED_ORIGINS"`
	FrontendURL       string   `envconfig:"FRONTEND_URL" default:"http://localhost:8081"`
	FrontendURL2      string   `envconfig:"FRONTEND_URL_2"`
	AllowedOrigins    []string `ignored:"true"`
	AllowedHost       string   `ignored:"true"` // hostname only, production only

	ImageStore          string `envconfig:"IMAGE_STORE" default:"cloudinary"`
	CloudinaryName      string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `envconfig:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `envconfig:"CLOUDINARY_FOLDER" default:"ediary"`
	S3Bucket            string `envconfig:"S3_BUCKET"`
	S3Region            string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint          string `envconfig:"S3_ENDPOINT"`
	S3PublicBaseURL     string `envconfig:"S3_PUBLIC_BASE_URL"`
	S3AccessKey         string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey         string `envconfig:"S3_SECRET_KEY"`
}

// Load reads .env when present, then decodes the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.ImageStore = strings.ToLower(strings.TrimSpace(cfg.ImageStore))

	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("config: TOKEN_TTL must be positive")
	}
	switch cfg.ImageStore {
	case ImageStoreNone, ImageStoreCloudinary, ImageStoreS3:
	default:
		return nil, fmt.Errorf("config: unsupported IMAGE_STORE %q", cfg.ImageStore)
	}

	if cfg.IsProduction() {
		cfg.AllowedHost = hostname(cfg.Host)
	}
	cfg.AllowedOrigins = deriveOrigins(cfg.RawAllowedOrigins, cfg.Host, cfg.FrontendURL, cfg.FrontendURL2)
	return &cfg, nil
}

// deriveOrigins resolves the CORS allow list. An explicit list wins over the
// frontend URLs; a non-local backend host also admits its apex and www origins.
func deriveOrigins(explicit, host string, frontends ...string) []string {
	origins := parseOrigins(explicit)
	if len(origins) == 0 {
		for _, u := range frontends {
			if u = strings.TrimSpace(u); u != "" {
				origins = append(origins, u)
			}
		}
	}

	h := hostname(host)
	if h != "" && h != "localhost" {
		if parts := strings.Split(h, "."); len(parts) > 2 {
			domain := strings.Join(parts[1:], ".")
			for _, origin := range []string{"https://" + domain, "https://www." + domain} {
				if !containsOrigin(origins, origin) {
					origins = append(origins, origin)
				}
			}
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:8081"}
	}
	return origins
}

// hostname strips scheme, path and port from a URL-ish host string.
func hostname(host string) string {
	h := strings.TrimSpace(host)
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func parseOrigins(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(o)) {
			return true
		}
	}
	return false
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
