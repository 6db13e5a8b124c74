package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// App holds the runtime configuration. Values come from built-in defaults,
// then an optional YAML file named by CONFIG_FILE, then environment variables.
type App struct {
	Env      string `yaml:"env"`
	Port     string `yaml:"port"`
	LogMode  string `yaml:"log_mode"`
	LogLevel string `yaml:"log_level"`

	DataDir     string `yaml:"data_dir"`
	StoreEngine string `yaml:"store_engine"`
	StoreDSN    string `yaml:"store_dsn"`

	AssociationName     string `yaml:"association_name"`
	LogoURL             string `yaml:"logo_url"`
	LogoFallbackDataURL string `yaml:"logo_fallback_data_url"`
	ShareBaseURL        string `yaml:"share_base_url"`
	OutputDir           string `yaml:"output_dir"`
	DefaultTemplate     string `yaml:"default_template"`

	Capture Capture `yaml:"capture"`

	JWTSigningKey string        `yaml:"jwt_signing_key"`
	JWTIssuer     string        `yaml:"jwt_issuer"`
	AccessTTL     time.Duration `yaml:"access_ttl"`

	CloudinaryCloudName string `yaml:"cloudinary_cloud_name"`
	CloudinaryAPIKey    string `yaml:"cloudinary_api_key"`
	CloudinaryAPISecret string `yaml:"cloudinary_api_secret"`
	CloudinaryFolder    string `yaml:"cloudinary_folder"`

	CORSOrigins []string `yaml:"cors_origins"`
}

// Capture tunes the card capture pipeline. The timeouts were picked
// empirically and are expected to be adjusted per deployment.
type Capture struct {
	AssetTimeout   time.Duration `yaml:"asset_timeout"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	BackoffUnit    time.Duration `yaml:"backoff_unit"`
	MaxAttempts    int           `yaml:"max_attempts"`
	MaxScale       float64       `yaml:"max_scale"`
	JPEGQuality    int           `yaml:"jpeg_quality"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
}

func Defaults() App {
	return App{
		Env:             "dev",
		Port:            "8080",
		LogMode:         "dev",
		DataDir:         "data",
		StoreEngine:     "json",
		StoreDSN:        "data/students.json",
		AssociationName: "Computer Science Students' Association",
		OutputDir:       "out",
		DefaultTemplate: "premium",
		Capture: Capture{
			AssetTimeout:   3 * time.Second,
			AttemptTimeout: 60 * time.Second,
			BackoffUnit:    2 * time.Second,
			MaxAttempts:    3,
			MaxScale:       4,
			JPEGQuality:    92,
			FetchTimeout:   10 * time.Second,
		},
		JWTIssuer:   "potw-cards",
		AccessTTL:   30 * time.Minute,
		CORSOrigins: []string{"*"},
	}
}

// Load returns the application config. A broken CONFIG_FILE is fatal to
// startup; malformed individual env values fall back with a log line.
func Load() (App, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return App{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *App) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *App) {
	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogMode = getEnv("LOG_MODE", cfg.LogMode)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.StoreEngine = getEnv("STORE_ENGINE", cfg.StoreEngine)
	cfg.StoreDSN = getEnv("STORE_DSN", cfg.StoreDSN)
	cfg.AssociationName = getEnv("ASSOCIATION_NAME", cfg.AssociationName)
	cfg.LogoURL = getEnv("LOGO_URL", cfg.LogoURL)
	cfg.LogoFallbackDataURL = getEnv("LOGO_FALLBACK_DATA_URL", cfg.LogoFallbackDataURL)
	cfg.ShareBaseURL = getEnv("SHARE_BASE_URL", cfg.ShareBaseURL)
	cfg.OutputDir = getEnv("OUTPUT_DIR", cfg.OutputDir)
	cfg.DefaultTemplate = getEnv("DEFAULT_TEMPLATE", cfg.DefaultTemplate)

	cfg.Capture.AssetTimeout = durationEnv("ASSET_TIMEOUT", cfg.Capture.AssetTimeout)
	cfg.Capture.AttemptTimeout = durationEnv("ATTEMPT_TIMEOUT", cfg.Capture.AttemptTimeout)
	cfg.Capture.BackoffUnit = durationEnv("BACKOFF_UNIT", cfg.Capture.BackoffUnit)
	cfg.Capture.MaxAttempts = intEnv("MAX_ATTEMPTS", cfg.Capture.MaxAttempts)
	cfg.Capture.MaxScale = floatEnv("MAX_SCALE", cfg.Capture.MaxScale)
	cfg.Capture.JPEGQuality = intEnv("JPEG_QUALITY", cfg.Capture.JPEGQuality)
	cfg.Capture.FetchTimeout = durationEnv("FETCH_TIMEOUT", cfg.Capture.FetchTimeout)

	cfg.JWTSigningKey = getEnv("JWT_SIGNING_KEY", cfg.JWTSigningKey)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)
	cfg.AccessTTL = durationEnv("ACCESS_TTL", cfg.AccessTTL)

	cfg.CloudinaryCloudName = getEnv("CLOUDINARY_CLOUD_NAME", cfg.CloudinaryCloudName)
	cfg.CloudinaryAPIKey = getEnv("CLOUDINARY_API_KEY", cfg.CloudinaryAPIKey)
	cfg.CloudinaryAPISecret = getEnv("CLOUDINARY_API_SECRET", cfg.CloudinaryAPISecret)
	cfg.CloudinaryFolder = getEnv("CLOUDINARY_FOLDER", cfg.CloudinaryFolder)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
}

// Validate rejects settings the capture pipeline cannot run with.
func (c App) Validate() error {
	if c.Capture.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1, got %d", c.Capture.MaxAttempts)
	}
	if c.Capture.MaxScale < 1 {
		return fmt.Errorf("max_scale must be >= 1, got %v", c.Capture.MaxScale)
	}
	if c.Capture.JPEGQuality < 1 || c.Capture.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be in 1..100, got %d", c.Capture.JPEGQuality)
	}
	if c.Capture.AssetTimeout <= 0 || c.Capture.AttemptTimeout <= 0 {
		return fmt.Errorf("capture timeouts must be positive")
	}
	return nil
}

func (c App) CloudinaryConfigured() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func (c App) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

func floatEnv(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		var parsed float64
		if _, err := fmt.Sscanf(val, "%g", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid number for %s, using fallback %v", key, fallback)
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
