package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by SEED_BACKEND
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Targets identifies the collections and bucket the seeder writes to
type Targets struct {
	Categories         string
	Customizations     string
	Menu               string
	MenuCustomizations string
	Bucket             string
}

// Collections returns the collection IDs in the order they are validated
func (t Targets) Collections() []string {
	return []string{t.Categories, t.Customizations, t.Menu, t.MenuCustomizations}
}

// Config holds all configuration for the seeder and its trigger API
type Config struct {
	Environment Environment

	// Document backend
	Backend     string
	MongoURI    string
	DatabaseID  string
	DatabaseURL string
	SQLitePath  string

	Targets Targets

	// Storage
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UsePathStyle    bool
	S3PublicBaseURL   string

	// Optional run-report store
	RedisURL string

	// Trigger API
	ServerHost string
	ServerPort string
	JWTSecret  string

	// Browser origins allowed to call the trigger API
	CORSAllowedOrigins []string

	ImageFetchTimeout time.Duration
	FixturesPath      string
	RetryMaxAttempts  int
	RetryBaseDelay    time.Duration
}

// LoadConfig reads .env (if present), the environment and Docker secrets, then
// validates the result
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: GetEnvironment(),
		Backend:     strings.ToLower(getEnv("SEED_BACKEND", BackendMongo)),
		MongoURI:    getSecret("MONGO_URI", "mongo_uri", "mongodb://localhost:27017"),
		DatabaseID:  getEnv("DATABASE_ID", "foodseed"),
		DatabaseURL: getSecret("DATABASE_URL", "database_url", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "foodseed.db"),
		Targets: Targets{
			Categories:         getEnv("CATEGORIES_COLLECTION_ID", "categories"),
			Customizations:     getEnv("CUSTOMIZATIONS_COLLECTION_ID", "customizations"),
			Menu:               getEnv("MENU_COLLECTION_ID", "menu"),
			MenuCustomizations: getEnv("MENU_CUSTOMIZATIONS_COLLECTION_ID", "menu_customizations"),
			Bucket:             getEnv("BUCKET_ID", "assets"),
		},
		S3Region:          getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     getSecret("S3_ACCESS_KEY_ID", "s3_access_key_id", ""),
		S3SecretAccessKey: getSecret("S3_SECRET_ACCESS_KEY", "s3_secret_access_key", ""),
		S3PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		RedisURL:          getSecret("REDIS_URL", "redis_url", ""),
		ServerHost:        getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		JWTSecret:         getSecret("JWT_SECRET", "jwt_secret", ""),
		FixturesPath:      getEnv("SEED_FIXTURES", ""),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}

	var err error
	if cfg.S3UsePathStyle, err = getBool("S3_USE_PATH_STYLE", false); err != nil {
		return nil, err
	}
	if cfg.ImageFetchTimeout, err = getDuration("IMAGE_FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryBaseDelay, err = getDuration("RETRY_BASE_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.RetryMaxAttempts, err = getInt("RETRY_MAX_ATTEMPTS", 3); err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// getList splits a comma separated variable, dropping empty entries
func getList(key string, def []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getSecret prefers the environment variable and falls back to a Docker secret
func getSecret(key, secret, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	if v := readSecret(secret); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, ValidationError{Field: key, Message: fmt.Sprintf("invalid boolean %q", v)}
	}
	return b, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("invalid integer %q", v)}
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("invalid duration %q", v)}
	}
	return d, nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
