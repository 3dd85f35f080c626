package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks the settings every seed run needs
func ValidateConfig(cfg *Config) error {
	var errs []error

	switch cfg.Backend {
	case BackendMongo:
		if cfg.MongoURI == "" {
			errs = append(errs, ValidationError{Field: "MONGO_URI", Message: "required for the mongo backend"})
		}
		if cfg.DatabaseID == "" {
			errs = append(errs, ValidationError{Field: "DATABASE_ID", Message: "required for the mongo backend"})
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, ValidationError{Field: "DATABASE_URL", Message: "required for the postgres backend"})
		}
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{Field: "SQLITE_PATH", Message: "required for the sqlite backend"})
		}
	default:
		errs = append(errs, ValidationError{Field: "SEED_BACKEND", Message: fmt.Sprintf("unknown backend %q", cfg.Backend)})
	}

	targets := []struct{ field, value string }{
		{"CATEGORIES_COLLECTION_ID", cfg.Targets.Categories},
		{"CUSTOMIZATIONS_COLLECTION_ID", cfg.Targets.Customizations},
		{"MENU_COLLECTION_ID", cfg.Targets.Menu},
		{"MENU_CUSTOMIZATIONS_COLLECTION_ID", cfg.Targets.MenuCustomizations},
		{"BUCKET_ID", cfg.Targets.Bucket},
	}
	for _, t := range targets {
		if t.value == "" {
			errs = append(errs, ValidationError{Field: t.field, Message: "must not be empty"})
		}
	}

	if cfg.RetryMaxAttempts < 1 {
		errs = append(errs, ValidationError{Field: "RETRY_MAX_ATTEMPTS", Message: "must be at least 1"})
	}
	if cfg.RetryBaseDelay < 0 {
		errs = append(errs, ValidationError{Field: "RETRY_BASE_DELAY", Message: "must not be negative"})
	}
	if (cfg.S3AccessKeyID == "") != (cfg.S3SecretAccessKey == "") {
		errs = append(errs, ValidationError{Field: "S3_ACCESS_KEY_ID", Message: "access key and secret must be set together"})
	}

	return errors.Join(errs...)
}

// ValidateServerConfig checks the extra settings the trigger API needs
func ValidateServerConfig(cfg *Config) error {
	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.ServerPort == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("server configuration incomplete: %s", strings.Join(missing, ", "))
	}
	return nil
}
