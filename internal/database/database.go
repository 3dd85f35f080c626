package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pageza/foodseed/backend/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the relational backend selected in cfg and applies the
// document tables
func Open(cfg *config.Config, log *zap.SugaredLogger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err = OpenPostgres(cfg.DatabaseURL)
	case config.BackendSQLite:
		db, err = OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("backend %q is not relational", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if err := migrateOrClose(db, RunMigrations); err != nil {
		return nil, err
	}

	log.Infow("connected to relational document backend", "backend", cfg.Backend)
	return db, nil
}

// migrateOrClose applies migrate and releases the connection pool when it fails
func migrateOrClose(db *gorm.DB, migrate func(*gorm.DB) error) error {
	if err := migrate(db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return err
	}
	return nil
}

// OpenPostgres opens a lib/pq connection pool and hands it to gorm
func OpenPostgres(dsn string) (*gorm.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing gorm: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a sqlite database file. A single connection serializes
// writes, including the concurrent deletes of a clear.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// HealthCheck checks if the database is accessible
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
