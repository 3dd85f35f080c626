package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pageza/foodseed/backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func unreachableStorageConfig(t *testing.T) *config.Config {
	return &config.Config{
		Backend:           config.BackendSQLite,
		SQLitePath:        filepath.Join(t.TempDir(), "seed.db"),
		S3Region:          "us-east-1",
		S3Endpoint:        "http://127.0.0.1:1",
		S3AccessKeyID:     "minio",
		S3SecretAccessKey: "minio123",
		S3UsePathStyle:    true,
		Targets: config.Targets{
			Categories:         "categories",
			Customizations:     "customizations",
			Menu:               "menu",
			MenuCustomizations: "menu_customizations",
			Bucket:             "assets",
		},
		RetryMaxAttempts:  1,
		RetryBaseDelay:    time.Millisecond,
		ImageFetchTimeout: time.Second,
	}
}

func TestRunReturnsProvisioningFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summary, err := run(ctx, unreachableStorageConfig(t), options{provision: true}, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provisioning failed")
	assert.Nil(t, summary)
}

func TestRunReturnsFixtureLoadFailure(t *testing.T) {
	cfg := unreachableStorageConfig(t)
	missing := filepath.Join(t.TempDir(), "missing.json")

	summary, err := run(context.Background(), cfg, options{fixturesPath: missing}, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load fixtures")
	assert.Nil(t, summary)
}

func TestRunFailsAtValidateWithoutProvisioning(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summary, err := run(ctx, unreachableStorageConfig(t), options{}, zap.NewNop().Sugar())
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "validate", string(summary.Stage))
}
