package service

import (
	"context"

	"github.com/pageza/foodseed/backend/internal/fixtures"
	"github.com/pageza/foodseed/backend/internal/types"
)

// ImageMirror copies an external image into the asset bucket. It never
// fails: on any problem it hands back the source URL.
type ImageMirror interface {
	MirrorImage(ctx context.Context, sourceURL, label string) string
}

// ISeedService defines the interface for running a full seed
type ISeedService interface {
	Run(ctx context.Context, set *fixtures.Set) (*types.SeedSummary, error)
}

// ITokenService defines the interface for operator token handling
type ITokenService interface {
	GenerateToken(subject string, role string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}
