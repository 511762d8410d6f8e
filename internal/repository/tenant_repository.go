package repository

import (
	"context"
	"errors"
	"regexp"

	"github.com/zarchive/ticket-gateway/internal/models"
)

// ErrTenantNotFound is returned by tenant stores on a miss. Callers map it
// to a generic not-found response that does not reveal which tenants exist.
var ErrTenantNotFound = errors.New("tenant not found")

// TenantStore is the single-key lookup contract every backend satisfies.
type TenantStore interface {
	Get(ctx context.Context, brandID string) (*models.TenantConfig, error)
}

// brandKeyPattern bounds brand ids used as file names or redis key parts.
var brandKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func validBrandKey(brandID string) bool {
	return brandKeyPattern.MatchString(brandID)
}
