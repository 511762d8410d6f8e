package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zarchive/ticket-gateway/internal/models"
)

// FileTenantStore reads per-brand YAML files from a directory, one file per
// brand id. Files are read on every lookup; the store caches nothing.
type FileTenantStore struct {
	dir string
}

// NewFileTenantStore validates the directory exists and returns the store.
func NewFileTenantStore(dir string) (*FileTenantStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("tenant store directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("tenant store path %s is not a directory", dir)
	}
	return &FileTenantStore{dir: dir}, nil
}

// Get loads and decodes the tenant file for brandID. An id that could walk
// out of the directory is treated as a miss.
func (s *FileTenantStore) Get(ctx context.Context, brandID string) (*models.TenantConfig, error) {
	if !validBrandKey(brandID) {
		return nil, ErrTenantNotFound
	}

	data, err := os.ReadFile(filepath.Join(s.dir, brandID+".yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("read tenant file: %w", err)
	}

	cfg := &models.TenantConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode tenant file for brand %s: %w", brandID, err)
	}
	return cfg, nil
}
