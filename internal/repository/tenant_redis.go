package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zarchive/ticket-gateway/internal/models"
)

// RedisTenantStore looks tenants up as JSON values under a key prefix.
type RedisTenantStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTenantStore constructs the store.
func NewRedisTenantStore(client *redis.Client, prefix string) *RedisTenantStore {
	if prefix == "" {
		prefix = "tenant:"
	}
	return &RedisTenantStore{client: client, prefix: prefix}
}

// Get fetches and decodes the tenant record for brandID.
func (s *RedisTenantStore) Get(ctx context.Context, brandID string) (*models.TenantConfig, error) {
	if !validBrandKey(brandID) {
		return nil, ErrTenantNotFound
	}

	raw, err := s.client.Get(ctx, s.prefix+brandID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("read tenant key: %w", err)
	}

	cfg := &models.TenantConfig{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode tenant record for brand %s: %w", brandID, err)
	}
	return cfg, nil
}
