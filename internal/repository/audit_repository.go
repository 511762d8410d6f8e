package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zarchive/ticket-gateway/internal/models"
)

// RedisAuditStore appends TTL-bounded audit records keyed by brand id.
// Keys are `<prefix><brandId>:<unixNano>:<uuid>` so a prefix scan over one
// brand returns its records in rough time order.
type RedisAuditStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisAuditStore constructs the store.
func NewRedisAuditStore(client *redis.Client, prefix string, ttl time.Duration) *RedisAuditStore {
	if prefix == "" {
		prefix = "audit:"
	}
	if ttl <= 0 {
		ttl = 90 * 24 * time.Hour
	}
	return &RedisAuditStore{client: client, prefix: prefix, ttl: ttl}
}

// Append stores one record. The record's ID and CreatedAt are filled in
// here when empty.
func (s *RedisAuditStore) Append(ctx context.Context, record *models.AuditRecord) error {
	if record == nil {
		return fmt.Errorf("audit record required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode audit record: %w", err)
	}

	key := fmt.Sprintf("%s%s:%d:%s", s.prefix, record.BrandID, record.CreatedAt.UnixNano(), record.ID)
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}
	return nil
}

// Query scans one brand's records, newest first, up to limit.
func (s *RedisAuditStore) Query(ctx context.Context, brandID string, limit int) ([]models.AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	pattern := s.prefix + brandID + ":*"
	keys := make([]string, 0, limit)
	iter := s.client.Scan(ctx, 0, pattern, int64(limit)).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan audit records: %w", err)
	}
	if len(keys) == 0 {
		return []models.AuditRecord{}, nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read audit records: %w", err)
	}

	records := make([]models.AuditRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var record models.AuditRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
