package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/zarchive/ticket-gateway/internal/models"
	appErrors "github.com/zarchive/ticket-gateway/pkg/errors"
)

type auditQuerier interface {
	Query(ctx context.Context, brandID string, limit int) ([]models.AuditRecord, error)
}

// AuditService serves a tenant's own audit trail, guarded by its API key.
type AuditService struct {
	tenants  tenantResolver
	auth     callerAuthenticator
	store    auditQuerier
	logger   *zap.Logger
	queryMax int
}

// NewAuditService constructs the service.
func NewAuditService(tenants tenantResolver, auth callerAuthenticator, store auditQuerier, logger *zap.Logger, queryMax int) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queryMax <= 0 {
		queryMax = 100
	}
	return &AuditService{tenants: tenants, auth: auth, store: store, logger: logger, queryMax: queryMax}
}

// Query returns the newest records for the brand. The brand id doubles as a
// key prefix in the audit store, so it is sanitized before use.
func (s *AuditService) Query(ctx context.Context, brandID, apiKey string, limit int) ([]models.AuditRecord, error) {
	sanitized, err := SanitizeAuditParam(brandID)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenants.Load(ctx, sanitized)
	if err != nil {
		return nil, err
	}
	if err := s.auth.VerifyAPIKey(tenant.Caller.APIKey, apiKey); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > s.queryMax {
		limit = s.queryMax
	}
	records, err := s.store.Query(ctx, sanitized, limit)
	if err != nil {
		s.logger.Error("audit query failed", zap.String("brand_id", sanitized), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return records, nil
}
