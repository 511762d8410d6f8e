package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarchive/ticket-gateway/internal/models"
	appErrors "github.com/zarchive/ticket-gateway/pkg/errors"
)

type auditQuerierStub struct {
	records []models.AuditRecord
	err     error
	brandID string
	limit   int
}

func (s *auditQuerierStub) Query(ctx context.Context, brandID string, limit int) ([]models.AuditRecord, error) {
	s.brandID = brandID
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func TestAuditQueryReturnsRecords(t *testing.T) {
	store := &auditQuerierStub{records: []models.AuditRecord{{ID: "r1", BrandID: "7"}}}
	svc := NewAuditService(&mockTenants{cfg: forwardTenant()}, &mockAuth{}, store, nil, 100)

	records, err := svc.Query(context.Background(), "7", "caller-key", 25)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "7", store.brandID)
	assert.Equal(t, 25, store.limit)
}

func TestAuditQueryClampsLimit(t *testing.T) {
	store := &auditQuerierStub{}
	svc := NewAuditService(&mockTenants{cfg: forwardTenant()}, &mockAuth{}, store, nil, 50)

	_, err := svc.Query(context.Background(), "7", "caller-key", 0)
	require.NoError(t, err)
	assert.Equal(t, 50, store.limit)

	_, err = svc.Query(context.Background(), "7", "caller-key", 9999)
	require.NoError(t, err)
	assert.Equal(t, 50, store.limit)
}

func TestAuditQuerySanitizesBrand(t *testing.T) {
	store := &auditQuerierStub{}
	svc := NewAuditService(&mockTenants{cfg: forwardTenant()}, &mockAuth{}, store, nil, 100)

	_, err := svc.Query(context.Background(), "7:*", "caller-key", 10)
	require.Error(t, err)
	assert.Empty(t, store.brandID, "the store must not see unsanitized input")
}

func TestAuditQueryRequiresValidKey(t *testing.T) {
	store := &auditQuerierStub{}
	svc := NewAuditService(&mockTenants{cfg: forwardTenant()}, &mockAuth{apiKeyErr: appErrors.ErrUnauthorized}, store, nil, 100)

	_, err := svc.Query(context.Background(), "7", "wrong", 10)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuditQueryWrapsStoreFailure(t *testing.T) {
	store := &auditQuerierStub{err: fmt.Errorf("scan failed")}
	svc := NewAuditService(&mockTenants{cfg: forwardTenant()}, &mockAuth{}, store, nil, 100)

	_, err := svc.Query(context.Background(), "7", "caller-key", 10)
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}
