package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarchive/ticket-gateway/internal/models"
)

const tenantYAML = `brandId: "7"
name: Acme
helpdesk:
  subdomain: acme
  adminEmail: admin@acme.test
  apiToken: tok
  webhookSecret: shh
endpoints:
  main:
    type: onesystems
    baseUrl: https://archive.acme.test
    appKey: key
    caseNumberFieldId: 900100
caller:
  apiKey: caller-key
  defaultEndpoint: main
render:
  companyName: Acme GmbH
  locale: en
`

func newFileStore(t *testing.T) *FileTenantStore {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "7.yaml"), []byte(tenantYAML), 0o600))
	store, err := NewFileTenantStore(dir)
	require.NoError(t, err)
	return store
}

func TestFileTenantStoreGet(t *testing.T) {
	store := newFileStore(t)

	cfg, err := store.Get(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", cfg.BrandID)
	assert.Equal(t, "acme", cfg.Helpdesk.Subdomain)

	endpoint, ok := cfg.Endpoints["main"]
	require.True(t, ok)
	assert.Equal(t, models.EndpointTypeOneSystems, endpoint.Type)
	assert.Equal(t, int64(900100), endpoint.CaseNumberFieldID)
	assert.Equal(t, "main", cfg.Caller.DefaultEndpoint)
}

func TestFileTenantStoreMiss(t *testing.T) {
	store := newFileStore(t)
	_, err := store.Get(context.Background(), "8")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestFileTenantStoreRejectsTraversalKeys(t *testing.T) {
	store := newFileStore(t)
	for _, bad := range []string{"../7", "a/b", ".", ""} {
		_, err := store.Get(context.Background(), bad)
		assert.ErrorIs(t, err, ErrTenantNotFound, "key %q must be a miss", bad)
	}
}

func TestFileTenantStoreBadYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "9.yaml"), []byte("{:::"), 0o600))
	store, err := NewFileTenantStore(dir)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "9")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTenantNotFound)
}

func TestNewFileTenantStoreRequiresDirectory(t *testing.T) {
	_, err := NewFileTenantStore(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.yaml")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = NewFileTenantStore(file)
	require.Error(t, err)
}
