package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarchive/ticket-gateway/internal/models"
	"github.com/zarchive/ticket-gateway/internal/repository"
	appErrors "github.com/zarchive/ticket-gateway/pkg/errors"
)

type tenantStoreStub struct {
	cfg *models.TenantConfig
	err error
}

func (s tenantStoreStub) Get(ctx context.Context, brandID string) (*models.TenantConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cfg, nil
}

func validTenant() *models.TenantConfig {
	return &models.TenantConfig{
		BrandID: "7",
		Name:    "Acme",
		Helpdesk: models.HelpdeskCredentials{
			Subdomain:     "acme-support",
			AdminEmail:    "admin@acme.test",
			APIToken:      "token",
			WebhookSecret: "secret",
		},
		Endpoints: map[string]models.ArchiveEndpointConfig{
			"main": {
				Type:    models.EndpointTypeOneSystems,
				BaseURL: "https://archive.acme.test",
				AppKey:  "app-key",
			},
			"dw": {
				Type:     models.EndpointTypeDocuware,
				BaseURL:  "https://dw.acme.test",
				Username: "svc",
				Password: "pw",
			},
		},
		Caller: models.CallerCredential{APIKey: "caller-key"},
		Render: models.RenderSettings{CompanyName: "Acme GmbH"},
	}
}

func TestValidateAcceptsCompleteTenant(t *testing.T) {
	svc := NewTenantService(tenantStoreStub{}, nil)
	require.NoError(t, svc.Validate(validTenant()))
}

func TestValidateNamesMissingField(t *testing.T) {
	cases := []struct {
		field  string
		mutate func(*models.TenantConfig)
	}{
		{"name", func(c *models.TenantConfig) { c.Name = "" }},
		{"helpdesk.subdomain", func(c *models.TenantConfig) { c.Helpdesk.Subdomain = "" }},
		{"helpdesk.adminEmail", func(c *models.TenantConfig) { c.Helpdesk.AdminEmail = "" }},
		{"helpdesk.apiToken", func(c *models.TenantConfig) { c.Helpdesk.APIToken = "" }},
		{"helpdesk.webhookSecret", func(c *models.TenantConfig) { c.Helpdesk.WebhookSecret = "" }},
		{"caller.apiKey", func(c *models.TenantConfig) { c.Caller.APIKey = "" }},
		{"render.companyName", func(c *models.TenantConfig) { c.Render.CompanyName = "" }},
	}
	svc := NewTenantService(tenantStoreStub{}, nil)
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			cfg := validTenant()
			tc.mutate(cfg)
			err := svc.Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "missing required field "+tc.field)
		})
	}
}

func TestValidateRejectsBadSubdomain(t *testing.T) {
	svc := NewTenantService(tenantStoreStub{}, nil)
	for _, bad := range []string{"-leading", "has.dot", "has space", "evil/../path"} {
		cfg := validTenant()
		cfg.Helpdesk.Subdomain = bad
		err := svc.Validate(cfg)
		require.Error(t, err, "subdomain %q must be rejected", bad)
		assert.Contains(t, err.Error(), "invalid helpdesk subdomain")
	}
}

func TestValidateRequiresAtLeastOneEndpoint(t *testing.T) {
	svc := NewTenantService(tenantStoreStub{}, nil)
	cfg := validTenant()
	cfg.Endpoints = nil
	err := svc.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one archive endpoint")
}

func TestValidateEndpointURLPolicy(t *testing.T) {
	cases := []struct {
		name string
		url  string
		ok   bool
	}{
		{"public https", "https://archive.example.test", true},
		{"public https with port", "https://archive.example.test:8443/base", true},
		{"plain http", "http://archive.example.test", false},
		{"localhost", "https://localhost", false},
		{"localhost subdomain", "https://foo.localhost", false},
		{"loopback ip", "https://127.0.0.1", false},
		{"private ten", "https://10.1.2.3", false},
		{"private one-nine-two", "https://192.168.1.10", false},
		{"private one-seven-two", "https://172.16.0.1", false},
		{"link local", "https://169.254.1.1", false},
		{"unspecified", "https://0.0.0.0", false},
		{"ipv6 literal", "https://[::1]", false},
		{"ipv6 global literal", "https://[2001:db8::1]:443", false},
	}
	svc := NewTenantService(tenantStoreStub{}, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTenant()
			endpoint := cfg.Endpoints["main"]
			endpoint.BaseURL = tc.url
			cfg.Endpoints = map[string]models.ArchiveEndpointConfig{"main": endpoint}
			err := svc.Validate(cfg)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateEndpointTypeRequirements(t *testing.T) {
	svc := NewTenantService(tenantStoreStub{}, nil)

	cfg := validTenant()
	endpoint := cfg.Endpoints["main"]
	endpoint.AppKey = ""
	cfg.Endpoints = map[string]models.ArchiveEndpointConfig{"main": endpoint}
	err := svc.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field appKey")

	cfg = validTenant()
	endpoint = cfg.Endpoints["dw"]
	endpoint.Password = ""
	cfg.Endpoints = map[string]models.ArchiveEndpointConfig{"dw": endpoint}
	err = svc.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field password")

	cfg = validTenant()
	cfg.Endpoints = map[string]models.ArchiveEndpointConfig{
		"odd": {Type: "sharepoint", BaseURL: "https://sp.example.test"},
	}
	err = svc.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported endpoint type "sharepoint"`)
}

func TestLoadMapsStoreMissToNotFound(t *testing.T) {
	svc := NewTenantService(tenantStoreStub{err: repository.ErrTenantNotFound}, nil)
	_, err := svc.Load(context.Background(), "7")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestLoadRejectsEmptyBrand(t *testing.T) {
	svc := NewTenantService(tenantStoreStub{}, nil)
	_, err := svc.Load(context.Background(), "")
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "missing brandId", appErr.Message)
}

func TestLoadTreatsInvalidStoredConfigAsInternal(t *testing.T) {
	broken := validTenant()
	broken.Helpdesk.WebhookSecret = ""
	svc := NewTenantService(tenantStoreStub{cfg: broken}, nil)
	_, err := svc.Load(context.Background(), "7")
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestLoadWrapsStoreFailure(t *testing.T) {
	svc := NewTenantService(tenantStoreStub{err: fmt.Errorf("redis down")}, nil)
	_, err := svc.Load(context.Background(), "7")
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestResolveEndpointUnknownNameIsGeneric(t *testing.T) {
	svc := NewTenantService(tenantStoreStub{}, nil)
	cfg := validTenant()
	_, err := svc.ResolveEndpoint(cfg, "nope")
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "unknown endpoint", appErr.Message)
	assert.NotContains(t, appErr.Message, "main")
}

func TestSanitizeAuditParam(t *testing.T) {
	value, err := SanitizeAuditParam("brand_7-x")
	require.NoError(t, err)
	assert.Equal(t, "brand_7-x", value)

	for _, bad := range []string{"", "a:b", "a*b", "../etc", "a b"} {
		_, err := SanitizeAuditParam(bad)
		assert.Error(t, err, "value %q must be rejected", bad)
	}
}
