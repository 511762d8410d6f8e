package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/zarchive/ticket-gateway/internal/models"
	"github.com/zarchive/ticket-gateway/internal/repository"
	appErrors "github.com/zarchive/ticket-gateway/pkg/errors"
)

var (
	subdomainPattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)
	auditParamPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// TenantService resolves and validates tenant configuration for one request.
type TenantService struct {
	store  repository.TenantStore
	logger *zap.Logger
}

// NewTenantService constructs the service.
func NewTenantService(store repository.TenantStore, logger *zap.Logger) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{store: store, logger: logger}
}

// Load fetches and validates the tenant for brandID. A store miss becomes a
// generic not-found; a stored-but-invalid config is an internal error since
// the caller cannot fix it.
func (s *TenantService) Load(ctx context.Context, brandID string) (*models.TenantConfig, error) {
	if brandID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing brandId")
	}

	cfg, err := s.store.Get(ctx, brandID)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return nil, appErrors.ErrNotFound
		}
		s.logger.Error("tenant store lookup failed", zap.String("brand_id", brandID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	if err := s.Validate(cfg); err != nil {
		s.logger.Error("stored tenant config invalid", zap.String("brand_id", brandID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return cfg, nil
}

// Validate runs the full structural and security check over a tenant
// config. Error messages name the tenant and endpoint but never secrets.
func (s *TenantService) Validate(cfg *models.TenantConfig) error {
	if cfg == nil {
		return fmt.Errorf("tenant config required")
	}

	required := []struct {
		value string
		field string
	}{
		{cfg.BrandID, "brandId"},
		{cfg.Name, "name"},
		{cfg.Helpdesk.Subdomain, "helpdesk.subdomain"},
		{cfg.Helpdesk.AdminEmail, "helpdesk.adminEmail"},
		{cfg.Helpdesk.APIToken, "helpdesk.apiToken"},
		{cfg.Helpdesk.WebhookSecret, "helpdesk.webhookSecret"},
		{cfg.Caller.APIKey, "caller.apiKey"},
		{cfg.Render.CompanyName, "render.companyName"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("tenant %s: missing required field %s", cfg.BrandID, r.field)
		}
	}

	if !subdomainPattern.MatchString(cfg.Helpdesk.Subdomain) {
		return fmt.Errorf("tenant %s: invalid helpdesk subdomain", cfg.BrandID)
	}

	if len(cfg.Endpoints) == 0 {
		return fmt.Errorf("tenant %s: at least one archive endpoint is required", cfg.BrandID)
	}

	for name, endpoint := range cfg.Endpoints {
		if err := validateEndpoint(cfg.BrandID, name, endpoint); err != nil {
			return err
		}
	}
	return nil
}

func validateEndpoint(brandID, name string, endpoint models.ArchiveEndpointConfig) error {
	if endpoint.Type == "" {
		return fmt.Errorf("tenant %s endpoint %s: missing required field type", brandID, name)
	}
	if endpoint.BaseURL == "" {
		return fmt.Errorf("tenant %s endpoint %s: missing required field baseUrl", brandID, name)
	}

	switch endpoint.Type {
	case models.EndpointTypeOneSystems:
		if endpoint.AppKey == "" {
			return fmt.Errorf("tenant %s endpoint %s: missing required field appKey", brandID, name)
		}
	case models.EndpointTypeDocuware:
		if endpoint.Username == "" {
			return fmt.Errorf("tenant %s endpoint %s: missing required field username", brandID, name)
		}
		if endpoint.Password == "" {
			return fmt.Errorf("tenant %s endpoint %s: missing required field password", brandID, name)
		}
	default:
		return fmt.Errorf("tenant %s endpoint %s: unsupported endpoint type %q", brandID, name, endpoint.Type)
	}

	if err := checkEndpointURL(endpoint.BaseURL); err != nil {
		return fmt.Errorf("tenant %s endpoint %s: %w", brandID, name, err)
	}
	return nil
}

// checkEndpointURL enforces HTTPS and rejects private, loopback, link-local
// and localhost targets, including IPv4-mapped IPv6 forms. IPv6 literals are
// rejected wholesale.
func checkEndpointURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid baseUrl")
	}
	if u.Scheme != "https" {
		return fmt.Errorf("baseUrl must use https")
	}
	if strings.HasPrefix(u.Host, "[") {
		return fmt.Errorf("baseUrl must not use an IPv6 literal")
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid baseUrl")
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("baseUrl host is private or insecure")
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return fmt.Errorf("baseUrl host is private or insecure")
		}
	}
	return nil
}

// ResolveEndpoint looks up the named endpoint. A miss returns the same
// generic error regardless of the configured names so callers cannot probe
// the endpoint map.
func (s *TenantService) ResolveEndpoint(cfg *models.TenantConfig, name string) (models.ArchiveEndpointConfig, error) {
	endpoint, ok := cfg.Endpoints[name]
	if !ok {
		return models.ArchiveEndpointConfig{}, appErrors.Clone(appErrors.ErrValidation, "unknown endpoint")
	}
	return endpoint, nil
}

// SanitizeAuditParam restricts free-text audit query parameters so they
// cannot escape the audit store's per-brand key namespace.
func SanitizeAuditParam(value string) (string, error) {
	if !auditParamPattern.MatchString(value) {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid query parameter")
	}
	return value, nil
}
