package models

// Supported archive backend kinds.
const (
	EndpointTypeOneSystems = "onesystems"
	EndpointTypeDocuware   = "docuware"
)

// TenantConfig is one onboarded institution's full gateway configuration.
// It is loaded from the tenant store per request, validated before use and
// discarded after the response is sent. Never mutated, never cached.
type TenantConfig struct {
	BrandID   string                           `yaml:"brandId" json:"brandId"`
	Name      string                           `yaml:"name" json:"name"`
	Helpdesk  HelpdeskCredentials              `yaml:"helpdesk" json:"helpdesk"`
	Endpoints map[string]ArchiveEndpointConfig `yaml:"endpoints" json:"endpoints"`
	Caller    CallerCredential                 `yaml:"caller" json:"caller"`
	Render    RenderSettings                   `yaml:"render" json:"render"`
}

// HelpdeskCredentials holds the per-tenant helpdesk API access data.
type HelpdeskCredentials struct {
	Subdomain     string `yaml:"subdomain" json:"subdomain"`
	AdminEmail    string `yaml:"adminEmail" json:"adminEmail"`
	APIToken      string `yaml:"apiToken" json:"apiToken"`
	WebhookSecret string `yaml:"webhookSecret" json:"webhookSecret"`
}

// ArchiveEndpointConfig describes one named archive backend destination.
type ArchiveEndpointConfig struct {
	Type    string `yaml:"type" json:"type"`
	BaseURL string `yaml:"baseUrl" json:"baseUrl"`

	// onesystems
	AppKey string `yaml:"appKey,omitempty" json:"appKey,omitempty"`
	// docuware
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// Optional helpdesk custom field holding the archive case number.
	CaseNumberFieldID int64 `yaml:"caseNumberFieldId,omitempty" json:"caseNumberFieldId,omitempty"`
	// Optional bearer-token lifetime in seconds; backend default applies when zero.
	TokenTTLSeconds int `yaml:"tokenTtlSeconds,omitempty" json:"tokenTtlSeconds,omitempty"`
}

// CallerCredential authenticates the on-demand forwarding flow.
type CallerCredential struct {
	APIKey string `yaml:"apiKey" json:"apiKey"`
	// When false, on-demand callers may not pick an endpoint per request and
	// DefaultEndpoint is used instead.
	AllowEndpointOverride bool   `yaml:"allowEndpointOverride" json:"allowEndpointOverride"`
	DefaultEndpoint       string `yaml:"defaultEndpoint,omitempty" json:"defaultEndpoint,omitempty"`
}

// RenderSettings shapes the generated PDF.
type RenderSettings struct {
	CompanyName          string `yaml:"companyName" json:"companyName"`
	Locale               string `yaml:"locale,omitempty" json:"locale,omitempty"`
	IncludeInternalNotes bool   `yaml:"includeInternalNotes" json:"includeInternalNotes"`
}
