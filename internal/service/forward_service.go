package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/zarchive/ticket-gateway/internal/dto"
	"github.com/zarchive/ticket-gateway/internal/models"
	"github.com/zarchive/ticket-gateway/pkg/archive"
	appErrors "github.com/zarchive/ticket-gateway/pkg/errors"
	"github.com/zarchive/ticket-gateway/pkg/render"
)

type tenantResolver interface {
	Load(ctx context.Context, brandID string) (*models.TenantConfig, error)
	ResolveEndpoint(cfg *models.TenantConfig, name string) (models.ArchiveEndpointConfig, error)
}

type callerAuthenticator interface {
	VerifyWebhook(secret string, body []byte, timestamp, signature string) error
	VerifyAPIKey(stored, supplied string) error
	VerifyBrandOwnership(ticket *models.Ticket, claimedBrandID string) error
}

// HelpdeskClient is the slice of the helpdesk API the pipeline consumes.
type HelpdeskClient interface {
	GetTicket(ctx context.Context, id int64) (*models.Ticket, error)
	GetComments(ctx context.Context, ticketID int64) ([]models.Comment, error)
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
	DownloadAttachment(ctx context.Context, url string) ([]byte, error)
}

type auditAppender interface {
	Append(ctx context.Context, record *models.AuditRecord) error
}

// HelpdeskFactory builds a per-request helpdesk client from tenant credentials.
type HelpdeskFactory func(creds models.HelpdeskCredentials) HelpdeskClient

// ArchiveFactory builds a per-request archive client for an endpoint.
type ArchiveFactory func(endpoint models.ArchiveEndpointConfig) (archive.Client, error)

// ForwardServiceConfig caps the attachment pipeline.
type ForwardServiceConfig struct {
	MaxAttachments     int
	MaxAttachmentBytes int64
}

// ForwardService runs the forwarding pipeline as a strict gate sequence:
// authenticate, validate, resolve, fetch, cross-check, render, dispatch,
// audit. The only best-effort step is author-name resolution.
type ForwardService struct {
	tenants     tenantResolver
	auth        callerAuthenticator
	newHelpdesk HelpdeskFactory
	newArchive  ArchiveFactory
	audit       auditAppender
	metrics     *MetricsService
	validate    *validator.Validate
	logger      *zap.Logger
	cfg         ForwardServiceConfig
}

// NewForwardService constructs the service with defaults.
func NewForwardService(tenants tenantResolver, auth callerAuthenticator, newHelpdesk HelpdeskFactory, newArchive ArchiveFactory, audit auditAppender, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ForwardServiceConfig) *ForwardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxAttachments <= 0 {
		cfg.MaxAttachments = 10
	}
	if cfg.MaxAttachmentBytes <= 0 {
		cfg.MaxAttachmentBytes = 50 * 1024 * 1024
	}
	return &ForwardService{
		tenants:     tenants,
		auth:        auth,
		newHelpdesk: newHelpdesk,
		newArchive:  newArchive,
		audit:       audit,
		metrics:     metrics,
		validate:    validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// HandleWebhook processes a signed ticket-close notification.
func (s *ForwardService) HandleWebhook(ctx context.Context, rawBody []byte, timestamp, signature string) (*dto.ForwardResponse, error) {
	req, err := parseForwardRequest(rawBody)
	if err != nil {
		return nil, err
	}
	if req.BrandID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing brandId")
	}

	tenant, err := s.tenants.Load(ctx, req.BrandID)
	if err != nil {
		return nil, err
	}

	if err := s.auth.VerifyWebhook(tenant.Helpdesk.WebhookSecret, rawBody, timestamp, signature); err != nil {
		return nil, err
	}

	if err := s.validate.Var(req.TicketID, "required,gt=0"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing ticketId")
	}
	if req.EndpointName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing endpointName")
	}

	endpoint, err := s.tenants.ResolveEndpoint(tenant, req.EndpointName)
	if err != nil {
		return nil, err
	}

	return s.process(ctx, tenant, req.EndpointName, endpoint, req, "")
}

// HandleOnDemand processes an API-key authenticated forward call. The
// caller supplies the case number; endpoint choice is subject to the
// tenant's override policy.
func (s *ForwardService) HandleOnDemand(ctx context.Context, rawBody []byte, apiKey string) (*dto.ForwardResponse, error) {
	req, err := parseForwardRequest(rawBody)
	if err != nil {
		return nil, err
	}
	if req.BrandID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing brandId")
	}

	tenant, err := s.tenants.Load(ctx, req.BrandID)
	if err != nil {
		return nil, err
	}

	if err := s.auth.VerifyAPIKey(tenant.Caller.APIKey, apiKey); err != nil {
		return nil, err
	}

	if err := s.validate.Var(req.TicketID, "required,gt=0"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing ticketId")
	}
	if strings.TrimSpace(req.CaseNumber) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing caseNumber")
	}

	endpointName := req.EndpointName
	if !tenant.Caller.AllowEndpointOverride {
		if endpointName != "" && endpointName != tenant.Caller.DefaultEndpoint {
			return nil, appErrors.Clone(appErrors.ErrValidation, "endpoint selection not permitted")
		}
		endpointName = tenant.Caller.DefaultEndpoint
	}
	if endpointName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing endpointName")
	}

	endpoint, err := s.tenants.ResolveEndpoint(tenant, endpointName)
	if err != nil {
		return nil, err
	}

	return s.process(ctx, tenant, endpointName, endpoint, req, req.CaseNumber)
}

func (s *ForwardService) process(ctx context.Context, tenant *models.TenantConfig, endpointName string, endpoint models.ArchiveEndpointConfig, req *dto.ForwardRequest, explicitCase string) (*dto.ForwardResponse, error) {
	start := time.Now()

	hd := s.newHelpdesk(tenant.Helpdesk)

	ticket, err := hd.GetTicket(ctx, req.TicketID)
	if err != nil {
		s.observeForward("dependency_error", start)
		s.logger.Error("ticket fetch failed", zap.Int64("ticket_id", req.TicketID), zap.String("brand_id", tenant.BrandID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrDependency.Code, appErrors.ErrDependency.Status, appErrors.ErrDependency.Message)
	}

	if err := s.auth.VerifyBrandOwnership(ticket, req.BrandID); err != nil {
		s.observeForward("forbidden", start)
		return nil, err
	}

	comments, err := hd.GetComments(ctx, req.TicketID)
	if err != nil {
		s.observeForward("dependency_error", start)
		s.logger.Error("comment fetch failed", zap.Int64("ticket_id", req.TicketID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrDependency.Code, appErrors.ErrDependency.Status, appErrors.ErrDependency.Message)
	}

	visible := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		if c.Public || tenant.Render.IncludeInternalNotes {
			visible = append(visible, c)
		}
	}

	userNames := s.resolveAuthorNames(ctx, hd, visible)

	blocks := make([][]render.Block, len(comments))
	for i, c := range comments {
		body := c.HTMLBody
		if body == "" {
			body = c.PlainBody
		}
		blocks[i] = render.ParseHTML(body)
	}

	document, err := render.RenderPDF(ticket, comments, blocks, userNames, tenant.Render, time.Now())
	if err != nil {
		s.observeForward("render_error", start)
		s.logger.Error("pdf render failed", zap.Int64("ticket_id", req.TicketID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if s.metrics != nil {
		s.metrics.AddRenderedBytes(len(document))
	}

	caseNumber := explicitCase
	if caseNumber == "" {
		caseNumber = selectCaseNumber(ticket, endpoint)
	}

	client, err := s.newArchive(endpoint)
	if err != nil {
		s.observeForward("config_error", start)
		s.logger.Error("archive client construction failed", zap.String("endpoint", endpointName), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	if _, err := client.UploadDocument(ctx, archive.UploadRequest{
		CaseNumber:  caseNumber,
		Filename:    fmt.Sprintf("ticket-%d.pdf", ticket.ID),
		Content:     document,
		ContentType: "application/pdf",
		Metadata: map[string]string{
			"ticketId": fmt.Sprintf("%d", ticket.ID),
			"brandId":  tenant.BrandID,
		},
	}); err != nil {
		s.observeForward("dependency_error", start)
		s.logger.Error("document upload failed", zap.Int64("ticket_id", req.TicketID), zap.String("endpoint", endpointName), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrDependency.Code, appErrors.ErrDependency.Status, appErrors.ErrDependency.Message)
	}

	attachments := s.capAttachments(visible)
	forwarded := 0
	var attachmentErrors []dto.AttachmentError
	for _, att := range attachments {
		if err := s.forwardAttachment(ctx, hd, client, caseNumber, att); err != nil {
			s.logger.Warn("attachment forward failed", zap.Int64("ticket_id", req.TicketID), zap.String("file", att.FileName), zap.Error(err))
			attachmentErrors = append(attachmentErrors, dto.AttachmentError{Filename: att.FileName, Error: shortError(err)})
			continue
		}
		forwarded++
	}

	record := &models.AuditRecord{
		TicketID:        ticket.ID,
		BrandID:         tenant.BrandID,
		Endpoint:        endpointName,
		CaseNumber:      caseNumber,
		CommentCount:    len(visible),
		AttachmentCount: forwarded,
		DocumentBytes:   int64(len(document)),
		DurationMS:      time.Since(start).Milliseconds(),
	}
	if err := s.audit.Append(ctx, record); err != nil {
		s.observeForward("audit_error", start)
		s.logger.Error("audit write failed", zap.Int64("ticket_id", req.TicketID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	outcome := "success"
	if len(attachmentErrors) > 0 {
		outcome = "partial"
	}
	s.observeForward(outcome, start)

	return &dto.ForwardResponse{
		Success:       len(attachmentErrors) == 0,
		TicketID:      ticket.ID,
		CaseNumber:    caseNumber,
		DocumentBytes: int64(len(document)),
		Forwarded:     forwarded,
		Errors:        attachmentErrors,
	}, nil
}

// resolveAuthorNames is best-effort: a failed batch lookup degrades to the
// numeric fallback label instead of failing the request.
func (s *ForwardService) resolveAuthorNames(ctx context.Context, hd HelpdeskClient, comments []models.Comment) map[int64]string {
	seen := make(map[int64]struct{}, len(comments))
	ids := make([]int64, 0, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.AuthorID]; ok {
			continue
		}
		seen[c.AuthorID] = struct{}{}
		ids = append(ids, c.AuthorID)
	}
	if len(ids) == 0 {
		return map[int64]string{}
	}
	names, err := hd.GetUsersByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("author name lookup failed, using fallback labels", zap.Error(err))
		return map[int64]string{}
	}
	return names
}

// capAttachments applies the count and cumulative-byte caps, silently
// dropping whatever exceeds them.
func (s *ForwardService) capAttachments(comments []models.Comment) []models.Attachment {
	var kept []models.Attachment
	var total int64
	dropped := 0
	for _, c := range comments {
		for _, att := range c.Attachments {
			if len(kept) >= s.cfg.MaxAttachments || total+att.Size > s.cfg.MaxAttachmentBytes {
				dropped++
				continue
			}
			kept = append(kept, att)
			total += att.Size
		}
	}
	if dropped > 0 {
		s.logger.Info("attachments dropped by cap", zap.Int("dropped", dropped))
		if s.metrics != nil {
			s.metrics.AddDroppedAttachments(dropped)
		}
	}
	return kept
}

func (s *ForwardService) forwardAttachment(ctx context.Context, hd HelpdeskClient, client archive.Client, caseNumber string, att models.Attachment) error {
	data, err := hd.DownloadAttachment(ctx, att.ContentURL)
	if err != nil {
		return fmt.Errorf("download failed")
	}
	if _, err := client.UploadDocument(ctx, archive.UploadRequest{
		CaseNumber:  caseNumber,
		Filename:    att.FileName,
		Content:     data,
		ContentType: att.ContentType,
	}); err != nil {
		return fmt.Errorf("upload failed")
	}
	return nil
}

func (s *ForwardService) observeForward(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveForward(outcome, time.Since(start))
	}
}

// selectCaseNumber prefers the endpoint's declared custom ticket field and
// falls back to a synthesized "ZD-<id>" value.
func selectCaseNumber(ticket *models.Ticket, endpoint models.ArchiveEndpointConfig) string {
	if endpoint.CaseNumberFieldID != 0 {
		for _, field := range ticket.CustomFields {
			if field.ID != endpoint.CaseNumberFieldID {
				continue
			}
			if value := stringifyFieldValue(field.Value); value != "" {
				return value
			}
		}
	}
	return fmt.Sprintf("ZD-%d", ticket.ID)
}

func stringifyFieldValue(v interface{}) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", value), "0"), ".")
	default:
		return ""
	}
}

// shortError reduces an internal error to a caller-safe one-liner.
func shortError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func parseForwardRequest(rawBody []byte) (*dto.ForwardRequest, error) {
	req := &dto.ForwardRequest{}
	if err := json.Unmarshal(rawBody, req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid JSON body")
	}
	return req, nil
}
