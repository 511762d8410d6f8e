package helpdesk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zarchive/ticket-gateway/internal/models"
	"github.com/zarchive/ticket-gateway/pkg/config"
)

// DefaultAttachmentDomains are the only hosts attachment downloads may hit
// when no override is configured.
var DefaultAttachmentDomains = []string{"zendesk.com", "zdusercontent.com"}

// Client talks to one tenant's helpdesk account. A new client is built per
// request from the tenant's credentials; it holds no cross-request state.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	email          string
	token          string
	allowedDomains []string
	maxBodyBytes   int64
}

// New builds a client for the given tenant credentials.
func New(creds models.HelpdeskCredentials, cfg config.HelpdeskConfig) *Client {
	domains := cfg.AttachmentDomains
	if len(domains) == 0 {
		domains = DefaultAttachmentDomains
	}
	return &Client{
		BaseURL:        fmt.Sprintf("https://%s.zendesk.com/api/v2", creds.Subdomain),
		HTTPClient:     &http.Client{Timeout: cfg.RequestTimeout},
		email:          creds.AdminEmail,
		token:          creds.APIToken,
		allowedDomains: domains,
		maxBodyBytes:   cfg.MaxAttachmentBytes,
	}
}

// GetTicket fetches a single ticket.
func (c *Client) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	var payload struct {
		Ticket models.Ticket `json:"ticket"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/tickets/%d.json", c.BaseURL, id), &payload); err != nil {
		return nil, err
	}
	return &payload.Ticket, nil
}

// GetComments fetches the full comment stream of a ticket.
func (c *Client) GetComments(ctx context.Context, ticketID int64) ([]models.Comment, error) {
	var payload struct {
		Comments []models.Comment `json:"comments"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/tickets/%d/comments.json", c.BaseURL, ticketID), &payload); err != nil {
		return nil, err
	}
	return payload.Comments, nil
}

// GetUsersByIDs resolves user ids to display names in one batch call.
func (c *Client) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	var payload struct {
		Users []models.User `json:"users"`
	}
	target := fmt.Sprintf("%s/users/show_many.json?ids=%s", c.BaseURL, strings.Join(parts, ","))
	if err := c.getJSON(ctx, target, &payload); err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(payload.Users))
	for _, u := range payload.Users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// DownloadAttachment fetches attachment bytes. The target URL must be HTTPS
// and its host must sit under one of the allow-listed domains; anything
// else is refused before a connection is attempted.
func (c *Client) DownloadAttachment(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.checkAttachmentURL(rawURL); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("helpdesk: build request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helpdesk: download attachment: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("helpdesk: download attachment: status %d", resp.StatusCode)
	}
	reader := io.Reader(resp.Body)
	if c.maxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, c.maxBodyBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("helpdesk: read attachment: %w", err)
	}
	if c.maxBodyBytes > 0 && int64(len(data)) > c.maxBodyBytes {
		return nil, fmt.Errorf("helpdesk: attachment exceeds %d bytes", c.maxBodyBytes)
	}
	return data, nil
}

// checkAttachmentURL enforces the download allow-list: HTTPS only, no IP
// literals, and the last two DNS labels must exactly match an allowed domain.
func (c *Client) checkAttachmentURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("helpdesk: invalid attachment url")
	}
	if u.Scheme != "https" {
		return fmt.Errorf("helpdesk: attachment url must be https")
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || net.ParseIP(host) != nil {
		return fmt.Errorf("helpdesk: attachment host not allowed")
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return fmt.Errorf("helpdesk: attachment host not allowed")
	}
	suffix := labels[len(labels)-2] + "." + labels[len(labels)-1]
	for _, domain := range c.allowedDomains {
		if suffix == strings.ToLower(domain) {
			return nil
		}
	}
	return fmt.Errorf("helpdesk: attachment host not allowed")
}

func (c *Client) getJSON(ctx context.Context, target string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("helpdesk: build request: %w", err)
	}
	req.SetBasicAuth(c.email+"/token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("helpdesk: request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("helpdesk: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("helpdesk: decode response: %w", err)
	}
	return nil
}
