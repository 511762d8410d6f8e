package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// oneSystemsClient uploads via multipart form posts. The bearer token is
// acquired lazily and refreshed when its TTL lapses; the cache is local to
// this instance and never shared across requests.
type oneSystemsClient struct {
	baseURL    string
	appKey     string
	httpClient *http.Client
	tokenTTL   time.Duration

	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

func newOneSystemsClient(baseURL, appKey string, timeout, tokenTTL time.Duration) *oneSystemsClient {
	return &oneSystemsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appKey:     appKey,
		httpClient: &http.Client{Timeout: timeout},
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
}

func (c *oneSystemsClient) UploadDocument(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	if err := form.WriteField("caseNumber", req.CaseNumber); err != nil {
		return nil, fmt.Errorf("onesystems: write form field: %w", err)
	}
	if len(req.Metadata) > 0 {
		meta, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("onesystems: encode metadata: %w", err)
		}
		if err := form.WriteField("metadata", string(meta)); err != nil {
			return nil, fmt.Errorf("onesystems: write form field: %w", err)
		}
	}
	part, err := form.CreateFormFile("file", req.Filename)
	if err != nil {
		return nil, fmt.Errorf("onesystems: create file part: %w", err)
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, fmt.Errorf("onesystems: write file part: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("onesystems: finish form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/documents", body)
	if err != nil {
		return nil, fmt.Errorf("onesystems: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("onesystems: upload failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("onesystems: upload status %d", resp.StatusCode)
	}

	var payload struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("onesystems: decode upload response: %w", err)
	}
	return &UploadResult{DocumentID: payload.DocumentID}, nil
}

func (c *oneSystemsClient) bearerToken(ctx context.Context) (string, error) {
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	reqBody, _ := json.Marshal(map[string]string{"appKey": c.appKey})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("onesystems: build auth request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("onesystems: auth failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("onesystems: auth status %d", resp.StatusCode)
	}

	var payload struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("onesystems: decode auth response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("onesystems: empty auth token")
	}

	ttl := c.tokenTTL
	if payload.ExpiresIn > 0 {
		ttl = time.Duration(payload.ExpiresIn) * time.Second
	}
	c.token = payload.Token
	c.tokenExpiry = c.now().Add(ttl)
	return c.token, nil
}
