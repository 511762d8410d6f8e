package archive

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// docuwareClient uploads JSON bodies with base64 document content. Token
// handling mirrors the onesystems variant: lazily acquired, TTL-bounded,
// per-instance only.
type docuwareClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	tokenTTL   time.Duration

	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

func newDocuwareClient(baseURL, username, password string, timeout, tokenTTL time.Duration) *docuwareClient {
	return &docuwareClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
}

func (c *docuwareClient) UploadDocument(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"caseNumber":  req.CaseNumber,
		"filename":    req.Filename,
		"contentType": req.ContentType,
		"content":     base64.StdEncoding.EncodeToString(req.Content),
	}
	if len(req.Metadata) > 0 {
		payload["metadata"] = req.Metadata
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("docuware: encode upload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/archive", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("docuware: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("docuware: upload failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("docuware: upload status %d", resp.StatusCode)
	}

	var result struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("docuware: decode upload response: %w", err)
	}
	return &UploadResult{DocumentID: result.DocumentID}, nil
}

func (c *docuwareClient) bearerToken(ctx context.Context) (string, error) {
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	body, _ := json.Marshal(map[string]string{"username": c.username, "password": c.password})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("docuware: build auth request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("docuware: auth failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("docuware: auth status %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("docuware: decode auth response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("docuware: empty auth token")
	}

	c.token = payload.Token
	c.tokenExpiry = c.now().Add(c.tokenTTL)
	return c.token, nil
}
