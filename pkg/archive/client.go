// Package archive holds the outbound document-archive adapters. Each backend
// variant manages its own bearer-token lifecycle and is opaque to callers
// beyond UploadDocument.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/zarchive/ticket-gateway/internal/models"
)

// UploadRequest carries one file destined for the archive backend.
type UploadRequest struct {
	CaseNumber  string
	Filename    string
	Content     []byte
	ContentType string
	Metadata    map[string]string
}

// UploadResult reports the backend's handle for the stored document.
type UploadResult struct {
	DocumentID string
}

// Client is the single capability the gateway needs from a backend.
type Client interface {
	UploadDocument(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// New dispatches on the endpoint's declared type. Unknown types are a
// configuration error, never a fallback.
func New(endpoint models.ArchiveEndpointConfig, timeout, defaultTokenTTL time.Duration) (Client, error) {
	ttl := defaultTokenTTL
	if endpoint.TokenTTLSeconds > 0 {
		ttl = time.Duration(endpoint.TokenTTLSeconds) * time.Second
	}
	switch endpoint.Type {
	case models.EndpointTypeOneSystems:
		return newOneSystemsClient(endpoint.BaseURL, endpoint.AppKey, timeout, ttl), nil
	case models.EndpointTypeDocuware:
		return newDocuwareClient(endpoint.BaseURL, endpoint.Username, endpoint.Password, timeout, ttl), nil
	default:
		return nil, fmt.Errorf("archive: unsupported endpoint type %q", endpoint.Type)
	}
}
