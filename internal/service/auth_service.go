package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/zarchive/ticket-gateway/internal/models"
	"github.com/zarchive/ticket-gateway/pkg/config"
	appErrors "github.com/zarchive/ticket-gateway/pkg/errors"
)

// AuthService implements the inbound authentication protocol: webhook
// signature verification with a replay window, the on-demand API-key check
// and the brand-ownership cross-check. Every ambiguous condition rejects.
type AuthService struct {
	replayWindow time.Duration
	now          func() time.Time
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig) *AuthService {
	window := cfg.ReplayWindow
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &AuthService{replayWindow: window, now: time.Now}
}

// ComputeSignature returns the base64 HMAC-SHA256 of timestamp||body under
// secret. Exposed so callers (and tests) can produce valid signatures.
func ComputeSignature(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook checks signature validity and timestamp freshness. Missing
// inputs, stale timestamps and bad signatures all collapse into the same
// generic unauthorized error.
func (s *AuthService) VerifyWebhook(secret string, body []byte, timestamp, signature string) error {
	if secret == "" || timestamp == "" || signature == "" {
		return appErrors.ErrUnauthorized
	}

	claimed, err := parseTimestamp(timestamp)
	if err != nil {
		return appErrors.ErrUnauthorized
	}
	age := s.now().Sub(claimed)
	if age > s.replayWindow || age < -s.replayWindow {
		return appErrors.ErrUnauthorized
	}

	expected := ComputeSignature(secret, timestamp, body)
	if !constantTimeEqual(expected, signature) {
		return appErrors.ErrUnauthorized
	}
	return nil
}

// VerifyAPIKey checks the on-demand caller key. No replay window applies
// since the request carries no signed timestamp.
func (s *AuthService) VerifyAPIKey(stored, supplied string) error {
	if stored == "" || supplied == "" {
		return appErrors.ErrUnauthorized
	}
	if !constantTimeEqual(stored, supplied) {
		return appErrors.ErrUnauthorized
	}
	return nil
}

// VerifyBrandOwnership requires the fetched ticket to carry a brand id that
// exactly equals the claimed tenant. A ticket without a brand id is
// unverifiable and rejected.
func (s *AuthService) VerifyBrandOwnership(ticket *models.Ticket, claimedBrandID string) error {
	if ticket == nil || ticket.BrandID == nil {
		return appErrors.ErrForbidden
	}
	if strconv.FormatInt(*ticket.BrandID, 10) != claimedBrandID {
		return appErrors.ErrForbidden
	}
	return nil
}

// constantTimeEqual hashes both sides before comparing so the comparison
// neither early-exits on length nor leaks position information.
func constantTimeEqual(a, b string) bool {
	ah := sha256.Sum256([]byte(a))
	bh := sha256.Sum256([]byte(b))
	return hmac.Equal(ah[:], bh[:])
}

// parseTimestamp accepts RFC3339 instants or unix seconds.
func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0), nil
}
