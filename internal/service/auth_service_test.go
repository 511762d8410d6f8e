package service

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarchive/ticket-gateway/internal/models"
	"github.com/zarchive/ticket-gateway/pkg/config"
	appErrors "github.com/zarchive/ticket-gateway/pkg/errors"
)

func newAuthServiceAt(t *testing.T, now time.Time) *AuthService {
	t.Helper()
	svc := NewAuthService(config.AuthConfig{ReplayWindow: 5 * time.Minute})
	svc.now = func() time.Time { return now }
	return svc
}

func TestVerifyWebhookAcceptsValidSignature(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newAuthServiceAt(t, now)

	body := []byte(`{"ticketId":42,"brandId":"7"}`)
	ts := now.Format(time.RFC3339)
	sig := ComputeSignature("shh", ts, body)

	require.NoError(t, svc.VerifyWebhook("shh", body, ts, sig))
}

func TestVerifyWebhookAcceptsUnixTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newAuthServiceAt(t, now)

	body := []byte(`{}`)
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := ComputeSignature("shh", ts, body)

	require.NoError(t, svc.VerifyWebhook("shh", body, ts, sig))
}

func TestVerifyWebhookRejectsTamperedBody(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newAuthServiceAt(t, now)

	ts := now.Format(time.RFC3339)
	sig := ComputeSignature("shh", ts, []byte(`{"ticketId":42}`))

	err := svc.VerifyWebhook("shh", []byte(`{"ticketId":43}`), ts, sig)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestVerifyWebhookRejectsFlippedSignatureByte(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newAuthServiceAt(t, now)

	body := []byte(`{"ticketId":42}`)
	ts := now.Format(time.RFC3339)
	sig := []byte(ComputeSignature("shh", ts, body))

	for i := range sig {
		flipped := append([]byte(nil), sig...)
		flipped[i] ^= 0x01
		err := svc.VerifyWebhook("shh", body, ts, string(flipped))
		require.ErrorIs(t, err, appErrors.ErrUnauthorized, "flip at byte %d must be rejected", i)
	}
}

func TestVerifyWebhookRejectsWrongSecret(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newAuthServiceAt(t, now)

	body := []byte(`{}`)
	ts := now.Format(time.RFC3339)
	sig := ComputeSignature("other", ts, body)

	assert.ErrorIs(t, svc.VerifyWebhook("shh", body, ts, sig), appErrors.ErrUnauthorized)
}

func TestVerifyWebhookReplayWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newAuthServiceAt(t, now)
	body := []byte(`{}`)

	cases := []struct {
		name   string
		offset time.Duration
		ok     bool
	}{
		{"two minutes old", -2 * time.Minute, true},
		{"two minutes ahead", 2 * time.Minute, true},
		{"ten minutes old", -10 * time.Minute, false},
		{"ten minutes ahead", 10 * time.Minute, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := now.Add(tc.offset).Format(time.RFC3339)
			sig := ComputeSignature("shh", ts, body)
			err := svc.VerifyWebhook("shh", body, ts, sig)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
			}
		})
	}
}

func TestVerifyWebhookRejectsMissingInputs(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newAuthServiceAt(t, now)
	body := []byte(`{}`)
	ts := now.Format(time.RFC3339)
	sig := ComputeSignature("shh", ts, body)

	assert.ErrorIs(t, svc.VerifyWebhook("", body, ts, sig), appErrors.ErrUnauthorized)
	assert.ErrorIs(t, svc.VerifyWebhook("shh", body, "", sig), appErrors.ErrUnauthorized)
	assert.ErrorIs(t, svc.VerifyWebhook("shh", body, ts, ""), appErrors.ErrUnauthorized)
	assert.ErrorIs(t, svc.VerifyWebhook("shh", body, "not-a-time", sig), appErrors.ErrUnauthorized)
}

func TestVerifyAPIKey(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{})

	assert.NoError(t, svc.VerifyAPIKey("key-1", "key-1"))
	assert.ErrorIs(t, svc.VerifyAPIKey("key-1", "key-2"), appErrors.ErrUnauthorized)
	assert.ErrorIs(t, svc.VerifyAPIKey("", "key-1"), appErrors.ErrUnauthorized)
	assert.ErrorIs(t, svc.VerifyAPIKey("key-1", ""), appErrors.ErrUnauthorized)
}

func TestVerifyBrandOwnership(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{})
	brand := int64(7)

	assert.NoError(t, svc.VerifyBrandOwnership(&models.Ticket{ID: 1, BrandID: &brand}, "7"))
	assert.ErrorIs(t, svc.VerifyBrandOwnership(&models.Ticket{ID: 1, BrandID: &brand}, "8"), appErrors.ErrForbidden)
	assert.ErrorIs(t, svc.VerifyBrandOwnership(&models.Ticket{ID: 1}, "7"), appErrors.ErrForbidden)
	assert.ErrorIs(t, svc.VerifyBrandOwnership(nil, "7"), appErrors.ErrForbidden)
}
