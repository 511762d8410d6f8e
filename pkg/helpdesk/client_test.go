package helpdesk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarchive/ticket-gateway/internal/models"
	"github.com/zarchive/ticket-gateway/pkg/config"
)

func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client := New(
		models.HelpdeskCredentials{Subdomain: "acme", AdminEmail: "admin@acme.test", APIToken: "tok"},
		config.HelpdeskConfig{RequestTimeout: 5 * time.Second},
	)
	client.BaseURL = server.URL
	client.HTTPClient = server.Client()
	return client
}

func TestNewBuildsSubdomainURL(t *testing.T) {
	client := New(models.HelpdeskCredentials{Subdomain: "acme"}, config.HelpdeskConfig{})
	assert.Equal(t, "https://acme.zendesk.com/api/v2", client.BaseURL)
}

func TestGetTicket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tickets/42.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "admin@acme.test/token", user)
		require.Equal(t, "tok", pass)
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"ticket": map[string]interface{}{
				"id":       42,
				"subject":  "Broken widget",
				"status":   "closed",
				"brand_id": 7,
			},
		})
	}))
	defer server.Close()

	ticket, err := testClient(t, server).GetTicket(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ticket.ID)
	assert.Equal(t, "Broken widget", ticket.Subject)
	require.NotNil(t, ticket.BrandID)
	assert.Equal(t, int64(7), *ticket.BrandID)
}

func TestGetTicketErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(t, server).GetTicket(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestGetComments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tickets/42/comments.json", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"comments": []map[string]interface{}{
				{"id": 1, "author_id": 100, "public": true, "html_body": "<p>hi</p>"},
				{"id": 2, "author_id": 200, "public": false, "html_body": "<p>internal</p>"},
			},
		})
	}))
	defer server.Close()

	comments, err := testClient(t, server).GetComments(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.True(t, comments[0].Public)
	assert.False(t, comments[1].Public)
}

func TestGetUsersByIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/show_many.json", r.URL.Path)
		require.Equal(t, "100,200", r.URL.Query().Get("ids"))
		json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
			"users": []map[string]interface{}{
				{"id": 100, "name": "Alice"},
				{"id": 200, "name": "Bob"},
			},
		})
	}))
	defer server.Close()

	names, err := testClient(t, server).GetUsersByIDs(context.Background(), []int64{100, 200})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{100: "Alice", 200: "Bob"}, names)
}

func TestGetUsersByIDsEmptyInput(t *testing.T) {
	client := New(models.HelpdeskCredentials{Subdomain: "acme"}, config.HelpdeskConfig{})
	names, err := client.GetUsersByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCheckAttachmentURLAllowList(t *testing.T) {
	client := New(models.HelpdeskCredentials{Subdomain: "acme"}, config.HelpdeskConfig{})

	cases := []struct {
		name string
		url  string
		ok   bool
	}{
		{"allowed zendesk host", "https://acme.zendesk.com/attachments/1", true},
		{"allowed content host", "https://p1.zdusercontent.com/file/2", true},
		{"bare allowed domain", "https://zendesk.com/x", true},
		{"plain http", "http://acme.zendesk.com/attachments/1", false},
		{"lookalike suffix", "https://zendesk.com.evil.test/x", false},
		{"lookalike prefix", "https://evilzendesk.com.attacker.test/x", false},
		{"unrelated host", "https://example.test/x", false},
		{"ipv4 literal", "https://192.0.2.10/x", false},
		{"single label", "https://localhost/x", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := client.checkAttachmentURL(tc.url)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDownloadAttachmentRejectsDisallowedHost(t *testing.T) {
	client := New(models.HelpdeskCredentials{Subdomain: "acme"}, config.HelpdeskConfig{})
	_, err := client.DownloadAttachment(context.Background(), "https://internal.corp.test/secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")
}

func TestDownloadAttachmentEnforcesByteCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100)) //nolint:errcheck
	}))
	defer server.Close()

	client := New(
		models.HelpdeskCredentials{Subdomain: "acme"},
		config.HelpdeskConfig{AttachmentDomains: []string{"example.test"}, MaxAttachmentBytes: 50},
	)
	client.HTTPClient = server.Client()

	// The allow-list check runs on the URL before any connection, so route a
	// permitted-looking URL at the test server via its transport.
	client.HTTPClient.Transport = rewriteTransport{base: http.DefaultTransport, target: server.Listener.Addr().String()}

	_, err := client.DownloadAttachment(context.Background(), "https://files.example.test/big.bin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 50 bytes")
}

type rewriteTransport struct {
	base   http.RoundTripper
	target string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.target
	return t.base.RoundTrip(req)
}
