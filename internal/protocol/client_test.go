package protocol

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-labs/xcrawl/internal/config"
	"github.com/lattice-labs/xcrawl/internal/txnsign"
)

type fakeCreds struct{}

func (fakeCreds) AuthToken() string    { return "tok" }
func (fakeCreds) CSRFToken() string    { return "csrf" }
func (fakeCreds) CookieHeader() string { return "auth_token=tok; ct0=csrf" }

func newTestClient(t *testing.T, server *httptest.Server, maxRetries int) *Client {
	t.Helper()
	apiBase = server.URL
	t.Cleanup(func() { apiBase = "https://x.com/i/api" })

	cfg := config.Default()
	cfg.MaxRetries = maxRetries
	cfg.RequestTimeout = 5 * time.Second

	txnGen := txnsign.NewWithContext(txnsign.DefaultConfig(), &txnsign.Context{
		KeyBytes:       []int{1, 2, 3, 4, 5, 6, 7},
		AnimationKey:   "fixedkey",
		KeyByteIndices: []int{1, 2},
	})

	return New(cfg, fakeCreds{}, txnGen, "v1%3A1", zerolog.Nop())
}

func TestGetJSONWithRetrySucceedsOn200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := newTestClient(t, server, 2)
	body, err := c.getJSONWithRetry(context.Background(), "/some/endpoint", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGetJSONWithRetryReturnsAuthenticationErrorWithoutRetrying(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(t, server, 3)
	_, err := c.getJSONWithRetry(context.Background(), "/some/endpoint", nil)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 1, calls)
}

func TestGetJSONWithRetryTerminalOnUnknown4xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := newTestClient(t, server, 3)
	_, err := c.getJSONWithRetry(context.Background(), "/some/endpoint", nil)

	var reqErr *ProtocolRequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
}

func TestGetJSONWithRetryRecoversAfterTransient500(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := newTestClient(t, server, 2)
	body, err := c.getJSONWithRetry(context.Background(), "/some/endpoint", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, 2, calls)
}
