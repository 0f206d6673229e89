// Package protocol implements the HTTP-level client for X's internal
// GraphQL API: header construction, the retry/backoff/rate-limit state
// machine, and the SearchTimeline and supplementary endpoints.
package protocol

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lattice-labs/xcrawl/internal/config"
	"github.com/lattice-labs/xcrawl/internal/txnsign"
)

// apiBase is a var, not a const, so tests can point the client at an
// httptest.Server instead of the live API.
var apiBase = "https://x.com/i/api"

// Credentials supplies the per-session values the protocol client signs
// requests with. Implemented by the session package; kept as a narrow
// interface here so this package never imports session.
type Credentials interface {
	AuthToken() string
	CSRFToken() string
	CookieHeader() string
}

// Client is the signed, retrying HTTP client for X's internal API.
type Client struct {
	http      *http.Client
	txn       *txnsign.Generator
	xpff      *XPFFGenerator
	cfg       config.Config
	creds     Credentials
	rl        *RateLimitState
	limiter   *rate.Limiter
	guestID   string
	userAgent string
	log       zerolog.Logger
}

// New builds a Client. txn is shared across Clients in a session pool so
// its cached animation context amortizes across accounts.
func New(cfg config.Config, creds Credentials, txn *txnsign.Generator, guestID string, log zerolog.Logger) *Client {
	limit := rate.Inf
	if cfg.MaxRequestsPerSecond > 0 {
		limit = rate.Limit(cfg.MaxRequestsPerSecond)
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		txn:     txn,
		xpff:    NewXPFFGenerator(),
		cfg:     cfg,
		creds:   creds,
		limiter: rate.NewLimiter(limit, 1),
		rl: &RateLimitState{
			ResetBuffer:        cfg.RateLimitResetBuffer,
			MaxWait:            cfg.MaxRateLimitWait,
			FallbackWait:       cfg.RateLimitFallbackWait,
			ProactiveThreshold: cfg.RateLimitProactiveThreshold,
			PacingUsageRatio:   cfg.RateLimitPacingUsageRatio,
			PacingFactor:       cfg.RateLimitPacingFactor,
			PacingMinWait:      cfg.RateLimitPacingMinWait,
			PacingMaxWait:      cfg.RateLimitPacingMaxWait,
		},
		guestID:   guestID,
		userAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:141.0) Gecko/20100101 Firefox/141.0",
		log:       log,
	}
}

// getJSONWithRetry issues a signed GET against endpoint with the given
// query parameters, retrying on transient failures per the reference
// client's status-code policy, and returns the raw response body on
// success.
func (c *Client) getJSONWithRetry(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	return c.getJSONWithRetryForQuery(ctx, endpoint, query, "")
}

// getJSONWithRetryForQuery is getJSONWithRetry with a search rawQuery
// carried through to setHeaders so the Referer header can be computed
// to match the query actually being searched.
func (c *Client) getJSONWithRetryForQuery(ctx context.Context, endpoint string, query url.Values, rawQuery string) ([]byte, error) {
	var lastErr error
	forceRebuild := false

	for attempt := 1; attempt <= c.cfg.MaxRetries+1; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		if wait := c.rl.WaitDuration(time.Now()); wait > 0 {
			c.log.Debug().Dur("wait", wait).Msg("pacing ahead of request")
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
		}

		body, header, status, err := c.doGet(ctx, endpoint, query, rawQuery, forceRebuild)
		forceRebuild = false

		if err != nil {
			lastErr = err
			if attempt > c.cfg.MaxRetries {
				break
			}
			if sleepErr := sleepCtx(ctx, ServerErrorBackoff(attempt)); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}

		c.rl.Update(header)

		switch {
		case status == http.StatusOK:
			return body, nil

		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, &AuthenticationError{StatusCode: status}

		case status == http.StatusTooManyRequests:
			lastErr = &ProtocolRequestError{StatusCode: status, Body: string(body)}
			if attempt > c.cfg.MaxRetries {
				break
			}
			wait := c.rateLimitBackoff(header, attempt)
			c.log.Warn().Int("status", status).Dur("wait", wait).Msg("rate limited")
			if sleepErr := sleepCtx(ctx, wait); sleepErr != nil {
				return nil, sleepErr
			}
			continue

		case status == http.StatusNotFound:
			lastErr = &ProtocolRequestError{StatusCode: status, Body: string(body)}
			forceRebuild = true
			if attempt > c.cfg.MaxRetries {
				break
			}
			if sleepErr := sleepCtx(ctx, ServerErrorBackoff(attempt)); sleepErr != nil {
				return nil, sleepErr
			}
			continue

		case status >= 500:
			lastErr = &ProtocolRequestError{StatusCode: status, Body: string(body)}
			if attempt > c.cfg.MaxRetries {
				break
			}
			if sleepErr := sleepCtx(ctx, ServerErrorBackoff(attempt)); sleepErr != nil {
				return nil, sleepErr
			}
			continue

		default:
			return nil, &ProtocolRequestError{StatusCode: status, Body: string(body)}
		}
	}

	return nil, fmt.Errorf("request to %s failed after retries: %w", endpoint, lastErr)
}

// rateLimitBackoff computes the 429 sleep duration, preferring a
// reset-time-derived wait when the response carries rate-limit headers.
func (c *Client) rateLimitBackoff(header http.Header, attempt int) time.Duration {
	if resetRaw := header.Get("x-rate-limit-reset"); resetRaw != "" {
		if resetUnix, err := strconv.ParseInt(resetRaw, 10, 64); err == nil {
			wait := time.Until(time.Unix(resetUnix, 0))
			return BackoffAfterRetryAfter(wait, c.cfg.RateLimitResetBuffer, c.cfg.MaxRateLimitWait)
		}
	}
	return RateLimitBackoffNoHeader(attempt, c.cfg.RateLimitFallbackWait)
}

// doGet performs one unsigned-retry-free HTTP round trip: build URL,
// sign headers, execute, drain body. forceRebuild forces a fresh
// transaction-id context before signing (used after a 404).
func (c *Client) doGet(ctx context.Context, endpoint string, query url.Values, rawQuery string, forceRebuild bool) ([]byte, http.Header, int, error) {
	u, err := url.Parse(apiBase + endpoint)
	if err != nil {
		return nil, nil, 0, err
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, 0, err
	}

	if forceRebuild {
		if err := c.txn.ForceRefresh(ctx); err != nil {
			return nil, nil, 0, fmt.Errorf("rebuild transaction context: %w", err)
		}
	}
	if err := c.setHeaders(ctx, req, http.MethodGet, u.Path, rawQuery); err != nil {
		return nil, nil, 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, 0, err
	}
	return body, resp.Header, resp.StatusCode, nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, method, path, rawQuery string) error {
	txnID, err := c.txn.Generate(ctx, method, path)
	if err != nil {
		return fmt.Errorf("generate transaction id: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	req.Header.Set("X-Client-Transaction-Id", txnID)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://x.com")
	req.Header.Set("Referer", searchReferer(rawQuery))
	req.Header.Set("X-Twitter-Active-User", "yes")
	req.Header.Set("X-Twitter-Client-Language", "en")
	req.Header.Set("X-Twitter-Auth-Type", "OAuth2Session")

	if c.creds != nil {
		req.Header.Set("Cookie", c.creds.CookieHeader())
		req.Header.Set("X-Csrf-Token", c.creds.CSRFToken())
	}

	if xpff, err := c.xpff.Generate(c.guestID, c.userAgent); err == nil && xpff != "" {
		req.Header.Set("X-Xp-Forwarded-For", xpff)
	} else if err != nil {
		c.log.Debug().Err(err).Msg("xpff header generation failed, continuing without it")
	}

	return nil
}

// searchReferer builds the search-page referer the reference client
// sends alongside a SearchTimeline request, percent-encoding rawQuery
// while leaving "(", ")", ":" literal and encoding spaces as %20 (the
// same rule as Python's quote(raw_query, safe="(): ") followed by a
// space-to-%20 substitution). Requests with no rawQuery (non-search
// endpoints) get the site root instead.
func searchReferer(rawQuery string) string {
	if rawQuery == "" {
		return "https://x.com/"
	}
	return "https://x.com/search?q=" + encodeSearchQuery(rawQuery) + "&src=typed_query&f=live"
}

func encodeSearchQuery(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		switch {
		case isUnreservedQueryByte(c):
			b.WriteByte(c)
		case c == ' ':
			b.WriteString("%20")
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreservedQueryByte(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	case c == '(' || c == ')' || c == ':':
		return true
	default:
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
