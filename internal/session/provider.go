package session

import "context"

// CookieProvider supplies a fresh, authenticated cookie jar when the
// stored one has gone stale. The reference deployment drives an
// interactive browser login here; driving a real browser is out of
// scope for this client core, so CookieProvider stands in as the seam a
// caller wires a login flow into.
type CookieProvider interface {
	ProvideCookies(ctx context.Context) (Jar, error)
}

// FileCookieProvider "refreshes" a session by re-reading a cookie file
// that an out-of-process login flow (or an operator) is expected to have
// already updated. It is the provider used when no interactive login is
// wired in.
type FileCookieProvider struct {
	Path string
}

func (p FileCookieProvider) ProvideCookies(ctx context.Context) (Jar, error) {
	jar, err := LoadJar(p.Path)
	if err != nil {
		return nil, err
	}
	return jar, nil
}
