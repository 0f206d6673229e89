package protocol

import "sync"

// CredentialsHolder adapts a swappable Credentials value into a stable
// Credentials the Client can hold for its whole lifetime, so a session
// refresh can update what a Client signs with without rebuilding it.
type CredentialsHolder struct {
	mu    sync.RWMutex
	creds Credentials
}

// Set installs new credentials.
func (h *CredentialsHolder) Set(creds Credentials) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.creds = creds
}

func (h *CredentialsHolder) current() Credentials {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.creds
}

func (h *CredentialsHolder) AuthToken() string {
	if c := h.current(); c != nil {
		return c.AuthToken()
	}
	return ""
}

func (h *CredentialsHolder) CSRFToken() string {
	if c := h.current(); c != nil {
		return c.CSRFToken()
	}
	return ""
}

func (h *CredentialsHolder) CookieHeader() string {
	if c := h.current(); c != nil {
		return c.CookieHeader()
	}
	return ""
}
