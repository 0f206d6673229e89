// Package session manages the cookie-jar lifecycle backing one signed-in
// account: loading and saving cookies to disk, probing whether they are
// still authenticated, and refreshing them through a pluggable
// CookieProvider when they are not.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cookie mirrors one entry of a browser cookie jar export.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain,omitempty"`
	Path     string `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	SameSite string `json:"sameSite,omitempty"`
}

// Jar is an ordered cookie set for one account, serialized the same way
// a browser automation export would be.
type Jar []Cookie

// Get returns a cookie's value, or "" if absent.
func (j Jar) Get(name string) string {
	for _, c := range j {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// HasCoreAuthCookies reports whether the jar carries both auth_token and
// ct0 with non-empty values — the minimal signal that a session is
// likely still authenticated, used as a fallback when an explicit probe
// request fails ambiguously.
func (j Jar) HasCoreAuthCookies() bool {
	return j.Get("auth_token") != "" && j.Get("ct0") != ""
}

// Header renders the jar as a single Cookie request header value.
func (j Jar) Header() string {
	parts := make([]string, 0, len(j))
	for _, c := range j {
		if c.Value == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// AuthToken implements protocol.Credentials.
func (j Jar) AuthToken() string { return j.Get("auth_token") }

// CSRFToken implements protocol.Credentials, reading the ct0 cookie that
// X mirrors into the x-csrf-token header.
func (j Jar) CSRFToken() string { return j.Get("ct0") }

// CookieHeader implements protocol.Credentials.
func (j Jar) CookieHeader() string { return j.Header() }

// LoadJar reads a cookie jar from a JSON file. A missing file returns a
// nil jar and no error, so callers can fall back to Refresh. A file that
// is not valid JSON is an error, but a file that is valid JSON and simply
// isn't a JSON array (wrong shape, e.g. an object or a scalar) also
// returns a nil jar and no error, mirroring a browser-export file that
// hasn't been populated yet.
func LoadJar(path string) (Jar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cookie file %s: %w", path, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse cookie file %s: %w", path, err)
	}
	if _, ok := raw.([]any); !ok {
		return nil, nil
	}

	var jar Jar
	if err := json.Unmarshal(data, &jar); err != nil {
		return nil, fmt.Errorf("parse cookie file %s: %w", path, err)
	}
	return jar, nil
}

// SaveJar writes a cookie jar to a JSON file, creating parent
// directories as needed.
func SaveJar(path string, jar Jar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cookie directory: %w", err)
	}
	data, err := json.MarshalIndent(jar, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cookie jar: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write cookie file %s: %w", path, err)
	}
	return nil
}
