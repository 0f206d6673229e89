package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Probe checks whether a cookie jar is still authenticated. It should
// wrap protocol.Client.VerifyCredentials.
type Probe func(ctx context.Context, jar Jar) error

// Manager owns one account's cookie jar: loading it from disk, probing
// it, and refreshing it through a CookieProvider when the probe fails.
type Manager struct {
	path     string
	provider CookieProvider
	log      zerolog.Logger
}

// NewManager builds a Manager backed by a cookie file at path.
func NewManager(path string, provider CookieProvider, log zerolog.Logger) *Manager {
	return &Manager{path: path, provider: provider, log: log}
}

// Ensure returns a usable cookie jar: the stored one if it still probes
// clean, a soft-pass reuse of it if the probe fails but core auth
// cookies are present, or a freshly provided one otherwise.
func (m *Manager) Ensure(ctx context.Context, probe Probe) (Jar, error) {
	existing, err := LoadJar(m.path)
	if err != nil {
		return nil, err
	}

	if len(existing) > 0 {
		probeErr := probe(ctx, existing)
		if probeErr == nil {
			return existing, nil
		}
		if existing.HasCoreAuthCookies() {
			m.log.Warn().Err(probeErr).Msg("cookie probe failed but core auth cookies present, reusing session")
			return existing, nil
		}
		m.log.Info().Err(probeErr).Msg("stored cookies failed probe, refreshing")
	}

	return m.Refresh(ctx, probe)
}

// Refresh fetches a new cookie jar from the provider, probes it, and
// persists it on success (or on a core-auth soft pass).
func (m *Manager) Refresh(ctx context.Context, probe Probe) (Jar, error) {
	jar, err := m.provider.ProvideCookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtain cookies: %w", err)
	}

	probeErr := probe(ctx, jar)
	if probeErr != nil {
		if !jar.HasCoreAuthCookies() {
			return nil, fmt.Errorf("login completed but credential probe failed: %w", probeErr)
		}
		m.log.Warn().Err(probeErr).Msg("post-login probe failed but core auth cookies present, continuing")
	}

	if err := SaveJar(m.path, jar); err != nil {
		return nil, err
	}
	return jar, nil
}
