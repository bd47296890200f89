package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// Allowlist restricts navigation to hosts matching a set of glob patterns
// (e.g. "*.example.com", "docs.internal"). An empty allowlist permits every
// host.
type Allowlist struct {
	patterns []glob.Glob
	sources  []string
}

// NewAllowlist compiles the given host patterns. Invalid patterns are
// rejected up front so misconfiguration fails at startup, not mid-task.
func NewAllowlist(patterns []string) (*Allowlist, error) {
	a := &Allowlist{}
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p), '.')
		if err != nil {
			return nil, fmt.Errorf("invalid allowlist pattern %q: %w", p, err)
		}
		a.patterns = append(a.patterns, g)
		a.sources = append(a.sources, p)
	}
	return a, nil
}

// AllowsURL reports whether navigation to rawURL is permitted. Only http and
// https URLs with an allowed host pass.
func (a *Allowlist) AllowsURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q is not allowed", u.Scheme)
	}
	if !a.allowsHost(u.Hostname()) {
		return fmt.Errorf("host %q is not on the allowlist", u.Hostname())
	}
	return nil
}

func (a *Allowlist) allowsHost(host string) bool {
	if len(a.patterns) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, g := range a.patterns {
		if g.Match(host) {
			return true
		}
	}
	return false
}

// Patterns returns the configured pattern strings.
func (a *Allowlist) Patterns() []string {
	return a.sources
}
