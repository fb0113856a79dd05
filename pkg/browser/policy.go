package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// URLPolicy blocks navigation to operator-denied destinations. Patterns are
// globs matched case-insensitively against the host and against the full
// URL, so both "*.internal.example.com" and "https://example.com/admin/*"
// work.
type URLPolicy struct {
	patterns []glob.Glob
	sources  []string
}

// NewURLPolicy compiles the given glob patterns. An empty pattern list
// yields a policy that allows everything.
func NewURLPolicy(patterns []string) (*URLPolicy, error) {
	p := &URLPolicy{}
	for _, raw := range patterns {
		compiled, err := glob.Compile(strings.ToLower(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid blocked-url pattern %q: %w", raw, err)
		}
		p.patterns = append(p.patterns, compiled)
		p.sources = append(p.sources, raw)
	}
	return p, nil
}

// Check returns an error when rawURL matches a blocked pattern.
func (p *URLPolicy) Check(rawURL string) error {
	if p == nil || len(p.patterns) == 0 {
		return nil
	}

	lowered := strings.ToLower(rawURL)
	host := ""
	if parsed, err := url.Parse(rawURL); err == nil {
		host = strings.ToLower(parsed.Host)
	}

	for i, pattern := range p.patterns {
		if pattern.Match(lowered) || (host != "" && pattern.Match(host)) {
			return fmt.Errorf("navigation to %s blocked by policy (pattern %q)", rawURL, p.sources[i])
		}
	}
	return nil
}
