package site

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Allowlist restricts external navigation targets to configured URL globs,
// e.g. "https://codenovabd.com/**". An empty allowlist permits everything.
type Allowlist struct {
	patterns []glob.Glob
	raw      []string
}

// NewAllowlist compiles patterns. Blank entries are skipped.
func NewAllowlist(patterns []string) (*Allowlist, error) {
	a := &Allowlist{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid navigation pattern %q: %w", p, err)
		}
		a.patterns = append(a.patterns, g)
		a.raw = append(a.raw, p)
	}
	return a, nil
}

// Allows reports whether url may be navigated to.
func (a *Allowlist) Allows(url string) bool {
	if a == nil || len(a.patterns) == 0 {
		return true
	}
	for _, g := range a.patterns {
		if g.Match(url) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns.
func (a *Allowlist) Patterns() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.raw...)
}
