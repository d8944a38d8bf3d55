package resolver

import "strings"

// Policy classifies request paths for tenant resolution. Patterns are exact
// paths or prefixes ending in "/*".
type Policy struct {
	public         matcher
	headerEligible matcher
}

func NewPolicy(public, headerEligible []string) Policy {
	return Policy{
		public:         newMatcher(public),
		headerEligible: newMatcher(headerEligible),
	}
}

// IsPublic reports whether path bypasses resolution.
func (p Policy) IsPublic(path string) bool {
	return p.public.match(path)
}

// IsHeaderEligible reports whether path may take its tenant from a header
// when no valid token is presented.
func (p Policy) IsHeaderEligible(path string) bool {
	return p.headerEligible.match(path)
}

type matcher struct {
	exact    map[string]struct{}
	prefixes []string
}

func newMatcher(patterns []string) matcher {
	m := matcher{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			m.prefixes = append(m.prefixes, prefix+"/")
			continue
		}
		m.exact[p] = struct{}{}
	}
	return m
}

func (m matcher) match(path string) bool {
	if _, ok := m.exact[path]; ok {
		return true
	}
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
