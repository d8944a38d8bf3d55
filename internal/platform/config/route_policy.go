package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// RoutePolicy lists which paths skip tenant resolution and which may resolve
// the tenant from a header when no token is presented.
type RoutePolicy struct {
	Public         []string `yaml:"public"`
	HeaderEligible []string `yaml:"header_eligible"`
	TenantHeader   string   `yaml:"tenant_header"`
}

// DefaultRoutePolicy matches the routes the gateway serves.
func DefaultRoutePolicy() RoutePolicy {
	return RoutePolicy{
		Public: []string{
			"/health",
			"/health/*",
			"/metrics",
			"/api/auth/jwks.json",
			"/api/organizations/create/",
		},
		HeaderEligible: []string{
			"/api/auth/login/",
			"/api/auth/refresh/",
			"/api/auth/verify-token/",
			"/api/users/create/",
		},
		TenantHeader: DefaultTenantHeader,
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// LoadRoutePolicy reads a YAML route policy, expanding ${VAR} references.
// An empty path yields DefaultRoutePolicy.
func LoadRoutePolicy(path string) (RoutePolicy, error) {
	if path == "" {
		return DefaultRoutePolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RoutePolicy{}, fmt.Errorf("reading route policy: %w", err)
	}

	expanded := envVarPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})

	var policy RoutePolicy
	if err := yaml.Unmarshal([]byte(expanded), &policy); err != nil {
		return RoutePolicy{}, fmt.Errorf("parsing route policy: %w", err)
	}
	if policy.TenantHeader == "" {
		policy.TenantHeader = DefaultTenantHeader
	}
	return policy, nil
}
