package moversapi

import (
	"crypto/md5"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend endpoint paths.
const (
	EndpointHealth           = "/v0/health"
	EndpointNav              = "/v0/nav"
	EndpointServices         = "/v0/services"
	EndpointAbout            = "/v0/about"
	EndpointContact          = "/v0/contact"
	EndpointTestimonials     = "/v0/testimonials"
	EndpointRecentMoves      = "/v0/recentMoves"
	EndpointRecentMovesTotal = "/v0/recentMoves/total"
	EndpointLocations        = "/v0/locations"
	EndpointSupplies         = "/v0/supplies"
	EndpointServiceAreas     = "/v0/serviceAreas"
	EndpointAuthStatus       = "/auth/status"
	EndpointAuthLogin        = "/auth/login"
	EndpointAuthLogout       = "/auth/logout"
)

// Policy is the per-endpoint behavior table entry, constructed at startup.
// Critical endpoints get retry-with-backoff; CacheTTL of zero disables
// response caching for the endpoint.
type Policy struct {
	Retryable bool          `yaml:"retryable"`
	Critical  bool          `yaml:"critical"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// PolicyTable maps endpoint paths to their policies.
type PolicyTable map[string]Policy

// DefaultPolicies returns the built-in endpoint policy table. TTLs reflect
// content volatility: the health probe is short-lived, mostly-static copy
// pages live longest.
func DefaultPolicies() PolicyTable {
	return PolicyTable{
		EndpointHealth:           {Retryable: true, Critical: true, CacheTTL: 30 * time.Second},
		EndpointNav:              {Retryable: true, Critical: true, CacheTTL: 5 * time.Minute},
		EndpointServices:         {Retryable: true, Critical: true, CacheTTL: 10 * time.Minute},
		EndpointAbout:            {CacheTTL: 15 * time.Minute},
		EndpointContact:          {CacheTTL: 15 * time.Minute},
		EndpointTestimonials:     {CacheTTL: 10 * time.Minute},
		EndpointRecentMoves:      {CacheTTL: 2 * time.Minute},
		EndpointRecentMovesTotal: {CacheTTL: 2 * time.Minute},
		EndpointLocations:        {CacheTTL: 15 * time.Minute},
		EndpointSupplies:         {CacheTTL: 10 * time.Minute},
		EndpointServiceAreas:     {CacheTTL: 15 * time.Minute},
		EndpointAuthStatus:       {},
		EndpointAuthLogin:        {},
		EndpointAuthLogout:       {},
	}
}

// Lookup returns the policy for an endpoint path. Unknown endpoints get the
// zero policy: no retry, no cache.
func (t PolicyTable) Lookup(path string) Policy {
	return t[path]
}

// policyFile is the YAML overlay document shape.
type policyFile struct {
	Endpoints map[string]struct {
		Retryable *bool  `yaml:"retryable"`
		Critical  *bool  `yaml:"critical"`
		CacheTTL  string `yaml:"cache_ttl"`
	} `yaml:"endpoints"`
}

// LoadPolicies reads a YAML overlay and applies it on top of the defaults.
// Only the fields present in the file are overridden, so a deployment can
// retune a single TTL without restating the whole table.
func LoadPolicies(path string) (PolicyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode policy file: %w", err)
	}

	table := DefaultPolicies()
	for endpoint, override := range file.Endpoints {
		policy := table[endpoint]
		if override.Retryable != nil {
			policy.Retryable = *override.Retryable
		}
		if override.Critical != nil {
			policy.Critical = *override.Critical
		}
		if override.CacheTTL != "" {
			ttl, err := time.ParseDuration(override.CacheTTL)
			if err != nil {
				return nil, fmt.Errorf("invalid cache_ttl for %s: %w", endpoint, err)
			}
			policy.CacheTTL = ttl
		}
		table[endpoint] = policy
	}
	return table, nil
}

// endpointKey derives the endpoint identity used for deduplication, caching
// and circuit breaking: method + path, plus an md5 digest of the body when
// one is present. GET requests to the public content endpoints carry no body,
// so their identity collapses to method+path.
func endpointKey(method, path string, body []byte) string {
	if len(body) == 0 {
		return method + ":" + path
	}
	return fmt.Sprintf("%s:%s:%x", method, path, md5.Sum(body))
}
