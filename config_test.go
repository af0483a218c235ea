package moversapi_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	moversapi "github.com/harborline/moversapi"
)

var _ = Describe("Config", func() {
	var savedEnv map[string]string

	envVars := []string{
		"MOVERSAPI_BASE_URL", "APP_API_URL", "API_URL",
		"MOVERSAPI_API_KEY", "APP_API_KEY", "API_KEY",
		"MOVERSAPI_REQUEST_TIMEOUT", "MOVERSAPI_MAX_RETRIES",
	}

	BeforeEach(func() {
		savedEnv = make(map[string]string)
		for _, name := range envVars {
			savedEnv[name] = os.Getenv(name)
			Expect(os.Unsetenv(name)).To(Succeed())
		}
	})

	AfterEach(func() {
		for name, value := range savedEnv {
			if value == "" {
				Expect(os.Unsetenv(name)).To(Succeed())
			} else {
				Expect(os.Setenv(name, value)).To(Succeed())
			}
		}
	})

	Describe("ResolveConfig", func() {
		It("falls back to the localhost placeholder when nothing is set", func() {
			cfg := moversapi.ResolveConfig()
			Expect(cfg.BaseURL).To(Equal("http://localhost:8080"))
		})

		It("prefers the runtime variable over fallbacks", func() {
			Expect(os.Setenv("API_URL", "https://fallback.example.com")).To(Succeed())
			Expect(os.Setenv("MOVERSAPI_BASE_URL", "https://api.example.com")).To(Succeed())

			cfg := moversapi.ResolveConfig()
			Expect(cfg.BaseURL).To(Equal("https://api.example.com"))
		})

		It("uses the fallback chain in order", func() {
			Expect(os.Setenv("API_URL", "https://fallback.example.com")).To(Succeed())

			cfg := moversapi.ResolveConfig()
			Expect(cfg.BaseURL).To(Equal("https://fallback.example.com"))
		})

		It("normalizes a bare host by prepending a scheme", func() {
			Expect(os.Setenv("MOVERSAPI_BASE_URL", "api.example.com/")).To(Succeed())

			cfg := moversapi.ResolveConfig()
			Expect(cfg.BaseURL).To(Equal("https://api.example.com"))
		})

		It("reads the api key chain", func() {
			Expect(os.Setenv("API_KEY", "global-key")).To(Succeed())
			Expect(os.Setenv("MOVERSAPI_API_KEY", "runtime-key")).To(Succeed())

			cfg := moversapi.ResolveConfig()
			Expect(cfg.APIKey).To(Equal("runtime-key"))
		})

		It("parses duration and integer overrides, ignoring invalid values", func() {
			Expect(os.Setenv("MOVERSAPI_REQUEST_TIMEOUT", "5s")).To(Succeed())
			Expect(os.Setenv("MOVERSAPI_MAX_RETRIES", "not-a-number")).To(Succeed())

			cfg := moversapi.ResolveConfig()
			Expect(cfg.RequestTimeout).To(Equal(5 * time.Second))
			Expect(cfg.MaxRetries).To(Equal(moversapi.DefaultConfig().MaxRetries))
		})
	})

	Describe("Validate", func() {
		It("accepts the defaults", func() {
			Expect(moversapi.DefaultConfig().Validate()).To(Succeed())
		})

		It("rejects an empty base URL", func() {
			cfg := moversapi.DefaultConfig()
			cfg.BaseURL = ""
			Expect(cfg.Validate()).To(HaveOccurred())
		})

		It("rejects a retry cap below the base delay", func() {
			cfg := moversapi.DefaultConfig()
			cfg.RetryBaseDelay = time.Second
			cfg.RetryMaxDelay = 100 * time.Millisecond
			Expect(cfg.Validate()).To(HaveOccurred())
		})
	})
})

var _ = Describe("PolicyTable", func() {
	It("marks health, nav and services as critical by default", func() {
		table := moversapi.DefaultPolicies()
		Expect(table.Lookup(moversapi.EndpointHealth).Critical).To(BeTrue())
		Expect(table.Lookup(moversapi.EndpointNav).Critical).To(BeTrue())
		Expect(table.Lookup(moversapi.EndpointServices).Critical).To(BeTrue())
		Expect(table.Lookup(moversapi.EndpointAbout).Critical).To(BeFalse())
	})

	It("gives unknown endpoints the zero policy", func() {
		table := moversapi.DefaultPolicies()
		policy := table.Lookup("/v0/unknown")
		Expect(policy.Critical).To(BeFalse())
		Expect(policy.CacheTTL).To(BeZero())
	})

	Describe("LoadPolicies", func() {
		It("applies a partial YAML overlay on top of the defaults", func() {
			path := filepath.Join(GinkgoT().TempDir(), "policies.yaml")
			overlay := []byte(`
endpoints:
  /v0/locations:
    cache_ttl: 1m
  /v0/about:
    critical: true
`)
			Expect(os.WriteFile(path, overlay, 0o600)).To(Succeed())

			table, err := moversapi.LoadPolicies(path)
			Expect(err).NotTo(HaveOccurred())

			Expect(table.Lookup(moversapi.EndpointLocations).CacheTTL).To(Equal(time.Minute))
			Expect(table.Lookup(moversapi.EndpointAbout).Critical).To(BeTrue())
			// Untouched entries keep their defaults.
			Expect(table.Lookup(moversapi.EndpointNav).CacheTTL).To(Equal(5 * time.Minute))
		})

		It("rejects an unparseable TTL", func() {
			path := filepath.Join(GinkgoT().TempDir(), "policies.yaml")
			overlay := []byte("endpoints:\n  /v0/nav:\n    cache_ttl: soon\n")
			Expect(os.WriteFile(path, overlay, 0o600)).To(Succeed())

			_, err := moversapi.LoadPolicies(path)
			Expect(err).To(HaveOccurred())
		})

		It("fails for a missing file", func() {
			_, err := moversapi.LoadPolicies("/does/not/exist.yaml")
			Expect(err).To(HaveOccurred())
		})
	})
})
