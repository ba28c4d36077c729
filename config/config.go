// Package config loads the daemon's configuration from the
// environment and validates it once at startup. Validation produces an
// explicit Diagnostics value instead of warning lazily from request
// handlers, so every missing piece of configuration is visible in the
// startup log exactly once.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// AppID and PrivateKeyPEM form the GitHub App credential. The key
	// is accepted in PKCS#1 or PKCS#8 textual form.
	AppID         string
	PrivateKeyPEM []byte

	// AppName is the App's URL slug, used to build the install prompt
	// URL for repositories the App is not installed on.
	AppName string

	// AllowedOrigins is the CORS allow list; a single "*" entry allows
	// any origin.
	AllowedOrigins []string

	// MaxScreenshotBytes caps the decoded screenshot size.
	MaxScreenshotBytes int64

	// DatabaseURL points at the shared counter store. Empty disables
	// rate limiting.
	DatabaseURL string

	// GitHubBaseURL overrides the API root, for tests.
	GitHubBaseURL string

	Port        string
	Environment string

	ClientWindow time.Duration
	ClientMax    int64
	RepoWindow   time.Duration
	RepoMax      int64
}

// Diagnostics is the outcome of startup validation. Problems are
// fatal; Warnings describe degraded but workable configurations.
type Diagnostics struct {
	Problems []string
	Warnings []string
}

func (d *Diagnostics) OK() bool { return len(d.Problems) == 0 }

// FromEnv reads configuration from environment variables, applying
// defaults for everything optional.
func FromEnv() *Config {
	return &Config{
		AppID:              os.Getenv("GITHUB_APP_ID"),
		PrivateKeyPEM:      []byte(os.Getenv("GITHUB_APP_PRIVATE_KEY")),
		AppName:            os.Getenv("GITHUB_APP_NAME"),
		AllowedOrigins:     splitList(getenv("ALLOWED_ORIGINS", "*")),
		MaxScreenshotBytes: int64(envInt("MAX_SCREENSHOT_MB", 5)) * 1024 * 1024,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		GitHubBaseURL:      os.Getenv("GITHUB_API_URL"),
		Port:               getenv("PORT", "8080"),
		Environment:        getenv("ENVIRONMENT", "development"),
		ClientWindow:       envDuration("CLIENT_RATE_WINDOW", 15*time.Minute),
		ClientMax:          int64(envInt("CLIENT_RATE_MAX", 10)),
		RepoWindow:         envDuration("REPO_RATE_WINDOW", time.Hour),
		RepoMax:            int64(envInt("REPO_RATE_MAX", 30)),
	}
}

// Validate reports everything wrong or degraded about the
// configuration in one pass.
func (c *Config) Validate() *Diagnostics {
	d := &Diagnostics{}

	if c.AppID == "" {
		d.Problems = append(d.Problems, "GITHUB_APP_ID is required")
	}
	if len(c.PrivateKeyPEM) == 0 {
		d.Problems = append(d.Problems, "GITHUB_APP_PRIVATE_KEY is required")
	}
	if c.AppName == "" {
		d.Problems = append(d.Problems, "GITHUB_APP_NAME is required (used for the install prompt URL)")
	}
	if c.MaxScreenshotBytes <= 0 {
		d.Problems = append(d.Problems, "MAX_SCREENSHOT_MB must be positive")
	}
	if c.ClientMax <= 0 || c.RepoMax <= 0 {
		d.Problems = append(d.Problems, "rate limit maximums must be positive")
	}

	if c.DatabaseURL == "" {
		d.Warnings = append(d.Warnings, "DATABASE_URL not set: rate limiting is disabled")
	}
	if len(c.AllowedOrigins) == 1 && c.AllowedOrigins[0] == "*" {
		d.Warnings = append(d.Warnings, "ALLOWED_ORIGINS is a wildcard: any origin may submit feedback")
	}

	return d
}

// InstallURL is the page a repository owner visits to install the App.
func (c *Config) InstallURL() string {
	return fmt.Sprintf("https://github.com/apps/%s/installations/new", c.AppName)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
