package api

import (
	"github.com/maksimkurb/tinydnsproxy/src/internal/blocklist"
)

// DataResponse wraps successful responses.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// VersionInfo contains build information.
type VersionInfo struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

// ProviderInfo describes a DNS-over-TLS provider.
type ProviderInfo struct {
	Hostname string `json:"hostname"`
	Address  string `json:"address"`
	Pinned   bool   `json:"pinned"`
}

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	Version       VersionInfo     `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Listen        string          `json:"listen"`
	Workers       int             `json:"workers"`
	BlockList     blocklist.Stats `json:"blocklist"`
	Providers     []ProviderInfo  `json:"providers"`
}

// CheckResult is the outcome of a single health check.
type CheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// HealthCheckResponse is returned by GET /api/v1/health.
type HealthCheckResponse struct {
	Healthy bool                   `json:"healthy"`
	Checks  map[string]CheckResult `json:"checks"`
}

// DomainCheckResponse is returned by GET /api/v1/blocklist/{domain}.
type DomainCheckResponse struct {
	Domain  string `json:"domain"`
	Blocked bool   `json:"blocked"`
}

// RefreshResponse is returned by POST /api/v1/blocklist/refresh.
type RefreshResponse struct {
	Triggered bool `json:"triggered"`
}
