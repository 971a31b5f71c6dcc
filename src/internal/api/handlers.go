package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maksimkurb/tinydnsproxy/src/internal/blocklist"
	"github.com/maksimkurb/tinydnsproxy/src/internal/metrics"
	"github.com/maksimkurb/tinydnsproxy/src/internal/upstream"
)

var (
	// Version information set via ldflags at build time
	Version = "dev"
	Date    = "n/a"
	Commit  = "n/a"
)

// BlockList is the block list state exposed by the API.
type BlockList interface {
	Check(domain string) bool
	Stats() blocklist.Stats
}

// Refresher requests an early block list refresh.
type Refresher interface {
	Trigger()
}

// Providers lists the configured upstreams.
type Providers interface {
	All() []*upstream.Provider
}

// Deps holds everything the handlers read from.
type Deps struct {
	BlockList  BlockList
	Refresher  Refresher
	Providers  Providers
	Metrics    *metrics.Metrics
	ListenAddr string
	Workers    int
}

// Handler serves the API endpoints.
type Handler struct {
	deps      Deps
	startedAt time.Time
}

func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, startedAt: time.Now()}
}

// writeJSON writes data wrapped in DataResponse.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(DataResponse{Data: data})
}

// GetStatus returns proxy status.
// GET /api/v1/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	response := StatusResponse{
		Version:       VersionInfo{Version: Version, Date: Date, Commit: Commit},
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Listen:        h.deps.ListenAddr,
		Workers:       h.deps.Workers,
		BlockList:     h.deps.BlockList.Stats(),
		Providers:     []ProviderInfo{},
	}

	for _, p := range h.deps.Providers.All() {
		response.Providers = append(response.Providers, ProviderInfo{
			Hostname: p.Hostname,
			Address:  p.Address(),
			Pinned:   p.Pinned,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// CheckHealth reports whether the proxy can serve requests.
// GET /api/v1/health
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthCheckResponse{
		Healthy: true,
		Checks:  make(map[string]CheckResult),
	}

	if n := len(h.deps.Providers.All()); n > 0 {
		response.Checks["providers"] = CheckResult{Passed: true, Message: fmt.Sprintf("%d DNS-over-TLS providers configured", n)}
	} else {
		response.Healthy = false
		response.Checks["providers"] = CheckResult{Passed: false, Message: "No DNS-over-TLS providers configured"}
	}

	stats := h.deps.BlockList.Stats()
	if stats.LastRefresh.IsZero() {
		response.Healthy = false
		response.Checks["blocklist"] = CheckResult{Passed: false, Message: "Block list was not loaded yet"}
	} else {
		response.Checks["blocklist"] = CheckResult{
			Passed:  true,
			Message: fmt.Sprintf("%d domains, refreshed at %s", stats.Domains, stats.LastRefresh.Format(time.RFC3339)),
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// CheckDomain reports whether a domain is blocked, with the same semantics
// as the DNS path.
// GET /api/v1/blocklist/{domain}
func (h *Handler) CheckDomain(w http.ResponseWriter, r *http.Request) {
	domain := strings.TrimSuffix(chi.URLParam(r, "domain"), ".")
	if domain == "" {
		WriteInvalidRequest(w, "domain is required")
		return
	}

	writeJSON(w, http.StatusOK, DomainCheckResponse{
		Domain:  domain,
		Blocked: h.deps.BlockList.Check(domain),
	})
}

// RefreshBlockList requests an early refresh and returns immediately.
// POST /api/v1/blocklist/refresh
func (h *Handler) RefreshBlockList(w http.ResponseWriter, r *http.Request) {
	h.deps.Refresher.Trigger()
	writeJSON(w, http.StatusAccepted, RefreshResponse{Triggered: true})
}
