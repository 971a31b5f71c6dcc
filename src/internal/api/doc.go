// Package api provides the optional status API of tinydnsproxy.
//
// Endpoints:
//
//	GET  /api/v1/status              proxy, block list and provider status
//	GET  /api/v1/health              health checks
//	GET  /api/v1/blocklist/{domain}  whether a domain is currently blocked
//	POST /api/v1/blocklist/refresh   request an early block list refresh
//	GET  /metrics                    Prometheus metrics
//
// Successful responses are wrapped as {"data": ...}, errors as
// {"error": {"code": ..., "message": ...}}. Only clients from private and
// loopback networks are served.
package api
