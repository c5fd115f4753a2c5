// Package remote is the HTTP client for the monitoring service's REST API:
// per-instrument snapshots, the combined update and the settings document.
package remote
