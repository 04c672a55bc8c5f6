package domain

import (
	"net/http"
)

// RemoteClient defines common operations for the remote API adapters.
// Each adapter (Jira core, Jira Agile, Notion) implements this
// interface to provide authenticated API access; callers never see
// which transport or auth style underlies a given capability.
type RemoteClient interface {
	// BaseURL returns the configured base URL for the service.
	BaseURL() string

	// Do executes an HTTP request with authentication and the
	// service's standard headers already applied.
	Do(req *http.Request) (*http.Response, error)
}
