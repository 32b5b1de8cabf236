// Package source implements the content-source clients: the Reddit
// listing API and RSS/Atom feeds. Both return items in the source's
// native newest-first order; the pipeline reverses them so delivery is
// chronological.
package source

import "net/http"

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const maxBodySize = 5 * 1024 * 1024

// truncate shortens s to at most n bytes, appending an ellipsis when
// anything was cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
