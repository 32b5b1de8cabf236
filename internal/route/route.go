// Package route resolves which sink a matched item is delivered to.
package route

import (
	"github.com/ethanocurtis/MultiNotify/internal/matcher"
	"github.com/ethanocurtis/MultiNotify/internal/model"
)

// Resolve returns the sink of the first route whose keyword occurs in
// text as a whole word. Routes are evaluated in slice order, which is
// insertion order; when two keywords both match, the earlier route
// wins. If no route matches, def is returned.
func Resolve(text string, routes []model.Route, def model.SinkRef) model.SinkRef {
	for _, r := range routes {
		if matcher.MatchWord(text, r.Keyword) {
			return r.Sink
		}
	}
	return def
}
