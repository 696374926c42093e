// Package cleaner provides content transforms that run around the main
// formatter: main-content extraction for pages without a known container,
// maintenance cleaning of already-published posts, and Markdown rendering
// for targets that do not accept HTML.
package cleaner

import "errors"

// ErrTrafilaturaNotAvailable is returned when trafilatura is used but not compiled in.
var ErrTrafilaturaNotAvailable = errors.New("trafilatura not available: build with -tags trafilatura to enable")

// Cleaner transforms a piece of content into another representation.
type Cleaner interface {
	// Clean transforms the input. The output format depends on the
	// implementation (HTML, Markdown, plain text).
	Clean(content string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
