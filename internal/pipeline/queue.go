package pipeline

import (
	"net/url"
	"strings"
	"sync"
)

// URLQueue is a FIFO of article URLs that drops duplicates. URLs are
// compared after normalization.
type URLQueue struct {
	mu    sync.Mutex
	queue []string
	seen  map[string]bool
}

// NewURLQueue creates an empty queue.
func NewURLQueue() *URLQueue {
	return &URLQueue{seen: make(map[string]bool)}
}

// Add enqueues rawURL unless it was seen before or is not an absolute
// http(s) URL. It reports whether the URL was added.
func (q *URLQueue) Add(rawURL string) bool {
	normalized := normalizeURL(rawURL)
	if normalized == "" {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.seen[normalized] {
		return false
	}
	q.seen[normalized] = true
	q.queue = append(q.queue, normalized)
	return true
}

// Pop removes and returns the next URL.
func (q *URLQueue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.queue) == 0 {
		return "", false
	}
	next := q.queue[0]
	q.queue = q.queue[1:]
	return next, true
}

// Len returns the number of queued URLs.
func (q *URLQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// normalizeURL trims whitespace, drops the fragment and a trailing slash
// (except the root path). It returns "" for anything that is not an
// absolute http(s) URL.
func normalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ""
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""
	if len(parsed.Path) > 1 && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
		parsed.RawPath = ""
	}
	return parsed.String()
}
