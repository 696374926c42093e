// Package store remembers which source URLs have already been published.
package store

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmylchreest/repost/internal/logger"
)

// Published is a file-backed set of source URLs, one per line. It is safe
// for concurrent use.
type Published struct {
	mu   sync.Mutex
	path string
	urls map[string]bool
}

// Open loads the set from path. A missing file yields an empty set; the
// file is created on the first Add. An empty path keeps the set in memory.
func Open(path string) (*Published, error) {
	s := &Published{path: path, urls: make(map[string]bool)}
	if path == "" {
		return s, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("published URLs file not found, starting empty", "path", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open published URLs: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			s.urls[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read published URLs: %w", err)
	}

	logger.Info("loaded published URLs", "path", path, "count", len(s.urls))
	return s, nil
}

// Contains reports whether url was published.
func (s *Published) Contains(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urls[strings.TrimSpace(url)]
}

// Add records url and appends it to the file. Adding a known URL is a
// no-op. The URL stays recorded in memory even if the write fails.
func (s *Published) Add(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.urls[url] {
		return nil
	}
	s.urls[url] = true
	if s.path == "" {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save published URL: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("save published URL: %w", err)
	}
	if _, err := f.WriteString(url + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("save published URL: %w", err)
	}
	logger.Debug("saved published URL", "url", url)
	return f.Close()
}

// Len returns the number of recorded URLs.
func (s *Published) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// Filter returns the URLs of urls that were not published yet, in order.
func (s *Published) Filter(urls []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !s.urls[strings.TrimSpace(u)] {
			out = append(out, u)
		}
	}
	return out
}
