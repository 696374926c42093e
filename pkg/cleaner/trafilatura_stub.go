//go:build !trafilatura

package cleaner

// TrafilaturaConfig configures the Trafilatura extractor.
type TrafilaturaConfig struct {
	Output         OutputFormat
	Comments       bool
	ExcludeTables  bool
	FavorPrecision bool
	Pretty         bool
}

// TrafilaturaCleaner stands in for the extractor when trafilatura is not
// compiled in. Build with -tags trafilatura to enable it.
type TrafilaturaCleaner struct{}

// NewTrafilatura returns the stub extractor.
func NewTrafilatura(_ *TrafilaturaConfig) *TrafilaturaCleaner {
	return &TrafilaturaCleaner{}
}

// Extract returns ErrTrafilaturaNotAvailable.
func (c *TrafilaturaCleaner) Extract(_, _ string) (string, error) {
	return "", ErrTrafilaturaNotAvailable
}

// Clean returns ErrTrafilaturaNotAvailable.
func (c *TrafilaturaCleaner) Clean(_ string) (string, error) {
	return "", ErrTrafilaturaNotAvailable
}

// Name returns the cleaner type.
func (c *TrafilaturaCleaner) Name() string {
	return "trafilatura"
}

// IsAvailable returns false when trafilatura is not compiled in.
func (c *TrafilaturaCleaner) IsAvailable() bool {
	return false
}
