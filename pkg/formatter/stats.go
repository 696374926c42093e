package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Stats captures what a Format call did.
type Stats struct {
	InputBytes  int `json:"input_bytes"`
	OutputBytes int `json:"output_bytes"`

	TextRulesApplied int            `json:"text_rules_applied"` // text nodes changed by replacements
	EmbedsInserted   map[string]int `json:"embeds_inserted"`    // kind -> count
	JunkDecomposed   int            `json:"junk_decomposed"`
	JunkInlineEdits  int            `json:"junk_inline_edits"`

	ElementsRemoved   map[string]int `json:"elements_removed"` // tag -> count
	ElementsUnwrapped int            `json:"elements_unwrapped"`
	AttributesRemoved int            `json:"attributes_removed"`
	LinksStripped     int            `json:"links_stripped"`

	ImagesResolved int `json:"images_resolved"`
	ImagesRemoved  int `json:"images_removed"`

	FeatureImagePrepended bool `json:"feature_image_prepended"`

	ParseDuration     time.Duration `json:"parse_duration_ms"`
	TransformDuration time.Duration `json:"transform_duration_ms"`
	OutputDuration    time.Duration `json:"output_duration_ms"`
	TotalDuration     time.Duration `json:"total_duration_ms"`
}

// NewStats creates a new Stats instance with initialized maps.
func NewStats() *Stats {
	return &Stats{
		EmbedsInserted:  make(map[string]int),
		ElementsRemoved: make(map[string]int),
	}
}

// RecordRemoval records that an element was removed.
func (s *Stats) RecordRemoval(tag string) {
	s.ElementsRemoved[strings.ToLower(tag)]++
}

// TotalElementsRemoved returns the sum of all removed elements.
func (s *Stats) TotalElementsRemoved() int {
	total := 0
	for _, count := range s.ElementsRemoved {
		total += count
	}
	return total
}

// TotalEmbeds returns the number of embeds inserted.
func (s *Stats) TotalEmbeds() int {
	total := 0
	for _, count := range s.EmbedsInserted {
		total += count
	}
	return total
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Size: %d -> %d bytes\n", s.InputBytes, s.OutputBytes)
	fmt.Fprintf(&sb, "Elements: %d removed, %d unwrapped, %d attributes dropped\n",
		s.TotalElementsRemoved(), s.ElementsUnwrapped, s.AttributesRemoved)

	if len(s.ElementsRemoved) > 0 {
		tags := make([]string, 0, len(s.ElementsRemoved))
		for tag := range s.ElementsRemoved {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		parts := make([]string, 0, len(tags))
		for _, tag := range tags {
			parts = append(parts, fmt.Sprintf("%s=%d", tag, s.ElementsRemoved[tag]))
		}
		fmt.Fprintf(&sb, "Removed by tag: %s\n", strings.Join(parts, ", "))
	}

	fmt.Fprintf(&sb, "Images: %d resolved, %d removed\n", s.ImagesResolved, s.ImagesRemoved)

	if n := s.TotalEmbeds(); n > 0 {
		fmt.Fprintf(&sb, "Embeds: %d\n", n)
	}
	if s.JunkDecomposed > 0 || s.JunkInlineEdits > 0 {
		fmt.Fprintf(&sb, "Junk: %d elements, %d inline edits\n", s.JunkDecomposed, s.JunkInlineEdits)
	}
	if s.LinksStripped > 0 {
		fmt.Fprintf(&sb, "Links stripped: %d\n", s.LinksStripped)
	}

	fmt.Fprintf(&sb, "Timing: parse=%v, transform=%v, output=%v, total=%v\n",
		s.ParseDuration.Round(time.Microsecond),
		s.TransformDuration.Round(time.Microsecond),
		s.OutputDuration.Round(time.Microsecond),
		s.TotalDuration.Round(time.Microsecond))

	return sb.String()
}

// Warning represents a non-fatal issue encountered during formatting.
type Warning struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
	Context string `json:"context"`
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Phase, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Phase, w.Message)
}

// Result contains the output of a Format call.
type Result struct {
	// Content is the formatted document. On failure it is the raw input.
	Content string `json:"content"`

	Stats    *Stats    `json:"stats"`
	Warnings []Warning `json:"warnings,omitempty"`

	// FirstContentImage is the hosted URL of the first image resolved in the
	// body, if any.
	FirstContentImage string `json:"first_content_image,omitempty"`

	// Error is set only when the whole document fell back to the raw input.
	Error error `json:"-"`
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}
