// Package formatter turns scraped article HTML into a normalised,
// publish-safe document.
//
// A single Format call runs a fixed pipeline over its own parse tree:
//
//  1. user replacement rules on text nodes
//  2. bare video and social-post URLs rewritten into embeds
//  3. site-specific junk removal keyed by the source URL
//  4. structural removal (scripts, navigation, comments, foreign iframes)
//     and optional internal-link stripping
//  5. image reconciliation against the hosted-image map
//  6. tag/attribute whitelisting and empty-element pruning
//  7. feature image prepend and prefix/suffix wrapping
//
// Formatting never fails from the caller's point of view: on an unexpected
// error the raw input is returned unchanged and the cause is recorded on the
// Result.
package formatter

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config holds the static formatting options.
type Config struct {
	// PrefixContentHTML is prepended verbatim to every formatted document.
	PrefixContentHTML string `json:"prefix_content_html" yaml:"prefix_content_html" mapstructure:"prefix_content_html"`

	// SuffixContentHTML is appended verbatim to every formatted document.
	SuffixContentHTML string `json:"suffix_content_html" yaml:"suffix_content_html" mapstructure:"suffix_content_html"`

	// ExtraBreakAfterParagraph appends a <br> inside each non-empty paragraph
	// that is followed by something other than a <br>.
	ExtraBreakAfterParagraph bool `json:"extra_break_after_paragraph" yaml:"extra_break_after_paragraph" mapstructure:"extra_break_after_paragraph"`

	// RemoveInternalLinks drops href from anchors that are not part of an
	// embed.
	RemoveInternalLinks bool `json:"remove_internal_links" yaml:"remove_internal_links" mapstructure:"remove_internal_links"`

	// ImageStyle is the inline style given to every reconciled image.
	ImageStyle string `json:"image_style" yaml:"image_style" mapstructure:"image_style" validate:"required"`
}

// DefaultImageStyle is the responsive style applied to images.
const DefaultImageStyle = "max-width:100%;height:auto;display:block;margin:10px auto;border:0;"

// DefaultConfig returns the standard configuration: internal links removed,
// no wrappers, no extra breaks.
func DefaultConfig() *Config {
	return &Config{
		RemoveInternalLinks: true,
		ImageStyle:          DefaultImageStyle,
	}
}

var validate = validator.New()

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid formatter config: %w", err)
	}
	return nil
}
