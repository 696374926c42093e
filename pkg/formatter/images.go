package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/repost/internal/logger"
)

// ImageMap maps source image URLs to their hosted replacements. Insertion
// order is kept, since the containment fallback in Lookup returns the first
// key that matches.
type ImageMap struct {
	keys   []string
	values map[string]string
}

// NewImageMap builds a map from alternating source/hosted pairs.
func NewImageMap(pairs ...string) *ImageMap {
	m := &ImageMap{values: make(map[string]string)}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// Set adds or updates an entry. Updating keeps the original position.
func (m *ImageMap) Set(source, hosted string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[source]; !ok {
		m.keys = append(m.keys, source)
	}
	m.values[source] = hosted
}

// Get returns the hosted URL for an exact source key.
func (m *ImageMap) Get(source string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[source]
	return v, ok
}

// Len returns the number of entries.
func (m *ImageMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the source keys in insertion order.
func (m *ImageMap) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Each calls fn for every entry in insertion order.
func (m *ImageMap) Each(fn func(source, hosted string)) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// Lookup resolves src to a hosted URL: first by exact key, then by the first
// non-empty key that contains src or is contained in it.
func (m *ImageMap) Lookup(src string) (string, bool) {
	if m == nil || src == "" {
		return "", false
	}
	if v, ok := m.values[src]; ok {
		return v, true
	}
	for _, k := range m.keys {
		if k == "" {
			continue
		}
		if strings.Contains(src, k) || strings.Contains(k, src) {
			return m.values[k], true
		}
	}
	return "", false
}

// IsHosted reports whether url is already one of the hosted values.
func (m *ImageMap) IsHosted(url string) bool {
	if m == nil || url == "" {
		return false
	}
	for _, k := range m.keys {
		if m.values[k] == url {
			return true
		}
	}
	return false
}

// MarshalJSON writes the entries as a JSON object in insertion order.
func (m *ImageMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of string values, keeping key order.
func (m *ImageMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = ImageMap{values: make(map[string]string)}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("image map: expected object, got %v", tok)
	}

	out := ImageMap{values: make(map[string]string)}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("image map: expected string key, got %v", kt)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("image map: value for %q: %w", key, err)
		}
		out.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// UnmarshalYAML reads a YAML mapping of string values, keeping key order.
func (m *ImageMap) UnmarshalYAML(node *yaml.Node) error {
	out := ImageMap{values: make(map[string]string)}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*m = out
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("image map: expected mapping at line %d", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key, val string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&val); err != nil {
			return fmt.Errorf("image map: value for %q: %w", key, err)
		}
		out.Set(key, val)
	}
	*m = out
	return nil
}

// LoadImageMap reads an image map from a .json, .yaml or .yml file.
func LoadImageMap(path string) (*ImageMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image map: %w", err)
	}
	m := NewImageMap()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, m)
	default:
		err = json.Unmarshal(data, m)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse image map %s: %w", path, err)
	}
	return m, nil
}

// imageSource returns the first non-empty of src, data-src, data-lazy-src.
func imageSource(n *html.Node) string {
	for _, key := range []string{"src", "data-src", "data-lazy-src"} {
		if v := strings.TrimSpace(getAttr(n, key)); v != "" {
			return v
		}
	}
	return ""
}

// reconcileImages points every <img> at its hosted copy and removes the ones
// that cannot be resolved. It returns the hosted URL of the first resolved
// image.
func (f *Formatter) reconcileImages(root *html.Node, in *Input, result *Result) string {
	first := ""
	for _, img := range elements(root, "img") {
		f.guard(result, "images", func() {
			src := imageSource(img)
			hosted, ok := "", false
			switch {
			case src == "":
			case in.Images.IsHosted(src) || (in.FeatureImageURL != "" && src == in.FeatureImageURL):
				hosted, ok = src, true
			default:
				hosted, ok = in.Images.Lookup(src)
			}

			if !ok || hosted == "" {
				logger.Debug("removing unresolved image", "src", src)
				result.AddWarning("images", "image not in hosted map, removed", src)
				result.Stats.ImagesRemoved++
				detach(img)
				return
			}

			alt := strings.TrimSpace(getAttr(img, "alt"))
			if alt == "" {
				alt = in.Title
			}
			if alt == "" {
				alt = "Image"
			}
			img.Attr = []html.Attribute{
				attr("src", hosted),
				attr("alt", alt),
				attr("style", f.cfg.ImageStyle),
			}
			result.Stats.ImagesResolved++
			if first == "" {
				first = hosted
			}
		})
	}
	return first
}

// featureParagraph builds <p><img/></p> for the feature image.
func (f *Formatter) featureParagraph(src, alt string) *html.Node {
	p := newElement("p")
	p.AppendChild(newElement("img",
		attr("src", src),
		attr("alt", alt),
		attr("style", f.cfg.ImageStyle),
	))
	return p
}
