package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/repost/internal/logger"
)

// ErrUnsupportedFormat is returned by FromFile for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported rules file format")

// FromFile loads a rule set from a JSON or YAML file.
func FromFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- rules path comes from user config
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FromJSON(data)
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// FromJSON decodes a JSON rule payload. Blank input yields an empty set.
func FromJSON(data []byte) (*RuleSet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Empty(), nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse JSON rules: %w", err)
	}
	return FromMap(m), nil
}

// FromYAML decodes a YAML rule payload. Blank input yields an empty set.
func FromYAML(data []byte) (*RuleSet, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Empty(), nil
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules: %w", err)
	}
	return FromMap(m), nil
}

// FromMap builds a rule set from a loosely typed payload. Missing fields
// default to empty and malformed entries are skipped; it never fails.
func FromMap(m map[string]any) *RuleSet {
	rs := Empty()
	if m == nil {
		return rs
	}

	if raw, ok := m["remove_symbols"].([]any); ok {
		for _, v := range raw {
			s, ok := v.(string)
			if !ok || s == "" {
				logger.Debug("skipping remove_symbols entry", "value", v)
				continue
			}
			rs.RemoveSymbols = append(rs.RemoveSymbols, s)
		}
	}

	if raw, ok := m["replacements"].([]any); ok {
		for i, v := range raw {
			rep, ok := decodeReplacement(v)
			if !ok {
				logger.Debug("skipping malformed replacement rule", "index", i)
				continue
			}
			rs.Replacements = append(rs.Replacements, rep)
		}
	}

	return rs
}

func decodeReplacement(v any) (Replacement, bool) {
	entry, ok := v.(map[string]any)
	if !ok {
		return Replacement{}, false
	}

	var rep Replacement
	find, ok := entry["find"].(string)
	if !ok {
		return Replacement{}, false
	}
	rep.Find = find

	switch with := entry["replace_with"].(type) {
	case nil:
	case string:
		rep.ReplaceWith = with
	default:
		return Replacement{}, false
	}

	if err := validate.Struct(rep); err != nil {
		return Replacement{}, false
	}
	return rep, true
}

// LoadStore reads the cleaning and publishing rule files. An empty path or a
// missing file leaves that set empty.
func LoadStore(cleaningPath, publishingPath string) (*Store, error) {
	store := NewStore()

	var err error
	if store.Cleaning, err = loadOptional(cleaningPath); err != nil {
		return nil, fmt.Errorf("cleaning rules: %w", err)
	}
	if store.Publishing, err = loadOptional(publishingPath); err != nil {
		return nil, fmt.Errorf("publishing rules: %w", err)
	}
	return store, nil
}

func loadOptional(path string) (*RuleSet, error) {
	if path == "" {
		return Empty(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Warn("rules file not found, using empty rules", "path", path)
		return Empty(), nil
	}
	rs, err := FromFile(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("rules loaded", "path", path, "rules", rs.String())
	return rs, nil
}
