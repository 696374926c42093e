package formatter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestImageMap_Lookup(t *testing.T) {
	m := NewImageMap(
		"", "http://cdn/empty.jpg",
		"x.jpg", "http://cdn/short.jpg",
		"http://a.com/x.jpg", "http://cdn/full.jpg",
	)

	tests := []struct {
		src    string
		want   string
		wantOK bool
	}{
		{"http://a.com/x.jpg", "http://cdn/full.jpg", true},
		{"http://b.com/x.jpg", "http://cdn/short.jpg", true},
		{"a.com/x", "http://cdn/full.jpg", true},
		{"http://a.com/other.png", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, ok := m.Lookup(tt.src)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.src, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestImageMap_NilSafe(t *testing.T) {
	var m *ImageMap
	if m.Len() != 0 || m.Keys() != nil || m.IsHosted("x") {
		t.Error("nil map should behave as empty")
	}
	if _, ok := m.Lookup("x"); ok {
		t.Error("nil map lookup should miss")
	}
}

func TestImageMap_SetKeepsPosition(t *testing.T) {
	m := NewImageMap("a", "1", "b", "2")
	m.Set("a", "3")

	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v", got)
	}
	if v, _ := m.Get("a"); v != "3" {
		t.Errorf("Get(a) = %q, want 3", v)
	}
	if !m.IsHosted("2") || m.IsHosted("1") {
		t.Error("IsHosted should track current values")
	}
}

func TestImageMap_JSONOrder(t *testing.T) {
	data := []byte(`{"zeta":"http://cdn/z","alpha":"http://cdn/a","mid":"http://cdn/m"}`)

	var m ImageMap
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"zeta", "alpha", "mid"}) {
		t.Errorf("Keys() = %v", got)
	}

	out, err := json.Marshal(&m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != string(data) {
		t.Errorf("round trip changed order: %s", out)
	}
}

func TestImageMap_JSONErrors(t *testing.T) {
	tests := []string{`[]`, `{"a": 1}`, `{"a"`}
	for _, in := range tests {
		var m ImageMap
		if err := json.Unmarshal([]byte(in), &m); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}

func TestImageMap_YAMLOrder(t *testing.T) {
	data := []byte("zeta: http://cdn/z\nalpha: http://cdn/a\n")

	var m ImageMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"zeta", "alpha"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestLoadImageMap(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "images.json")
	yamlPath := filepath.Join(dir, "images.yaml")
	if err := os.WriteFile(jsonPath, []byte(`{"b":"2","a":"1"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte("b: \"2\"\na: \"1\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{jsonPath, yamlPath} {
		m, err := LoadImageMap(path)
		if err != nil {
			t.Fatalf("LoadImageMap(%s): %v", path, err)
		}
		if got := m.Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
			t.Errorf("%s: Keys() = %v", path, got)
		}
	}

	if _, err := LoadImageMap(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestStats_String(t *testing.T) {
	s := NewStats()
	s.RecordRemoval("SCRIPT")
	s.RecordRemoval("nav")
	s.EmbedsInserted["youtube"] = 2
	s.ImagesResolved = 3

	out := s.String()
	checkContent(t, out,
		[]string{"Removed by tag: nav=1, script=1", "Images: 3 resolved", "Embeds: 2"},
		[]string{"Junk:", "Links stripped"},
	)
}
