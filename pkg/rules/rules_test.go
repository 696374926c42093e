package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRuleSet_Apply_ChainsSequentially(t *testing.T) {
	rs := &RuleSet{Replacements: []Replacement{
		{Find: "a", ReplaceWith: "b"},
		{Find: "b", ReplaceWith: "c"},
	}}

	if got := rs.Apply("a"); got != "c" {
		t.Errorf("Apply() = %q, want %q", got, "c")
	}
}

func TestRuleSet_Apply(t *testing.T) {
	tests := []struct {
		name  string
		rules []Replacement
		input string
		want  string
	}{
		{"no rules", nil, "hello", "hello"},
		{"single", []Replacement{{Find: "cat", ReplaceWith: "dog"}}, "cat and cat", "dog and dog"},
		{"delete", []Replacement{{Find: " Source", ReplaceWith: ""}}, "News Source", "News"},
		{"empty find ignored", []Replacement{{Find: "", ReplaceWith: "x"}}, "abc", "abc"},
		{"arabic", []Replacement{{Find: "عاجل", ReplaceWith: "خبر"}}, "عاجل: حدث", "خبر: حدث"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := &RuleSet{Replacements: tt.rules}
			if got := rs.Apply(tt.input); got != tt.want {
				t.Errorf("Apply() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRuleSet_Strip(t *testing.T) {
	rs := &RuleSet{RemoveSymbols: []string{"★", "|", ""}}
	if got := rs.Strip("★ Title | Site ★"); got != " Title  Site " {
		t.Errorf("Strip() = %q", got)
	}
}

func TestRuleSet_NilIsEmpty(t *testing.T) {
	var rs *RuleSet

	if !rs.IsEmpty() {
		t.Error("nil RuleSet should be empty")
	}
	if got := rs.Apply("text"); got != "text" {
		t.Errorf("Apply() on nil = %q", got)
	}
	if got := rs.Strip("text"); got != "text" {
		t.Errorf("Strip() on nil = %q", got)
	}
	if rs.ReplacementRules() != nil || rs.Symbols() != nil {
		t.Error("nil RuleSet should expose no rules")
	}
}

func TestFromMap_SkipsMalformedEntries(t *testing.T) {
	rs := FromMap(map[string]any{
		"remove_symbols": []any{"#", 42, ""},
		"replacements": []any{
			map[string]any{"find": "x", "replace_with": "y"},
			map[string]any{"replace_with": "missing find"},
			map[string]any{"find": "", "replace_with": "empty find"},
			map[string]any{"find": "z"},
			map[string]any{"find": "w", "replace_with": 7},
			"not a map",
		},
	})

	if len(rs.RemoveSymbols) != 1 || rs.RemoveSymbols[0] != "#" {
		t.Errorf("RemoveSymbols = %v, want [#]", rs.RemoveSymbols)
	}
	if len(rs.Replacements) != 2 {
		t.Fatalf("expected 2 replacements, got %d: %+v", len(rs.Replacements), rs.Replacements)
	}
	if rs.Replacements[0] != (Replacement{Find: "x", ReplaceWith: "y"}) {
		t.Errorf("first replacement = %+v", rs.Replacements[0])
	}
	if rs.Replacements[1] != (Replacement{Find: "z"}) {
		t.Errorf("missing replace_with should default to empty, got %+v", rs.Replacements[1])
	}
}

func TestFromMap_Nil(t *testing.T) {
	rs := FromMap(nil)
	if !rs.IsEmpty() {
		t.Errorf("FromMap(nil) should be empty, got %s", rs)
	}
}

func TestFromJSON(t *testing.T) {
	data := []byte(`{
		"remove_symbols": ["»"],
		"replacements": [
			{"find": "foo", "replace_with": "bar"},
			{"oops": true}
		]
	}`)

	rs, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if len(rs.Replacements) != 1 || rs.Replacements[0].Find != "foo" {
		t.Errorf("unexpected replacements: %+v", rs.Replacements)
	}
	if len(rs.RemoveSymbols) != 1 {
		t.Errorf("unexpected symbols: %v", rs.RemoveSymbols)
	}
}

func TestFromJSON_Blank(t *testing.T) {
	rs, err := FromJSON([]byte("  \n"))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if !rs.IsEmpty() {
		t.Error("blank payload should give empty rules")
	}
}

func TestFromJSON_Invalid(t *testing.T) {
	if _, err := FromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestFromYAML(t *testing.T) {
	data := []byte(`
remove_symbols:
  - "©"
replacements:
  - find: "Read more"
    replace_with: ""
  - find: "old"
    replace_with: "new"
`)

	rs, err := FromYAML(data)
	if err != nil {
		t.Fatalf("FromYAML() error = %v", err)
	}
	if len(rs.Replacements) != 2 {
		t.Fatalf("expected 2 replacements, got %d", len(rs.Replacements))
	}
	if got := rs.Apply("old story. Read more"); got != "new story. " {
		t.Errorf("Apply() = %q", got)
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(jsonPath, []byte(`{"replacements":[{"find":"a","replace_with":"b"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	rs, err := FromFile(jsonPath)
	if err != nil {
		t.Fatalf("FromFile(json) error = %v", err)
	}
	if rs.Apply("a") != "b" {
		t.Error("json rules not applied")
	}

	txtPath := filepath.Join(dir, "rules.txt")
	if err := os.WriteFile(txtPath, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := FromFile(txtPath); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoadStore_MissingFilesAreEmpty(t *testing.T) {
	dir := t.TempDir()
	pub := filepath.Join(dir, "publishing.yaml")
	if err := os.WriteFile(pub, []byte("replacements:\n  - find: x\n    replace_with: y\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := LoadStore(filepath.Join(dir, "missing.json"), pub)
	if err != nil {
		t.Fatalf("LoadStore() error = %v", err)
	}
	if !store.Cleaning.IsEmpty() {
		t.Error("missing cleaning file should give empty rules")
	}
	if store.Publishing.Apply("x") != "y" {
		t.Error("publishing rules not loaded")
	}
}
