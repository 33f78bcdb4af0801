package vocab

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tech_keywords.yml")
	store := NewStore(path)

	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected default vocabulary file written: %v", err)
	}

	languages := store.TermsFor("languages")
	if len(languages) == 0 {
		t.Fatal("Expected default languages category to be populated")
	}

	found := false
	for _, term := range languages {
		if term == "Go" {
			found = true
		}
	}
	if !found {
		t.Error("Expected 'Go' in default languages")
	}
}

func TestLoadReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tech_keywords.yml")
	content := "languages:\n  - COBOL\ntools:\n  - make\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	store := NewStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	languages := store.TermsFor("languages")
	if len(languages) != 1 || languages[0] != "COBOL" {
		t.Errorf("Expected existing file contents, got %v", languages)
	}
}

func TestAddPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tech_keywords.yml")
	store := NewStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := store.Add("trending", "Zig"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	// Duplicate add is a no-op
	if err := store.Add("trending", "Zig"); err != nil {
		t.Fatalf("Duplicate Add failed: %v", err)
	}

	reloaded := NewStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	count := 0
	for _, term := range reloaded.TermsFor("trending") {
		if term == "Zig" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected 'Zig' stored exactly once, got %d", count)
	}
}

func TestAllTermsDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tech_keywords.yml")
	store := NewStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	first := store.AllTerms()
	second := store.AllTerms()

	if len(first) == 0 {
		t.Fatal("Expected non-empty term list")
	}
	if len(first) != len(second) {
		t.Fatalf("Expected stable length, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Expected deterministic order, position %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}
