package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefault(t *testing.T) {
	got, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != System {
		t.Error("empty path should return the built-in prompt")
	}
	for _, want := range []string{"Maldevta Farms", "check_availability", "DD/MM/YYYY"} {
		if !strings.Contains(got, want) {
			t.Errorf("default prompt missing %q", want)
		}
	}
}

func TestLoadOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.md")
	if err := os.WriteFile(path, []byte("You are a test persona."), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "You are a test persona." {
		t.Errorf("Load = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.md")); err == nil {
		t.Error("missing override file should error")
	}
}
