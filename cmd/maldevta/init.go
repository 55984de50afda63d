package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/setusher/Maldevta-farms/internal/defaults"
)

// runInit initializes a working directory with default files. Existing
// files are never overwritten.
func runInit(w io.Writer, dir string) error {
	fmt.Fprintf(w, "Initializing maldevta workspace in %s\n", dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, "config.yaml")
	if err := writeIfMissing(configPath, defaults.ConfigYAML); err != nil {
		return err
	}
	fmt.Fprintf(w, "  ✓ %s\n", configPath)

	promptPath := filepath.Join(dir, "prompt.md")
	if err := writeIfMissing(promptPath, defaults.PromptMD); err != nil {
		return err
	}
	fmt.Fprintf(w, "  ✓ %s\n", promptPath)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edit config.yaml with your credentials, then run: maldevta serve")
	return nil
}

// writeIfMissing writes content to path only if the file does not
// already exist, so init never overwrites user customizations.
func writeIfMissing(path string, content []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, content, 0o644)
}
