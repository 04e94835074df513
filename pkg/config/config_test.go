package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "notes")
	path := writeConfig(t, "name: ${SAMPLE_NAME}\ncount: 3\n")

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "notes" || s.Count != 3 {
		t.Errorf("sample = %+v", s)
	}
}

func TestLoad_Validates(t *testing.T) {
	path := writeConfig(t, "count: 1\n")
	var s sample
	err := Load(path, &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("Load error = %v", err)
	}
	// Read skips validation.
	if err := Read(path, &s); err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestReadIfExists(t *testing.T) {
	s := sample{Name: "keep"}
	if err := ReadIfExists(filepath.Join(t.TempDir(), "missing.yaml"), &s); err != nil {
		t.Fatalf("ReadIfExists: %v", err)
	}
	if err := ReadIfExists("", &s); err != nil {
		t.Fatalf("ReadIfExists empty: %v", err)
	}
	if s.Name != "keep" {
		t.Errorf("target modified: %+v", s)
	}

	path := writeConfig(t, "name: [unterminated\n")
	if err := ReadIfExists(path, &s); err == nil {
		t.Error("expected parse error")
	}
}
