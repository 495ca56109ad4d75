package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteSource writes a deterministic stand-in source file and returns its
// path. Pipeline tests use it wherever a real PDF is irrelevant because the
// parser is stubbed.
func WriteSource(t testing.TB, dir, name string, content string) string {
	t.Helper()

	if content == "" {
		content = "source bytes"
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
