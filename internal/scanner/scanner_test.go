package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanDirSkipsIgnoredNames(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "keep.txt"), "keep")
	mustWrite(t, filepath.Join(root, "Thumbs.db"), "ignored")
	mustWrite(t, filepath.Join(root, ".git", "HEAD"), "ignored")
	mustWrite(t, filepath.Join(root, "sub", "nested.txt"), "nested")

	files, err := ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir error: %v", err)
	}

	byPath := map[string]bool{}
	for _, f := range files {
		byPath[f.Path] = true
	}
	if !byPath["keep.txt"] || !byPath["sub/nested.txt"] {
		t.Fatalf("expected keep.txt and sub/nested.txt present, got %v", files)
	}
	if byPath["Thumbs.db"] || byPath[".git/HEAD"] {
		t.Fatalf("expected ignored names excluded, got %v", files)
	}
}

func TestHashAllOmitsUnreadableFiles(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.txt"), "contents")

	hashes := HashAll(root, []string{"a.txt", "missing.txt"})
	if _, ok := hashes["a.txt"]; !ok {
		t.Fatal("expected a.txt to be hashed")
	}
	if _, ok := hashes["missing.txt"]; ok {
		t.Fatal("expected missing.txt to be omitted, not hashed")
	}
}

func TestScanDirSkipsUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory mode bits, permission denial can't be simulated")
	}

	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "keep.txt"), "keep")
	blocked := filepath.Join(root, "blocked")
	mustWrite(t, filepath.Join(blocked, "secret.txt"), "secret")

	if err := os.Chmod(blocked, 0o000); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(blocked, 0o755)

	files, err := ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir error: %v, want nil (unreadable entries must be skipped, not fatal)", err)
	}

	byPath := map[string]bool{}
	for _, f := range files {
		byPath[f.Path] = true
	}
	if !byPath["keep.txt"] {
		t.Fatalf("expected keep.txt present despite sibling permission error, got %v", files)
	}
	if byPath["blocked/secret.txt"] {
		t.Fatalf("expected blocked/secret.txt excluded, got %v", files)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
