package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeFilenameStripsPathAndControlBytes(t *testing.T) {
	cases := map[string]string{
		"../../etc/passwd": "passwd",
		"a/b/c.txt":         "c.txt",
		"foo\x00bar":        "foobar",
		"":                  "unnamed",
		"..":                "unnamed",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestResolveDownloadPathCollisionPolicy exercises §6.4: first unused
// N_name wins, N starting at 1.
func TestResolveDownloadPathCollisionPolicy(t *testing.T) {
	dir := t.TempDir()
	mustTouch(t, filepath.Join(dir, "photo.png"))
	mustTouch(t, filepath.Join(dir, "1_photo.png"))

	got := ResolveDownloadPath(dir, "photo.png")
	want := filepath.Join(dir, "2_photo.png")
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestResolveDownloadPathNoCollision(t *testing.T) {
	dir := t.TempDir()
	got := ResolveDownloadPath(dir, "fresh.bin")
	want := filepath.Join(dir, "fresh.bin")
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func mustTouch(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
	f.Close()
}
