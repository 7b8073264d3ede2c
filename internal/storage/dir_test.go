package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempDir(t *testing.T) *Dir {
	t.Helper()
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	return d
}

func TestWriteAndRead(t *testing.T) {
	d := tempDir(t)
	content := []byte(`{"status":true}`)
	if err := d.WriteAtomic("status.json", content); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	got, err := d.Read("status.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteFrom(t *testing.T) {
	d := tempDir(t)
	n, err := d.WriteFrom("img.png", strings.NewReader("binary-data"))
	if err != nil {
		t.Fatalf("WriteFrom: %v", err)
	}
	if n != int64(len("binary-data")) {
		t.Errorf("written = %d", n)
	}
	got, _ := d.Read("img.png")
	if string(got) != "binary-data" {
		t.Errorf("content = %q", got)
	}
}

func TestTraversalBlocked(t *testing.T) {
	d := tempDir(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.json",
		"/etc/shadow",
		"",
	}
	for _, p := range cases {
		if _, err := d.Read(p); err == nil {
			t.Errorf("expected error reading %q", p)
		}
		if err := d.WriteAtomic(p, []byte("x")); err == nil {
			t.Errorf("expected error writing %q", p)
		}
	}
}

func TestRemoveIfExists(t *testing.T) {
	d := tempDir(t)
	_ = d.WriteAtomic("gone.json", []byte("x"))
	if err := d.RemoveIfExists("gone.json"); err != nil {
		t.Fatalf("RemoveIfExists: %v", err)
	}
	// Second removal of a missing file must not error.
	if err := d.RemoveIfExists("gone.json"); err != nil {
		t.Errorf("RemoveIfExists on missing file: %v", err)
	}
	// Remove, in contrast, reports the absence.
	if err := d.Remove("gone.json"); err == nil {
		t.Error("Remove on missing file should error")
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	d := tempDir(t)
	_ = d.WriteAtomic("rec.json", []byte("v1"))
	if err := d.WriteAtomic("rec.json", []byte("v2")); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	got, _ := d.Read("rec.json")
	if string(got) != "v2" {
		t.Errorf("content = %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(d.Root(), ".shopfront-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestGlob(t *testing.T) {
	d := tempDir(t)
	_ = d.WriteAtomic("hero-background.jpg", []byte("a"))
	_ = d.WriteAtomic("hero-background.png", []byte("b"))
	_ = d.WriteAtomic("unrelated.webp", []byte("c"))

	names, err := d.Glob("hero-background.*")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("matches = %v, want 2", names)
	}
}

func TestNewDir_NonExistent(t *testing.T) {
	if _, err := NewDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewDir_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "shopfront-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewDir(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
