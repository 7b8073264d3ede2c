// Package storage provides rooted directory access with traversal
// protection and atomic writes. Both the record files and the upload
// directories are accessed through it.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Dir is a directory root; all operations resolve names relative to it
// and reject anything that escapes.
type Dir struct {
	root string // absolute path
}

// NewDir creates a Dir rooted at the given directory. The directory must
// already exist.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute root path.
func (d *Dir) Root() string {
	return d.root
}

// resolve joins name onto the root and rejects any result that escapes it
// (absolute paths, directory traversal).
func (d *Dir) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: empty file name")
	}
	cleaned := filepath.Clean(name)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", name)
	}
	abs, err := filepath.Abs(filepath.Join(d.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, d.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: path escapes root: %s", name)
	}
	return abs, nil
}

// Resolve returns the absolute on-disk path for name, or an error if the
// name escapes the root. Exposed for handlers that serve files directly.
func (d *Dir) Resolve(name string) (string, error) {
	return d.resolve(name)
}

// Exists reports whether name refers to an existing file under the root.
func (d *Dir) Exists(name string) bool {
	abs, err := d.resolve(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Read returns the raw bytes of the file at name.
func (d *Dir) Read(name string) ([]byte, error) {
	abs, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// WriteAtomic writes content via tmp file → fsync → rename so a crash
// mid-write never leaves a truncated file at name.
func (d *Dir) WriteAtomic(name string, content []byte) error {
	return d.writeAtomic(name, func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
}

// WriteFrom streams r into the file at name with the same atomicity
// guarantee as WriteAtomic. Returns the number of bytes written.
func (d *Dir) WriteFrom(name string, r io.Reader) (int64, error) {
	var n int64
	err := d.writeAtomic(name, func(w io.Writer) error {
		var copyErr error
		n, copyErr = io.Copy(w, r)
		return copyErr
	})
	return n, err
}

func (d *Dir) writeAtomic(name string, fill func(io.Writer) error) error {
	abs, err := d.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".shopfront-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Remove deletes the file at name. A missing file is an error.
func (d *Dir) Remove(name string) error {
	abs, err := d.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: remove %s: %w", name, err)
	}
	return nil
}

// RemoveIfExists deletes the file at name, tolerating its absence.
func (d *Dir) RemoveIfExists(name string) error {
	abs, err := d.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %s: %w", name, err)
	}
	return nil
}

// Glob returns the base names of files directly under the root matching
// pattern (filepath.Match syntax).
func (d *Dir) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(d.root, pattern))
	if err != nil {
		return nil, fmt.Errorf("storage: glob %s: %w", pattern, err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names, nil
}
