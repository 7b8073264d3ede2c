// Package uploads validates and persists uploaded image files.
//
// Validation order is fixed: declared MIME type, file extension, size,
// then batch count. Any violation rejects the upload before a single
// byte reaches disk.
package uploads

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwestall/shopfront/internal/apperr"
	"github.com/mwestall/shopfront/internal/checksum"
	"github.com/mwestall/shopfront/internal/models"
	"github.com/mwestall/shopfront/internal/storage"
)

// Limits per upload target.
const (
	MaxGalleryFileSize = 5 << 20  // 5 MB
	MaxHeroFileSize    = 10 << 20 // 10 MB
	MaxGalleryBatch    = 10

	// HeroStem is the fixed name stem for the hero binary; only the
	// extension varies with the uploaded file, so at most one
	// hero-background.* file exists at a time.
	HeroStem = "hero-background"
)

var (
	mimeToExts = map[string][]string{
		"image/jpeg": {".jpg", ".jpeg"},
		"image/png":  {".png"},
		"image/gif":  {".gif"},
		"image/webp": {".webp"},
	}

	safeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// Manager writes validated uploads into the gallery and hero directories.
type Manager struct {
	galleryDir *storage.Dir
	heroDir    *storage.Dir
}

// NewManager creates a Manager over the two upload directories.
func NewManager(galleryDir, heroDir *storage.Dir) *Manager {
	return &Manager{galleryDir: galleryDir, heroDir: heroDir}
}

// GalleryDir returns the gallery upload directory.
func (m *Manager) GalleryDir() *storage.Dir { return m.galleryDir }

// HeroDir returns the hero upload directory.
func (m *Manager) HeroDir() *storage.Dir { return m.heroDir }

// ValidateGalleryCount checks the per-call batch limit.
func (m *Manager) ValidateGalleryCount(n int) error {
	if n == 0 {
		return apperr.Validationf("no images provided")
	}
	if n > MaxGalleryBatch {
		return apperr.Validationf("too many images: %d (max %d per upload)", n, MaxGalleryBatch)
	}
	return nil
}

// ValidateGallery checks one prospective gallery file without touching disk.
func (m *Manager) ValidateGallery(declaredMime, originalName string, size int64) error {
	_, err := validate(declaredMime, originalName, size, MaxGalleryFileSize)
	return err
}

// ValidateHero checks a prospective hero file without touching disk.
func (m *Manager) ValidateHero(declaredMime, originalName string, size int64) error {
	_, err := validate(declaredMime, originalName, size, MaxHeroFileSize)
	return err
}

func validate(declaredMime, originalName string, size, maxSize int64) (ext string, err error) {
	mime := strings.ToLower(strings.TrimSpace(declaredMime))
	exts, ok := mimeToExts[mime]
	if !ok {
		return "", apperr.Validationf("unsupported file type: %s (allowed: jpeg, png, gif, webp)", declaredMime)
	}
	ext = strings.ToLower(filepath.Ext(originalName))
	allowed := false
	for _, e := range exts {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", apperr.Validationf("file extension %q does not match type %s", ext, mime)
	}
	if size > maxSize {
		return "", apperr.Validationf("file too large: %d bytes (max %d)", size, maxSize)
	}
	return ext, nil
}

// AcceptGallery validates and writes one gallery upload, returning its
// metadata entry. The generated filename carries a timestamp and a random
// suffix so repeated uploads of the same original never collide.
func (m *Manager) AcceptGallery(r io.Reader, declaredMime, originalName string, size int64) (models.ImageEntry, error) {
	if _, err := validate(declaredMime, originalName, size, MaxGalleryFileSize); err != nil {
		return models.ImageEntry{}, err
	}
	name := galleryFilename(originalName)
	return m.save(m.galleryDir, name, originalName, declaredMime, r, MaxGalleryFileSize)
}

// AcceptHero validates and writes the hero upload under the fixed name
// stem, removing any previous hero binary first (including one with a
// different extension) so exactly one hero file remains on disk.
func (m *Manager) AcceptHero(r io.Reader, declaredMime, originalName string, size int64) (models.ImageEntry, error) {
	ext, err := validate(declaredMime, originalName, size, MaxHeroFileSize)
	if err != nil {
		return models.ImageEntry{}, err
	}
	if err := m.RemoveHero(); err != nil {
		return models.ImageEntry{}, err
	}
	return m.save(m.heroDir, HeroStem+ext, originalName, declaredMime, r, MaxHeroFileSize)
}

func (m *Manager) save(dir *storage.Dir, name, originalName, mime string, r io.Reader, maxSize int64) (models.ImageEntry, error) {
	// The declared size already passed validation; the limit guards a
	// body that lies about its length.
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return models.ImageEntry{}, apperr.Uploadf("read upload", err)
	}
	if int64(len(data)) > maxSize {
		return models.ImageEntry{}, apperr.Validationf("file too large: exceeds %d bytes", maxSize)
	}
	if _, err := dir.WriteFrom(name, bytes.NewReader(data)); err != nil {
		return models.ImageEntry{}, apperr.Uploadf("write "+name, err)
	}
	return models.ImageEntry{
		Filename:     name,
		OriginalName: sanitize(originalName),
		UploadedAt:   time.Now().UTC(),
		Size:         int64(len(data)),
		Mimetype:     strings.ToLower(strings.TrimSpace(mime)),
		Checksum:     checksum.Sum(data),
	}, nil
}

// RemoveGallery deletes a gallery binary, tolerating its absence.
func (m *Manager) RemoveGallery(filename string) error {
	if err := m.galleryDir.RemoveIfExists(filename); err != nil {
		return apperr.Uploadf("remove "+filename, err)
	}
	return nil
}

// RemoveHero deletes every hero-background.* binary, tolerating absence.
func (m *Manager) RemoveHero() error {
	names, err := m.heroDir.Glob(HeroStem + ".*")
	if err != nil {
		return apperr.Uploadf("glob hero files", err)
	}
	for _, n := range names {
		if err := m.heroDir.RemoveIfExists(n); err != nil {
			return apperr.Uploadf("remove "+n, err)
		}
	}
	return nil
}

// sanitize replaces anything outside [A-Za-z0-9._-] after stripping any
// path components from the client-supplied name.
func sanitize(name string) string {
	name = filepath.Base(name)
	name = safeNameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}

// galleryFilename builds a unique server-side name:
// <unix-ms>-<8 random hex chars>-<sanitized original>.
func galleryFilename(originalName string) string {
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), suffix, sanitize(originalName))
}
