package uploads

import (
	"errors"
	"strings"
	"testing"

	"github.com/mwestall/shopfront/internal/apperr"
	"github.com/mwestall/shopfront/internal/storage"
)

func tempManager(t *testing.T) (*Manager, string, string) {
	t.Helper()
	galleryRoot := t.TempDir()
	heroRoot := t.TempDir()
	galleryDir, err := storage.NewDir(galleryRoot)
	if err != nil {
		t.Fatal(err)
	}
	heroDir, err := storage.NewDir(heroRoot)
	if err != nil {
		t.Fatal(err)
	}
	return NewManager(galleryDir, heroDir), galleryRoot, heroRoot
}

func TestAcceptGallery_Valid(t *testing.T) {
	m, _, _ := tempManager(t)

	entry, err := m.AcceptGallery(strings.NewReader("jpeg-bytes"), "image/jpeg", "photo.jpg", 9)
	if err != nil {
		t.Fatalf("AcceptGallery: %v", err)
	}
	if entry.Filename == "" || entry.Filename == "photo.jpg" {
		t.Errorf("filename = %q, want generated name", entry.Filename)
	}
	if entry.OriginalName != "photo.jpg" {
		t.Errorf("originalName = %q", entry.OriginalName)
	}
	if entry.Size != int64(len("jpeg-bytes")) {
		t.Errorf("size = %d", entry.Size)
	}
	if entry.Checksum == "" {
		t.Error("checksum empty")
	}
	if !m.GalleryDir().Exists(entry.Filename) {
		t.Error("file not written to gallery dir")
	}
}

func TestAcceptGallery_SameOriginalDistinctNames(t *testing.T) {
	m, _, _ := tempManager(t)

	a, err := m.AcceptGallery(strings.NewReader("one"), "image/png", "dup.png", 3)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.AcceptGallery(strings.NewReader("two"), "image/png", "dup.png", 3)
	if err != nil {
		t.Fatal(err)
	}
	if a.Filename == b.Filename {
		t.Errorf("duplicate uploads share filename %q", a.Filename)
	}
}

func TestAcceptGallery_RejectsDisallowedMime(t *testing.T) {
	m, _, _ := tempManager(t)

	_, err := m.AcceptGallery(strings.NewReader("%PDF-1.4"), "application/pdf", "doc.pdf", 8)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	names, _ := m.GalleryDir().Glob("*")
	if len(names) != 0 {
		t.Errorf("rejected upload left files: %v", names)
	}
}

func TestAcceptGallery_RejectsExtensionMismatch(t *testing.T) {
	m, _, _ := tempManager(t)

	// Declared PNG but .jpg extension.
	_, err := m.AcceptGallery(strings.NewReader("x"), "image/png", "photo.jpg", 1)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestAcceptGallery_RejectsOversize(t *testing.T) {
	m, _, _ := tempManager(t)

	_, err := m.AcceptGallery(strings.NewReader("x"), "image/jpeg", "big.jpg", MaxGalleryFileSize+1)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestAcceptGallery_ExtensionCaseInsensitive(t *testing.T) {
	m, _, _ := tempManager(t)

	if _, err := m.AcceptGallery(strings.NewReader("x"), "image/jpeg", "PHOTO.JPG", 1); err != nil {
		t.Errorf("uppercase extension rejected: %v", err)
	}
}

func TestValidateGalleryCount(t *testing.T) {
	m, _, _ := tempManager(t)

	if err := m.ValidateGalleryCount(0); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("count 0: %v", err)
	}
	if err := m.ValidateGalleryCount(MaxGalleryBatch + 1); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("count 11: %v", err)
	}
	if err := m.ValidateGalleryCount(MaxGalleryBatch); err != nil {
		t.Errorf("count 10: %v", err)
	}
}

func TestSanitizeOriginalName(t *testing.T) {
	m, _, _ := tempManager(t)

	entry, err := m.AcceptGallery(strings.NewReader("x"), "image/jpeg", "my photo (1)!.jpg", 1)
	if err != nil {
		t.Fatal(err)
	}
	if strings.ContainsAny(entry.OriginalName, " ()!") {
		t.Errorf("originalName not sanitized: %q", entry.OriginalName)
	}
	if strings.Contains(entry.Filename, " ") {
		t.Errorf("filename contains space: %q", entry.Filename)
	}
}

func TestAcceptHero_FixedNameAndReplacement(t *testing.T) {
	m, _, _ := tempManager(t)

	first, err := m.AcceptHero(strings.NewReader("jpg-data"), "image/jpeg", "beach.jpg", 8)
	if err != nil {
		t.Fatalf("AcceptHero: %v", err)
	}
	if first.Filename != "hero-background.jpg" {
		t.Errorf("filename = %q", first.Filename)
	}

	// Re-upload with a different extension; the old binary must be gone.
	second, err := m.AcceptHero(strings.NewReader("png-data"), "image/png", "city.png", 8)
	if err != nil {
		t.Fatalf("AcceptHero: %v", err)
	}
	if second.Filename != "hero-background.png" {
		t.Errorf("filename = %q", second.Filename)
	}
	names, _ := m.HeroDir().Glob(HeroStem + ".*")
	if len(names) != 1 || names[0] != "hero-background.png" {
		t.Errorf("hero dir contents = %v, want only hero-background.png", names)
	}
}

func TestAcceptHero_OversizeDeclared(t *testing.T) {
	m, _, _ := tempManager(t)

	_, err := m.AcceptHero(strings.NewReader("x"), "image/png", "big.png", MaxHeroFileSize+1)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestRemoveGallery_TolerantOfMissing(t *testing.T) {
	m, _, _ := tempManager(t)
	if err := m.RemoveGallery("never-existed.jpg"); err != nil {
		t.Errorf("RemoveGallery on missing file: %v", err)
	}
}

func TestRemoveHero_TolerantOfMissing(t *testing.T) {
	m, _, _ := tempManager(t)
	if err := m.RemoveHero(); err != nil {
		t.Errorf("RemoveHero with no hero: %v", err)
	}
}
