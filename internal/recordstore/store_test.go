package recordstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mwestall/shopfront/internal/apperr"
	"github.com/mwestall/shopfront/internal/models"
	"github.com/mwestall/shopfront/internal/storage"
)

func tempStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	dir, err := storage.NewDir(root)
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, root
}

func TestFirstRunCreatesDefaults(t *testing.T) {
	s, root := tempStore(t)

	for _, f := range []string{StatusFile, GalleryFile, HeroFile} {
		if _, err := os.Stat(filepath.Join(root, f)); err != nil {
			t.Errorf("%s not created: %v", f, err)
		}
	}

	status, err := s.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Status || status.Notice != "" {
		t.Errorf("default status = %+v", status)
	}

	gallery, err := s.Gallery()
	if err != nil {
		t.Fatalf("Gallery: %v", err)
	}
	if gallery.Images == nil || len(gallery.Images) != 0 {
		t.Errorf("default gallery = %+v", gallery)
	}

	hero, err := s.Hero()
	if err != nil {
		t.Fatalf("Hero: %v", err)
	}
	if hero.IsSet() {
		t.Errorf("default hero = %+v", hero)
	}
}

func TestStatusRoundTrip(t *testing.T) {
	s, _ := tempStore(t)

	want := models.StatusRecord{
		Status:      true,
		Notice:      "open until 6pm",
		LastUpdated: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SetStatus(want); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, err := s.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.Status != want.Status || got.Notice != want.Notice || !got.LastUpdated.Equal(want.LastUpdated) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestCorruptFileReportsStoreError(t *testing.T) {
	s, root := tempStore(t)

	if err := os.WriteFile(filepath.Join(root, StatusFile), []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := s.Status()
	if !errors.Is(err, apperr.ErrStore) {
		t.Errorf("err = %v, want ErrStore", err)
	}
}

func TestExistingFilesSurviveRestart(t *testing.T) {
	s, root := tempStore(t)
	_ = s.SetStatus(models.StatusRecord{Status: true, Notice: "hi"})

	// Re-open against the same directory; the record must not be reset.
	dir, _ := storage.NewDir(root)
	s2, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, _ := s2.Status()
	if !got.Status || got.Notice != "hi" {
		t.Errorf("record reset on restart: %+v", got)
	}
}

func TestUpdateGallery_ErrorWritesNothing(t *testing.T) {
	s, _ := tempStore(t)
	boom := errors.New("boom")

	err := s.UpdateGallery(func(rec *models.GalleryRecord) error {
		rec.Images = append(rec.Images, models.ImageEntry{Filename: "x.jpg"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	got, _ := s.Gallery()
	if len(got.Images) != 0 {
		t.Errorf("gallery mutated despite error: %+v", got.Images)
	}
}

func TestUpdateGallery_ConcurrentAppendsNotLost(t *testing.T) {
	s, _ := tempStore(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.UpdateGallery(func(rec *models.GalleryRecord) error {
				rec.Images = append(rec.Images, models.ImageEntry{Filename: fmt.Sprintf("img-%d.jpg", i)})
				return nil
			})
		}(i)
	}
	wg.Wait()

	got, err := s.Gallery()
	if err != nil {
		t.Fatalf("Gallery: %v", err)
	}
	if len(got.Images) != n {
		t.Errorf("len(images) = %d, want %d (lost updates)", len(got.Images), n)
	}
}

func TestHeroRoundTrip(t *testing.T) {
	s, _ := tempStore(t)

	want := models.HeroRecord{
		Filename:     "hero-background.jpg",
		OriginalName: "beach.jpg",
		UploadedAt:   time.Now().UTC().Truncate(time.Second),
		Size:         1234,
		Mimetype:     "image/jpeg",
	}
	if err := s.SetHero(want); err != nil {
		t.Fatalf("SetHero: %v", err)
	}
	got, err := s.Hero()
	if err != nil {
		t.Fatalf("Hero: %v", err)
	}
	if got.Filename != want.Filename || got.Size != want.Size || got.Mimetype != want.Mimetype {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !got.IsSet() {
		t.Error("IsSet() = false after SetHero")
	}
}
