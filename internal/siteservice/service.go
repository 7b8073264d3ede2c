// Package siteservice implements the content operations behind the API:
// status, gallery, and hero background, each guarded by the admin gate.
package siteservice

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mwestall/shopfront/internal/admin"
	"github.com/mwestall/shopfront/internal/apperr"
	"github.com/mwestall/shopfront/internal/models"
	"github.com/mwestall/shopfront/internal/recordstore"
	"github.com/mwestall/shopfront/internal/uploads"
)

// MaxNoticeLength is the longest accepted status notice, in characters.
const MaxNoticeLength = 500

// Record kinds reported through the change callback.
const (
	KindStatus  = "status"
	KindGallery = "gallery"
	KindHero    = "hero"
)

// ChangeCallback is invoked after a successful mutation with the kind of
// record that changed.
type ChangeCallback func(kind string)

// UploadFile is one file submitted in an upload request. Open is called
// at most once, after all files in the batch have passed validation.
type UploadFile struct {
	Name string
	Mime string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Service coordinates the record store, upload manager, and admin gate.
type Service struct {
	records  *recordstore.Store
	uploads  *uploads.Manager
	gate     *admin.Gate
	onChange ChangeCallback
}

// NewService creates the site service. onChange may be nil.
func NewService(records *recordstore.Store, um *uploads.Manager, gate *admin.Gate, onChange ChangeCallback) *Service {
	return &Service{records: records, uploads: um, gate: gate, onChange: onChange}
}

func (s *Service) emit(kind string) {
	if s.onChange != nil {
		s.onChange(kind)
	}
}

func (s *Service) authorize(password string) error {
	if !s.gate.Authorize(password) {
		return apperr.ErrUnauthorized
	}
	return nil
}

// Status returns the current status record.
func (s *Service) Status(_ context.Context) (models.StatusRecord, error) {
	return s.records.Status()
}

// SetStatus overwrites the status record with the given pair and a fresh
// timestamp. Auth and validation run before any mutation.
func (s *Service) SetStatus(_ context.Context, password string, open bool, notice string) (models.StatusRecord, error) {
	if err := s.authorize(password); err != nil {
		return models.StatusRecord{}, err
	}
	if utf8.RuneCountInString(notice) > MaxNoticeLength {
		return models.StatusRecord{}, apperr.Validationf("notice exceeds %d characters", MaxNoticeLength)
	}
	rec := models.StatusRecord{
		Status:      open,
		Notice:      notice,
		LastUpdated: time.Now().UTC(),
	}
	if err := s.records.SetStatus(rec); err != nil {
		return models.StatusRecord{}, err
	}
	s.emit(KindStatus)
	return rec, nil
}

// Gallery returns the current gallery record.
func (s *Service) Gallery(_ context.Context) (models.GalleryRecord, error) {
	return s.records.Gallery()
}

// UploadGalleryImages validates the whole batch before writing anything:
// an invalid file anywhere in the batch rejects the entire call with no
// side effects. A disk failure mid-batch still records the files that
// made it to disk; there is no rollback.
func (s *Service) UploadGalleryImages(_ context.Context, password string, files []UploadFile) ([]models.ImageEntry, error) {
	if err := s.authorize(password); err != nil {
		return nil, err
	}
	if err := s.uploads.ValidateGalleryCount(len(files)); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := s.uploads.ValidateGallery(f.Mime, f.Name, f.Size); err != nil {
			return nil, err
		}
	}

	entries := make([]models.ImageEntry, 0, len(files))
	var saveErr error
	for _, f := range files {
		entry, err := s.saveGalleryFile(f)
		if err != nil {
			saveErr = err
			break
		}
		entries = append(entries, entry)
	}

	if len(entries) > 0 {
		if err := s.records.UpdateGallery(func(rec *models.GalleryRecord) error {
			rec.Images = append(rec.Images, entries...)
			return nil
		}); err != nil {
			return nil, err
		}
		s.emit(KindGallery)
	}
	if saveErr != nil {
		return entries, saveErr
	}
	return entries, nil
}

func (s *Service) saveGalleryFile(f UploadFile) (models.ImageEntry, error) {
	rc, err := f.Open()
	if err != nil {
		return models.ImageEntry{}, apperr.Uploadf("open "+f.Name, err)
	}
	defer rc.Close()
	return s.uploads.AcceptGallery(rc, f.Mime, f.Name, f.Size)
}

// DeleteGalleryImage removes the matching record entry and then attempts
// to delete the physical file, tolerating its absence.
func (s *Service) DeleteGalleryImage(_ context.Context, password, filename string) error {
	if err := s.authorize(password); err != nil {
		return err
	}
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return apperr.Validationf("invalid filename: %s", filename)
	}

	err := s.records.UpdateGallery(func(rec *models.GalleryRecord) error {
		for i, img := range rec.Images {
			if img.Filename == filename {
				rec.Images = append(rec.Images[:i], rec.Images[i+1:]...)
				return nil
			}
		}
		return apperr.ErrNotFound
	})
	if err != nil {
		return err
	}

	if err := s.uploads.RemoveGallery(filename); err != nil {
		return err
	}
	s.emit(KindGallery)
	return nil
}

// Hero returns the current hero record.
func (s *Service) Hero(_ context.Context) (models.HeroRecord, error) {
	return s.records.Hero()
}

// UploadHero replaces the hero image. The previous binary is removed by
// the upload manager regardless of its extension, so re-uploading never
// accumulates files or record entries.
func (s *Service) UploadHero(_ context.Context, password string, file UploadFile) (models.HeroRecord, error) {
	if err := s.authorize(password); err != nil {
		return models.HeroRecord{}, err
	}
	if err := s.uploads.ValidateHero(file.Mime, file.Name, file.Size); err != nil {
		return models.HeroRecord{}, err
	}

	rc, err := file.Open()
	if err != nil {
		return models.HeroRecord{}, apperr.Uploadf("open "+file.Name, err)
	}
	defer rc.Close()

	entry, err := s.uploads.AcceptHero(rc, file.Mime, file.Name, file.Size)
	if err != nil {
		return models.HeroRecord{}, err
	}

	rec := models.HeroRecord{
		Filename:     entry.Filename,
		OriginalName: entry.OriginalName,
		UploadedAt:   entry.UploadedAt,
		Size:         entry.Size,
		Mimetype:     entry.Mimetype,
		Checksum:     entry.Checksum,
	}
	if err := s.records.SetHero(rec); err != nil {
		return models.HeroRecord{}, err
	}
	s.emit(KindHero)
	return rec, nil
}

// DeleteHero removes the hero binary if present and resets the record to
// its empty default.
func (s *Service) DeleteHero(_ context.Context, password string) error {
	if err := s.authorize(password); err != nil {
		return err
	}
	if err := s.uploads.RemoveHero(); err != nil {
		return err
	}
	if err := s.records.SetHero(models.HeroRecord{}); err != nil {
		return err
	}
	s.emit(KindHero)
	return nil
}
