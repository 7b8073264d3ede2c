// Package recordstore persists the three site records (status, gallery,
// hero background) as independent JSON documents under the data directory.
//
// The on-disk files are the sole source of truth: every read deserializes
// the current file, every write serializes the full record atomically.
// A per-record mutex serializes read-modify-write sequences so concurrent
// admin actions cannot lose updates; there is no cross-record transaction.
package recordstore

import (
	"encoding/json"
	"sync"

	"github.com/mwestall/shopfront/internal/apperr"
	"github.com/mwestall/shopfront/internal/models"
	"github.com/mwestall/shopfront/internal/storage"
)

// Record file names under the data directory.
const (
	StatusFile  = "status.json"
	GalleryFile = "gallery.json"
	HeroFile    = "hero-background.json"
)

// Store reads and writes the three record files.
type Store struct {
	dir *storage.Dir

	statusMu  sync.Mutex
	galleryMu sync.Mutex
	heroMu    sync.Mutex
}

// New creates a Store over the given data directory and initializes any
// missing record file with its default value (first-run initialization).
// A present but corrupt file is reported, not overwritten.
func New(dir *storage.Dir) (*Store, error) {
	s := &Store{dir: dir}

	if !dir.Exists(StatusFile) {
		if err := s.write(StatusFile, models.StatusRecord{Notice: ""}); err != nil {
			return nil, err
		}
	}
	if !dir.Exists(GalleryFile) {
		if err := s.write(GalleryFile, models.GalleryRecord{Images: []models.ImageEntry{}}); err != nil {
			return nil, err
		}
	}
	if !dir.Exists(HeroFile) {
		if err := s.write(HeroFile, models.HeroRecord{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) read(file string, v any) error {
	data, err := s.dir.Read(file)
	if err != nil {
		return apperr.Storef("read "+file, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Storef("decode "+file, err)
	}
	return nil
}

func (s *Store) write(file string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.Storef("encode "+file, err)
	}
	if err := s.dir.WriteAtomic(file, append(data, '\n')); err != nil {
		return apperr.Storef("write "+file, err)
	}
	return nil
}

// Status returns the current status record.
func (s *Store) Status() (models.StatusRecord, error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	var rec models.StatusRecord
	err := s.read(StatusFile, &rec)
	return rec, err
}

// SetStatus overwrites the status record in place.
func (s *Store) SetStatus(rec models.StatusRecord) error {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.write(StatusFile, rec)
}

// Gallery returns the current gallery record. Images is never nil.
func (s *Store) Gallery() (models.GalleryRecord, error) {
	s.galleryMu.Lock()
	defer s.galleryMu.Unlock()
	return s.readGallery()
}

func (s *Store) readGallery() (models.GalleryRecord, error) {
	var rec models.GalleryRecord
	if err := s.read(GalleryFile, &rec); err != nil {
		return rec, err
	}
	if rec.Images == nil {
		rec.Images = []models.ImageEntry{}
	}
	return rec, nil
}

// UpdateGallery runs fn on the current gallery record and persists the
// result, all under the gallery lock. If fn returns an error nothing is
// written and the error is passed through.
func (s *Store) UpdateGallery(fn func(*models.GalleryRecord) error) error {
	s.galleryMu.Lock()
	defer s.galleryMu.Unlock()
	rec, err := s.readGallery()
	if err != nil {
		return err
	}
	if err := fn(&rec); err != nil {
		return err
	}
	return s.write(GalleryFile, rec)
}

// Hero returns the current hero record.
func (s *Store) Hero() (models.HeroRecord, error) {
	s.heroMu.Lock()
	defer s.heroMu.Unlock()
	var rec models.HeroRecord
	err := s.read(HeroFile, &rec)
	return rec, err
}

// SetHero overwrites the hero record in place.
func (s *Store) SetHero(rec models.HeroRecord) error {
	s.heroMu.Lock()
	defer s.heroMu.Unlock()
	return s.write(HeroFile, rec)
}
