// Package testutil provides shared test helpers for setting up data and
// upload directories.
package testutil

import (
	"io"
	"strings"
	"testing"

	"github.com/mwestall/shopfront/internal/admin"
	"github.com/mwestall/shopfront/internal/recordstore"
	"github.com/mwestall/shopfront/internal/siteservice"
	"github.com/mwestall/shopfront/internal/storage"
	"github.com/mwestall/shopfront/internal/uploads"
)

// Password is the admin secret used by test environments.
const Password = "test-secret"

// Env bundles the components of a test site.
type Env struct {
	Service    *siteservice.Service
	Records    *recordstore.Store
	Uploads    *uploads.Manager
	DataDir    string
	GalleryDir string
	HeroDir    string
}

// NewEnv creates temp directories, a record store, upload manager, and
// service wired with the shared test password. onChange may be nil.
func NewEnv(t *testing.T, onChange siteservice.ChangeCallback) *Env {
	t.Helper()

	dataRoot := t.TempDir()
	galleryRoot := t.TempDir()
	heroRoot := t.TempDir()

	dataDir, err := storage.NewDir(dataRoot)
	if err != nil {
		t.Fatalf("data dir: %v", err)
	}
	galleryDir, err := storage.NewDir(galleryRoot)
	if err != nil {
		t.Fatalf("gallery dir: %v", err)
	}
	heroDir, err := storage.NewDir(heroRoot)
	if err != nil {
		t.Fatalf("hero dir: %v", err)
	}

	records, err := recordstore.New(dataDir)
	if err != nil {
		t.Fatalf("record store: %v", err)
	}
	um := uploads.NewManager(galleryDir, heroDir)
	svc := siteservice.NewService(records, um, admin.NewGate(Password), onChange)

	return &Env{
		Service:    svc,
		Records:    records,
		Uploads:    um,
		DataDir:    dataRoot,
		GalleryDir: galleryRoot,
		HeroDir:    heroRoot,
	}
}

// File builds an UploadFile backed by an in-memory string.
func File(name, mime, content string) siteservice.UploadFile {
	return siteservice.UploadFile{
		Name: name,
		Mime: mime,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}
