package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwestall/shopfront/internal/recordstore"
	"github.com/mwestall/shopfront/internal/siteservice"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatchReportsRecordEdit(t *testing.T) {
	dir := t.TempDir()

	events := make(chan string, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, quietLogger(), func(kind string) {
			events <- kind
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, recordstore.StatusFile), []byte(`{"status":true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case kind := <-events:
		if kind != siteservice.KindStatus {
			t.Errorf("kind = %q, want %q", kind, siteservice.KindStatus)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event for record edit")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()

	events := make(chan string, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = Watch(ctx, dir, quietLogger(), func(kind string) {
			events <- kind
		})
	}()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case kind := <-events:
		t.Errorf("unexpected event %q for unrelated file", kind)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	events := make(chan string, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = Watch(ctx, dir, quietLogger(), func(kind string) {
			events <- kind
		})
	}()

	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, recordstore.GalleryFile)
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte(`{"images":[]}`), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// All five writes land within the debounce window and merge into one
	// callback.
	select {
	case <-events:
	case <-time.After(3 * time.Second):
		t.Fatal("no event delivered")
	}
	select {
	case kind := <-events:
		t.Errorf("burst not debounced, extra event %q", kind)
	case <-time.After(500 * time.Millisecond):
	}
}
