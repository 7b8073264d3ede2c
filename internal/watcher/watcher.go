// Package watcher observes the data directory for out-of-band edits to
// the record files (e.g. an operator fixing a record with a text editor)
// and reports them so connected clients can re-render.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mwestall/shopfront/internal/recordstore"
	"github.com/mwestall/shopfront/internal/siteservice"
)

// debounce collapses the event bursts editors and atomic renames produce
// for a single logical write.
const debounce = 200 * time.Millisecond

// ChangeCallback receives the record kind ("status", "gallery", "hero")
// that changed on disk.
type ChangeCallback func(kind string)

var fileKinds = map[string]string{
	recordstore.StatusFile:  siteservice.KindStatus,
	recordstore.GalleryFile: siteservice.KindGallery,
	recordstore.HeroFile:    siteservice.KindHero,
}

// Watch monitors dataDir until ctx is cancelled, invoking cb for each
// record file that is created, written, or renamed into place. Events
// for the same record within the debounce window are merged.
func Watch(ctx context.Context, dataDir string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dataDir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dataDir))

	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for kind := range pending {
				logger.Debug("watcher: record changed", slog.String("record", kind))
				if cb != nil {
					cb(kind)
				}
				delete(pending, kind)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			kind, known := fileKinds[filepath.Base(ev.Name)]
			if !known {
				continue
			}
			pending[kind] = struct{}{}
			scheduleFlush()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
