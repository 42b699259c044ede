package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"vj-frame/pkg/logging"
	"vj-frame/pkg/metrics"
)

const (
	defaultDebounce       = 500 * time.Millisecond
	defaultRescanInterval = 30 * time.Second
)

// Watcher keeps a Library in sync with a media directory. It is a suture
// service: Serve blocks until ctx is cancelled.
type Watcher struct {
	Dir            string
	Library        *Library
	Debounce       time.Duration
	RescanInterval time.Duration
	// Notify disables fsnotify when false; the periodic rescan still runs.
	Notify bool

	log zerolog.Logger
}

// NewWatcher creates a watcher with default timings.
func NewWatcher(dir string, lib *Library, notify bool) *Watcher {
	return &Watcher{
		Dir:            dir,
		Library:        lib,
		Debounce:       defaultDebounce,
		RescanInterval: defaultRescanInterval,
		Notify:         notify,
		log:            logging.Component("media-watcher"),
	}
}

func (w *Watcher) String() string { return "media-watcher" }

// Rescan reads the directory once and replaces the library content.
func (w *Watcher) Rescan() error {
	entries, err := ScanDirectory(w.Dir)
	if err != nil {
		return err
	}
	w.Library.Replace(entries)
	metrics.RecordPoolSize(countKinds(entries))
	return nil
}

// Serve implements suture.Service.
func (w *Watcher) Serve(ctx context.Context) error {
	if err := w.Rescan(); err != nil {
		w.log.Warn().Err(err).Str("dir", w.Dir).Msg("initial scan failed")
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	if w.Notify {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create fsnotify watcher: %w", err)
		}
		defer fw.Close()
		if err := fw.Add(w.Dir); err != nil {
			w.log.Warn().Err(err).Str("dir", w.Dir).Msg("cannot watch media dir, relying on periodic rescans")
		} else {
			events, errs = fw.Events, fw.Errors
		}
	}

	rescanEvery := w.RescanInterval
	if rescanEvery <= 0 {
		rescanEvery = defaultRescanInterval
	}
	ticker := time.NewTicker(rescanEvery)
	defer ticker.Stop()

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return errors.New("fsnotify event channel closed")
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			debounce.Reset(w.Debounce)
		case err, ok := <-errs:
			if !ok {
				return errors.New("fsnotify error channel closed")
			}
			w.log.Warn().Err(err).Msg("fsnotify error")
		case <-debounce.C:
			w.rescanLogged()
		case <-ticker.C:
			w.rescanLogged()
		}
	}
}

func (w *Watcher) rescanLogged() {
	if err := w.Rescan(); err != nil {
		w.log.Warn().Err(err).Str("dir", w.Dir).Msg("rescan failed")
		return
	}
	w.log.Debug().Int("entries", w.Library.Len()).Msg("media dir rescanned")
}

func countKinds(entries []Entry) (images, videos int) {
	for _, e := range entries {
		switch e.Kind {
		case KindImage:
			images++
		case KindVideo:
			videos++
		}
	}
	return images, videos
}
