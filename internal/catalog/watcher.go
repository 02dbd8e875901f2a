package catalog

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the catalog when the music directory changes on disk.
// Events are debounced so a batch copy triggers a single rebuild. A watcher
// reload is exactly the rebuild GET /reload performs.
type Watcher struct {
	loader   *Loader
	store    *Store
	logger   *slog.Logger
	debounce time.Duration

	fsw  *fsnotify.Watcher
	quit chan struct{}
}

// NewWatcher creates a watcher over the loader's music directory
func NewWatcher(loader *Loader, store *Store, logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		loader:   loader,
		store:    store,
		logger:   logger,
		debounce: debounce,
		fsw:      fsw,
		quit:     make(chan struct{}),
	}, nil
}

// Start begins watching the music directory
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.loader.dir); err != nil {
		return err
	}

	w.logger.Info("Library watcher started",
		slog.String("music_dir", w.loader.dir),
		slog.Duration("debounce", w.debounce),
	)

	go w.watchLoop()
	return nil
}

// Stop stops the watcher and its event loop
func (w *Watcher) Stop() {
	close(w.quit)
	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("Error closing library watcher", slog.String("error", err.Error()))
	}
}

func (w *Watcher) watchLoop() {
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}

			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(w.debounce)

		case <-debounce.C:
			w.logger.Info("Library changed, reloading catalog")
			if err := w.loader.Reload(w.store); err != nil {
				w.logger.Error("Watcher-triggered reload failed", slog.String("error", err.Error()))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Library watcher error", slog.String("error", err.Error()))

		case <-w.quit:
			return
		}
	}
}

// relevant filters events down to audio files and description sidecars.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
		return false
	}

	ext := filepath.Ext(event.Name)
	return strings.EqualFold(ext, AudioExt) || strings.EqualFold(ext, w.loader.descExt)
}
