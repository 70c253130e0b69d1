package analyzer

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tailorflow/internal/errors"
)

// VocabularyWatcher watches an external vocabulary file and reloads the
// analyzer when it changes. Reloads are debounced because editors often
// produce several write events for one save.
type VocabularyWatcher struct {
	mu sync.Mutex

	path     string
	analyzer *Analyzer

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan chan struct{}
	logger   *errors.Logger
	running  bool
}

// NewVocabularyWatcher creates a watcher for the given vocabulary file
func NewVocabularyWatcher(path string, a *Analyzer, debounceDelay time.Duration, logger *errors.Logger) *VocabularyWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	return &VocabularyWatcher{
		path:          path,
		analyzer:      a,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		logger:        logger,
	}
}

// Start loads the file once, then begins watching its directory for changes.
// Watching the directory rather than the file survives rename-based saves.
func (vw *VocabularyWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if vw.running {
		return fmt.Errorf("vocabulary watcher is already running")
	}

	if err := vw.analyzer.LoadVocabularyFile(vw.path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(vw.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch vocabulary directory: %w", err)
	}

	vw.fsWatcher = watcher
	vw.running = true
	go vw.watchLoop()

	if vw.logger != nil {
		vw.logger.Info("Vocabulary file watcher started",
			"file", vw.path,
			"terms", vw.analyzer.TermCount(),
			"debounce_delay", vw.debounceDelay.String())
	}
	return nil
}

// Stop terminates the watch loop and releases the file watcher
func (vw *VocabularyWatcher) Stop() {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if !vw.running {
		return
	}
	close(vw.stopChan)
	if vw.debounceTimer != nil {
		vw.debounceTimer.Stop()
	}
	if vw.fsWatcher != nil {
		if err := vw.fsWatcher.Close(); err != nil && vw.logger != nil {
			vw.logger.LogError(err, "Failed to close vocabulary file watcher")
		}
	}
	vw.running = false
}

// IsRunning reports whether the watch loop is active
func (vw *VocabularyWatcher) IsRunning() bool {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	return vw.running
}

func (vw *VocabularyWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-vw.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(vw.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				vw.scheduleReload()
			}
		case err, ok := <-vw.fsWatcher.Errors:
			if !ok {
				return
			}
			if vw.logger != nil {
				vw.logger.LogError(err, "Vocabulary file watcher error", "file", vw.path)
			}
		case <-vw.stopChan:
			return
		}
	}
}

func (vw *VocabularyWatcher) scheduleReload() {
	vw.mu.Lock()
	defer vw.mu.Unlock()

	if vw.debounceTimer != nil {
		vw.debounceTimer.Stop()
	}
	vw.debounceTimer = time.AfterFunc(vw.debounceDelay, vw.reload)
}

func (vw *VocabularyWatcher) reload() {
	if err := vw.analyzer.LoadVocabularyFile(vw.path); err != nil {
		// Keep the previous vocabulary on a bad reload
		if vw.logger != nil {
			vw.logger.LogError(err, "Failed to reload vocabulary file", "file", vw.path)
		}
		return
	}
	if vw.logger != nil {
		vw.logger.Info("Vocabulary reloaded",
			"file", vw.path,
			"terms", vw.analyzer.TermCount())
	}
}
