package collision

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 100 * time.Millisecond

// Reload is a descriptor file that changed on disk and parsed cleanly.
type Reload struct {
	Path        string
	Composition *Composition
}

// Watcher reloads collision descriptors when they change. A file is reloaded
// once it has been quiet for reloadDebounce, so editors that write in several
// steps produce a single reload.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	Events  chan Reload
	Errors  chan error
	ready   chan string
	closeCh chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func NewWatcher(logger *zap.Logger, dirs ...string) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		logger:  logger.Named("collision"),
		Events:  make(chan Reload, 16),
		Errors:  make(chan error, 1),
		ready:   make(chan string, 16),
		closeCh: make(chan struct{}),
	}
	watcher.wg.Add(1)
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		w.wg.Wait()
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isDescriptorFile(event.Name) {
				continue
			}
			name := event.Name
			if t, ok := timers[name]; ok {
				t.Reset(reloadDebounce)
				continue
			}
			timers[name] = time.AfterFunc(reloadDebounce, func() {
				select {
				case w.ready <- name:
				case <-w.closeCh:
				}
			})
		case path := <-w.ready:
			delete(timers, path)
			w.reload(path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) reload(path string) {
	c, err := LoadDescriptor(path)
	if err != nil {
		w.logger.Warn("descriptor reload failed", zap.String("path", path), zap.Error(err))
		w.sendError(err)
		return
	}
	w.logger.Debug("descriptor reloaded", zap.String("path", path), zap.Int("bodies", len(c.Bodies)))
	select {
	case w.Events <- Reload{Path: path, Composition: c}:
	case <-w.closeCh:
	}
}

// sendError drops the error when the previous one hasn't been read yet.
func (w *Watcher) sendError(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}

func isDescriptorFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
