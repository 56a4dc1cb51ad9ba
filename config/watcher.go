package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/edaniels/golog"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// settleTime is how long a config file must stay unchanged before it is re-read.
// Editors and os.WriteFile produce several events per save.
const settleTime = 100 * time.Millisecond

// A Watcher re-reads a config file whenever it changes on disk and delivers each
// config that reads and validates cleanly. Invalid edits are logged and skipped.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	logger  golog.Logger
	configs chan *Config
	mu      sync.Mutex

	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// NewWatcher starts watching filePath.
func NewWatcher(ctx context.Context, filePath string, logger golog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	// watch the directory since editors often replace the file instead of
	// writing it in place
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "cannot watch %q", abs), fsw.Close())
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		path:    abs,
		fsw:     fsw,
		configs: make(chan *Config, 1),
		logger:  logger,
		cancel:  cancel,
	}
	w.workers.Add(1)
	go func() {
		defer w.workers.Done()
		w.watch(cancelCtx)
	}()
	return w, nil
}

// Configs delivers new configs. Only the latest unread config is kept.
func (w *Watcher) Configs() <-chan *Config {
	return w.configs
}

func (w *Watcher) watch(ctx context.Context) {
	debounced := debounce.New(settleTime)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warnw("config watcher error", "error", err)
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			debounced(func() { w.reload(ctx) })
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	cfg, err := Read(w.path, w.logger)
	if err != nil {
		w.logger.Warnw("ignoring changed config", "path", w.path, "error", err)
		return
	}
	w.logger.Infow("config changed", "path", w.path)
	w.publish(cfg)
}

func (w *Watcher) publish(cfg *Config) {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.configs:
	default:
	}
	w.configs <- cfg
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fsw.Close()
	w.workers.Wait()
	return err
}
