package heartbeat

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/logger"
)

// DefaultDebounce batches bursts of file events into one run.
const DefaultDebounce = 2 * time.Second

// Watcher triggers a run when markdown files under the skills root change.
type Watcher struct {
	root     string
	runner   Runner
	debounce time.Duration
}

// NewWatcher creates a watcher over root. A non-positive debounce uses the
// default.
func NewWatcher(root string, runner Runner, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{root: root, runner: runner, debounce: debounce}
}

// Start watches until ctx is cancelled. Write and create events on markdown
// files are debounced, then a single run fires.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	err = filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to watch skill directories")
	}

	log := logger.G(ctx).WithField("root", w.root)
	log.Info("watching for skill changes")

	trigger := make(chan struct{}, 1)
	go w.debounceEvents(ctx, watcher, trigger)

	for {
		select {
		case <-trigger:
			if err := w.runner(ctx); err != nil {
				log.WithError(err).Error("triggered run failed")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) debounceEvents(ctx context.Context, watcher *fsnotify.Watcher, trigger chan<- struct{}) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// New directories join the watch set so skills created under
			// them later still trigger runs.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.G(ctx).WithError(err).WithField("dir", event.Name).Error("failed to watch new directory")
					}
					continue
				}
			}
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}
			logger.G(ctx).WithField("file", event.Name).Debug("skill change detected")

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.G(ctx).WithError(err).Error("file watcher error")
		case <-ctx.Done():
			return
		}
	}
}
