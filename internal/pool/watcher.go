package pool

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"codebox/internal/logging"
)

// watcher marks the registry's manifest cache dirty when anything under a
// pool root changes. Events only set a flag; the expensive rescan happens
// lazily on the next Manifests read, so bulk churn costs one scan.
type watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	registry *Registry
	debounce time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// StartWatching begins watching the registered pool roots. Pools registered
// afterwards are added automatically. Returns an error if the OS watcher
// cannot be created.
func (r *Registry) StartWatching() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w := &watcher{
		fsw:      fsw,
		registry: r,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	r.mu.Lock()
	r.watcher = w
	roots := make([]string, 0, len(r.pools))
	for _, p := range r.pools {
		roots = append(roots, p.Root)
	}
	r.mu.Unlock()

	for _, root := range roots {
		w.addRoot(root)
	}

	go w.loop()
	return nil
}

// StopWatching shuts the watcher down and waits for its goroutine to exit.
func (r *Registry) StopWatching() {
	r.mu.Lock()
	w := r.watcher
	r.watcher = nil
	r.mu.Unlock()
	if w == nil {
		return
	}
	close(w.stopCh)
	_ = w.fsw.Close()
	<-w.doneCh
}

func (w *watcher) addRoot(root string) {
	if err := w.fsw.Add(root); err != nil {
		logging.PoolsWarn("watch of pool root %s failed: %v", root, err)
	}
}

func (w *watcher) loop() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.mu.Lock()
			// Rapid saves collapse into one dirty mark per half second.
			if time.Since(w.debounce) > 500*time.Millisecond {
				w.debounce = time.Now()
				w.mu.Unlock()
				logging.PoolsDebug("pool change detected: %s (%s)", ev.Name, ev.Op)
				w.registry.markDirty()
			} else {
				w.mu.Unlock()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.PoolsWarn("pool watcher error: %v", err)
		}
	}
}
