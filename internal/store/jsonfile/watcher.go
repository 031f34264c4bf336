package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const (
	debounceDelay   = 50 * time.Millisecond
	eventBufferSize = 100
)

// FileEvent reports that a file in the watched directory changed.
type FileEvent struct {
	Name      string // base name, e.g. "techtrack.json"
	Path      string
	Timestamp time.Time
}

// Watcher watches a directory for changes to JSON files using fsnotify.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher

	mu          sync.RWMutex
	subscribers map[string][]chan<- FileEvent // glob pattern -> channels
	debounce    map[string]*time.Timer        // file name -> debounce timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for dir. The directory is created if it
// doesn't exist.
func NewWatcher(dir string) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	tw := &Watcher{
		dir:         dir,
		watcher:     watcher,
		subscribers: make(map[string][]chan<- FileEvent),
		debounce:    make(map[string]*time.Timer),
		ctx:         ctx,
		cancel:      cancel,
	}

	tw.wg.Add(1)
	go tw.run()

	return tw, nil
}

// Watch returns a channel that receives events when files whose base name
// matches the glob pattern change. An empty pattern matches every file.
func (tw *Watcher) Watch(ctx context.Context, pattern string) (<-chan FileEvent, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	ch := make(chan FileEvent, eventBufferSize)

	tw.mu.Lock()
	tw.subscribers[pattern] = append(tw.subscribers[pattern], ch)
	tw.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			tw.unsubscribe(pattern, ch)
		case <-tw.ctx.Done():
			// Close owns the channel now.
		}
	}()

	return ch, nil
}

// Close stops watching and closes all subscriber channels.
func (tw *Watcher) Close() error {
	tw.cancel()

	tw.mu.Lock()
	for _, timer := range tw.debounce {
		timer.Stop()
	}

	for _, subs := range tw.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	tw.subscribers = make(map[string][]chan<- FileEvent)
	tw.mu.Unlock()

	err := tw.watcher.Close()
	tw.wg.Wait()
	return err
}

// unsubscribe removes a channel from the subscriber list and closes it.
func (tw *Watcher) unsubscribe(pattern string, ch chan<- FileEvent) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	subs := tw.subscribers[pattern]
	for i, sub := range subs {
		if sub == ch {
			tw.subscribers[pattern] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(tw.subscribers[pattern]) == 0 {
		delete(tw.subscribers, pattern)
	}
}

// run processes filesystem events from fsnotify.
func (tw *Watcher) run() {
	defer tw.wg.Done()

	for {
		select {
		case <-tw.ctx.Done():
			return
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			tw.handleEvent(event)
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("dir", tw.dir).Msg("file watcher error")
		}
	}
}

// handleEvent processes a single filesystem event.
func (tw *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	name := filepath.Base(event.Name)

	// Temp files from atomic writes and lock files are noise.
	if !strings.HasSuffix(name, ".json") ||
		strings.HasSuffix(name, ".tmp") ||
		strings.HasSuffix(name, ".lock") {
		return
	}

	tw.mu.Lock()
	if timer, exists := tw.debounce[name]; exists {
		timer.Stop()
	}
	tw.debounce[name] = time.AfterFunc(debounceDelay, func() {
		tw.notifySubscribers(name)
	})
	tw.mu.Unlock()
}

func (tw *Watcher) notifySubscribers(name string) {
	event := FileEvent{
		Name:      name,
		Path:      filepath.Join(tw.dir, name),
		Timestamp: time.Now(),
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	for pattern, subs := range tw.subscribers {
		if !matchesPattern(pattern, name) {
			continue
		}
		for _, ch := range subs {
			select {
			case ch <- event:
			default:
				// Subscriber is behind; drop rather than block the watcher.
			}
		}
	}

	delete(tw.debounce, name)
}

func matchesPattern(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
