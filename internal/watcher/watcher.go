// Package watcher submits books dropped into a directory.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/distill/internal/parser"
)

// SubmitFunc receives the path of a settled, supported file.
type SubmitFunc func(path string) error

// Options configures a Watcher.
type Options struct {
	// SettleDelay is how long a file must go without writes before it is
	// submitted.
	SettleDelay time.Duration
	// ScanExisting submits files already in the directory at start.
	ScanExisting bool
}

// Watcher watches one directory (not recursively).
type Watcher struct {
	dir    string
	opts   Options
	submit SubmitFunc
	log    *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingFile
	wg      sync.WaitGroup
}

type pendingFile struct {
	timer *time.Timer
}

func New(dir string, opts Options, submit SubmitFunc, log *slog.Logger) *Watcher {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 500 * time.Millisecond
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		dir:     filepath.Clean(dir),
		opts:    opts,
		submit:  submit,
		log:     log.With("component", "watcher", "dir", dir),
		pending: make(map[string]*pendingFile),
	}
}

// Run watches until ctx is done. It returns an error only if the watch
// cannot be established.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching for books")

	if w.opts.ScanExisting {
		w.scan()
	}

	defer w.stopPending()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Warn("initial scan failed", "error", err)
		return
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			w.schedule(filepath.Join(w.dir, e.Name()))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		w.cancel(ev.Name)
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.schedule(ev.Name)
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(path string) {
	if !Eligible(path) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	// A timer that already fired is left to finish; a new one replaces it.
	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		p.timer.Reset(w.opts.SettleDelay)
		return
	}
	p := &pendingFile{}
	w.wg.Add(1)
	p.timer = time.AfterFunc(w.opts.SettleDelay, func() {
		defer w.wg.Done()
		w.settled(path, p)
	})
	w.pending[path] = p
}

func (w *Watcher) settled(path string, p *pendingFile) {
	w.mu.Lock()
	if w.pending[path] == p {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	if err := w.submit(path); err != nil {
		w.log.Error("submit failed", "path", path, "error", err)
		return
	}
	w.log.Info("book submitted", "path", path, "bytes", info.Size())
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		w.wg.Done()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	for path, p := range w.pending {
		if p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// Eligible reports whether path names a visible, supported book file.
func Eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".tmp", ".part", ".crdownload":
		return false
	}
	return parser.IsSupportedExtension(base)
}
