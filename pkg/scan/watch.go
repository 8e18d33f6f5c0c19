package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/depscan/pkg/deps"
)

// DefaultDebounce is how long Watch waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watch scans root, then scans again whenever a metadata file under root is
// created, written, removed or renamed, until ctx is cancelled. Bursts of
// changes within debounce trigger a single scan. fn receives every result.
//
// Watch returns nil when ctx is cancelled and an error only if the watcher
// cannot be set up.
func (s *Scanner) Watch(ctx context.Context, root string, opts Options, debounce time.Duration, fn func(*Result, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ignore := opts.Ignore
	if ignore == nil {
		ignore = DefaultIgnore
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	w := &dirWatcher{fw: fw, root: root, ignore: ignore, reg: s.Registry}
	if err := w.addTree(root); err != nil {
		return err
	}

	fn(s.Scan(ctx, root, opts))

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.handle(ev) {
				continue
			}
			s.Logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			s.Logger.Warn("watch error", "err", err)
		case <-timerC:
			timerC = nil
			res, err := s.Scan(ctx, root, opts)
			if ctx.Err() != nil {
				return nil
			}
			fn(res, err)
		}
	}
}

type dirWatcher struct {
	fw     *fsnotify.Watcher
	root   string
	ignore []string
	reg    *deps.Registry
}

func (w *dirWatcher) rel(p string) (string, bool) {
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// addTree watches dir and every directory below it that is not ignored.
func (w *dirWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(p); ok && rel != "." && (ignored(w.ignore, rel) || ignored(w.ignore, rel+"/")) {
			return filepath.SkipDir
		}
		return w.fw.Add(p)
	})
}

// handle reports whether ev concerns a metadata file. New directories are
// added to the watch and count as a change, since they may already hold
// metadata files by the time they are watched.
func (w *dirWatcher) handle(ev fsnotify.Event) bool {
	rel, ok := w.rel(ev.Name)
	if !ok || ignored(w.ignore, rel) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if ignored(w.ignore, rel+"/") {
				return false
			}
			_ = w.addTree(ev.Name)
			return true
		}
	}
	return slices.ContainsFunc(w.reg.Parsers(), func(p deps.FormatParser) bool { return selects(p, rel) }) ||
		slices.ContainsFunc(w.reg.Declarers(), func(d deps.Declarer) bool { return selects(d, rel) })
}
