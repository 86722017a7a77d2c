// Package ingest watches a drop directory laid out as
// <root>/<project>/<category>/ and registers new source files into the
// owning project and category.
package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/outorga-facil/filing-pipeline/constants"
	"github.com/outorga-facil/filing-pipeline/internal/common"
	"github.com/outorga-facil/filing-pipeline/internal/entity"
)

// Registrar is the slice of the orchestrator the watcher needs.
type Registrar interface {
	AddFile(ctx context.Context, project string, cat constants.Category, path string) (*entity.FileRef, error)
	CreateProject(ctx context.Context, name string) (*entity.Project, error)
	LoadProject(ctx context.Context, name string) (*entity.Project, error)
}

// Watcher registers dropped files. Writes are debounced per path so a file
// still being copied is picked up once, after it settles.
type Watcher struct {
	registrar Registrar
	root      string
	debounce  time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewWatcher(registrar Registrar, root string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		registrar: registrar,
		root:      root,
		debounce:  debounce,
		logger:    logger,
		pending:   make(map[string]*time.Timer),
	}
}

// Run scans the existing tree, then watches for new files until the
// context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.root == "" {
		return common.NewAppError("NO_WATCH_ROOT", "watch root is not configured", common.ErrInvalidInput)
	}
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return common.WrapError(err, "create watch root")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return common.WrapError(err, "start fs watcher")
	}
	defer fsw.Close()

	if err := w.scanExisting(ctx, fsw); err != nil {
		return err
	}

	w.logger.Info("ingest.watch.start", "root", w.root, "debounce", w.debounce)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("ingest.watch.stop", "root", w.root)
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("ingest.watch.error", "error", err)
		}
	}
}

// scanExisting registers files already present and puts every directory
// level under watch.
func (w *Watcher) scanExisting(ctx context.Context, fsw *fsnotify.Watcher) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("ingest.scan.skip", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				w.logger.Warn("ingest.scan.watch_failed", "path", path, "error", err)
			}
			return nil
		}
		w.register(ctx, path)
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if err := fsw.Add(event.Name); err != nil {
			w.logger.Warn("ingest.watch.add_failed", "path", event.Name, "error", err)
		}
		return
	}
	w.schedule(ctx, event.Name)
}

// schedule (re)arms the per-path debounce timer.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.register(ctx, path)
	})
}

// register maps <root>/<project>/<category>/<file> onto an AddFile call,
// creating the project on first sight.
func (w *Watcher) register(ctx context.Context, path string) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 3 {
		w.logger.Warn("ingest.file.outside_layout", "path", path)
		return
	}
	projectName := parts[0]
	cat, ok := constants.Canonicalize(parts[1])
	if !ok {
		w.logger.Warn("ingest.file.unknown_category", "path", path, "dir", parts[1])
		return
	}
	if !constants.IsAllowedPath(path) {
		w.logger.Warn("ingest.file.unsupported", "path", path)
		return
	}

	if _, err := w.registrar.LoadProject(ctx, projectName); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			w.logger.Error("ingest.project.load_failed", "project", projectName, "error", err)
			return
		}
		if _, err := w.registrar.CreateProject(ctx, projectName); err != nil {
			w.logger.Error("ingest.project.create_failed", "project", projectName, "error", err)
			return
		}
		w.logger.Info("ingest.project.created", "project", projectName)
	}

	if _, err := w.registrar.AddFile(ctx, projectName, cat, path); err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			// Already registered; rewrites of a known file are expected.
			return
		}
		w.logger.Error("ingest.file.register_failed", "path", path, "error", err)
		return
	}
	w.logger.Info("ingest.file.registered", "project", projectName, "category", cat, "path", path)
}
