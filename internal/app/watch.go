package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"go.trai.ch/zerr"
	"go.zr.dev/zr/internal/adapters/watcher"
	"go.zr.dev/zr/internal/core/domain"
	"go.zr.dev/zr/internal/core/ports"
)

// WithWatcher overrides the file system watcher App uses for Watch. Intended
// for tests; production callers leave this unset and Watch constructs a real
// fsnotify-backed watcher on demand.
func (a *App) WithWatcher(w ports.Watcher) *App {
	a.watcher = w
	return a
}

// Watch runs targetNames once, then holds: every time a tracked file changes,
// it debounces the burst, maps the changed paths to their owning tasks by
// longest-working-dir-prefix match, expands that set to its full transitive
// dependents, and re-runs just that affected subset. It only returns when ctx
// is canceled or setup fails.
func (a *App) Watch(ctx context.Context, targetNames []string, opts RunOptions) error {
	graph, _, err := a.loadGraph(ctx, opts)
	if err != nil {
		return err
	}

	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	targetNames, err = expandAliases(graph, targetNames)
	if err != nil {
		return err
	}

	w := a.watcher
	if w == nil {
		fw, ferr := watcher.NewWatcher()
		if ferr != nil {
			return zerr.Wrap(ferr, "failed to create file system watcher")
		}
		w = fw
	}

	if err := w.Start(ctx, graph.Root()); err != nil {
		return zerr.Wrap(err, "failed to start file system watcher")
	}
	defer func() { _ = w.Stop() }()

	if err := a.Run(ctx, targetNames, opts); err != nil {
		a.logger.Warn(fmt.Sprintf("watch: initial run failed: %v", err))
	}

	coordinator := &watchCoordinator{app: a, graph: graph, opts: opts}
	debouncer := watcher.NewDebouncer(domain.WatchDebounceWindow, coordinator.trigger)

	for event := range w.Events() {
		debouncer.Add(event.Path)
	}

	return ctx.Err()
}

// watchCoordinator serializes re-execution: a new run only starts once the
// previous one has reached a terminal state (spec §4.H re-execution
// semantics). Paths that arrive while a run is in progress are held and
// folded into a single follow-up run at completion.
type watchCoordinator struct {
	app   *App
	graph *domain.Graph
	opts  RunOptions

	// runFunc defaults to running the affected set through app.Run; tests
	// substitute a fake to observe scheduling behavior without a full App.
	runFunc func(affected []string)

	mu      sync.Mutex
	running bool
	queued  []string
}

func (c *watchCoordinator) run(affected []string) {
	if c.runFunc != nil {
		c.runFunc(affected)
		return
	}
	if err := c.app.Run(context.Background(), affected, c.opts); err != nil {
		c.app.logger.Warn(fmt.Sprintf("watch: re-run failed: %v", err))
	}
}

func (c *watchCoordinator) trigger(paths []string) {
	c.mu.Lock()
	if c.running {
		c.queued = append(c.queued, paths...)
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	if affected := affectedTaskNames(c.graph, paths); len(affected) > 0 {
		c.run(affected)
	}

	c.mu.Lock()
	c.running = false
	next := c.queued
	c.queued = nil
	c.mu.Unlock()

	if len(next) > 0 {
		c.trigger(next)
	}
}

// affectedTaskNames maps changed paths to the workspace members that own
// them (the task whose working directory is the longest matching prefix of
// the path; paths matching no task's working directory are ignored), then
// expands that set to its full transitive dependent closure.
func affectedTaskNames(graph *domain.Graph, paths []string) []string {
	seeds := make(map[domain.InternedString]bool)

	for _, path := range paths {
		owner, bestLen, found := domain.InternedString{}, -1, false

		for task := range graph.Walk() {
			wd := task.WorkingDir.String()
			if wd == "" || len(wd) <= bestLen {
				continue
			}
			if path == wd || isWithinDir(path, wd) {
				owner, bestLen, found = task.Name, len(wd), true
			}
		}

		if found {
			seeds[owner] = true
		}
	}

	if len(seeds) == 0 {
		return nil
	}

	seedList := make([]domain.InternedString, 0, len(seeds))
	for name := range seeds {
		seedList = append(seedList, name)
	}

	affected := graph.ReverseTransitiveClosure(seedList)
	names := make([]string, 0, len(affected))
	for name := range affected {
		names = append(names, name.String())
	}
	return names
}

func isWithinDir(path, dir string) bool {
	return len(path) > len(dir) && path[len(dir)] == filepath.Separator && path[:len(dir)] == dir
}
