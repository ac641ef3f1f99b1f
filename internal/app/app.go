// Package app implements the application layer for zr.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.zr.dev/zr/internal/adapters/daemon"
	"go.zr.dev/zr/internal/adapters/detector"
	"go.zr.dev/zr/internal/adapters/linear"
	"go.zr.dev/zr/internal/adapters/telemetry"
	"go.zr.dev/zr/internal/adapters/tui"
	"go.zr.dev/zr/internal/core/domain"
	"go.zr.dev/zr/internal/core/ports"
	"go.zr.dev/zr/internal/engine/scheduler"
	"go.zr.dev/zr/internal/expr"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader   ports.ConfigLoader
	executor       ports.Executor
	logger         ports.Logger
	store          ports.BuildInfoStore
	hasher         ports.Hasher
	resolver       ports.InputResolver
	envFactory     ports.EnvironmentFactory
	connector      ports.DaemonConnector
	teaOptions     []tea.ProgramOption
	disableTick    bool
	approvalPrompt func(stageName string) (bool, error)
	watcher        ports.Watcher
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	log ports.Logger,
	store ports.BuildInfoStore,
	hasher ports.Hasher,
	resolver ports.InputResolver,
	envFactory ports.EnvironmentFactory,
	connector ports.DaemonConnector,
) *App {
	return &App{
		configLoader: loader,
		executor:     executor,
		logger:       log,
		store:        store,
		hasher:       hasher,
		resolver:     resolver,
		envFactory:   envFactory,
		connector:    connector,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithDisableTick disables the TUI tick loop.
// This is primarily used for testing with synctest to avoid goroutine deadlocks.
func (a *App) WithDisableTick() *App {
	a.disableTick = true
	return a
}

// SetLogJSON enables or disables JSON logging output.
// When enabled, logs are output as JSON. When disabled, pretty-printed logs are used.
func (a *App) SetLogJSON(enable bool) {
	a.logger.SetJSON(enable)
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	NoCache        bool
	Inspect        bool
	InspectOnError bool
	OutputMode     string
	NoDaemon       bool // When true, bypass remote daemon execution
	FailFast       bool // When true, a non-allowed task failure cancels the rest of the run
}

// loadGraph discovers the workspace root and loads the task graph, preferring
// a running daemon's warm copy over a local parse when available.
func (a *App) loadGraph(ctx context.Context, opts RunOptions) (graph *domain.Graph, daemonAvailable bool, err error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, false, zerr.Wrap(err, "failed to get current working directory")
	}

	root, err := a.configLoader.DiscoverRoot(cwd)
	if err != nil {
		return nil, false, zerr.Wrap(err, "failed to discover workspace root")
	}

	var client ports.DaemonClient

	if !opts.NoDaemon {
		var clientErr error
		client, clientErr = a.connector.Connect(ctx, root)
		if clientErr == nil && client != nil {
			daemonAvailable = true
			defer func() {
				_ = client.Close()
			}()

			mtimes, mtimeErr := a.configLoader.DiscoverConfigPaths(cwd)
			if mtimeErr != nil {
				return nil, daemonAvailable, zerr.Wrap(mtimeErr, "failed to discover config paths")
			}

			graph, _, err = client.GetGraph(ctx, cwd, mtimes)
			if err != nil {
				graph = nil
			}
		}
	}

	if graph == nil || opts.NoDaemon {
		graph, err = a.configLoader.Load(cwd)
		if err != nil {
			return nil, daemonAvailable, zerr.Wrap(err, "failed to load configuration")
		}
	}

	return graph, daemonAvailable, nil
}

// Run executes the build process for the specified targets.
//
//nolint:cyclop // orchestration function
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	// 0-2. Discover workspace root and load the task graph.
	graph, daemonAvailable, err := a.loadGraph(ctx, opts)
	if err != nil {
		return err
	}

	// 3. Validate targets
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	targetNames, err = expandAliases(graph, targetNames)
	if err != nil {
		return err
	}

	_ = daemonAvailable // daemon-backed warm-cache dispatch is not yet wired into the scheduler

	renderer := a.newRenderer(ctx, opts.OutputMode)
	return a.runWithRenderer(ctx, renderer, opts, func(ctx context.Context, sched *scheduler.Scheduler) error {
		if err := sched.Run(ctx, graph, targetNames, runtime.NumCPU(), opts.NoCache, opts.FailFast); err != nil {
			return errors.Join(domain.ErrBuildExecutionFailed, err)
		}
		return nil
	})
}

// expandAliases resolves any target name that names an [alias.<name>] into
// its underlying task set, leaving ordinary task names untouched.
func expandAliases(graph *domain.Graph, targets []string) ([]string, error) {
	expanded := make([]string, 0, len(targets))
	for _, t := range targets {
		raw, ok := graph.Alias(t)
		if !ok {
			expanded = append(expanded, t)
			continue
		}
		tasks, err := domain.ExpandAlias(raw)
		if err != nil {
			return nil, zerr.With(err, "alias", t)
		}
		expanded = append(expanded, tasks...)
	}
	return expanded, nil
}

// newRenderer selects the TUI or linear renderer based on the detected
// environment and the user's requested output mode.
func (a *App) newRenderer(ctx context.Context, outputMode string) ports.Renderer {
	autoMode := detector.DetectEnvironment()
	mode := detector.ResolveMode(autoMode, outputMode)

	if mode == detector.ModeTUI {
		model := tui.NewModel(os.Stderr)
		if a.disableTick {
			model = model.WithDisableTick()
		}
		optsTea := append([]tea.ProgramOption{tea.WithContext(ctx)}, a.teaOptions...)
		return tui.NewRenderer(&model, optsTea...)
	}
	return linear.NewRenderer(os.Stdout, os.Stderr)
}

// runWithRenderer wires telemetry and a fresh Scheduler to renderer, then
// runs the renderer and schedulerFunc concurrently, applying the
// Inspect/InspectOnError keep-open policy when schedulerFunc returns.
func (a *App) runWithRenderer(
	ctx context.Context,
	renderer ports.Renderer,
	opts RunOptions,
	schedulerFunc func(ctx context.Context, sched *scheduler.Scheduler) error,
) error {
	// Create a bridge that sends OTel spans to the renderer.
	bridge := telemetry.NewBridge(renderer)

	// Configure the global OTel SDK to use our bridge for spans.
	// This ensures that when OTelTracer uses otel.Tracer(), it uses a provider
	// that forwards events to our bridge.
	setupOTel(bridge)

	// Create and configure the OTel Tracer adapter.
	// We inject the renderer so it can stream logs directly via the batcher.
	tracer := telemetry.NewOTelTracer("zr").WithRenderer(renderer)
	defer func() {
		_ = tracer.Shutdown(ctx)
	}()

	sched := scheduler.NewScheduler(
		a.executor,
		a.store,
		a.hasher,
		a.resolver,
		tracer,
		a.envFactory,
	)

	g, ctx := errgroup.WithContext(ctx)

	var schedErr error

	// Renderer Routine
	g.Go(func() error {
		if err := renderer.Start(ctx); err != nil {
			return err
		}
		// Wait blocks until the renderer has terminated.
		return renderer.Wait()
	})

	// Scheduler Routine
	g.Go(func() error {
		defer func() {
			// Handle panic recovery for the scheduler goroutine
			if r := recover(); r != nil {
				// Print panic info before renderer shutdown
				fmt.Fprintf(os.Stderr, "Scheduler panic: %v\n", r)
			}
			// Calculate keepOpen state: renderer should stay open if
			// 1. Inspect mode is enabled OR
			// 2. InspectOnError is enabled AND an error occurred
			keepOpen := opts.Inspect || (opts.InspectOnError && schedErr != nil)
			// Stop renderer if keepOpen is false
			if !keepOpen {
				_ = renderer.Stop()
			}
		}()

		if err := schedulerFunc(ctx, sched); err != nil {
			schedErr = err
			return err
		}
		return nil
	})

	return g.Wait()
}

// RunWorkflow executes a named [workflow.<name>] as an ordered sequence of
// stages, running each stage's tasks through the scheduler as its own run
// set before advancing to the next stage.
func (a *App) RunWorkflow(ctx context.Context, workflowName string, opts RunOptions) error {
	graph, _, err := a.loadGraph(ctx, opts)
	if err != nil {
		return err
	}

	wf, ok := graph.Workflow(workflowName)
	if !ok {
		return zerr.With(domain.ErrWorkflowNotFound, "workflow", workflowName)
	}

	renderer := a.newRenderer(ctx, opts.OutputMode)
	return a.runWithRenderer(ctx, renderer, opts, func(ctx context.Context, sched *scheduler.Scheduler) error {
		return a.runStages(ctx, sched, graph, wf, opts)
	})
}

// runStages runs a workflow's stages sequentially against a shared
// Scheduler, so a task completed in an earlier stage is recognized as
// already-done by a later stage that depends on it.
func (a *App) runStages(
	ctx context.Context,
	sched *scheduler.Scheduler,
	graph *domain.Graph,
	wf domain.Workflow,
	opts RunOptions,
) error {
	for _, stage := range wf.Stages {
		if stage.Condition != "" {
			run, err := evalStageCondition(stage.Condition)
			if err != nil {
				return zerr.With(err, "stage", stage.Name)
			}
			if !run {
				a.logger.Info(fmt.Sprintf("skipping stage %q: condition not met", stage.Name))
				continue
			}
		}

		if stage.Approval {
			approved, err := a.confirmApproval(stage.Name)
			if err != nil {
				return zerr.Wrap(err, "approval prompt failed")
			}
			if !approved {
				return zerr.With(domain.ErrApprovalDenied, "stage", stage.Name)
			}
		}

		parallelism := runtime.NumCPU()
		if !stage.Parallel {
			parallelism = 1
		}

		failFast := stage.FailFast || opts.FailFast

		if err := sched.Run(ctx, graph, stage.Tasks, parallelism, opts.NoCache, failFast); err != nil {
			stageErr := errors.Join(domain.ErrBuildExecutionFailed, zerr.With(err, "stage", stage.Name))
			if stage.OnFailure == "continue" {
				a.logger.Warn(fmt.Sprintf("stage %q failed, continuing per on_failure=continue: %v", stage.Name, stageErr))
				continue
			}
			return stageErr
		}
	}
	return nil
}

// evalStageCondition evaluates a workflow stage's condition expression.
// Stages have no task matrix of their own, so the expression context
// carries no matrix bindings.
func evalStageCondition(src string) (bool, error) {
	run, err := expr.EvalBool(src, expr.NewRuntimeContext(nil))
	if err != nil {
		return false, zerr.Wrap(err, "stage condition evaluation failed")
	}
	return run, nil
}

// confirmApproval gates a workflow stage behind operator confirmation. If
// ApprovalPrompt was not overridden via WithApprovalPrompt, it prompts on
// stderr/stdin.
func (a *App) confirmApproval(stageName string) (bool, error) {
	if a.approvalPrompt != nil {
		return a.approvalPrompt(stageName)
	}
	return defaultApprovalPrompt(stageName)
}

func defaultApprovalPrompt(stageName string) (bool, error) {
	fmt.Fprintf(os.Stderr, "Stage %q requires approval to continue. Proceed? [y/N]: ", stageName)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, zerr.Wrap(err, "failed to read approval response")
	}
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes", nil
}

// WithApprovalPrompt overrides the workflow stage approval gate, primarily
// for tests that must not block on stdin.
func (a *App) WithApprovalPrompt(fn func(stageName string) (bool, error)) *App {
	a.approvalPrompt = fn
	return a
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Build bool
	Tools bool
}

// Clean removes cache and build artifacts based on the provided options.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	root, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to get current working directory")
	}

	var errs error

	// Helper to remove a directory and log the action
	remove := func(path string, name string) {
		// Log what we are doing
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if options.Build {
		remove(filepath.Join(root, domain.DefaultStorePath()), "build info store")
	}

	if options.Tools {
		remove(filepath.Join(root, domain.DefaultNixHubCachePath()), "nix tool cache")
		remove(filepath.Join(root, domain.DefaultEnvCachePath()), "environment cache")
	}

	return errs
}

// setupOTel configures the OpenTelemetry SDK with the renderer bridge.
func setupOTel(bridge *telemetry.Bridge) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)

	otel.SetTracerProvider(tp)
}

// ServeDaemon starts the daemon server.
func (a *App) ServeDaemon(ctx context.Context) error {
	lifecycle := daemon.NewLifecycle(domain.DaemonInactivityTimeout)
	server := daemon.NewServerWithDeps(
		lifecycle,
		a.configLoader,
		a.envFactory,
		a.executor,
	)

	a.logger.Info("daemon starting")

	if err := server.Serve(ctx); err != nil {
		return zerr.Wrap(err, "daemon server error")
	}

	a.logger.Info("daemon stopped")
	return nil
}

// DaemonStatus returns the current daemon status.
func (a *App) DaemonStatus(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to get current working directory")
	}

	root, err := a.configLoader.DiscoverRoot(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to discover workspace root")
	}

	if !a.connector.IsRunning(root) {
		a.logger.Info("Running: false")
		return nil
	}

	client, err := a.connector.Connect(ctx, root)
	if err != nil {
		return zerr.Wrap(err, "failed to connect to daemon")
	}
	defer func() {
		_ = client.Close()
	}()

	status, err := client.Status(ctx)
	if err != nil {
		return zerr.Wrap(err, "failed to get daemon status")
	}

	a.logger.Info(fmt.Sprintf("Running: %v", status.Running))
	a.logger.Info(fmt.Sprintf("PID: %d", status.PID))
	a.logger.Info(fmt.Sprintf("Uptime: %v", status.Uptime))
	ago := time.Since(status.LastActivity).Truncate(time.Second)
	a.logger.Info(fmt.Sprintf("Last Activity: %s (%s ago)", status.LastActivity.Format("15:04:05"), ago))
	a.logger.Info(fmt.Sprintf("Idle Remaining: %v", status.IdleRemaining))

	return nil
}

// StartDaemon spawns the daemon in the background if it is not already
// running, without blocking on a subsequent command.
func (a *App) StartDaemon(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to get current working directory")
	}

	root, err := a.configLoader.DiscoverRoot(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to discover workspace root")
	}

	if a.connector.IsRunning(root) {
		a.logger.Info("daemon already running")
		return nil
	}

	if err := a.connector.Spawn(ctx, root); err != nil {
		return zerr.Wrap(err, "failed to spawn daemon")
	}

	a.logger.Info("daemon started")
	return nil
}

// StopDaemon stops the daemon.
func (a *App) StopDaemon(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to get current working directory")
	}

	root, err := a.configLoader.DiscoverRoot(cwd)
	if err != nil {
		return zerr.Wrap(err, "failed to discover workspace root")
	}

	client, err := a.connector.Connect(ctx, root)
	if err != nil {
		return zerr.Wrap(err, "failed to connect to daemon")
	}
	defer func() {
		_ = client.Close()
	}()

	a.logger.Info("stopping daemon")
	if err := client.Shutdown(ctx); err != nil {
		return zerr.Wrap(err, "failed to stop daemon")
	}

	a.logger.Info("daemon stopped")
	return nil
}
