// Package scheduler implements the work queue and worker pool that drives a
// task run: readiness tracking, concurrency caps, condition evaluation,
// fail-fast / allow-failure policy, and cache consultation before dispatch.
package scheduler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"go.zr.dev/zr/internal/core/domain"
	"go.zr.dev/zr/internal/core/ports"
	"go.zr.dev/zr/internal/expr"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// TaskStatus represents the terminal (or in-flight) status of a task within a run.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting to be executed.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the task is currently executing.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the task has finished successfully.
	StatusCompleted TaskStatus = "Completed"
	// StatusFailed indicates the task execution failed.
	StatusFailed TaskStatus = "Failed"
	// StatusSkipped indicates the task's condition evaluated false; a success terminal.
	StatusSkipped TaskStatus = "Skipped"
	// StatusSkippedUpstream indicates the task was never run because a non-allowed
	// upstream dependency failed; a non-success terminal.
	StatusSkippedUpstream TaskStatus = "SkippedUpstream"
	// StatusCancelled indicates the task was terminated by the run's shared cancellation token.
	StatusCancelled TaskStatus = "Cancelled"
	// StatusTimedOut indicates the task's command exceeded its configured timeout.
	StatusTimedOut TaskStatus = "TimedOut"
	// StatusCacheHit indicates a cached result was replayed instead of
	// re-executing; a success terminal distinct from StatusCompleted.
	StatusCacheHit TaskStatus = "CacheHit"
)

// Scheduler manages the execution of tasks in the dependency graph.
type Scheduler struct {
	executor   ports.Executor
	store      ports.BuildInfoStore
	hasher     ports.Hasher
	resolver   ports.InputResolver
	tracer     ports.Tracer
	envFactory ports.EnvironmentFactory

	mu         sync.RWMutex
	taskStatus map[domain.InternedString]TaskStatus
	envCache   sync.Map // map[string][]string - EnvID -> environment variables
	flight     singleflight.Group

	// capMu guards the running-count bookkeeping below. These live on the
	// Scheduler (not per-run state) because a single Scheduler may serve
	// overlapping runs (e.g. daemon-served requests), and a per-task/per-tag
	// cap must hold across all of them, not just within one run.
	capMu       sync.Mutex
	runningTask map[string]int
	runningTag  map[string]int
	tagLimits   map[string]uint32
	capCh       chan struct{}
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	executor ports.Executor,
	store ports.BuildInfoStore,
	hasher ports.Hasher,
	resolver ports.InputResolver,
	tracer ports.Tracer,
	envFactory ports.EnvironmentFactory,
) *Scheduler {
	return &Scheduler{
		executor:    executor,
		store:       store,
		hasher:      hasher,
		resolver:    resolver,
		tracer:      tracer,
		envFactory:  envFactory,
		taskStatus:  make(map[domain.InternedString]TaskStatus),
		runningTask: make(map[string]int),
		runningTag:  make(map[string]int),
		tagLimits:   make(map[string]uint32),
		capCh:       make(chan struct{}),
	}
}

// setTagLimits merges newly configured per-tag caps in. Later calls win on
// overlapping tag names; in practice all runs against one workspace share
// the same [resources] configuration.
func (s *Scheduler) setTagLimits(limits map[string]uint32) {
	if len(limits) == 0 {
		return
	}
	s.capMu.Lock()
	defer s.capMu.Unlock()
	for tag, limit := range limits {
		s.tagLimits[tag] = limit
	}
}

// capSignal returns the channel that is closed the next time a running-count
// change might free up a saturated cap, so a parked run loop can retry
// dispatch without spinning.
func (s *Scheduler) capSignal() <-chan struct{} {
	s.capMu.Lock()
	defer s.capMu.Unlock()
	return s.capCh
}

// tryAcquire attempts to reserve a slot for t under its per-task
// (MaxConcurrent) and per-tag caps. It reserves atomically: either every
// cap has room and all counters are incremented, or none are.
func (s *Scheduler) tryAcquire(t *domain.Task) bool {
	s.capMu.Lock()
	defer s.capMu.Unlock()

	name := t.Name.String()
	if t.MaxConcurrent > 0 && s.runningTask[name] >= int(t.MaxConcurrent) {
		return false
	}
	for _, tag := range t.Tags {
		if limit, ok := s.tagLimits[tag]; ok && limit > 0 && s.runningTag[tag] >= int(limit) {
			return false
		}
	}

	s.runningTask[name]++
	for _, tag := range t.Tags {
		s.runningTag[tag]++
	}
	return true
}

// release gives back the slots t held, and wakes any run loop parked waiting
// for cap capacity.
func (s *Scheduler) release(t *domain.Task) {
	s.capMu.Lock()
	name := t.Name.String()
	s.runningTask[name]--
	if s.runningTask[name] <= 0 {
		delete(s.runningTask, name)
	}
	for _, tag := range t.Tags {
		s.runningTag[tag]--
		if s.runningTag[tag] <= 0 {
			delete(s.runningTag, tag)
		}
	}
	old := s.capCh
	s.capCh = make(chan struct{})
	s.capMu.Unlock()

	close(old)
}

// initTaskStatuses initializes the status of tasks in the graph to Pending.
func (s *Scheduler) initTaskStatuses(tasks []domain.InternedString) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range tasks {
		s.taskStatus[task] = StatusPending
	}
}

// updateStatus updates the status of a task.
func (s *Scheduler) updateStatus(name domain.InternedString, status TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

// Status returns the current status of a task, if known.
func (s *Scheduler) Status(name domain.InternedString) (TaskStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.taskStatus[name]
	return st, ok
}

// Run executes the tasks in the graph with the specified parallelism.
// If targetNames contains "all", all tasks in the graph are executed.
// Otherwise, only the specified tasks (and their transitive dependencies) are executed.
// If noCache is true, cache is bypassed and all tasks are executed.
// If failFast is true, a non-allowed task failure cancels every other running
// or not-yet-started task in the run.
func (s *Scheduler) Run(
	ctx context.Context,
	graph *domain.Graph,
	targetNames []string,
	parallelism int,
	noCache bool,
	failFast bool,
) error {
	// Explicitly validate the graph to ensure executionOrder is populated
	if err := graph.Validate(); err != nil {
		return err
	}

	state, err := s.newRunState(ctx, graph, targetNames, parallelism, noCache, failFast)
	if err != nil {
		return err
	}

	// Calculate and emit the build plan based on topological sort
	plannedTasks := make([]string, 0, len(state.allTasks))

	// Create a map for fast lookup of tasks included in this run
	taskSet := make(map[domain.InternedString]bool, len(state.allTasks))
	for _, t := range state.allTasks {
		taskSet[t] = true
	}

	// Filter the graph's full topological order to only include tasks in this run
	// executionOrder is populated by graph.Validate()
	for task := range graph.Walk() {
		if taskSet[task.Name] {
			plannedTasks = append(plannedTasks, task.Name.String())
		}
	}

	// Build dependency map
	depMap := make(map[string][]string)
	for _, taskName := range plannedTasks {
		task, _ := graph.GetTask(domain.NewInternedString(taskName))
		deps := make([]string, len(task.Dependencies))
		for i, dep := range task.Dependencies {
			deps[i] = dep.String()
		}
		depMap[taskName] = deps
	}

	s.tracer.EmitPlan(ctx, plannedTasks, depMap, targetNames)

	// Phase 1: Batch Environment Hydration
	// Resolve all unique environments concurrently before execution starts
	ctx, span := s.tracer.Start(ctx, "Hydrating Environments")
	err = state.prepareEnvironments(ctx)
	span.End()

	if err != nil {
		return err
	}

	s.initTaskStatuses(state.allTasks)

	return state.runExecutionLoop()
}

type result struct {
	task      domain.InternedString
	status    TaskStatus
	err       error
	skipped   bool // true for both cache-hit and condition-skip (success terminals)
	inputHash string
	// capturedOutput holds the combined stdout/stderr of a fresh execution
	// when the task is cache-enabled, so handleSuccess can insert it into
	// the Cache Store under the task's fingerprint.
	capturedOutput []byte
}

type schedulerRunState struct {
	graph        *domain.Graph
	inDegree     map[domain.InternedString]int
	tasks        map[domain.InternedString]domain.Task
	ready        []domain.InternedString
	active       int
	resultsCh    chan result
	errs         error
	ctx          context.Context
	cancel       context.CancelFunc
	parallelism  int
	s            *Scheduler
	allTasks     []domain.InternedString
	noCache      bool
	failFast     bool
	taskEnvIDs   map[domain.InternedString]string // task name -> environment ID
	exprCtx      *expr.RuntimeContext
	upstreamSkip map[domain.InternedString]bool // tasks terminal as SkippedUpstream, never scheduled

	// fingerprints holds the fingerprint each terminal task computed (or, for
	// tasks that never reached fingerprinting, a name fallback), keyed by
	// task name. A dependent only becomes Ready after every dependency is
	// terminal, so by the time a task reads its dependencies' entries here
	// they are always already populated.
	fingerprints sync.Map // map[domain.InternedString]string
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	graph *domain.Graph,
	targetNames []string,
	parallelism int,
	noCache bool,
	failFast bool,
) (*schedulerRunState, error) {
	tasksToRun, allTasks, err := s.resolveTasksToRun(graph, targetNames)
	if err != nil {
		return nil, err
	}

	taskCount := len(tasksToRun)
	inDegree := make(map[domain.InternedString]int, taskCount)
	tasks := make(map[domain.InternedString]domain.Task, taskCount)

	for name := range tasksToRun {
		task, _ := graph.GetTask(name)
		tasks[name] = task

		// Calculate in-degree based only on dependencies that are also in tasksToRun
		degree := 0
		for _, dep := range task.Dependencies {
			if tasksToRun[dep] {
				degree++
			}
		}
		inDegree[name] = degree
	}

	var ready []domain.InternedString
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}

	// Pre-calculate environment IDs for all tasks with tools
	taskEnvIDs := make(map[domain.InternedString]string)
	for name := range tasks {
		task := tasks[name]
		if len(task.Tools) > 0 {
			envID := domain.GenerateEnvID(task.Tools)
			taskEnvIDs[name] = envID
		}
	}

	s.setTagLimits(graph.TagConcurrency())

	runCtx, cancel := context.WithCancel(ctx)

	return &schedulerRunState{
		graph:        graph,
		inDegree:     inDegree,
		tasks:        tasks,
		ready:        ready,
		resultsCh:    make(chan result, parallelism),
		ctx:          runCtx,
		cancel:       cancel,
		parallelism:  parallelism,
		s:            s,
		allTasks:     allTasks,
		noCache:      noCache,
		failFast:     failFast,
		taskEnvIDs:   taskEnvIDs,
		exprCtx:      expr.NewRuntimeContext(nil),
		upstreamSkip: make(map[domain.InternedString]bool),
	}, nil
}

func (state *schedulerRunState) runExecutionLoop() error {
	defer state.cancel()

	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			return errors.Join(state.errs, state.ctx.Err())
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		case <-state.s.capSignal():
		}
	}

	if state.ctx.Err() != nil && state.active == 0 {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.errs
}

// prepareEnvironments resolves all required environments concurrently.
func (state *schedulerRunState) prepareEnvironments(ctx context.Context) error {
	// Identify unique environment IDs needed for this run
	neededEnvIDs := make(map[string]map[string]string) // envID -> tools map (sample)

	for taskName, envID := range state.taskEnvIDs {
		if _, exists := neededEnvIDs[envID]; !exists {
			if task, ok := state.tasks[taskName]; ok {
				neededEnvIDs[envID] = task.Tools
			}
		}
	}

	var envsToResolve []struct {
		id    string
		tools map[string]string
	}

	for id, tools := range neededEnvIDs {
		if _, cached := state.s.envCache.Load(id); !cached {
			envsToResolve = append(envsToResolve, struct {
				id    string
				tools map[string]string
			}{id, tools})
		}
	}

	if len(envsToResolve) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, item := range envsToResolve {
		item := item // capture loop var
		g.Go(func() error {
			if _, cached := state.s.envCache.Load(item.id); cached {
				return nil
			}

			env, err := state.s.envFactory.GetEnvironment(ctx, item.tools)
			if err != nil {
				return zerr.Wrap(err, "failed to hydrate environment")
			}

			state.s.envCache.Store(item.id, env)
			return nil
		})
	}

	return g.Wait()
}

func (s *Scheduler) resolveTasksToRun(
	graph *domain.Graph,
	targetNames []string,
) (map[domain.InternedString]bool, []domain.InternedString, error) {
	runAll := slices.Contains(targetNames, "all")

	if runAll {
		return s.resolveAllTasks(graph)
	}
	return s.resolveTargetTasks(graph, targetNames)
}

func (s *Scheduler) resolveAllTasks(
	graph *domain.Graph,
) (map[domain.InternedString]bool, []domain.InternedString, error) {
	tasksToRun := make(map[domain.InternedString]bool)
	allTasks := make([]domain.InternedString, 0, graph.TaskCount())
	for task := range graph.Walk() {
		tasksToRun[task.Name] = true
		allTasks = append(allTasks, task.Name)
	}
	return tasksToRun, allTasks, nil
}

func (s *Scheduler) resolveTargetTasks(
	graph *domain.Graph,
	targetNames []string,
) (map[domain.InternedString]bool, []domain.InternedString, error) {
	targets := make([]domain.InternedString, 0, len(targetNames))
	for _, nameStr := range targetNames {
		name := domain.NewInternedString(nameStr)
		if _, ok := graph.GetTask(name); !ok {
			return nil, nil, zerr.With(domain.ErrTaskNotFound, "task", name.String())
		}
		targets = append(targets, name)
	}

	return s.collectDependencies(graph, targets)
}

func (s *Scheduler) collectDependencies(
	graph *domain.Graph,
	targets []domain.InternedString,
) (map[domain.InternedString]bool, []domain.InternedString, error) {
	tasksToRun := make(map[domain.InternedString]bool)
	var allTasks []domain.InternedString

	queue := make([]domain.InternedString, len(targets))
	copy(queue, targets)

	visited := make(map[domain.InternedString]bool)
	for _, t := range targets {
		visited[t] = true
	}

	for len(queue) > 0 {
		currentName := queue[0]
		queue = queue[1:]

		if !tasksToRun[currentName] {
			tasksToRun[currentName] = true
			allTasks = append(allTasks, currentName)
		}

		task, _ := graph.GetTask(currentName)
		for _, dep := range task.Dependencies {
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	return tasksToRun, allTasks, nil
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *schedulerRunState) schedule() {
	for state.active < state.parallelism && state.ctx.Err() == nil {
		idx := state.nextDispatchable()
		if idx < 0 {
			return
		}

		taskName := state.ready[idx]
		state.ready = append(state.ready[:idx], state.ready[idx+1:]...)

		state.active++
		state.s.updateStatus(taskName, StatusRunning)

		t := state.tasks[taskName]
		go state.executeTask(&t)
	}
}

// nextDispatchable scans the ready queue for the first task whose per-task
// (MaxConcurrent) and per-tag caps aren't saturated, reserving its slot on
// the Scheduler before returning its index. Capped tasks are left in the
// queue (effectively re-enqueued behind whatever can run instead) rather
// than retried in a spin; runExecutionLoop parks on the Scheduler's capSignal
// until a release anywhere (this run or another sharing the Scheduler)
// might free room.
func (state *schedulerRunState) nextDispatchable() int {
	for i, name := range state.ready {
		t := state.tasks[name]
		if state.s.tryAcquire(&t) {
			return i
		}
	}
	return -1
}

func (state *schedulerRunState) executeTask(t *domain.Task) {
	// Execute the task logic within a function to ensure the span is ended
	// BEFORE we send the result to the channel. This prevents race conditions
	// in tests where the scheduler loop finishes before the span is recorded.
	res := func() result {
		ctx, span := state.s.tracer.Start(state.ctx, t.Name.String())
		defer span.End()

		// Step 0: Evaluate condition. A false condition is a successful
		// terminal (Skipped) that still unblocks dependents.
		run, err := state.evaluateCondition(t)
		if err != nil {
			span.RecordError(err)
			return result{task: t.Name, status: StatusFailed, err: err}
		}
		if !run {
			span.SetAttribute("zr.condition_skipped", true)
			return result{task: t.Name, status: StatusSkipped, skipped: true}
		}

		// Step 1: Compute Fingerprint (Check Cache)
		skipped, hash, cachedOutput, err := state.computeInputHash(t)
		if err != nil {
			span.RecordError(err)
			return result{task: t.Name, status: StatusFailed, err: err}
		}

		if skipped {
			if len(cachedOutput) > 0 {
				_, _ = span.Write(cachedOutput)
			}
			span.SetAttribute("zr.cached", true)
			return result{task: t.Name, status: StatusCacheHit, skipped: true, inputHash: hash}
		}

		// Step 2: Clean Outputs before building to prevent stale artifacts
		if err = state.validateAndCleanOutputs(t); err != nil {
			span.RecordError(err)
			return result{task: t.Name, status: StatusFailed, err: err}
		}

		// Step 3: Prepare Environment (Phase 1 Hydration)
		var env []string
		if len(t.Tools) > 0 {
			envID := state.taskEnvIDs[t.Name]
			cachedEnv, ok := state.s.envCache.Load(envID)
			if !ok {
				err = zerr.With(domain.ErrEnvironmentNotCached, "env_id", envID)
				span.RecordError(err)
				return result{task: t.Name, status: StatusFailed, err: err}
			}
			env = cachedEnv.([]string)
		}

		// Step 4: Execute (the Process Supervisor owns retry/timeout internally).
		// When cache_enabled, the combined stdout/stderr is also teed into a
		// buffer so a successful run can be inserted into the Cache Store.
		var captureBuf *bytes.Buffer
		stdout, stderr := io.Writer(span), io.Writer(span)
		if t.CacheEnabled {
			captureBuf = &bytes.Buffer{}
			stdout = io.MultiWriter(span, captureBuf)
			stderr = io.MultiWriter(span, captureBuf)
		}

		err = state.s.executor.Execute(ctx, t, env, stdout, stderr)
		if err != nil {
			span.RecordError(err)
			return result{
				task:   t.Name,
				status: classifyFailure(err),
				err:    err,
			}
		}

		var captured []byte
		if captureBuf != nil {
			captured = captureBuf.Bytes()
		}

		return result{
			task:           t.Name,
			status:         StatusCompleted,
			inputHash:      hash,
			capturedOutput: captured,
		}
	}()

	state.resultsCh <- res
}

// classifyFailure maps an Execute error to its terminal status.
func classifyFailure(err error) TaskStatus {
	switch {
	case errors.Is(err, domain.ErrTaskCancelled):
		return StatusCancelled
	case errors.Is(err, domain.ErrTaskTimedOut):
		return StatusTimedOut
	default:
		return StatusFailed
	}
}

// evaluateCondition evaluates t.Condition, if any, against a RuntimeContext
// bound to the task's matrix variant and carrying the statuses/outputs of
// already-terminal tasks (condition/task.status/task.output are post-hoc
// only: they can only observe tasks that have already completed, which
// holds for any dependency since it must finish before this task is ready).
func (state *schedulerRunState) evaluateCondition(t *domain.Task) (bool, error) {
	if t.Condition == "" {
		return true, nil
	}

	taskCtx := expr.NewRuntimeContext(t.Matrix)
	for _, dep := range t.Dependencies {
		if st, ok := state.s.Status(dep); ok {
			taskCtx.RecordTaskResult(dep.String(), string(st), "")
		}
	}

	ok, err := expr.EvalBool(t.Condition, taskCtx)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "condition evaluation failed"), "task", t.Name.String())
	}
	return ok, nil
}

func (state *schedulerRunState) computeInputHash(t *domain.Task) (skipped bool, hash string, output []byte, err error) {
	depFPs := state.dependencyFingerprints(t)

	if !t.CacheEnabled {
		h, hashErr := state.s.computeHashForce(t, state.graph.Root(), depFPs)
		return false, h, nil, hashErr
	}

	if state.noCache {
		h, forceErr := state.s.computeHashForce(t, state.graph.Root(), depFPs)
		return false, h, nil, forceErr
	}

	// Normal mode: check cache, deduplicating concurrent builds of the same
	// fingerprint across overlapping runs via single-flight.
	return state.s.checkTaskCache(state.ctx, t, state.graph.Root(), depFPs)
}

func (state *schedulerRunState) validateAndCleanOutputs(t *domain.Task) error {
	rootAbs, err := filepath.Abs(state.graph.Root())
	if err != nil {
		return zerr.Wrap(err, domain.ErrFailedToGetRoot.Error())
	}

	for _, out := range t.Outputs {
		outPath := out.String()
		target := outPath
		if !filepath.IsAbs(target) {
			target = filepath.Join(rootAbs, target)
		}
		outAbs, err := filepath.Abs(target)
		if err != nil {
			return zerr.With(
				zerr.Wrap(err, domain.ErrFailedToGetOutputPath.Error()),
				"file", outPath,
			)
		}

		rel, err := filepath.Rel(rootAbs, outAbs)
		if err != nil {
			return zerr.With(
				zerr.Wrap(err, domain.ErrFailedToResolveRelativePath.Error()),
				"file", outPath,
			)
		}

		if strings.HasPrefix(rel, "..") {
			return zerr.With(
				domain.ErrOutputPathOutsideRoot,
				"file", outPath,
			)
		}

		// Use the validated absolute path for removal to ensure we delete
		// exactly what was validated, preventing potential symlink attacks
		if err := os.RemoveAll(outAbs); err != nil {
			return zerr.With(
				zerr.Wrap(err, domain.ErrFailedToCleanOutput.Error()),
				"file", outPath,
			)
		}
	}

	return nil
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--
	state.s.updateStatus(res.task, res.status)
	state.recordFingerprint(res)

	if t, ok := state.tasks[res.task]; ok {
		state.s.release(&t)
	}

	if res.err != nil {
		state.handleFailure(res)
		return
	}

	state.handleSuccess(res)
}

func (state *schedulerRunState) handleFailure(res result) {
	task := state.tasks[res.task]

	enhancedErr := zerr.With(zerr.Wrap(res.err, domain.ErrTaskExecutionFailed.Error()), "task", res.task.String())

	if task.AllowFailure {
		// allow_failure suppresses error propagation but not recording: the
		// failure is remembered in the task's terminal status, but the run
		// continues as if it were a success for scheduling purposes.
		state.readyDependents(res.task)
		return
	}

	state.errs = errors.Join(state.errs, enhancedErr)

	if state.failFast {
		state.cancel()
		return
	}

	state.skipDependentsUpstream(res.task)
}

// skipDependentsUpstream transitively marks every not-yet-terminal dependent
// of a failed task as SkippedUpstream, without ever scheduling them, and
// recurses so their own dependents are skipped in turn. Independent branches
// (tasks that don't transitively depend on the failure) are left untouched.
func (state *schedulerRunState) skipDependentsUpstream(failed domain.InternedString) {
	queue := state.graph.Dependents(failed)

	for len(queue) > 0 {
		dep := queue[0]
		queue = queue[1:]

		if _, inRun := state.tasks[dep]; !inRun {
			continue
		}
		if state.upstreamSkip[dep] {
			continue
		}

		state.upstreamSkip[dep] = true
		state.s.updateStatus(dep, StatusSkippedUpstream)
		state.errs = errors.Join(state.errs, zerr.With(domain.ErrTaskSkippedUpstream, "task", dep.String()))

		queue = append(queue, state.graph.Dependents(dep)...)
	}
}

func (state *schedulerRunState) handleSuccess(res result) {
	if !res.skipped {
		if t, ok := state.tasks[res.task]; ok && t.CacheEnabled {
			entry := domain.CacheEntry{
				Fingerprint: res.inputHash,
				ExitCode:    0,
				Timestamp:   time.Now().UnixNano(),
			}
			if err := state.s.store.Insert(state.graph.Root(), res.inputHash, entry, res.capturedOutput); err != nil {
				// Cache update failures don't fail the build; the task already
				// ran successfully. The next run will simply see a cache miss.
				_ = err
			}
		}
	}

	state.readyDependents(res.task)
}

// recordFingerprint remembers the fingerprint res.task computed, so
// dependents can fold it into their own fingerprint composition. A task
// that never reached fingerprinting (e.g. a condition skip, or a failure
// before Step 1) records its own name as a stable fallback instead.
func (state *schedulerRunState) recordFingerprint(res result) {
	if res.inputHash != "" {
		state.fingerprints.Store(res.task, res.inputHash)
		return
	}
	state.fingerprints.Store(res.task, res.task.String())
}

// dependencyFingerprints returns the recorded fingerprints of t's direct
// dependencies, which already fold in their own dependencies' fingerprints
// transitively. Order is irrelevant: ComputeInputHash sorts before hashing.
func (state *schedulerRunState) dependencyFingerprints(t *domain.Task) []string {
	fps := make([]string, 0, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		if v, ok := state.fingerprints.Load(dep); ok {
			fps = append(fps, v.(string))
		}
	}
	return fps
}

func (state *schedulerRunState) readyDependents(task domain.InternedString) {
	for _, dep := range state.graph.Dependents(task) {
		if _, ok := state.tasks[dep]; !ok {
			continue
		}
		if state.upstreamSkip[dep] {
			continue
		}

		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}

// validateInputsExist resolves task's declared Inputs patterns purely to
// confirm they match something (a pattern matching nothing is reported as
// domain.ErrInputNotFound by the resolver); the resolved paths themselves
// no longer contribute to the fingerprint.
func (s *Scheduler) validateInputsExist(task *domain.Task, root string) error {
	inputs := make([]string, len(task.Inputs))
	for i, input := range task.Inputs {
		inputs[i] = input.String()
	}
	_, err := s.resolver.ResolveInputs(inputs, root)
	return err
}

// computeHashForce computes a task's fingerprint in force mode (bypassing
// cache lookup/insert entirely, for !cache_enabled tasks and --no-cache runs).
func (s *Scheduler) computeHashForce(task *domain.Task, root string, depFingerprints []string) (string, error) {
	if err := s.validateInputsExist(task, root); err != nil {
		return "", zerr.Wrap(err, domain.ErrInputResolutionFailed.Error())
	}

	hash, err := s.hasher.ComputeInputHash(task, task.Environment, depFingerprints)
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrInputHashComputationFailed.Error())
	}

	return hash, nil
}

// checkTaskCache computes the task's fingerprint and looks it up in the
// Cache Store. Concurrent callers sharing the same task name collapse onto
// a single in-flight computation via singleflight, so two overlapping runs
// (e.g. two daemon-served requests) never duplicate the same fingerprint work.
func (s *Scheduler) checkTaskCache(
	_ context.Context,
	task *domain.Task,
	root string,
	depFingerprints []string,
) (skipped bool, hash string, output []byte, err error) {
	type cacheResult struct {
		skipped bool
		hash    string
		output  []byte
	}

	v, err, _ := s.flight.Do(task.Name.String(), func() (any, error) {
		if resolveErr := s.validateInputsExist(task, root); resolveErr != nil {
			return nil, zerr.Wrap(resolveErr, domain.ErrInputResolutionFailed.Error())
		}

		computedHash, hashErr := s.hasher.ComputeInputHash(task, task.Environment, depFingerprints)
		if hashErr != nil {
			return nil, zerr.Wrap(hashErr, domain.ErrInputHashComputationFailed.Error())
		}

		entry, cachedOutput, storeErr := s.store.Lookup(root, computedHash)
		if storeErr != nil {
			return cacheResult{hash: computedHash}, zerr.Wrap(storeErr, domain.ErrStoreReadFailed.Error())
		}

		if entry == nil {
			return cacheResult{hash: computedHash}, nil
		}

		return cacheResult{skipped: true, hash: computedHash, output: cachedOutput}, nil
	})

	if v == nil {
		return false, "", nil, err
	}

	cr := v.(cacheResult)
	return cr.skipped, cr.hash, cr.output, err
}
