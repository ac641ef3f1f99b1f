package scheduler_test

import (
	"context"
	"testing"

	"go.uber.org/mock/gomock"
	"go.zr.dev/zr/internal/core/domain"
	"go.zr.dev/zr/internal/core/ports/mocks"
	"go.zr.dev/zr/internal/engine/scheduler"
)

// schedulerMocks bundles every Scheduler collaborator mock so tests can reach
// into whichever one they need to assert on, without repeating the wiring.
type schedulerMocks struct {
	executor   *mocks.MockExecutor
	store      *mocks.MockBuildInfoStore
	hasher     *mocks.MockHasher
	resolver   *mocks.MockInputResolver
	tracer     *mocks.MockTracer
	envFactory *mocks.MockEnvironmentFactory
	span       *mocks.MockSpan
}

// setupSchedulerTest builds a Scheduler wired to fresh mocks, with the
// tracer's plan emission and span lifecycle left permissive (AnyTimes) so
// individual tests only need to set expectations on what they actually care
// about.
func setupSchedulerTest(t *testing.T) (*scheduler.Scheduler, *schedulerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := &schedulerMocks{
		executor:   mocks.NewMockExecutor(ctrl),
		store:      mocks.NewMockBuildInfoStore(ctrl),
		hasher:     mocks.NewMockHasher(ctrl),
		resolver:   mocks.NewMockInputResolver(ctrl),
		tracer:     mocks.NewMockTracer(ctrl),
		envFactory: mocks.NewMockEnvironmentFactory(ctrl),
		span:       mocks.NewMockSpan(ctrl),
	}

	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any()).Return(context.Background(), m.span).AnyTimes()
	m.span.EXPECT().End().AnyTimes()
	m.span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	m.span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	m.span.EXPECT().MarkExecStart().AnyTimes()
	m.span.EXPECT().Write(gomock.Any()).Return(0, nil).AnyTimes()

	s := scheduler.NewScheduler(m.executor, m.store, m.hasher, m.resolver, m.tracer, m.envFactory)
	return s, m
}

// createGraphHelper builds a graph from a name -> dependency-names map,
// rooted at t.TempDir(), with every task's Dependencies/ParallelDeps set
// identically (no serial ordering).
func createGraphHelper(t *testing.T, deps map[string][]string) *domain.Graph {
	t.Helper()

	g := domain.NewGraph()
	g.SetRoot(t.TempDir())

	for name, taskDeps := range deps {
		depNames := make([]domain.InternedString, len(taskDeps))
		for i, d := range taskDeps {
			depNames[i] = domain.NewInternedString(d)
		}

		task := &domain.Task{
			Name:         domain.NewInternedString(name),
			Command:      "echo " + name,
			Dependencies: depNames,
			ParallelDeps: depNames,
			CacheEnabled: true,
		}
		if err := g.AddTask(task); err != nil {
			t.Fatalf("AddTask(%s): %v", name, err)
		}
	}

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	return g
}

// taskNameMatcher matches a *domain.Task by its name.
type taskNameMatcher struct {
	name string
}

func (m taskNameMatcher) Matches(x any) bool {
	task, ok := x.(*domain.Task)
	if !ok {
		return false
	}
	return task.Name.String() == m.name
}

func (m taskNameMatcher) String() string {
	return "task with name " + m.name
}

// matchTask returns a gomock.Matcher for a *domain.Task with the given name.
func matchTask(name string) gomock.Matcher {
	return taskNameMatcher{name: name}
}
