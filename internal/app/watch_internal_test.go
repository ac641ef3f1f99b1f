package app

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.zr.dev/zr/internal/core/domain"
)

func buildWatchGraph(t *testing.T) *domain.Graph {
	t.Helper()

	g := domain.NewGraph()
	g.SetRoot("/repo")

	lib := &domain.Task{
		Name:       domain.NewInternedString("lib"),
		WorkingDir: domain.NewInternedString("/repo/lib"),
	}
	app := &domain.Task{
		Name:         domain.NewInternedString("app"),
		WorkingDir:   domain.NewInternedString("/repo/app"),
		Dependencies: []domain.InternedString{domain.NewInternedString("lib")},
	}
	unrelated := &domain.Task{
		Name:       domain.NewInternedString("docs"),
		WorkingDir: domain.NewInternedString("/repo/docs"),
	}

	require.NoError(t, g.AddTask(lib))
	require.NoError(t, g.AddTask(app))
	require.NoError(t, g.AddTask(unrelated))
	require.NoError(t, g.Validate())

	return g
}

func TestAffectedTaskNames_MapsChangeToOwnerAndDependents(t *testing.T) {
	g := buildWatchGraph(t)

	affected := affectedTaskNames(g, []string{"/repo/lib/main.go"})
	sort.Strings(affected)

	assert.Equal(t, []string{"app", "lib"}, affected)
}

func TestAffectedTaskNames_IgnoresPathsOutsideAnyMember(t *testing.T) {
	g := buildWatchGraph(t)

	affected := affectedTaskNames(g, []string{"/repo/README.md"})

	assert.Empty(t, affected)
}

func TestAffectedTaskNames_LeafChangeDoesNotAffectUnrelatedMembers(t *testing.T) {
	g := buildWatchGraph(t)

	affected := affectedTaskNames(g, []string{"/repo/app/main.go"})

	assert.Equal(t, []string{"app"}, affected)
}

func TestAffectedTaskNames_PicksLongestPrefixAmongNestedMembers(t *testing.T) {
	g := domain.NewGraph()
	g.SetRoot("/repo")

	outer := &domain.Task{
		Name:       domain.NewInternedString("outer"),
		WorkingDir: domain.NewInternedString("/repo"),
	}
	inner := &domain.Task{
		Name:       domain.NewInternedString("inner"),
		WorkingDir: domain.NewInternedString("/repo/pkg"),
	}
	require.NoError(t, g.AddTask(outer))
	require.NoError(t, g.AddTask(inner))
	require.NoError(t, g.Validate())

	affected := affectedTaskNames(g, []string{"/repo/pkg/file.go"})

	assert.Equal(t, []string{"inner"}, affected)
}

func TestWatchCoordinator_QueuesEventsDuringRun(t *testing.T) {
	g := buildWatchGraph(t)

	var runs [][]string
	started := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	firstRunStarted := false

	coordinator := &watchCoordinator{graph: g}
	coordinator.runFunc = func(affected []string) {
		mu.Lock()
		runs = append(runs, affected)
		first := !firstRunStarted
		firstRunStarted = true
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
	}

	go coordinator.trigger([]string{"/repo/lib/main.go"})
	<-started

	// A second change arrives while the first run is still in progress; it
	// must be held, not dropped or run concurrently.
	coordinator.trigger([]string{"/repo/docs/readme.md"})

	close(release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(runs) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
