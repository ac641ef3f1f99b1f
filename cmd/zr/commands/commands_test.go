package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.zr.dev/zr/cmd/zr/commands"
	"go.zr.dev/zr/internal/app"
	"go.zr.dev/zr/internal/build"
)

type mockApp struct {
	runFunc          func(ctx context.Context, targetNames []string, opts app.RunOptions) error
	runWorkflowFunc  func(ctx context.Context, workflowName string, opts app.RunOptions) error
	watchFunc        func(ctx context.Context, targetNames []string, opts app.RunOptions) error
	cleanFunc        func(ctx context.Context, options app.CleanOptions) error
	serveDaemonFunc  func(ctx context.Context) error
	startDaemonFunc  func(ctx context.Context) error
	daemonStatusFunc func(ctx context.Context) error
	stopDaemonFunc   func(ctx context.Context) error
}

func (m *mockApp) Run(ctx context.Context, targetNames []string, opts app.RunOptions) error {
	if m.runFunc != nil {
		return m.runFunc(ctx, targetNames, opts)
	}
	return nil
}

func (m *mockApp) RunWorkflow(ctx context.Context, workflowName string, opts app.RunOptions) error {
	if m.runWorkflowFunc != nil {
		return m.runWorkflowFunc(ctx, workflowName, opts)
	}
	return nil
}

func (m *mockApp) Watch(ctx context.Context, targetNames []string, opts app.RunOptions) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, targetNames, opts)
	}
	return nil
}

func (m *mockApp) Clean(ctx context.Context, options app.CleanOptions) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, options)
	}
	return nil
}

func (m *mockApp) ServeDaemon(ctx context.Context) error {
	if m.serveDaemonFunc != nil {
		return m.serveDaemonFunc(ctx)
	}
	return nil
}

func (m *mockApp) StartDaemon(ctx context.Context) error {
	if m.startDaemonFunc != nil {
		return m.startDaemonFunc(ctx)
	}
	return nil
}

func (m *mockApp) DaemonStatus(ctx context.Context) error {
	if m.daemonStatusFunc != nil {
		return m.daemonStatusFunc(ctx)
	}
	return nil
}

func (m *mockApp) StopDaemon(ctx context.Context) error {
	if m.stopDaemonFunc != nil {
		return m.stopDaemonFunc(ctx)
	}
	return nil
}

func TestCommands_Run(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedOpts app.RunOptions
		var capturedTargets []string
		called := false

		mock := &mockApp{
			runFunc: func(_ context.Context, targetNames []string, opts app.RunOptions) error {
				capturedOpts = opts
				capturedTargets = targetNames
				called = true
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "build", "--no-cache", "--inspect"})

		// We don't care about output here, just flag propagation
		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.True(t, called)
		assert.True(t, capturedOpts.NoCache)
		assert.True(t, capturedOpts.Inspect)
		assert.Equal(t, []string{"build"}, capturedTargets)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ []string, _ app.RunOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "target"})
		// Silence output to avoid polluting test logs
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("shows usage when no targets provided", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ []string, _ app.RunOptions) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock)
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"run"})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Usage:")
	})
}

func TestCommands_Workflow(t *testing.T) {
	var capturedName string
	var capturedOpts app.RunOptions
	called := false

	mock := &mockApp{
		runWorkflowFunc: func(_ context.Context, workflowName string, opts app.RunOptions) error {
			capturedName = workflowName
			capturedOpts = opts
			called = true
			return nil
		},
	}

	cli := commands.New(mock)
	cli.SetArgs([]string{"workflow", "release", "--ci", "--fail-fast"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "release", capturedName)
	assert.Equal(t, "linear", capturedOpts.OutputMode)
	assert.True(t, capturedOpts.FailFast)
}

func TestCommands_Watch(t *testing.T) {
	var capturedTargets []string
	var capturedOpts app.RunOptions
	called := false

	mock := &mockApp{
		watchFunc: func(_ context.Context, targetNames []string, opts app.RunOptions) error {
			capturedTargets = targetNames
			capturedOpts = opts
			called = true
			return nil
		},
	}

	cli := commands.New(mock)
	cli.SetArgs([]string{"watch", "build", "--ci"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []string{"build"}, capturedTargets)
	assert.Equal(t, "linear", capturedOpts.OutputMode)
}

func TestCommands_Version(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), build.Version)
}
