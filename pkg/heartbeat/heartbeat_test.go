package heartbeat

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/orchestrator"
)

type stubRunSource struct {
	summary *orchestrator.Summary
}

func (s *stubRunSource) Latest(ctx context.Context) (*orchestrator.Summary, error) {
	return s.summary, nil
}

func countingRunner(calls *atomic.Int32) Runner {
	return func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}
}

func TestNewSchedulerDefaultInterval(t *testing.T) {
	s := NewScheduler(0, func(ctx context.Context) error { return nil })
	assert.Equal(t, DefaultInterval, s.Interval())
}

func TestShouldRunWithoutRunSource(t *testing.T) {
	s := NewScheduler(time.Hour, func(ctx context.Context) error { return nil })

	due, err := s.ShouldRun(context.Background())
	require.NoError(t, err)
	assert.True(t, due)
}

func TestShouldRunWithoutRecordedRuns(t *testing.T) {
	s := NewScheduler(time.Hour, func(ctx context.Context) error { return nil },
		WithRunSource(&stubRunSource{}))

	due, err := s.ShouldRun(context.Background())
	require.NoError(t, err)
	assert.True(t, due)
}

func TestShouldRunGatesFreshRuns(t *testing.T) {
	runs := &stubRunSource{summary: &orchestrator.Summary{
		FinishedAt: time.Now().Add(-time.Minute),
	}}
	s := NewScheduler(time.Hour, func(ctx context.Context) error { return nil },
		WithRunSource(runs))

	due, err := s.ShouldRun(context.Background())
	require.NoError(t, err)
	assert.False(t, due)
}

func TestShouldRunAfterInterval(t *testing.T) {
	runs := &stubRunSource{summary: &orchestrator.Summary{
		FinishedAt: time.Now().Add(-2 * time.Hour),
	}}
	s := NewScheduler(time.Hour, func(ctx context.Context) error { return nil },
		WithRunSource(runs))

	due, err := s.ShouldRun(context.Background())
	require.NoError(t, err)
	assert.True(t, due)
}

func TestRunOnce(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(time.Hour, countingRunner(&calls))

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunOnceSkipsFreshRun(t *testing.T) {
	var calls atomic.Int32
	runs := &stubRunSource{summary: &orchestrator.Summary{FinishedAt: time.Now()}}
	s := NewScheduler(time.Hour, countingRunner(&calls), WithRunSource(runs))

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatcherTriggersOnSkillChange(t *testing.T) {
	dir := t.TempDir()

	ran := make(chan struct{}, 1)
	w := NewWatcher(dir, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deploy.md"), []byte("---\nname: deploy\n---\n"), 0o644))

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not trigger a run")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcherFollowsNewSubdirectories(t *testing.T) {
	dir := t.TempDir()

	ran := make(chan struct{}, 1)
	w := NewWatcher(dir, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Start(ctx)

	time.Sleep(100 * time.Millisecond)
	subdir := filepath.Join(dir, "devops")
	require.NoError(t, os.Mkdir(subdir, 0o755))

	// Give the watcher time to pick up the new directory before writing.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(subdir, "deploy.md"), []byte("---\nname: deploy\n---\n"), 0o644))

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not follow the new subdirectory")
	}
}

func TestWatcherIgnoresNonMarkdown(t *testing.T) {
	dir := t.TempDir()

	ran := make(chan struct{}, 1)
	w := NewWatcher(dir, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Start(ctx)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("scratch"), 0o644))

	select {
	case <-ran:
		t.Fatal("watcher triggered on non-markdown file")
	case <-time.After(500 * time.Millisecond):
	}
}
