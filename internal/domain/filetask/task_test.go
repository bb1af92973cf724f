package filetask

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("task %s did not finish", task.ID)
	}
}

func TestRunnerReleasesOnSuccess(t *testing.T) {
	c := NewController(2)
	r := NewRunner(zaptest.NewLogger(t))

	tok, err := c.TryAcquire("inst")
	require.NoError(t, err)

	task := r.Go(context.Background(), "inst", KindCompress, "out.zip", tok, func(ctx context.Context) error {
		return nil
	})
	waitDone(t, task)

	assert.NoError(t, task.Err())
	assert.Equal(t, 0, c.InstanceCount("inst"))
	assert.Equal(t, 0, c.GlobalCount())
}

func TestRunnerReleasesOnFailure(t *testing.T) {
	c := NewController(2)
	r := NewRunner(zaptest.NewLogger(t))

	tok, err := c.TryAcquire("inst")
	require.NoError(t, err)

	boom := errors.New("codec failure")
	task := r.Go(context.Background(), "inst", KindDecompress, "in.zip", tok, func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, task.Wait(), boom)
	assert.Equal(t, 0, c.InstanceCount("inst"))
	assert.Equal(t, 0, c.GlobalCount())
}

func TestRunnerReleasesOnPanic(t *testing.T) {
	c := NewController(1)
	r := NewRunner(zaptest.NewLogger(t))

	tok, err := c.TryAcquire("inst")
	require.NoError(t, err)

	task := r.Go(context.Background(), "inst", KindCompress, "out.zip", tok, func(ctx context.Context) error {
		panic("unexpected")
	})

	err = task.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, 0, c.GlobalCount())

	// Slot is usable again
	tok, err = c.TryAcquire("inst")
	require.NoError(t, err)
	tok.Release()
}

func TestRunnerWithoutToken(t *testing.T) {
	r := NewRunner(nil)
	task := r.Go(context.Background(), "inst", KindDelete, "old.log", nil, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, task.Wait())
}

func TestRunnerDetachesContext(t *testing.T) {
	r := NewRunner(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	task := r.Go(ctx, "inst", KindCompress, "out.zip", nil, func(taskCtx context.Context) error {
		<-release
		return taskCtx.Err()
	})

	// No cancellation: the caller going away does not stop an admitted task
	cancel()
	close(release)
	assert.NoError(t, task.Wait())
}

func TestRunnerSinkAndActive(t *testing.T) {
	var (
		mu       sync.Mutex
		outcomes []Outcome
	)
	r := NewRunner(zaptest.NewLogger(t)).WithSink(func(o Outcome) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
	})

	release := make(chan struct{})
	task := r.Go(context.Background(), "inst", KindCompress, "out.zip", nil, func(ctx context.Context) error {
		<-release
		return errors.New("write failed")
	})

	active := r.Active("inst")
	require.Len(t, active, 1)
	assert.Equal(t, task.ID, active[0].ID)
	assert.Empty(t, r.Active("other"))
	assert.Nil(t, task.Err(), "error is not visible before completion")

	close(release)
	waitDone(t, task)

	assert.Empty(t, r.Active(""))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, outcomes, 1)
	assert.Equal(t, task.ID, outcomes[0].TaskID)
	assert.Equal(t, KindCompress, outcomes[0].Kind)
	assert.EqualError(t, outcomes[0].Err, "write failed")
}

func TestRunnerDrain(t *testing.T) {
	r := NewRunner(zaptest.NewLogger(t))
	assert.NoError(t, r.Drain(context.Background()))

	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		r.Go(context.Background(), "inst", KindDelete, "f", nil, func(ctx context.Context) error {
			<-release
			return nil
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Drain(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "3 file tasks still running")

	close(release)
	require.NoError(t, r.Drain(context.Background()))
	assert.Empty(t, r.Active(""))
}
