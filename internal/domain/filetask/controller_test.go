package filetask

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/infrastructure/monitoring"
)

func TestTryAcquireUpToCeiling(t *testing.T) {
	c := NewController(3)

	tokens := make([]*Token, 0, 3)
	for i := 0; i < 3; i++ {
		tok, err := c.TryAcquire("inst")
		require.NoError(t, err, "request %d should be admitted", i+1)
		tokens = append(tokens, tok)
	}
	assert.Equal(t, 3, c.InstanceCount("inst"))
	assert.Equal(t, 3, c.GlobalCount())

	_, err := c.TryAcquire("inst")
	require.Error(t, err)

	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 3, capErr.Max)
	assert.Equal(t, 3, capErr.Current)
	assert.Contains(t, capErr.Error(), "max allowed 3")
	assert.Contains(t, capErr.Error(), "3 in progress")

	// Rejection leaves counters untouched
	assert.Equal(t, 3, c.InstanceCount("inst"))
	assert.Equal(t, 3, c.GlobalCount())

	for _, tok := range tokens {
		tok.Release()
	}
	assert.Equal(t, 0, c.InstanceCount("inst"))
	assert.Equal(t, 0, c.GlobalCount())
}

func TestCeilingIsPerInstance(t *testing.T) {
	c := NewController(1)

	a, err := c.TryAcquire("a")
	require.NoError(t, err)
	b, err := c.TryAcquire("b")
	require.NoError(t, err)

	_, err = c.TryAcquire("a")
	assert.Error(t, err)
	assert.Equal(t, 2, c.GlobalCount())

	a.Release()
	b.Release()
	assert.Equal(t, 0, c.GlobalCount())
}

func TestReleaseIsIdempotent(t *testing.T) {
	c := NewController(2)

	first, err := c.TryAcquire("inst")
	require.NoError(t, err)
	second, err := c.TryAcquire("inst")
	require.NoError(t, err)

	first.Release()
	first.Release()
	first.Release()

	assert.Equal(t, 1, c.InstanceCount("inst"))
	assert.Equal(t, 1, c.GlobalCount())

	second.Release()
	assert.Equal(t, 0, c.InstanceCount("inst"))
	assert.Equal(t, 0, c.GlobalCount())

	perInstance, global := c.Snapshot()
	assert.Empty(t, perInstance)
	assert.Equal(t, 0, global)
}

func TestZeroCeilingRejectsEverything(t *testing.T) {
	c := NewController(0)

	_, err := c.TryAcquire("inst")
	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 0, capErr.Max)
	assert.Equal(t, 0, capErr.Current)
}

func TestCapacityErrorPayload(t *testing.T) {
	err := &CapacityError{InstanceID: "inst", Max: 2, Current: 2}
	payload, ok := err.Payload().(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 2, payload["max"])
	assert.Equal(t, 2, payload["current"])
	assert.Equal(t, "inst", payload["instanceUuid"])
}

func TestConcurrentAcquireRelease(t *testing.T) {
	const (
		instances = 8
		workers   = 50
		ceiling   = 4
	)
	c := NewController(ceiling)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted = make(map[string]int)
		peak     = make(map[string]int)
	)

	for i := 0; i < instances; i++ {
		id := fmt.Sprintf("inst-%d", i)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tok, err := c.TryAcquire(id)
				if err != nil {
					return
				}
				n := c.InstanceCount(id)
				mu.Lock()
				admitted[id]++
				if n > peak[id] {
					peak[id] = n
				}
				mu.Unlock()
				tok.Release()
			}()
		}
	}
	wg.Wait()

	for id, n := range peak {
		assert.LessOrEqual(t, n, ceiling, "instance %s exceeded ceiling", id)
		assert.Greater(t, admitted[id], 0)
	}

	// Quiescent: everything back to zero and global equals the sum
	perInstance, global := c.Snapshot()
	sum := 0
	for _, n := range perInstance {
		sum += n
	}
	assert.Equal(t, sum, global)
	assert.Equal(t, 0, global)
}

func TestControllerMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	c := NewController(1).WithMetrics(metrics)

	tok, err := c.TryAcquire("inst")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FileTasksInFlight))

	_, err = c.TryAcquire("inst")
	require.Error(t, err)

	tok.Release()
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.FileTasksInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FileTaskAdmission.WithLabelValues("admitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FileTaskAdmission.WithLabelValues("rejected")))
}
