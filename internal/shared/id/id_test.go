package id

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()
	assert.NotEqual(t, gen.Generate(), gen.Generate())
}

func TestNewTaskID(t *testing.T) {
	taskID := NewTaskID()

	parts := strings.SplitN(taskID.String(), "_", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, TaskPrefix, parts[0])
	assert.Len(t, parts[1], 26)

	_, err := ulid.Parse(parts[1])
	assert.NoError(t, err)
}

func TestIDsSortByCreation(t *testing.T) {
	gen := NewGenerator()
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = gen.GenerateWithPrefix(TaskPrefix)
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGeneratorWithEntropy(bytes.NewReader(make([]byte, 64)))
	gen.now = func() time.Time { return at }

	got, err := Timestamp(gen.GenerateWithPrefix("task"))
	require.NoError(t, err)
	assert.True(t, at.Equal(got))

	_, err = Timestamp("task_not-a-ulid")
	assert.Error(t, err)
}

func TestConcurrentGeneration(t *testing.T) {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[TaskID]bool)
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				taskID := NewTaskID()
				mu.Lock()
				seen[taskID] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}
