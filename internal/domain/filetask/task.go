package filetask

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/shared/id"
)

// Kind identifies what a background task does
type Kind string

const (
	KindCompress   Kind = "compress"
	KindDecompress Kind = "decompress"
	KindDelete     Kind = "delete"
)

// Task is the handle of one background file task
type Task struct {
	ID         string    `json:"id"`
	InstanceID string    `json:"instanceUuid"`
	Kind       Kind      `json:"kind"`
	Target     string    `json:"target"`
	StartedAt  time.Time `json:"startedAt"`

	done chan struct{}
	err  error
}

// Done is closed once the task has finished and its token was released
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task failure; only meaningful after Done is closed
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes and returns its failure
func (t *Task) Wait() error {
	<-t.done
	return t.err
}

// Outcome describes a finished background task
type Outcome struct {
	TaskID     string
	InstanceID string
	Kind       Kind
	Target     string
	Err        error
	Duration   time.Duration
}

// Runner executes background file tasks and records their outcome
type Runner struct {
	logger  *zap.Logger
	metrics *monitoring.Metrics
	sink    func(Outcome)

	mu     sync.Mutex
	active map[string]*Task
}

// NewRunner creates a background task runner
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		logger: logger,
		active: make(map[string]*Task),
	}
}

// WithMetrics adds metrics tracking to the runner
func (r *Runner) WithMetrics(metrics *monitoring.Metrics) *Runner {
	r.metrics = metrics
	return r
}

// WithSink registers a callback receiving every task outcome
func (r *Runner) WithSink(sink func(Outcome)) *Runner {
	r.sink = sink
	return r
}

// Go runs fn in the background. A non-nil token is released when fn
// returns, fails or panics, before Done is closed. The task context is
// detached from ctx so the caller going away does not stop the work.
func (r *Runner) Go(ctx context.Context, instanceID string, kind Kind, target string, token *Token, fn func(ctx context.Context) error) *Task {
	task := &Task{
		ID:         id.NewTaskID().String(),
		InstanceID: instanceID,
		Kind:       kind,
		Target:     target,
		StartedAt:  time.Now(),
		done:       make(chan struct{}),
	}

	r.mu.Lock()
	r.active[task.ID] = task
	r.mu.Unlock()

	taskCtx := context.WithoutCancel(ctx)

	go func() {
		defer r.finish(task, token)
		defer func() {
			if rec := recover(); rec != nil {
				task.err = fmt.Errorf("%s task panicked: %v", kind, rec)
			}
		}()
		task.err = fn(taskCtx)
	}()

	return task
}

func (r *Runner) finish(task *Task, token *Token) {
	if token != nil {
		token.Release()
	}

	duration := time.Since(task.StartedAt)

	r.mu.Lock()
	delete(r.active, task.ID)
	r.mu.Unlock()

	if task.err != nil {
		r.logger.Warn("Background file task failed",
			zap.String("task", task.ID),
			zap.String("instance", task.InstanceID),
			zap.String("kind", string(task.Kind)),
			zap.String("target", task.Target),
			zap.Duration("duration", duration),
			zap.Error(task.err),
		)
	} else {
		r.logger.Debug("Background file task finished",
			zap.String("task", task.ID),
			zap.String("instance", task.InstanceID),
			zap.String("kind", string(task.Kind)),
			zap.Duration("duration", duration),
		)
	}

	if r.metrics != nil {
		r.metrics.RecordTaskResult(string(task.Kind), task.err, duration)
	}
	if r.sink != nil {
		r.sink(Outcome{
			TaskID:     task.ID,
			InstanceID: task.InstanceID,
			Kind:       task.Kind,
			Target:     task.Target,
			Err:        task.err,
			Duration:   duration,
		})
	}

	close(task.done)
}

// Active returns running tasks, optionally for one instance, oldest first
func (r *Runner) Active(instanceID string) []*Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Task
	for _, t := range r.active {
		if instanceID == "" || t.InstanceID == instanceID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Drain waits for every running task to finish or for ctx to end
func (r *Runner) Drain(ctx context.Context) error {
	for {
		active := r.Active("")
		if len(active) == 0 {
			return nil
		}
		select {
		case <-active[0].Done():
		case <-ctx.Done():
			return fmt.Errorf("%d file tasks still running: %w", len(r.Active("")), ctx.Err())
		}
	}
}
