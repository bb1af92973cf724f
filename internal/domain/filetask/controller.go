package filetask

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/infrastructure/monitoring"
)

// CapacityError is returned when an instance already runs the maximum
// number of archive tasks
type CapacityError struct {
	InstanceID string
	Max        int
	Current    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("too many concurrent archive tasks for instance %s: max allowed %d, %d in progress, retry later",
		e.InstanceID, e.Max, e.Current)
}

// Payload returns the diagnostic body sent to the caller
func (e *CapacityError) Payload() interface{} {
	return map[string]interface{}{
		"instanceUuid": e.InstanceID,
		"max":          e.Max,
		"current":      e.Current,
		"err":          e.Error(),
	}
}

// Controller admits archive tasks against a per-instance ceiling
type Controller struct {
	mu          sync.Mutex
	max         int
	perInstance map[string]int
	global      int
	metrics     *monitoring.Metrics
}

// NewController creates a controller with the given per-instance ceiling.
// A ceiling of zero or less rejects every request.
func NewController(maxPerInstance int) *Controller {
	return &Controller{
		max:         maxPerInstance,
		perInstance: make(map[string]int),
	}
}

// WithMetrics adds metrics tracking to the controller
func (c *Controller) WithMetrics(metrics *monitoring.Metrics) *Controller {
	c.metrics = metrics
	return c
}

// Max returns the per-instance ceiling
func (c *Controller) Max() int {
	return c.max
}

// TryAcquire admits one archive task for instanceID or returns a
// *CapacityError without touching any counter
func (c *Controller) TryAcquire(instanceID string) (*Token, error) {
	c.mu.Lock()
	current := c.perInstance[instanceID]
	if current >= c.max {
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.RecordAdmission(false)
		}
		return nil, &CapacityError{InstanceID: instanceID, Max: c.max, Current: current}
	}
	c.perInstance[instanceID] = current + 1
	c.global++
	global := c.global
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordAdmission(true)
		c.metrics.SetFileTasksInFlight(global)
	}
	return &Token{controller: c, instanceID: instanceID}, nil
}

// release decrements both counters; only Token calls it
func (c *Controller) release(instanceID string) {
	c.mu.Lock()
	if n := c.perInstance[instanceID]; n <= 1 {
		delete(c.perInstance, instanceID)
	} else {
		c.perInstance[instanceID] = n - 1
	}
	if c.global > 0 {
		c.global--
	}
	global := c.global
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SetFileTasksInFlight(global)
	}
}

// InstanceCount returns the in-flight archive tasks for one instance
func (c *Controller) InstanceCount(instanceID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.perInstance[instanceID]
}

// GlobalCount returns the in-flight archive tasks across all instances
func (c *Controller) GlobalCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.global
}

// Snapshot returns the per-instance counts and the global count under one lock
func (c *Controller) Snapshot() (map[string]int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int, len(c.perInstance))
	for id, n := range c.perInstance {
		out[id] = n
	}
	return out, c.global
}

// Token proves that one archive task was counted against the ceiling
type Token struct {
	controller *Controller
	instanceID string
	once       sync.Once
}

// InstanceID returns the instance the token was issued for
func (t *Token) InstanceID() string {
	return t.instanceID
}

// Release returns the slot. Only the first call has an effect.
func (t *Token) Release() {
	t.once.Do(func() {
		t.controller.release(t.instanceID)
	})
}
