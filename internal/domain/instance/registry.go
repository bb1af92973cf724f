package instance

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrInstanceNotFound is returned when an instance reference does not resolve
var ErrInstanceNotFound = errors.New("instance not found")

// Instance represents one managed runtime unit
type Instance struct {
	UUID      string    `json:"instanceUuid" yaml:"uuid" toml:"uuid"`
	Nickname  string    `json:"nickname" yaml:"nickname" toml:"nickname"`
	Cwd       string    `json:"cwd" yaml:"cwd" toml:"cwd"`
	CreatedAt time.Time `json:"createdAt" yaml:"-" toml:"-"`
}

// Registry holds the live instances
type Registry struct {
	instances sync.Map
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers an instance. A missing UUID is generated; the working
// directory is made absolute.
func (r *Registry) Add(inst *Instance) error {
	if inst == nil {
		return fmt.Errorf("instance cannot be nil")
	}
	if inst.Cwd == "" {
		return fmt.Errorf("instance %q has no working directory", inst.Nickname)
	}
	if inst.UUID == "" {
		inst.UUID = uuid.New().String()
	}

	cwd, err := filepath.Abs(inst.Cwd)
	if err != nil {
		return fmt.Errorf("resolve cwd for %s: %w", inst.UUID, err)
	}
	inst.Cwd = cwd
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now()
	}

	if _, loaded := r.instances.LoadOrStore(inst.UUID, inst); loaded {
		return fmt.Errorf("instance %s already registered", inst.UUID)
	}
	return nil
}

// Remove unregisters an instance
func (r *Registry) Remove(id string) {
	r.instances.Delete(id)
}

// Exists reports whether id resolves to a live instance
func (r *Registry) Exists(id string) bool {
	if id == "" {
		return false
	}
	_, ok := r.instances.Load(id)
	return ok
}

// Get returns the instance for id
func (r *Registry) Get(id string) (*Instance, error) {
	val, ok := r.instances.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInstanceNotFound, id)
	}
	return val.(*Instance), nil
}

// List returns all instances ordered by nickname, then UUID
func (r *Registry) List() []*Instance {
	var out []*Instance
	r.instances.Range(func(_, value interface{}) bool {
		out = append(out, value.(*Instance))
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Nickname != out[j].Nickname {
			return out[i].Nickname < out[j].Nickname
		}
		return out[i].UUID < out[j].UUID
	})
	return out
}

// Count returns the number of registered instances
func (r *Registry) Count() int {
	n := 0
	r.instances.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
