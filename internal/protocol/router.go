package protocol

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HandlerFunc handles one event and returns the success payload
type HandlerFunc func(c *Context) (interface{}, error)

// Middleware wraps every dispatch; it either calls next or short-circuits
// with its own result
type Middleware func(c *Context, next HandlerFunc) (interface{}, error)

// Observer is notified after every dispatch
type Observer func(event string, status int, duration time.Duration)

// Router routes events to handlers through a middleware chain
type Router struct {
	handlers   sync.Map
	mu         sync.RWMutex
	middleware []Middleware
	observers  []Observer
	logger     *zap.Logger
}

// NewRouter creates an empty router
func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{logger: logger}
}

// Use appends a middleware; middleware run in registration order
func (r *Router) Use(m Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, m)
}

// Observe registers a dispatch observer
func (r *Router) Observe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// On binds a handler to an event name
func (r *Router) On(event string, h HandlerFunc) {
	r.handlers.Store(event, h)
}

// Has reports whether an event has a handler
func (r *Router) Has(event string) bool {
	_, ok := r.handlers.Load(event)
	return ok
}

// Events returns every registered event name, optionally by prefix
func (r *Router) Events(prefix string) []string {
	var events []string
	r.handlers.Range(func(key, _ interface{}) bool {
		name := key.(string)
		if strings.HasPrefix(name, prefix) {
			events = append(events, name)
		}
		return true
	})
	sort.Strings(events)
	return events
}

// Dispatch runs one request and always returns an envelope
func (r *Router) Dispatch(c *Context) *Envelope {
	start := time.Now()

	r.mu.RLock()
	chain := make([]Middleware, len(r.middleware))
	copy(chain, r.middleware)
	observers := r.observers
	r.mu.RUnlock()

	final := func(c *Context) (interface{}, error) {
		val, ok := r.handlers.Load(c.Event)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, c.Event)
		}
		return val.(HandlerFunc)(c)
	}

	data, err := r.run(c, chain, final)

	var env *Envelope
	if err != nil {
		r.logger.Debug("Event failed",
			zap.String("event", c.Event),
			zap.String("uuid", c.RequestID),
			zap.Error(err),
		)
		env = ResponseError(c, err)
	} else {
		env = Response(c, data)
	}

	duration := time.Since(start)
	for _, o := range observers {
		o(c.Event, env.Status, duration)
	}
	return env
}

func (r *Router) run(c *Context, chain []Middleware, final HandlerFunc) (data interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Event handler panicked",
				zap.String("event", c.Event),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("internal error handling %s", c.Event)
		}
	}()

	next := final
	for i := len(chain) - 1; i >= 0; i-- {
		m, inner := chain[i], next
		next = func(c *Context) (interface{}, error) {
			return m(c, inner)
		}
	}
	return next(c)
}
