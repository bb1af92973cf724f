package protocol

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin/binding"
)

// Context carries a single request through middleware and handler
type Context struct {
	context.Context

	Event     string
	RequestID string
	Raw       []byte

	values map[string]interface{}
}

// NewContext creates a request context
func NewContext(ctx context.Context, event, requestID string, raw []byte) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{
		Context:   ctx,
		Event:     event,
		RequestID: requestID,
		Raw:       raw,
	}
}

// Bind decodes the raw payload into v and validates its binding tags
func (c *Context) Bind(v interface{}) error {
	raw := c.Raw
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if binding.Validator == nil {
		return nil
	}
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// Set stores a request-scoped value for later middleware or the handler
func (c *Context) Set(key string, value interface{}) {
	if c.values == nil {
		c.values = make(map[string]interface{})
	}
	c.values[key] = value
}

// Get returns a request-scoped value
func (c *Context) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}
