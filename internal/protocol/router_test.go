package protocol

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type payloadErr struct{}

func (payloadErr) Error() string        { return "structured" }
func (payloadErr) Payload() interface{} { return map[string]int{"code": 7} }

func dispatch(r *Router, event, raw string) *Envelope {
	return r.Dispatch(NewContext(context.Background(), event, "req-1", []byte(raw)))
}

func TestDispatchSuccess(t *testing.T) {
	r := NewRouter(zaptest.NewLogger(t))
	r.On("echo", func(c *Context) (interface{}, error) {
		return string(c.Raw), nil
	})

	env := dispatch(r, "echo", `{"a":1}`)
	assert.Equal(t, &Envelope{UUID: "req-1", Event: "echo", Status: StatusOK, Data: `{"a":1}`}, env)
	assert.True(t, env.OK())
}

func TestDispatchErrors(t *testing.T) {
	r := NewRouter(zaptest.NewLogger(t))
	r.On("plain", func(c *Context) (interface{}, error) {
		return nil, errors.New("went wrong")
	})
	r.On("structured", func(c *Context) (interface{}, error) {
		return nil, payloadErr{}
	})
	r.On("notfound", func(c *Context) (interface{}, error) {
		return nil, &NotFoundError{InstanceUUID: "x"}
	})

	tests := []struct {
		event string
		want  interface{}
	}{
		{"plain", "went wrong"},
		{"structured", map[string]int{"code": 7}},
		{"notfound", map[string]interface{}{"instanceUuid": "x", "err": "instance x does not exist"}},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			env := dispatch(r, tt.event, "")
			assert.Equal(t, StatusError, env.Status)
			assert.False(t, env.OK())
			assert.Equal(t, tt.want, env.Data)
			assert.Error(t, env.Err())
		})
	}
}

func TestDispatchUnknownEvent(t *testing.T) {
	r := NewRouter(nil)

	env := dispatch(r, "nope", "")
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "unknown event: nope", env.Data)
	assert.ErrorIs(t, env.Err(), ErrUnknownEvent)
}

func TestDispatchRecoversPanics(t *testing.T) {
	r := NewRouter(zaptest.NewLogger(t))
	r.On("boom", func(c *Context) (interface{}, error) {
		panic("kaboom")
	})

	env := dispatch(r, "boom", "")
	assert.Equal(t, StatusError, env.Status)
	assert.Equal(t, "internal error handling boom", env.Data)
}

func TestMiddlewareOrderAndShortCircuit(t *testing.T) {
	r := NewRouter(zaptest.NewLogger(t))
	var order []string

	r.Use(func(c *Context, next HandlerFunc) (interface{}, error) {
		order = append(order, "first")
		c.Set("seen", true)
		return next(c)
	})
	r.Use(func(c *Context, next HandlerFunc) (interface{}, error) {
		order = append(order, "second")
		if c.Event == "blocked" {
			return nil, errors.New("denied")
		}
		return next(c)
	})
	handler := func(c *Context) (interface{}, error) {
		order = append(order, "handler")
		v, ok := c.Get("seen")
		return ok && v.(bool), nil
	}
	r.On("open", handler)
	r.On("blocked", handler)

	env := dispatch(r, "open", "")
	assert.Equal(t, true, env.Data)
	assert.Equal(t, []string{"first", "second", "handler"}, order)

	order = nil
	env = dispatch(r, "blocked", "")
	assert.Equal(t, "denied", env.Data)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestObserver(t *testing.T) {
	r := NewRouter(zaptest.NewLogger(t))
	r.On("ok", func(c *Context) (interface{}, error) { return true, nil })

	type observed struct {
		event  string
		status int
	}
	var got []observed
	r.Observe(func(event string, status int, d time.Duration) {
		assert.GreaterOrEqual(t, d, time.Duration(0))
		got = append(got, observed{event, status})
	})

	dispatch(r, "ok", "")
	dispatch(r, "missing", "")
	assert.Equal(t, []observed{{"ok", StatusOK}, {"missing", StatusError}}, got)
}

func TestEvents(t *testing.T) {
	r := NewRouter(nil)
	noop := func(c *Context) (interface{}, error) { return nil, nil }
	r.On("file/list", noop)
	r.On("file/copy", noop)
	r.On("instance/list", noop)

	assert.Equal(t, []string{"file/copy", "file/list"}, r.Events("file/"))
	assert.Len(t, r.Events(""), 3)
	assert.True(t, r.Has("file/list"))
	assert.False(t, r.Has("file/move"))
}

func TestBind(t *testing.T) {
	type payload struct {
		Name  string `json:"name" binding:"required"`
		Count int    `json:"count" binding:"gte=0"`
	}

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"name":"a","count":2}`, false},
		{"missing required", `{"count":2}`, true},
		{"failed constraint", `{"name":"a","count":-1}`, true},
		{"malformed", `{"name":`, true},
		{"empty body", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			err := NewContext(context.Background(), "e", "", []byte(tt.raw)).Bind(&p)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a", p.Name)
			assert.Equal(t, 2, p.Count)
		})
	}
}

func TestNewContextDefaultsBackground(t *testing.T) {
	c := NewContext(nil, "e", "id", nil)
	assert.NotNil(t, c.Context)
	assert.NoError(t, c.Err())
}
