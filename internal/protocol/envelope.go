package protocol

import (
	"errors"
	"fmt"
)

// Envelope status codes
const (
	StatusOK    = 200
	StatusError = 500
)

// Envelope is the response frame returned for every request
type Envelope struct {
	UUID   string      `json:"uuid,omitempty"`
	Event  string      `json:"event"`
	Status int         `json:"status"`
	Data   interface{} `json:"data"`

	err error
}

// OK reports whether the envelope carries a success payload
func (e *Envelope) OK() bool {
	return e.Status == StatusOK
}

// Err returns the failure behind an error envelope
func (e *Envelope) Err() error {
	return e.err
}

// Response builds a success envelope
func Response(c *Context, data interface{}) *Envelope {
	return &Envelope{UUID: c.RequestID, Event: c.Event, Status: StatusOK, Data: data}
}

// ResponseError builds a failure envelope from err. Errors exposing a
// structured payload keep it; everything else is reduced to its message.
func ResponseError(c *Context, err error) *Envelope {
	var env *Envelope
	var pe PayloadError
	if errors.As(err, &pe) {
		env = Error(c, pe.Payload())
	} else {
		env = Error(c, err.Error())
	}
	env.err = err
	return env
}

// Error builds a failure envelope carrying an arbitrary diagnostic payload
func Error(c *Context, payload interface{}) *Envelope {
	return &Envelope{UUID: c.RequestID, Event: c.Event, Status: StatusError, Data: payload}
}

// PayloadError is implemented by errors that carry a structured payload
type PayloadError interface {
	error
	Payload() interface{}
}

var (
	// ErrInvalidPayload marks a request whose payload is malformed or
	// missing required fields
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrUnknownEvent marks a request for an event with no handler
	ErrUnknownEvent = errors.New("unknown event")
)

// NotFoundError reports an instance reference that does not resolve
type NotFoundError struct {
	InstanceUUID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("instance %s does not exist", e.InstanceUUID)
}

// Payload returns the diagnostic body sent to the caller
func (e *NotFoundError) Payload() interface{} {
	return map[string]interface{}{
		"instanceUuid": e.InstanceUUID,
		"err":          e.Error(),
	}
}
