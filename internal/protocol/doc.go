// Package protocol implements the event router shared by every transport.
//
// A request is an event name plus a raw JSON payload. The router runs the
// registered middleware chain and then the handler bound to the event, and
// turns the outcome into an Envelope:
//   - Status 200: handler result in Data
//   - Status 500: structured error payload (Payload() interface{}) or the
//     error message in Data
//
// Transports (HTTP, WebSocket) only decode frames and write envelopes back.
//
// Example Usage:
//
//	router := protocol.NewRouter(logger)
//	router.Use(validateInstance)
//	router.On("file/status", handleStatus)
//	env := router.Dispatch(protocol.NewContext(ctx, "file/status", "req-1", raw))
package protocol
