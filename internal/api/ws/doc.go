// Package ws exposes the event router over a WebSocket stream.
//
// Each text frame is a request {"uuid", "event", "data"}; each reply is
// the protocol envelope carrying the same uuid. Requests on one
// connection are dispatched concurrently, so replies may arrive out of
// order and clients correlate them by uuid.
package ws
