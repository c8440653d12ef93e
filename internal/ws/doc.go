// Package ws streams session-change notifications to connected UIs.
//
// The session helper exposes a single change-callback slot; this
// handler is that one subscriber and fans the signal out to every open
// WebSocket connection. The signal carries no payload; clients re-query
// the sessions endpoint on receipt.
package ws
