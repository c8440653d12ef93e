// Package sync provides the HTTP client for the external sync engine
// that owns foreign-session data.
//
// The client wraps resty over a retryable transport. The last good
// snapshot is cached gzip-compressed on disk so a restarted process can
// keep serving sessions while the engine is unreachable.
package sync
