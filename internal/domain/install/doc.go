// Package install implements the two-phase package install flow.
//
// Begin validates an item manifest, records a pending approval, and
// returns the prompt payload. Complete consumes the approval and hands
// the item to the package registry. A complete call with no matching
// prior begin is reported with a distinct error so the caller can show
// the right message.
package install
