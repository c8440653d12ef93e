// Package approval provides the pending-approval registry bridging the
// two-phase install flow: a begin call stores the user's confirmation,
// a later complete call consumes it exactly once.
//
// The registry is an explicit instance owned by the install flow, not a
// process global, so its lifetime is scoped to the server (or a test
// fixture). Entries expire after a TTL so prompts abandoned mid-flow do
// not accumulate forever.
package approval
