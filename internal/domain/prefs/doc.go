// Package prefs provides small persisted key/value sets, such as the
// collapsed-sessions set keyed by session tag. Stores are rewritten
// whole on every update; there is no incremental mutation.
package prefs
