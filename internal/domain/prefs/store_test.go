package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolSetStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "collapsed.json")
	store := NewBoolSetStore(path)

	t.Run("missing file loads as empty set", func(t *testing.T) {
		set, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, set)
	})

	t.Run("replace then load round-trips", func(t *testing.T) {
		require.NoError(t, store.Replace(map[string]bool{"a": true, "b": true}))

		set, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"a": true, "b": true}, set)
	})

	t.Run("replace overwrites entirely", func(t *testing.T) {
		require.NoError(t, store.Replace(map[string]bool{"c": true}))

		set, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"c": true}, set)
	})

	t.Run("nil replaces with empty set", func(t *testing.T) {
		require.NoError(t, store.Replace(nil))

		set, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, set)
	})

	t.Run("corrupt file surfaces an error", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
		_, err := store.Load()
		assert.Error(t, err)
	})
}
