package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSaveLoad(t *testing.T) {
	m := NewManager(t.TempDir())

	pkg := &Package{
		ID:      "tab-themes",
		Name:    "Tab Themes",
		Version: "1.2.0",
	}
	require.NoError(t, m.Save(pkg))
	assert.False(t, pkg.InstalledAt.IsZero())

	got, err := m.Load("tab-themes")
	require.NoError(t, err)
	assert.Equal(t, "Tab Themes", got.Name)
}

func TestManagerSaveRequiresID(t *testing.T) {
	m := NewManager(t.TempDir())
	assert.Error(t, m.Save(&Package{Name: "no id"}))
}

func TestManagerPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	m1 := NewManager(dir)
	require.NoError(t, m1.Save(&Package{ID: "p1", Name: "One"}))
	require.NoError(t, m1.Save(&Package{ID: "p2", Name: "Two"}))

	// Fresh manager over the same directory sees the persisted packages.
	m2 := NewManager(dir)
	packages, err := m2.List()
	require.NoError(t, err)
	require.Len(t, packages, 2)
	assert.Equal(t, "p1", packages[0].ID)
	assert.Equal(t, "p2", packages[1].ID)
}

func TestManagerDelete(t *testing.T) {
	m := NewManager(t.TempDir())
	require.NoError(t, m.Save(&Package{ID: "p1", Name: "One"}))
	require.NoError(t, m.Delete("p1"))

	_, err := m.Load("p1")
	assert.Error(t, err)

	// Deleting a missing package is not an error.
	assert.NoError(t, m.Delete("p1"))
}

func TestManagerStats(t *testing.T) {
	m := NewManager(t.TempDir())
	assert.Equal(t, 0, m.Stats().TotalPackages)

	require.NoError(t, m.Save(&Package{ID: "p1", Name: "One"}))
	assert.Equal(t, 1, m.Stats().TotalPackages)
}
