package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.json")
	store := NewFileStore(path, MissingFail)

	saved, err := store.Save(nil, []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, saved)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, loaded, "Order must survive a round trip")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "Temporary file should not exist after save")
}

func TestFileStore_SaveAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.json")
	require.NoError(t, os.WriteFile(path, []byte(`["a","b"]`), 0644))
	store := NewFileStore(path, MissingFail)

	existing, err := store.Load()
	require.NoError(t, err)

	all, err := store.Save(existing, []string{"c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "a"}, all, "Duplicates are not pruned")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b","c","a"]`, string(content))
}

func TestFileStore_SaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "photos.json")
	store := NewFileStore(path, MissingCreate)

	all, err := store.Save(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, all)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(content))
}

func TestFileStore_LoadMissing(t *testing.T) {
	tests := []struct {
		name      string
		policy    MissingPolicy
		expectErr error
	}{
		{name: "Create", policy: MissingCreate},
		{name: "Skip", policy: MissingSkip, expectErr: ErrSkipRun},
		{name: "Fail", policy: MissingFail, expectErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewFileStore(filepath.Join(t.TempDir(), "photos.json"), tt.policy)
			entries, err := store.Load()
			if tt.expectErr != nil {
				require.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, entries)
			assert.Empty(t, entries)
		})
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0644))

	_, err := NewFileStore(path, MissingCreate).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode ledger file")
}

func TestFileStore_LoadNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.json")
	require.NoError(t, os.WriteFile(path, []byte(`null`), 0644))

	entries, err := NewFileStore(path, MissingCreate).Load()
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestParseMissingPolicy(t *testing.T) {
	for in, want := range map[string]MissingPolicy{
		"":       MissingCreate,
		"create": MissingCreate,
		"skip":   MissingSkip,
		"fail":   MissingFail,
	} {
		got, err := ParseMissingPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMissingPolicy("ignore")
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	m := NewMemory("a")

	entries, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, entries)

	all, err := m.Save(entries, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, all)
	assert.Equal(t, 1, m.Saves())

	entries, err = m.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, entries)

	var zero Memory
	entries, err = zero.Load()
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLedger(t *testing.T) {
	l := New([]string{"a", "b"})
	assert.True(t, l.Has("a"))
	assert.False(t, l.Has("c"))
	assert.Equal(t, 2, l.Len())

	l.Append("c", "a")
	assert.True(t, l.Has("c"))
	assert.Equal(t, []string{"a", "b", "c", "a"}, l.Entries())

	entries := l.Entries()
	entries[0] = "mutated"
	assert.Equal(t, "a", l.Entries()[0], "Entries should return a copy")
}
