package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileSetGetRemove(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFile(dir)
	require.NoError(t, err)

	_, ok := kv.Get(KeyData)
	require.False(t, ok)

	require.NoError(t, kv.Set(KeyData, `{"products":[]}`))
	v, ok := kv.Get(KeyData)
	require.True(t, ok)
	require.Equal(t, `{"products":[]}`, v)

	require.NoError(t, kv.Remove(KeyData))
	_, ok = kv.Get(KeyData)
	require.False(t, ok)

	// removing an absent key is a no-op
	require.NoError(t, kv.Remove(KeyData))
}

func TestFileSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, kv.Set(KeyData, "blob"))
	require.NoError(t, kv.Set(KeyMigrationDone, "true"))

	reopened, err := NewFile(dir)
	require.NoError(t, err)
	v, ok := reopened.Get(KeyData)
	require.True(t, ok)
	require.Equal(t, "blob", v)
	_, ok = reopened.Get(KeyMigrationDone)
	require.True(t, ok)
}

func TestFileCorruptCacheTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cache.json"), []byte("{torn write"), 0o644))

	kv, err := NewFile(dir)
	require.NoError(t, err)
	_, ok := kv.Get(KeyData)
	require.False(t, ok)
}

func TestFileCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	kv, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, kv.Set("k", "v"))

	_, err = os.Stat(filepath.Join(dir, "cache.json"))
	require.NoError(t, err)
}
