package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
)

func TestFileStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "past_data")
	_, err := NewFileStore(dir, zap.NewNop(), nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	_, err = NewFileStore(dir, zap.NewNop(), nil)
	require.NoError(t, err)
}

func TestFileStore_WritesPrettyNamedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, zap.NewNop(), nil)
	require.NoError(t, err)

	key, err := store.Save(context.Background(), domain.Dataset(`{"products":{"ENCHANTED_COAL":{"buyPrice":10}}}`),
		time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "bazaar_data_20240102030405.json"))
	require.NoError(t, err)
	require.Equal(t, "{\n  \"products\": {\n    \"ENCHANTED_COAL\": {\n      \"buyPrice\": 10\n    }\n  }\n}\n", string(data))
	require.Equal(t, "bazaar_data_20240102030405.json", FileName(key))
}

func TestFileStore_SaveRecreatesRemovedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "past_data")
	store, err := NewFileStore(dir, zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	keys, err := store.ListKeys(context.Background())
	require.NoError(t, err)
	require.Empty(t, keys)

	_, err = store.Save(context.Background(), domain.Dataset(`{}`), time.Now())
	require.NoError(t, err)
	keys, err = store.ListKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 1)
}

func TestFileStore_ListIgnoresForeignEntries(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, zap.NewNop(), nil)
	require.NoError(t, err)

	for _, name := range []string{
		"bazaar_data_20240102030405.json",
		"bazaar_data_20231231235959.json",
		"bazaar_data_latest.json",
		"bazaar_data_20240102030405.json.tmp",
		"notes.txt",
		"other_20240102030405.json",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(`{}`), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bazaar_data_20250101000000.json"), 0o755))

	keys, err := store.ListKeys(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"20231231235959", "20240102030405"}, keys)
}

func TestFileStore_LoadTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName("20240102030405")), []byte(`{"products": {"A"`), 0o644))

	_, err = store.Load(context.Background(), "20240102030405")
	require.Error(t, err)
	require.False(t, domain.IsNotFound(err))
	require.True(t, strings.Contains(err.Error(), "20240102030405"))
}

func TestNewFileStore_RequiresDir(t *testing.T) {
	_, err := NewFileStore("  ", nil, nil)
	require.Error(t, err)
}
