package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bazaarmcp/internal/domain"
)

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := OpenBoltStore(path, zap.NewNop(), nil)
	require.NoError(t, err)

	key, err := store.Save(context.Background(), domain.Dataset(`{"products":{}}`), time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := OpenBoltStore(path, zap.NewNop(), nil)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, reopened.Close())
	}()

	loaded, err := reopened.Load(context.Background(), key)
	require.NoError(t, err)
	require.JSONEq(t, `{"products":{}}`, string(loaded))
}

func TestBoltStore_ClosedStore(t *testing.T) {
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "snapshots.db"), zap.NewNop(), nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.Save(context.Background(), domain.Dataset(`{}`), time.Now())
	require.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = store.Load(context.Background(), "20240102030405")
	require.ErrorIs(t, err, domain.ErrStoreClosed)
	_, err = store.ListKeys(context.Background())
	require.ErrorIs(t, err, domain.ErrStoreClosed)
}

func TestOpenBoltStore_RequiresPath(t *testing.T) {
	_, err := OpenBoltStore("", nil, nil)
	require.Error(t, err)
}
