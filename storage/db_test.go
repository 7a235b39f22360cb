package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBPutGet(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	ok, err := db.Has([]byte("head"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Put([]byte("head"), []byte{0x01}))
	got, err := db.Get([]byte("head"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, got)
	require.NotNil(t, db.TrieDB())
}

func TestLevelDBReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := NewLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("head"), []byte("root")))
	db.Close()

	reopened, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get([]byte("head"))
	require.NoError(t, err)
	require.Equal(t, []byte("root"), got)
}
