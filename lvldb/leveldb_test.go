// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/kv"
)

func TestLevelDB(t *testing.T) {
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	fileDB, err := New(filepath.Join(t.TempDir(), "lvldb"), Options{16, 16})
	require.NoError(t, err)
	defer fileDB.Close()

	memDB, err := NewMem()
	require.NoError(t, err)
	defer memDB.Close()

	for _, db := range []*LevelDB{fileDB, memDB} {
		require.NoError(t, db.Put(key, value))

		got, err := db.Get(key)
		assert.NoError(t, err)
		assert.Equal(t, value, got)

		has, err := db.Has(key)
		assert.NoError(t, err)
		assert.True(t, has)

		has, err = db.Has(inValidKey)
		assert.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, db.Delete(key))
		_, err = db.Get(key)
		assert.True(t, db.IsNotFound(err))
	}
}

func TestLevelDBTransaction(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("a"), []byte("1")))

	snap, err := db.Snapshot()
	require.NoError(t, err)
	defer snap.Release()

	tx, err := db.Transaction()
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("b"), []byte("2")))
	got, err := tx.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
	tx.Discard()

	_, err = db.Get([]byte("b"))
	assert.True(t, db.IsNotFound(err))

	tx, err = db.Transaction()
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("c"), []byte("3")))
	require.NoError(t, tx.Delete([]byte("a")))
	require.NoError(t, tx.Commit())

	has, err := db.Has([]byte("c"))
	require.NoError(t, err)
	assert.True(t, has)

	// snapshot taken before the commit
	got, err = snap.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
	_, err = snap.Get([]byte("c"))
	assert.True(t, snap.IsNotFound(err))
}

func TestLevelDBIterate(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	for _, k := range []string{"p1", "p2", "p3", "q1"} {
		require.NoError(t, db.Put([]byte(k), []byte(k)))
	}

	it := db.Iterate(kv.BytesPrefix([]byte("p")))
	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	it.Release()
	assert.Equal(t, []string{"p1", "p2", "p3"}, keys)

	it = db.Iterate(kv.BytesPrefix([]byte("p")))
	defer it.Release()
	assert.True(t, it.Last())
	assert.Equal(t, "p3", string(it.Key()))
	assert.True(t, it.Seek([]byte("p2")))
	assert.True(t, it.Prev())
	assert.Equal(t, "p1", string(it.Key()))
}
