// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package memkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/kv"
)

func collect(it kv.Iterator) (keys []string) {
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	return
}

func TestStoreGetPut(t *testing.T) {
	s := New()
	defer s.Close()

	val := []byte("v")
	require.NoError(t, s.Put([]byte("k"), val))
	val[0] = 'x'

	got, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got, "put must copy the value")

	_, err = s.Get([]byte("missing"))
	assert.True(t, s.IsNotFound(err))

	require.NoError(t, s.Delete([]byte("k")))
	has, err := s.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestIterator(t *testing.T) {
	s := New()
	for _, k := range []string{"a1", "b1", "b2", "b3", "c1"} {
		require.NoError(t, s.Put([]byte(k), []byte(k)))
	}

	assert.Equal(t, []string{"b1", "b2", "b3"}, collect(s.Iterate(kv.BytesPrefix([]byte("b")))))
	assert.Equal(t, []string{"a1", "b1", "b2", "b3", "c1"}, collect(s.Iterate(kv.Range{})))

	it := s.Iterate(kv.BytesPrefix([]byte("b")))
	assert.True(t, it.Prev(), "fresh Prev acts as Last")
	assert.Equal(t, "b3", string(it.Key()))
	assert.True(t, it.Prev())
	assert.True(t, it.Prev())
	assert.Equal(t, "b1", string(it.Key()))
	assert.False(t, it.Prev())
	assert.Nil(t, it.Key())
	assert.True(t, it.Next(), "Next after exhausting backwards acts as First")
	assert.Equal(t, "b1", string(it.Key()))

	assert.True(t, it.Seek([]byte("b2")))
	assert.Equal(t, "b2", string(it.Key()))
	assert.True(t, it.Seek([]byte("a")), "seek before start clamps to start")
	assert.Equal(t, "b1", string(it.Key()))
	assert.False(t, it.Seek([]byte("b4")))
	assert.True(t, it.Prev(), "Prev after exhausting forwards acts as Last")
	assert.Equal(t, "b3", string(it.Key()))

	it.Release()
	assert.False(t, it.Next())
	assert.Error(t, it.Error())
}

func TestIteratorIsolation(t *testing.T) {
	s := New()
	require.NoError(t, s.Put([]byte("a"), nil))
	it := s.Iterate(kv.Range{})
	require.NoError(t, s.Put([]byte("b"), nil))
	assert.Equal(t, []string{"a"}, collect(it))
}

func TestTransaction(t *testing.T) {
	s := New()
	require.NoError(t, s.Put([]byte("a"), []byte("1")))

	snap, err := s.Snapshot()
	require.NoError(t, err)

	tx, err := s.Transaction()
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("b"), []byte("2")))
	require.NoError(t, tx.Delete([]byte("a")))
	assert.Equal(t, []string{"b"}, collect(tx.Iterate(kv.Range{})))

	has, err := s.Has([]byte("b"))
	require.NoError(t, err)
	assert.False(t, has, "uncommitted writes are invisible")

	require.NoError(t, tx.Commit())
	assert.Error(t, tx.Put([]byte("c"), nil))
	assert.Equal(t, []string{"b"}, collect(s.Iterate(kv.Range{})))
	assert.Equal(t, []string{"a"}, collect(snap.Iterate(kv.Range{})))

	tx, err = s.Transaction()
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("x"), nil))
	tx.Discard()
	assert.Equal(t, 1, s.Len())
}

func TestTransactionConflict(t *testing.T) {
	s := New()
	tx, err := s.Transaction()
	require.NoError(t, err)
	require.NoError(t, s.Put([]byte("a"), nil))
	require.NoError(t, tx.Put([]byte("b"), nil))
	assert.Error(t, tx.Commit())
}

func TestClosed(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())
	assert.Error(t, s.Put([]byte("a"), nil))
	_, err := s.Transaction()
	assert.Error(t, err)
	it := s.Iterate(kv.Range{})
	assert.False(t, it.Next())
	assert.Error(t, it.Error())
}
