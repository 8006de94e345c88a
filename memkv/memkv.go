// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package memkv implements an ordered in-memory kv.TxStore on a copy-on-write b-tree.
package memkv

import (
	"bytes"
	"sync"

	"github.com/google/btree"
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/kv"
)

const defaultTreeDegree = 32

var (
	errNotFound = errors.New("memkv: not found")
	errClosed   = errors.New("memkv: closed")
	errReleased = errors.New("memkv: iterator released")

	_ kv.TxStore = (*Store)(nil)
)

type item struct {
	key, val []byte
}

func itemLess(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Store is the in-memory store.
type Store struct {
	lock    sync.RWMutex
	tree    *btree.BTreeG[item]
	version uint64
	closed  bool
}

// New creates an empty store.
func New() *Store {
	return &Store{tree: btree.NewG(defaultTreeDegree, itemLess)}
}

func (s *Store) current() (*btree.BTreeG[item], error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	return s.tree, nil
}

// IsNotFound to check if the error returned by Get indicates key not found.
func (s *Store) IsNotFound(err error) bool {
	return err == errNotFound
}

// Get retrieve value for given key.
func (s *Store) Get(key []byte) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	return get(s.tree, key)
}

// Has returns whether a key exists.
func (s *Store) Has(key []byte) (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		return false, errClosed
	}
	return s.tree.Has(item{key: key}), nil
}

// Put saves value for given key.
func (s *Store) Put(key, val []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return errClosed
	}
	put(s.tree, key, val)
	s.version++
	return nil
}

// Delete deletes the given key.
func (s *Store) Delete(key []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return errClosed
	}
	s.tree.Delete(item{key: key})
	s.version++
	return nil
}

// Iterate creates an iterator over a copy of the current content.
func (s *Store) Iterate(r kv.Range) kv.Iterator {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return &iterator{err: errClosed}
	}
	return newIterator(s.tree.Clone(), r)
}

// Snapshot returns a point-in-time view. Cloning is O(1), nodes are copied on write.
func (s *Store) Snapshot() (kv.Snapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return nil, errClosed
	}
	return &snapshot{tree: s.tree.Clone()}, nil
}

// Transaction opens a transaction working on a private copy of the tree.
func (s *Store) Transaction() (kv.Transaction, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return nil, errClosed
	}
	return &transaction{store: s, base: s.version, tree: s.tree.Clone()}, nil
}

// Len returns the number of keys.
func (s *Store) Len() int {
	tree, err := s.current()
	if err != nil {
		return 0
	}
	return tree.Len()
}

// Close releases the content. Later operations fail.
func (s *Store) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	s.tree = nil
	return nil
}

func get(tree *btree.BTreeG[item], key []byte) ([]byte, error) {
	it, ok := tree.Get(item{key: key})
	if !ok {
		return nil, errNotFound
	}
	return bytes.Clone(it.val), nil
}

func put(tree *btree.BTreeG[item], key, val []byte) {
	tree.ReplaceOrInsert(item{key: bytes.Clone(key), val: bytes.Clone(val)})
}

type snapshot struct {
	tree *btree.BTreeG[item]
}

func (s *snapshot) Get(key []byte) ([]byte, error) { return get(s.tree, key) }
func (s *snapshot) Has(key []byte) (bool, error)   { return s.tree.Has(item{key: key}), nil }
func (s *snapshot) IsNotFound(err error) bool      { return err == errNotFound }
func (s *snapshot) Iterate(r kv.Range) kv.Iterator { return newIterator(s.tree, r) }
func (s *snapshot) Release()                       {}

type transaction struct {
	store *Store
	base  uint64
	tree  *btree.BTreeG[item]
	done  bool
}

var errTxDone = errors.New("memkv: transaction already committed or discarded")

func (t *transaction) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, errTxDone
	}
	return get(t.tree, key)
}

func (t *transaction) Has(key []byte) (bool, error) {
	if t.done {
		return false, errTxDone
	}
	return t.tree.Has(item{key: key}), nil
}

func (t *transaction) IsNotFound(err error) bool { return err == errNotFound }

func (t *transaction) Put(key, val []byte) error {
	if t.done {
		return errTxDone
	}
	put(t.tree, key, val)
	return nil
}

func (t *transaction) Delete(key []byte) error {
	if t.done {
		return errTxDone
	}
	t.tree.Delete(item{key: key})
	return nil
}

func (t *transaction) Iterate(r kv.Range) kv.Iterator {
	if t.done {
		return &iterator{err: errTxDone}
	}
	return newIterator(t.tree.Clone(), r)
}

// Commit publishes the private tree. It fails if the store was written since the transaction began.
func (t *transaction) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true

	t.store.lock.Lock()
	defer t.store.lock.Unlock()
	if t.store.closed {
		return errClosed
	}
	if t.store.version != t.base {
		return errors.New("memkv: store modified during transaction")
	}
	t.store.tree = t.tree
	t.store.version++
	return nil
}

func (t *transaction) Discard() {
	t.done = true
}
