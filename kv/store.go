// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Getter defines methods to read kv.
type Getter interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter defines methods to write kv.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// Iterator iterates over kv pairs in key order.
// A fresh iterator is not positioned: Next acts like First and Prev like Last.
type Iterator interface {
	First() bool
	Last() bool
	Seek(key []byte) bool
	Next() bool
	Prev() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Range is the key range.
type Range struct {
	Start []byte // start of key range (included)
	Limit []byte // limit of key range (excluded)
}

// Store defines the kv store an action reads and writes.
type Store interface {
	Getter
	Putter

	Iterate(r Range) Iterator
}

// Snapshot is a read-only point-in-time view of the store.
type Snapshot interface {
	Getter

	Iterate(r Range) Iterator
	Release()
}

// Transaction buffers writes until Commit. Reads see the buffered writes.
type Transaction interface {
	Store

	Commit() error
	Discard()
}

// TxStore is a store supporting snapshots and atomic transactions.
// At most one transaction is open at a time.
type TxStore interface {
	Store

	Snapshot() (Snapshot, error)
	Transaction() (Transaction, error)
	Close() error
}

// BytesPrefix returns the range covering all keys with the given prefix.
func BytesPrefix(prefix []byte) Range {
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		if c := prefix[i]; c < 0xff {
			limit = make([]byte, i+1)
			copy(limit, prefix)
			limit[i] = c + 1
			break
		}
	}
	return Range{Start: prefix, Limit: limit}
}
