// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb implements kv.TxStore on goleveldb.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/dposlab/bbpelect/kv"
)

var _ kv.TxStore = (*LevelDB)(nil)

// Options options for creating level db instance.
type Options struct {
	CacheSize              int `yaml:"cache-size"`
	OpenFilesCacheCapacity int `yaml:"open-files"`
}

var (
	writeOpt = opt.WriteOptions{}
	readOpt  = opt.ReadOptions{}
	scanOpt  = opt.ReadOptions{DontFillCache: true}
)

// LevelDB wraps level db impls.
type LevelDB struct {
	db *leveldb.DB
}

// New create a persistent level db instance.
// Create an empty one if not exists, or open if already there.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "new persistent level db")
	}
	return openLevelDB(stg, opts.CacheSize, opts.OpenFilesCacheCapacity)
}

// NewMem create a level db in memory.
func NewMem() (*LevelDB, error) {
	return openLevelDB(storage.NewMemStorage(), 0, 0)
}

func openLevelDB(stg storage.Storage, cacheSize, openFilesCacheCapacity int) (*LevelDB, error) {
	if cacheSize < 16 {
		cacheSize = 16
	}

	if openFilesCacheCapacity < 16 {
		openFilesCacheCapacity = 16
	}

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: openFilesCacheCapacity,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &LevelDB{db: db}, nil
}

func isNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

// IsNotFound to check if the error returned by Get indicates key not found.
func (ldb *LevelDB) IsNotFound(err error) bool {
	return isNotFound(err)
}

// Get retrieve value for given key.
// It returns an error if key not found. The error can be checked via IsNotFound.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := ldb.db.Get(key, &readOpt)
	// val will be []byte{} if error occurs, which is not expected
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Has returns whether a key exists.
func (ldb *LevelDB) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, &readOpt)
}

// Put save value fo give key.
func (ldb *LevelDB) Put(key, value []byte) error {
	return ldb.db.Put(key, value, &writeOpt)
}

// Delete deletes the give key and its value.
func (ldb *LevelDB) Delete(key []byte) error {
	return ldb.db.Delete(key, &writeOpt)
}

// Iterate create a iterator by range.
func (ldb *LevelDB) Iterate(r kv.Range) kv.Iterator {
	return ldb.db.NewIterator(toRange(r), &scanOpt)
}

// Snapshot returns a point-in-time read view. It must be released.
func (ldb *LevelDB) Snapshot() (kv.Snapshot, error) {
	s, err := ldb.db.GetSnapshot()
	if err != nil {
		return nil, errors.Wrap(err, "get snapshot")
	}
	return &struct {
		kv.GetFunc
		kv.HasFunc
		kv.IsNotFoundFunc
		kv.IterateFunc
		kv.ReleaseFunc
	}{
		func(key []byte) ([]byte, error) {
			val, err := s.Get(key, &readOpt)
			if err != nil {
				return nil, err
			}
			return val, nil
		},
		func(key []byte) (bool, error) { return s.Has(key, &readOpt) },
		isNotFound,
		func(r kv.Range) kv.Iterator { return s.NewIterator(toRange(r), &scanOpt) },
		s.Release,
	}, nil
}

// Transaction opens a leveldb transaction. Other writes block until it is committed or discarded.
func (ldb *LevelDB) Transaction() (kv.Transaction, error) {
	tx, err := ldb.db.OpenTransaction()
	if err != nil {
		return nil, errors.Wrap(err, "open transaction")
	}
	return &transaction{tx}, nil
}

// Close close the level db.
// Later operations will all fail.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

type transaction struct {
	tx *leveldb.Transaction
}

func (t *transaction) IsNotFound(err error) bool { return isNotFound(err) }

func (t *transaction) Get(key []byte) ([]byte, error) {
	val, err := t.tx.Get(key, &readOpt)
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (t *transaction) Has(key []byte) (bool, error) { return t.tx.Has(key, &readOpt) }
func (t *transaction) Put(key, val []byte) error    { return t.tx.Put(key, val, &writeOpt) }
func (t *transaction) Delete(key []byte) error      { return t.tx.Delete(key, &writeOpt) }

func (t *transaction) Iterate(r kv.Range) kv.Iterator {
	return t.tx.NewIterator(toRange(r), &scanOpt)
}

func (t *transaction) Commit() error { return t.tx.Commit() }
func (t *transaction) Discard()      { t.tx.Discard() }

func toRange(r kv.Range) *util.Range {
	rng := &util.Range{Start: r.Start}
	if len(r.Limit) > 0 {
		rng.Limit = r.Limit
	}
	return rng
}
