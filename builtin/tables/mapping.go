// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tables

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/kv"
)

// Mapping is a table of rlp encoded values.
type Mapping[K Key, V any] struct {
	context *Context
	name    string
	store   kv.Store
}

// NewMapping creates the table stored under the given name.
// Names must not be a prefix of one another.
func NewMapping[K Key, V any](context *Context, name string) *Mapping[K, V] {
	return &Mapping[K, V]{
		context: context,
		name:    name,
		store:   kv.Bucket(name + "/").NewStore(context.store),
	}
}

// Find returns the value and whether it exists.
func (m *Mapping[K, V]) Find(key K) (value V, found bool, err error) {
	raw, err := m.store.Get(key.Bytes())
	if err != nil {
		if m.store.IsNotFound(err) {
			return value, false, nil
		}
		return value, false, errors.Wrapf(err, "%s: get", m.name)
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, false, errors.Wrapf(err, "%s: decode", m.name)
	}
	return value, true, nil
}

// Get returns the value, or the zero value if absent.
func (m *Mapping[K, V]) Get(key K) (V, error) {
	value, _, err := m.Find(key)
	return value, err
}

func (m *Mapping[K, V]) Exists(key K) (bool, error) {
	ok, err := m.store.Has(key.Bytes())
	if err != nil {
		return false, errors.Wrapf(err, "%s: has", m.name)
	}
	return ok, nil
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	val, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrapf(err, "%s: encode", m.name)
	}
	k := key.Bytes()
	m.context.use(len(k) + len(val))
	return errors.Wrapf(m.store.Put(k, val), "%s: put", m.name)
}

func (m *Mapping[K, V]) Delete(key K) error {
	return errors.Wrapf(m.store.Delete(key.Bytes()), "%s: delete", m.name)
}

// Iterate visits entries in key order starting at from (nil for the first)
// until fn returns false or an error.
func (m *Mapping[K, V]) Iterate(from []byte, fn func(key []byte, value V) (bool, error)) error {
	it := m.store.Iterate(kv.Range{})
	defer it.Release()

	var ok bool
	if len(from) > 0 {
		ok = it.Seek(from)
	} else {
		ok = it.First()
	}
	for ; ok; ok = it.Next() {
		var value V
		if err := rlp.DecodeBytes(it.Value(), &value); err != nil {
			return errors.Wrapf(err, "%s: decode", m.name)
		}
		next, err := fn(append([]byte(nil), it.Key()...), value)
		if err != nil {
			return err
		}
		if !next {
			return nil
		}
	}
	return errors.Wrapf(it.Error(), "%s: iterate", m.name)
}
