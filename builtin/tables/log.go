// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tables

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Log is a table of records keyed by increasing ids, consumed oldest first.
type Log[V any] struct {
	m *Mapping[Uint64Key, V]
}

func NewLog[V any](context *Context, name string) *Log[V] {
	return &Log[V]{m: NewMapping[Uint64Key, V](context, name)}
}

func (l *Log[V]) Append(id uint64, value V) error {
	return l.m.Set(Uint64Key(id), value)
}

func (l *Log[V]) Get(id uint64) (V, bool, error) {
	return l.m.Find(Uint64Key(id))
}

func (l *Log[V]) Remove(id uint64) error {
	return l.m.Delete(Uint64Key(id))
}

// Scan visits records from the oldest until fn returns false or an error.
func (l *Log[V]) Scan(fn func(id uint64, value V) (bool, error)) error {
	return l.m.Iterate(nil, func(key []byte, value V) (bool, error) {
		if len(key) != 8 {
			return false, errors.Errorf("%s: malformed id %x", l.m.name, key)
		}
		return fn(binary.BigEndian.Uint64(key), value)
	})
}

// Len counts the records.
func (l *Log[V]) Len() (n int, err error) {
	err = l.Scan(func(uint64, V) (bool, error) {
		n++
		return true, nil
	})
	return
}
