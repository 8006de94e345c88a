// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "github.com/pkg/errors"

// defines individual functions.

type (
	GetFunc        func(key []byte) ([]byte, error)
	HasFunc        func(key []byte) (bool, error)
	PutFunc        func(key, val []byte) error
	DeleteFunc     func(key []byte) error
	IterateFunc    func(r Range) Iterator
	IsNotFoundFunc func(err error) bool
	ReleaseFunc    func()

	FirstFunc func() bool
	LastFunc  func() bool
	SeekFunc  func(key []byte) bool
	NextFunc  func() bool
	PrevFunc  func() bool
	KeyFunc   func() []byte
	ValueFunc func() []byte
	ErrorFunc func() error
)

func (f GetFunc) Get(key []byte) ([]byte, error)    { return f(key) }
func (f HasFunc) Has(key []byte) (bool, error)      { return f(key) }
func (f PutFunc) Put(key, val []byte) error         { return f(key, val) }
func (f DeleteFunc) Delete(key []byte) error        { return f(key) }
func (f IterateFunc) Iterate(r Range) Iterator      { return f(r) }
func (f IsNotFoundFunc) IsNotFound(err error) bool { return f(err) }
func (f ReleaseFunc) Release()                      { f() }
func (f FirstFunc) First() bool                     { return f() }
func (f LastFunc) Last() bool                       { return f() }
func (f SeekFunc) Seek(key []byte) bool             { return f(key) }
func (f NextFunc) Next() bool                       { return f() }
func (f PrevFunc) Prev() bool                       { return f() }
func (f KeyFunc) Key() []byte                       { return f() }
func (f ValueFunc) Value() []byte                   { return f() }
func (f ErrorFunc) Error() error                    { return f() }

// ErrReadOnly is returned by writes to a read-only store.
var ErrReadOnly = errors.New("kv: read-only store")

// ReadOnly adapts a snapshot to a Store whose writes fail.
func ReadOnly(snapshot Snapshot) Store {
	return &struct {
		Getter
		PutFunc
		DeleteFunc
		IterateFunc
	}{
		snapshot,
		func(_, _ []byte) error { return ErrReadOnly },
		func(_ []byte) error { return ErrReadOnly },
		snapshot.Iterate,
	}
}
