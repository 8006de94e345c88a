// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tables provides typed, rlp encoded tables over a kv store.
package tables

import (
	"encoding/binary"

	"github.com/dposlab/bbpelect/kv"
)

// UsageFunc is charged with the number of bytes each write stores.
type UsageFunc func(bytes uint64)

// Context binds tables to the store of the running action.
type Context struct {
	store   kv.Store
	charger UsageFunc
}

func NewContext(store kv.Store, charger UsageFunc) *Context {
	return &Context{
		store:   store,
		charger: charger,
	}
}

func (c *Context) Store() kv.Store {
	return c.store
}

func (c *Context) use(n int) {
	if c.charger != nil {
		c.charger(uint64(n))
	}
}

// Key is a table key whose byte order is the table iteration order.
type Key interface {
	Bytes() []byte
}

// Uint64Key orders numerically.
type Uint64Key uint64

func (k Uint64Key) Bytes() []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(k))
}

// BytesKey is a raw key.
type BytesKey []byte

func (k BytesKey) Bytes() []byte { return k }
