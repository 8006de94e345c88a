// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tables

import (
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/kv"
)

// Index is an ordered secondary index from sort keys to primary keys.
type Index struct {
	context *Context
	name    string
	store   kv.Store
}

func NewIndex(context *Context, name string) *Index {
	return &Index{
		context: context,
		name:    name,
		store:   kv.Bucket(name + "/").NewStore(context.store),
	}
}

func (x *Index) Put(sortKey, primary []byte) error {
	x.context.use(len(sortKey) + len(primary))
	return errors.Wrapf(x.store.Put(sortKey, primary), "%s: put", x.name)
}

func (x *Index) Delete(sortKey []byte) error {
	return errors.Wrapf(x.store.Delete(sortKey), "%s: delete", x.name)
}

// Get returns the primary key stored under sortKey.
func (x *Index) Get(sortKey []byte) ([]byte, bool, error) {
	val, err := x.store.Get(sortKey)
	if err != nil {
		if x.store.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "%s: get", x.name)
	}
	return val, true, nil
}

// Iterator returns an unpositioned iterator over the whole index.
func (x *Index) Iterator() kv.Iterator {
	return x.store.Iterate(kv.Range{})
}
