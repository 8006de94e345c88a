// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tables

// Raw is a singleton record.
type Raw[V any] struct {
	m *Mapping[BytesKey, V]
}

var singletonKey = BytesKey{0}

func NewRaw[V any](context *Context, name string) *Raw[V] {
	return &Raw[V]{m: NewMapping[BytesKey, V](context, name)}
}

// Get returns the record and whether it was ever set.
func (r *Raw[V]) Get() (V, bool, error) {
	return r.m.Find(singletonKey)
}

func (r *Raw[V]) Set(value V) error {
	return r.m.Set(singletonKey, value)
}
