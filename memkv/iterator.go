// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package memkv

import (
	"bytes"

	"github.com/google/btree"

	"github.com/dposlab/bbpelect/kv"
)

type iterPos int

const (
	posFresh iterPos = iota
	posAt
	posBeforeStart
	posAfterEnd
)

// iterator walks a frozen tree clone, so it is unaffected by later writes.
type iterator struct {
	tree  *btree.BTreeG[item]
	start []byte
	limit []byte
	pos   iterPos
	cur   item
	err   error
}

func newIterator(tree *btree.BTreeG[item], r kv.Range) *iterator {
	return &iterator{tree: tree, start: r.Start, limit: r.Limit}
}

func (i *iterator) inLimit(key []byte) bool {
	return len(i.limit) == 0 || bytes.Compare(key, i.limit) < 0
}

func (i *iterator) inStart(key []byte) bool {
	return bytes.Compare(key, i.start) >= 0
}

func (i *iterator) set(it item, ok bool, miss iterPos) bool {
	if !ok {
		i.pos = miss
		i.cur = item{}
		return false
	}
	i.pos = posAt
	i.cur = it
	return true
}

// ascend finds the first item >= from, or > from if exclusive.
func (i *iterator) ascend(from []byte, exclusive bool) (found item, ok bool) {
	i.tree.AscendGreaterOrEqual(item{key: from}, func(it item) bool {
		if exclusive && bytes.Equal(it.key, from) {
			return true
		}
		if i.inLimit(it.key) {
			found, ok = it, true
		}
		return false
	})
	return
}

// descend finds the last item < before, or the last item overall when unbounded.
func (i *iterator) descend(before []byte, bounded bool) (found item, ok bool) {
	visit := func(it item) bool {
		if bounded && bytes.Compare(it.key, before) >= 0 {
			return true
		}
		if i.inStart(it.key) {
			found, ok = it, true
		}
		return false
	}
	if !bounded {
		i.tree.Descend(visit)
	} else {
		i.tree.DescendLessOrEqual(item{key: before}, visit)
	}
	return
}

func (i *iterator) First() bool {
	if i.err != nil {
		return false
	}
	it, ok := i.ascend(i.start, false)
	return i.set(it, ok, posAfterEnd)
}

func (i *iterator) Last() bool {
	if i.err != nil {
		return false
	}
	it, ok := i.descend(i.limit, len(i.limit) > 0)
	return i.set(it, ok, posBeforeStart)
}

func (i *iterator) Seek(key []byte) bool {
	if i.err != nil {
		return false
	}
	if !i.inStart(key) {
		key = i.start
	}
	it, ok := i.ascend(key, false)
	return i.set(it, ok, posAfterEnd)
}

func (i *iterator) Next() bool {
	if i.err != nil {
		return false
	}
	switch i.pos {
	case posFresh, posBeforeStart:
		return i.First()
	case posAfterEnd:
		return false
	}
	it, ok := i.ascend(i.cur.key, true)
	return i.set(it, ok, posAfterEnd)
}

func (i *iterator) Prev() bool {
	if i.err != nil {
		return false
	}
	switch i.pos {
	case posFresh, posAfterEnd:
		return i.Last()
	case posBeforeStart:
		return false
	}
	it, ok := i.descend(i.cur.key, true)
	return i.set(it, ok, posBeforeStart)
}

func (i *iterator) Key() []byte {
	if i.pos != posAt {
		return nil
	}
	return i.cur.key
}

func (i *iterator) Value() []byte {
	if i.pos != posAt {
		return nil
	}
	return i.cur.val
}

func (i *iterator) Release() {
	if i.err == nil {
		i.err = errReleased
	}
	i.tree = nil
	i.pos = posAfterEnd
	i.cur = item{}
}

func (i *iterator) Error() error { return i.err }
