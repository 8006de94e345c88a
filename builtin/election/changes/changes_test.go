// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package changes

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/builtin/tables"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/memkv"
)

var (
	alice = chain.MustParseName("alice")
	bob   = chain.MustParseName("bob")
	carol = chain.MustParseName("carol")

	auth1 = chain.SingleKeyAuthority(chain.PublicKey{2, 1})
	auth2 = chain.SingleKeyAuthority(chain.PublicKey{2, 2})
)

func TestCoalescing(t *testing.T) {
	tests := []struct {
		name  string
		ops   []Op
		want  Op // nil means erased
		error bool
	}{
		{"add over del", []Op{Del{}, Add{auth1}}, Modify{auth1}, false},
		{"add over add", []Op{Add{auth1}, Add{auth2}}, nil, true},
		{"add over modify", []Op{Modify{auth1}, Add{auth2}}, nil, true},
		{"modify over add", []Op{Add{auth1}, Modify{auth2}}, Add{auth2}, false},
		{"modify over modify", []Op{Modify{auth1}, Modify{auth2}}, Modify{auth2}, false},
		{"modify over del", []Op{Del{}, Modify{auth1}}, nil, true},
		{"del over add", []Op{Add{auth1}, Del{}}, nil, false},
		{"del over modify", []Op{Modify{auth1}, Del{}}, Del{}, false},
		{"del over del", []Op{Del{}, Del{}}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewChangeMap()
			var err error
			for _, op := range tt.ops {
				if err = m.Apply(alice, op); err != nil {
					break
				}
			}
			if tt.error {
				require.Error(t, err)
				assert.Equal(t, reverts.Consistency, reverts.KindOf(err))
				return
			}
			require.NoError(t, err)
			got, ok := m.Changes[alice]
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMerge(t *testing.T) {
	dest := NewChangeMap()
	require.NoError(t, dest.Add(alice, auth1))
	require.NoError(t, dest.Del(bob))
	dest.ProducerCount = 3

	src := NewChangeMap()
	require.NoError(t, src.Del(alice))
	require.NoError(t, src.Add(bob, auth2))
	require.NoError(t, src.Add(carol, auth1))
	src.ProducerCount = 4

	require.NoError(t, src.MergeInto(dest))
	assert.Equal(t, map[chain.Name]Op{bob: Modify{auth2}, carol: Add{auth1}}, dest.Changes)
	assert.Equal(t, uint32(4), dest.ProducerCount)

	reset := NewChangeMap()
	reset.ClearExisted = true
	reset.ProducerCount = 21
	require.NoError(t, reset.Add(alice, auth1))
	require.NoError(t, reset.MergeInto(dest))
	assert.True(t, dest.ClearExisted)
	assert.Equal(t, map[chain.Name]Op{alice: Add{auth1}}, dest.Changes)

	// a regular map merged after a clearing one keeps the clear flag
	require.NoError(t, src.MergeInto(dest))
	assert.True(t, dest.ClearExisted)
	assert.Equal(t, map[chain.Name]Op{bob: Add{auth2}, carol: Add{auth1}}, dest.Changes)
}

func TestProposed(t *testing.T) {
	p := NewProposed()
	assert.True(t, p.IsEmpty())
	p.Main.ClearExisted = true
	assert.False(t, p.IsEmpty())
	assert.Zero(t, p.Size())

	require.NoError(t, p.Main.Add(alice, auth1))
	require.NoError(t, p.Backup.Add(bob, auth2))
	assert.Equal(t, 2, p.Size())

	c := p.Copy()
	c.Main.Changes[carol] = Del{}
	assert.Equal(t, 2, p.Size())
}

func TestChangeMapRLP(t *testing.T) {
	m := NewChangeMap()
	m.ProducerCount = 7
	require.NoError(t, m.Add(alice, auth1))
	require.NoError(t, m.Modify(bob, auth2))
	require.NoError(t, m.Del(carol))

	data, err := rlp.EncodeToBytes(m)
	require.NoError(t, err)

	// encoding is canonical regardless of map order
	again, err := rlp.EncodeToBytes(m.Copy())
	require.NoError(t, err)
	assert.Equal(t, data, again)

	var got ChangeMap
	require.NoError(t, rlp.DecodeBytes(data, &got))
	assert.Equal(t, m, &got)
}

func TestLogDrain(t *testing.T) {
	l := NewLog(tables.NewContext(memkv.New(), nil))

	rec := func(id, seq uint64, names ...chain.Name) *Record {
		p := NewProposed()
		for _, n := range names {
			require.NoError(t, p.Main.Add(n, auth1))
		}
		p.Main.ProducerCount = uint32(id)
		return &Record{ID: id, Sequence: seq, Proposed: p}
	}
	require.NoError(t, l.Append(rec(1, 0, carol)))
	require.NoError(t, l.Append(rec(2, 1, alice)))
	require.NoError(t, l.Append(rec(3, 1, bob)))
	require.NoError(t, l.Append(rec(4, 1, carol)))

	d, err := l.Drain(1, 3, 300)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, d.IDs)
	assert.Equal(t, map[chain.Name]Op{alice: Add{auth1}, bob: Add{auth1}}, d.Merged.Main.Changes)
	assert.Equal(t, uint32(3), d.Merged.Main.ProducerCount)

	d, err = l.Drain(1, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, d.IDs, "stops once enough changes merged")

	for _, id := range []uint64{1, 2, 3} {
		require.NoError(t, l.Remove(id))
	}
	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
