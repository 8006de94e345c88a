// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package voter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/builtin/tables"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/memkv"
)

func names(ss ...string) []chain.Name {
	var out []chain.Name
	for _, s := range ss {
		out = append(out, chain.MustParseName(s))
	}
	return out
}

func TestDiff(t *testing.T) {
	removed, kept, added := Diff(names("a", "c", "d"), names("b", "c", "e"))
	assert.Equal(t, names("a", "d"), removed)
	assert.Equal(t, names("c"), kept)
	assert.Equal(t, names("b", "e"), added)

	removed, kept, added = Diff(nil, names("a"))
	assert.Nil(t, removed)
	assert.Nil(t, kept)
	assert.Equal(t, names("a"), added)

	removed, _, added = Diff(names("a", "b"), nil)
	assert.Equal(t, names("a", "b"), removed)
	assert.Nil(t, added)
}

func TestValidateProducers(t *testing.T) {
	assert.NoError(t, ValidateProducers(nil))
	assert.NoError(t, ValidateProducers(names("a", "b")))

	err := ValidateProducers(names("b", "a"))
	assert.Equal(t, reverts.Validation, reverts.KindOf(err))
	assert.Error(t, ValidateProducers(names("a", "a")))

	var many []chain.Name
	for i := 0; i <= chain.MaxVoteProducerCount; i++ {
		many = append(many, chain.Name(i+1))
	}
	assert.Error(t, ValidateProducers(many))
	assert.NoError(t, ValidateProducers(many[:chain.MaxVoteProducerCount]))
}

func TestRepository(t *testing.T) {
	repo := NewRepository(tables.NewContext(memkv.New(), nil))
	alice := chain.MustParseName("alice")

	v, err := repo.Get(alice)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, repo.Set(&Voter{Owner: alice, Votes: 10, Producers: names("p1")}))
	v, err = repo.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), v.Votes)
	assert.Equal(t, names("p1"), v.Producers)

	require.NoError(t, repo.SetRefund(&Refund{Owner: alice, Votes: 3, RequestTime: 7}))
	refund, err := repo.GetRefund(alice)
	require.NoError(t, err)
	assert.Equal(t, &Refund{Owner: alice, Votes: 3, RequestTime: 7}, refund)
	require.NoError(t, repo.DeleteRefund(alice))
	refund, err = repo.GetRefund(alice)
	require.NoError(t, err)
	assert.Nil(t, refund)
}
