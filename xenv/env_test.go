// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dposlab/bbpelect/builtin/election/changes"
	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/chain"
)

type countingProposers int64

func (c *countingProposers) SetProposedProducers(*changes.Proposed) int64 {
	*c++
	return int64(*c)
}

func TestEnvironment(t *testing.T) {
	alice, sys := chain.MustParseName("alice"), chain.MustParseName("amax")
	ts := chain.NewBlockTimestamp(time.Unix(1700000000, 0))
	var host countingProposers
	env := New(&BlockContext{Timestamp: ts}, &TransactionContext{Authorizers: []chain.Name{alice}}, &host)

	assert.Equal(t, uint64(1700000000), env.Now())
	assert.NoError(t, env.RequireAuth(alice))
	err := env.RequireAuth(sys)
	assert.Equal(t, reverts.Auth, reverts.KindOf(err))

	inline := env.Inline(sys)
	assert.True(t, inline.HasAuth(sys))
	assert.True(t, inline.HasAuth(alice))
	assert.False(t, env.HasAuth(sys), "the outer env is unchanged")

	inline.UseStorage(10)
	env.UseStorage(5)
	assert.Equal(t, uint64(15), env.StorageUsed())

	assert.Equal(t, int64(1), env.SetProposedProducers(changes.NewProposed()))
	noHost := New(&BlockContext{}, &TransactionContext{}, nil)
	assert.Equal(t, int64(-1), noHost.SetProposedProducers(changes.NewProposed()))
}
