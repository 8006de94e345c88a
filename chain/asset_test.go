// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"bytes"
	"sort"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetString(t *testing.T) {
	assert.Equal(t, "1000.0000 VOTE", NewAsset(DefaultMinProducerVotes, VoteSymbol).String())
	assert.Equal(t, "0.00000001 AMAX", NewAsset(1, CoreSymbol).String())
	assert.Equal(t, "-0.5000 VOTE", NewAsset(-5000, VoteSymbol).String())

	a, err := ParseAsset("12.3400 VOTE")
	require.NoError(t, err)
	assert.Equal(t, NewAsset(123400, VoteSymbol), a)

	_, err = ParseAsset("12.34VOTE")
	assert.Error(t, err)
	_, err = ParseAsset("1.0 vote")
	assert.Error(t, err)
}

func TestAssetArithmetic(t *testing.T) {
	a := NewAsset(10, VoteSymbol)
	sum, err := a.Add(NewAsset(5, VoteSymbol))
	require.NoError(t, err)
	assert.Equal(t, int64(15), sum.Amount)

	diff, err := a.Sub(NewAsset(15, VoteSymbol))
	require.NoError(t, err)
	assert.Equal(t, int64(-5), diff.Amount)

	_, err = a.Add(NewAsset(1, CoreSymbol))
	assert.Error(t, err)
	_, err = NewAsset(MaxAssetAmount, VoteSymbol).Add(NewAsset(1, VoteSymbol))
	assert.Error(t, err)
}

func newKey(t *testing.T) PublicKey {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	k, err := ParsePublicKey(priv.PubKey().SerializeUncompressed())
	require.NoError(t, err)
	return k
}

func TestAuthority(t *testing.T) {
	k1, k2 := newKey(t), newKey(t)
	if bytes.Compare(k1[:], k2[:]) > 0 {
		k1, k2 = k2, k1
	}

	single := SingleKeyAuthority(k1)
	assert.NoError(t, single.Validate())

	multi := Authority{Threshold: 3, Keys: []KeyWeight{{k1, 1}, {k2, 2}}}
	assert.NoError(t, multi.Validate())
	assert.False(t, single.Equal(&multi))
	cp := multi.Copy()
	assert.True(t, multi.Equal(&cp))

	unreachable := Authority{Threshold: 4, Keys: multi.Keys}
	assert.Error(t, unreachable.Validate())

	unsorted := Authority{Threshold: 1, Keys: []KeyWeight{{k2, 1}, {k1, 1}}}
	assert.Error(t, unsorted.Validate())

	assert.Error(t, (&Authority{Threshold: 1}).Validate())
	assert.Error(t, (&Authority{Threshold: 1, Keys: []KeyWeight{{PublicKey{5}, 1}}}).Validate())

	var parsed PublicKey
	require.NoError(t, parsed.UnmarshalText([]byte(k1.String())))
	assert.Equal(t, k1, parsed)

	keys := []PublicKey{k2, k1}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	assert.Equal(t, k1, keys[0])
}

func TestBlockTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 250*int(time.Millisecond), time.UTC)
	ts := NewBlockTimestamp(now)
	assert.Equal(t, now.Truncate(time.Second), ts.Time())
	assert.Equal(t, ts.Time().Add(BlockIntervalMs*time.Millisecond), ts.Next().Time())
	assert.Equal(t, uint32(120), BlocksPerMinute)
}
