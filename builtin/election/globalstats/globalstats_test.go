// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/builtin/tables"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/memkv"
)

func TestService(t *testing.T) {
	svc := New(tables.NewContext(memkv.New(), nil))

	st, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, Default(), st)
	assert.False(t, st.IsInitialized())

	st.ElectedVersion = chain.ElectedVersionBBPEnabled
	st.MaxBackupProducerCount = 5
	st.Queues.Main.LastProducerCount = 21
	st.Queues.Main.Tail.Name = chain.MustParseName("tail")
	st.MainRewardInfo = RewardInfo{Total: 100, PerBlock: 2, Produced: 40}
	require.NoError(t, svc.Set(st))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, st.MaxBackupProducerCount, got.MaxBackupProducerCount)
	assert.Equal(t, st.MainRewardInfo, got.MainRewardInfo)
	assert.Equal(t, st.Queues.Main.Tail.Name, got.Queues.Main.Tail.Name)
	assert.Equal(t, uint32(21), got.Queues.Main.LastProducerCount)
	assert.True(t, got.IsInitialized())
	assert.Equal(t, uint64(60), got.MainRewardInfo.Remaining())
	assert.Equal(t, uint32(5), got.QueueParams().MaxBackup)
}

func TestAddElectedVotes(t *testing.T) {
	st := Default()
	require.NoError(t, st.AddElectedVotes(10))
	require.NoError(t, st.AddElectedVotes(-4))
	assert.Equal(t, uint64(6), st.TotalProducerElectedVotes)
	assert.Error(t, st.AddElectedVotes(-7))
	assert.Equal(t, uint64(6), st.TotalProducerElectedVotes)

	st.TotalProducerElectedVotes = math.MaxUint64
	assert.Error(t, st.AddElectedVotes(1))
}
