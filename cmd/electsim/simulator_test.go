// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/builtin"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/memkv"
	"github.com/dposlab/bbpelect/proposer"
	"github.com/dposlab/bbpelect/runtime"
	"github.com/dposlab/bbpelect/schedlog"
)

func newTestSimulator(t *testing.T, sc *Scenario) (*Simulator, *schedlog.SchedLog) {
	sched, err := schedlog.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { sched.Close() })

	proposers := proposer.New(sc.ProposerDelay)
	proposers.SetArchive(sched)
	rt := runtime.New(memkv.New(), *sc.Accounts, proposers)
	return NewSimulator(sc, rt, proposers), sched
}

func loadExample(t *testing.T) *Scenario {
	sc, err := LoadScenario("testdata/example.yaml")
	require.NoError(t, err)
	return sc
}

func TestSimulatorSetup(t *testing.T) {
	sc := loadExample(t)
	sc.Steps, sc.Random = nil, nil
	sim, sched := newTestSimulator(t, sc)

	require.NoError(t, sim.Run(context.Background(), func() {}))

	report, err := sim.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK(), report.Mismatches)
	assert.False(t, report.Interrupted)
	assert.Len(t, report.Main, int(chain.MaxMainProducerCount))
	assert.Len(t, report.Backup, 4)
	assert.Equal(t, int64(1), report.Version)
	// the producer with the fewest votes is left out
	assert.NotContains(t, report.Main, chain.MustParseName("prodaa"))
	assert.NotContains(t, report.Backup, chain.MustParseName("prodaa"))
	assert.Contains(t, report.Main, chain.MustParseName("prodaz"))

	pubs, err := sched.Publications(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, uint32(21), pubs[0].MainCount)

	stats := sim.Stats()
	// setmprodvote, regproducer x26, addvote+vote x26, initbbpelect
	assert.Equal(t, 1+26+2*26+1, stats.Actions)
	assert.Equal(t, 1, stats.Verified)
}

func TestSimulatorRun(t *testing.T) {
	sc := loadExample(t)
	sc.Random = nil
	sim, _ := newTestSimulator(t, sc)

	var steps int
	require.NoError(t, sim.Run(context.Background(), func() { steps++ }))
	assert.Equal(t, sc.Size(), steps)

	report, err := sim.Verify(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK(), report.Mismatches)
	assert.Len(t, report.Main, int(chain.MaxMainProducerCount))
	assert.NotContains(t, report.Main, chain.MustParseName("prodaz"))
	assert.NotContains(t, report.Backup, chain.MustParseName("prodaz"))

	stats := sim.Stats()
	assert.Equal(t, 1, stats.Reverted)
	assert.Equal(t, 4, stats.Verified)

	require.NoError(t, sim.rt.View(func(c *builtin.Contracts) error {
		return c.Election.CheckQueues()
	}))
}

func TestSimulatorReplay(t *testing.T) {
	run := func() (Stats, *Report) {
		sc := loadExample(t)
		sim, _ := newTestSimulator(t, sc)
		require.NoError(t, sim.Run(context.Background(), func() {}))
		report, err := sim.Verify(context.Background())
		require.NoError(t, err)
		return sim.Stats(), report
	}
	s1, r1 := run()
	s2, r2 := run()
	assert.Equal(t, s1, s2)
	assert.Equal(t, r1, r2)
}

func TestSimulatorExpect(t *testing.T) {
	sc := loadExample(t)
	sc.Steps, sc.Random = nil, nil
	sim, _ := newTestSimulator(t, sc)
	require.NoError(t, sim.Run(context.Background(), func() {}))

	ctx := context.Background()
	voter := chain.MustParseName("voterab")

	// an expected failure that does not happen fails the step
	err := sim.step(ctx, &Step{Action: "addvote", Actor: voter, Quantity: chain.NewAsset(10000, chain.VoteSymbol), Expect: "mismatch"})
	assert.ErrorContains(t, err, "succeeded")

	err = sim.step(ctx, &Step{Action: "addvote", Actor: voter, Quantity: chain.NewAsset(10000, chain.CoreSymbol), Expect: "not registered"})
	assert.ErrorContains(t, err, "votes symbol mismatch")

	err = sim.step(ctx, &Step{Action: "vote", Actor: voter, Producers: []chain.Name{chain.MustParseName("nobody")}})
	assert.Error(t, err)
}

func TestSimulatorCancel(t *testing.T) {
	sc := loadExample(t)
	sim, _ := newTestSimulator(t, sc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sim.Run(ctx, func() {}), context.Canceled)
}
