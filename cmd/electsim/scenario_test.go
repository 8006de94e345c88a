// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/chain"
)

func producersYAML(n int) string {
	var b strings.Builder
	b.WriteString("producers:\n")
	for i := range n {
		fmt.Fprintf(&b, "  - name: prod%c%c\n", 'a'+i/26, 'a'+i%26)
	}
	return b.String()
}

func TestLoadScenario(t *testing.T) {
	sc := loadExample(t)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), sc.Genesis)
	assert.Equal(t, 500*time.Millisecond, sc.BlockInterval)
	assert.Equal(t, uint32(2), sc.ProposerDelay)
	assert.Equal(t, chain.NewAsset(1, chain.VoteSymbol), sc.MinProducerVotes)
	assert.Len(t, sc.Producers, 26)
	assert.Len(t, sc.Voters, 26)
	assert.Equal(t, chain.NewAsset(35_0000, chain.VoteSymbol), sc.Voters[25].Votes)
	assert.Equal(t, 2*time.Minute, sc.Steps[3].Wait)
	assert.Equal(t, "votes symbol mismatch", sc.Steps[7].Expect)
	assert.Equal(t, len(sc.Steps)+60, sc.Size())
	assert.Equal(t, int64(40), sc.Random.MaxStake)
	assert.Equal(t, chain.DefaultAccounts(), *sc.Accounts)
}

func TestParseScenarioDefaults(t *testing.T) {
	sc, err := ParseScenario([]byte(producersYAML(25)))
	require.NoError(t, err)

	assert.Equal(t, time.Duration(chain.BlockIntervalMs)*time.Millisecond, sc.BlockInterval)
	assert.Equal(t, chain.NewAsset(chain.DefaultMinProducerVotes, chain.VoteSymbol), sc.MinProducerVotes)
	assert.Equal(t, chain.DefaultMaxBackupProducerCount, sc.MaxBackupProducers)
	assert.False(t, sc.Genesis.IsZero())
	assert.Equal(t, 0, sc.Size())
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  string
	}{
		{"unknown field", producersYAML(25) + "foo: 1\n", "field foo not found"},
		{"too few producers", producersYAML(24), "at least 25 producers"},
		{"duplicate producer", producersYAML(25) + "  - name: prodaa\n", "declared twice"},
		{"bad interval", producersYAML(25) + "block_interval: 700ms\n", "block_interval"},
		{"undeclared vote", producersYAML(25) + "voters:\n  - name: alice\n    votes: \"1.0000 VOTE\"\n    producers: [nobody]\n", "undeclared producer"},
		{"core votes", producersYAML(25) + "voters:\n  - name: alice\n    votes: \"1.00000000 AMAX\"\n", "votes must be in"},
		{"empty step", producersYAML(25) + "steps:\n  - {}\n", "exactly one of"},
		{"two kinds", producersYAML(25) + "steps:\n  - blocks: 1\n    verify: true\n", "exactly one of"},
		{"unknown action", producersYAML(25) + "steps:\n  - action: burn\n    actor: alice\n", "unknown action"},
		{"missing actor", producersYAML(25) + "steps:\n  - action: addvote\n", "needs an actor"},
		{"random without voters", producersYAML(25) + "random:\n  steps: 3\n", "need voters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	sc := loadExample(t)
	g1, g2 := newGenerator(sc, sc.Random), newGenerator(sc, sc.Random)
	for range 200 {
		s1, s2 := g1.next(), g2.next()
		require.Equal(t, s1, s2)
		if s1.blocks == 0 {
			require.NoError(t, s1.step.validate())
		}
	}
}
