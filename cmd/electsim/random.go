// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	mathrand "math/rand/v2"

	"github.com/dposlab/bbpelect/chain"
)

type genStep struct {
	blocks uint32
	step   Step
}

// generator draws voter and producer activity from a seeded source, so a seed always
// replays the same run.
type generator struct {
	rnd       *mathrand.Rand
	voters    []chain.Name
	producers []chain.Name
	maxStake  int64
}

func newGenerator(sc *Scenario, r *RandomSpec) *generator {
	g := &generator{
		rnd:      mathrand.New(mathrand.NewPCG(r.Seed, r.Seed^0x9e3779b97f4a7c15)), //#nosec G404
		maxStake: r.MaxStake,
	}
	for _, v := range sc.Voters {
		g.voters = append(g.voters, v.Name)
	}
	for _, p := range sc.Producers {
		g.producers = append(g.producers, p.Name)
	}
	return g
}

func (g *generator) voter() chain.Name    { return g.voters[g.rnd.IntN(len(g.voters))] }
func (g *generator) producer() chain.Name { return g.producers[g.rnd.IntN(len(g.producers))] }

func (g *generator) stake() chain.Asset {
	return chain.NewAsset((1+g.rnd.Int64N(g.maxStake))*10000, chain.VoteSymbol)
}

func (g *generator) next() genStep {
	switch n := g.rnd.IntN(100); {
	case n < 35:
		return genStep{step: Step{Action: "addvote", Actor: g.voter(), Quantity: g.stake()}}
	case n < 60:
		list := make([]chain.Name, 1+g.rnd.IntN(min(5, len(g.producers))))
		for i := range list {
			list[i] = g.producer()
		}
		return genStep{step: Step{Action: "vote", Actor: g.voter(), Producers: list}}
	case n < 70:
		return genStep{step: Step{Action: "subvote", Actor: g.voter(), Quantity: g.stake()}}
	case n < 75:
		return genStep{step: Step{Action: "refundvote", Actor: g.voter()}}
	case n < 80:
		return genStep{step: Step{Action: "unregprod", Actor: g.producer()}}
	case n < 88:
		return genStep{step: Step{Action: "regproducer", Actor: g.producer()}}
	default:
		return genStep{blocks: 1 + uint32(g.rnd.IntN(int(chain.BlocksPerMinute)))}
	}
}
