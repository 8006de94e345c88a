// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testchain drives a runtime through blocks and actions for tests.
package testchain

import (
	"context"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/memkv"
	"github.com/dposlab/bbpelect/proposer"
	"github.com/dposlab/bbpelect/runtime"
	"github.com/dposlab/bbpelect/xenv"
)

// Genesis is the timestamp of the first block.
var Genesis = chain.NewBlockTimestamp(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

type Chain struct {
	accounts  chain.Accounts
	proposers *proposer.Set
	rt        *runtime.Runtime
	ts        chain.BlockTimestamp
}

// New creates a chain on an in-memory store, positioned on the genesis block.
func New(delay uint32) (*Chain, error) {
	accounts := chain.DefaultAccounts()
	proposers := proposer.New(delay)
	c := &Chain{
		accounts:  accounts,
		proposers: proposers,
		rt:        runtime.New(memkv.New(), accounts, proposers),
		ts:        Genesis - 1,
	}
	if err := c.NextBlock(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) Accounts() chain.Accounts  { return c.accounts }
func (c *Chain) Proposers() *proposer.Set  { return c.proposers }
func (c *Chain) Runtime() *runtime.Runtime { return c.rt }
func (c *Chain) Now() chain.BlockTimestamp { return c.ts }

// NextBlock produces one block in the next slot.
func (c *Chain) NextBlock() error {
	return c.produce(c.ts.Next())
}

// Skip produces one block d after the current one.
func (c *Chain) Skip(d time.Duration) error {
	slots := chain.BlockTimestamp(d.Milliseconds() / chain.BlockIntervalMs)
	if slots == 0 {
		slots = 1
	}
	return c.produce(c.ts + slots)
}

func (c *Chain) produce(ts chain.BlockTimestamp) error {
	c.proposers.Advance()
	main, _ := c.proposers.Windows()
	blk := xenv.BlockContext{Timestamp: ts}
	if names := main.Names(); len(names) > 0 {
		blk.Producer = names[int(ts)%len(names)]
	}
	if err := c.rt.NextBlock(context.Background(), blk); err != nil {
		return err
	}
	c.ts = ts
	return nil
}

// Exec runs do as an action signed by signer.
func (c *Chain) Exec(name string, signer chain.Name, do func(c *builtin.Contracts) error) error {
	_, err := c.rt.Execute(context.Background(), runtime.Action{Name: name, Signers: []chain.Name{signer}, Do: do})
	return err
}

// Stake funds voter and adds votes for it.
func (c *Chain) Stake(voter chain.Name, votes int64) error {
	if err := c.Exec("issue", c.accounts.System, func(ct *builtin.Contracts) error {
		return ct.Token.Issue(voter, chain.NewAsset(votes*chain.VoteToCoreAssetFactor, chain.CoreSymbol), "stake")
	}); err != nil {
		return err
	}
	return c.Exec("addvote", voter, func(ct *builtin.Contracts) error {
		return ct.Election.AddVote(voter, chain.NewAsset(votes, chain.VoteSymbol))
	})
}

// Bootstrap registers n producers, producer i backed by voter i with 10+i votes, and
// initializes the windows with maxBackup.
func (c *Chain) Bootstrap(n int, maxBackup uint32) error {
	if err := c.Exec("setmprodvote", c.accounts.ProducerAdmin, func(ct *builtin.Contracts) error {
		return ct.Election.SetMinProducerVotes(chain.NewAsset(1, chain.VoteSymbol))
	}); err != nil {
		return err
	}
	for i := range n {
		prod, voter := ProducerName(i), VoterName(i)
		if err := c.Exec("regproducer", prod, func(ct *builtin.Contracts) error {
			return ct.Election.RegProducer(prod, Key(i), "", 0, nil)
		}); err != nil {
			return err
		}
		if err := c.Stake(voter, int64(10+i)); err != nil {
			return err
		}
		if err := c.Exec("vote", voter, func(ct *builtin.Contracts) error {
			return ct.Election.Vote(voter, []chain.Name{prod})
		}); err != nil {
			return err
		}
	}
	return errors.WithMessage(c.Exec("initbbpelect", c.accounts.ProducerAdmin, func(ct *builtin.Contracts) error {
		return ct.Election.InitBBPElect(maxBackup)
	}), "bootstrap")
}

// Key returns a deterministic signing key.
func Key(i int) chain.PublicKey {
	var seed [32]byte
	seed[0], seed[30], seed[31] = 2, byte(i>>8), byte(i+1)
	key, err := chain.ParsePublicKey(secp256k1.PrivKeyFromBytes(seed[:]).PubKey().SerializeCompressed())
	if err != nil {
		panic(err)
	}
	return key
}

// ProducerName returns the name of producer i, i < 26*26.
func ProducerName(i int) chain.Name { return indexedName("prod", i) }

// VoterName returns the name of voter i, i < 26*26.
func VoterName(i int) chain.Name { return indexedName("voter", i) }

func indexedName(prefix string, i int) chain.Name {
	return chain.MustParseName(prefix + string(rune('a'+i/26)) + string(rune('a'+i%26)))
}
