// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin"
	"github.com/dposlab/bbpelect/builtin/election/producer"
	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/metrics"
	"github.com/dposlab/bbpelect/proposer"
	"github.com/dposlab/bbpelect/runtime"
	"github.com/dposlab/bbpelect/xenv"
)

// maxSettleRounds bounds the minutes spent draining the change log before a verification.
const maxSettleRounds = 10_000

var (
	metricSimBlocks   = metrics.LazyLoadCounter("electsim_blocks_count")
	metricSimReverted = metrics.LazyLoadCounterVec("electsim_reverted_count", []string{"kind"})
)

// Stats counts what a run did.
type Stats struct {
	Blocks   uint32
	Actions  int
	Reverted int
	Verified int
}

// Report compares the windows of the election with the ones published to the proposer set.
type Report struct {
	Version     int64
	Interrupted bool
	Main        []chain.Name
	Backup      []chain.Name
	Mismatches  []string
}

func (r *Report) OK() bool { return len(r.Mismatches) == 0 }

// Simulator produces blocks and executes scenario actions against a runtime.
type Simulator struct {
	sc        *Scenario
	rt        *runtime.Runtime
	proposers *proposer.Set
	accounts  chain.Accounts

	ts         chain.BlockTimestamp
	interval   chain.BlockTimestamp
	prevBackup *xenv.BackupProducer
	stats      Stats
}

func NewSimulator(sc *Scenario, rt *runtime.Runtime, proposers *proposer.Set) *Simulator {
	return &Simulator{
		sc:        sc,
		rt:        rt,
		proposers: proposers,
		accounts:  rt.Accounts(),
		interval:  slotsOf(sc.BlockInterval),
	}
}

func (s *Simulator) Stats() Stats { return s.stats }

func slotsOf(d time.Duration) chain.BlockTimestamp {
	slots := chain.BlockTimestamp(d.Milliseconds() / chain.BlockIntervalMs)
	if slots == 0 {
		return 1
	}
	return slots
}

// deriveKey returns a signing key determined by the producer name.
func deriveKey(name chain.Name) chain.PublicKey {
	seed := crypto.Keccak256([]byte("electsim"), name.Bytes())
	key, err := chain.ParsePublicKey(secp256k1.PrivKeyFromBytes(seed).PubKey().SerializeCompressed())
	if err != nil {
		panic(err)
	}
	return key
}

// coreOf returns the core tokens staked for a vote quantity.
func coreOf(a chain.Asset) chain.Asset {
	return chain.NewAsset(a.Amount*chain.VoteToCoreAssetFactor, chain.CoreSymbol)
}

// Run sets the election up, then plays the scripted and generated steps. done is called after each step.
func (s *Simulator) Run(ctx context.Context, done func()) error {
	if err := s.setup(ctx); err != nil {
		return errors.WithMessage(err, "setup")
	}
	for i := range s.sc.Steps {
		if err := s.step(ctx, &s.sc.Steps[i]); err != nil {
			return errors.WithMessagef(err, "step #%d", i)
		}
		done()
	}
	if r := s.sc.Random; r != nil {
		gen := newGenerator(s.sc, r)
		for i := range r.Steps {
			if err := s.generated(ctx, gen.next()); err != nil {
				return errors.WithMessagef(err, "generated step #%d", i)
			}
			done()
		}
	}
	return nil
}

func (s *Simulator) setup(ctx context.Context) error {
	if err := s.produceAt(ctx, chain.NewBlockTimestamp(s.sc.Genesis)); err != nil {
		return err
	}
	setup := []runtime.Action{
		s.as("setmprodvote", []chain.Name{s.accounts.ProducerAdmin}, func(c *builtin.Contracts) error {
			return c.Election.SetMinProducerVotes(s.sc.MinProducerVotes)
		}),
	}
	if r := s.sc.Reward; r != nil {
		start := s.ts.Unix() + uint64(r.Start/time.Second)
		end := start + uint64(r.Duration/time.Second)
		setup = append(setup,
			s.as("cfgreward", []chain.Name{s.accounts.System}, func(c *builtin.Contracts) error {
				return c.Election.CfgReward(start, end, r.MainPerBlock, r.BackupPerBlock)
			}),
			s.as("cfgcontrib", []chain.Name{s.accounts.System}, func(c *builtin.Contracts) error {
				return c.Election.CfgContrib(r.MinContribution)
			}),
		)
	}
	for _, p := range s.sc.Producers {
		setup = append(setup, s.regProducer(p.Name, p.Key, p.URL, p.Location, p.Ratio))
	}
	for _, v := range s.sc.Voters {
		setup = append(setup, s.addVote(v.Name, v.Votes))
		if len(v.Producers) > 0 {
			setup = append(setup, s.vote(v.Name, v.Producers))
		}
	}
	setup = append(setup, s.as("initbbpelect", []chain.Name{s.accounts.ProducerAdmin}, func(c *builtin.Contracts) error {
		return c.Election.InitBBPElect(s.sc.MaxBackupProducers)
	}))

	for _, a := range setup {
		if _, err := s.rt.Execute(ctx, a); err != nil {
			return err
		}
		s.stats.Actions++
	}
	logger.Info("election initialized", "producers", len(s.sc.Producers), "voters", len(s.sc.Voters),
		"version", s.proposers.Version())
	return nil
}

func (s *Simulator) as(name string, signers []chain.Name, do func(c *builtin.Contracts) error) runtime.Action {
	return runtime.Action{Name: name, Signers: signers, Do: do}
}

func (s *Simulator) regProducer(owner chain.Name, key chain.PublicKey, url string, location uint16, ratio *uint32) runtime.Action {
	if key.IsZero() {
		key = deriveKey(owner)
	}
	return s.as("regproducer", []chain.Name{owner}, func(c *builtin.Contracts) error {
		return c.Election.RegProducer(owner, key, url, location, ratio)
	})
}

// addVote issues the core tokens backing quantity before staking them.
func (s *Simulator) addVote(owner chain.Name, quantity chain.Asset) runtime.Action {
	return s.as("addvote", []chain.Name{s.accounts.System, owner}, func(c *builtin.Contracts) error {
		if err := c.Token.Issue(owner, coreOf(quantity), "stake"); err != nil {
			return err
		}
		return c.Election.AddVote(owner, quantity)
	})
}

func (s *Simulator) vote(owner chain.Name, producers []chain.Name) runtime.Action {
	producers = slices.Clone(producers)
	slices.Sort(producers)
	producers = slices.Compact(producers)
	return s.as("vote", []chain.Name{owner}, func(c *builtin.Contracts) error {
		return c.Election.Vote(owner, producers)
	})
}

func (s *Simulator) action(st *Step) runtime.Action {
	owner := []chain.Name{st.Actor}
	admin := []chain.Name{s.accounts.ProducerAdmin}
	switch st.Action {
	case "regproducer":
		return s.regProducer(st.Actor, st.Key, st.URL, st.Location, st.Ratio)
	case "unregprod":
		return s.as(st.Action, owner, func(c *builtin.Contracts) error { return c.Election.UnregProd(st.Actor) })
	case "setvoteshare":
		var ratio uint32
		if st.Ratio != nil {
			ratio = *st.Ratio
		}
		return s.as(st.Action, owner, func(c *builtin.Contracts) error { return c.Election.SetVoteShare(st.Actor, ratio) })
	case "setmprodvote":
		return s.as(st.Action, admin, func(c *builtin.Contracts) error { return c.Election.SetMinProducerVotes(st.Quantity) })
	case "initbbpelect":
		return s.as(st.Action, admin, func(c *builtin.Contracts) error { return c.Election.InitBBPElect(st.Count) })
	case "addvote":
		return s.addVote(st.Actor, st.Quantity)
	case "subvote":
		return s.as(st.Action, owner, func(c *builtin.Contracts) error { return c.Election.SubVote(st.Actor, st.Quantity) })
	case "refundvote":
		return s.as(st.Action, owner, func(c *builtin.Contracts) error { return c.Election.RefundVote(st.Actor) })
	case "vote":
		return s.vote(st.Actor, st.Producers)
	case "claimrewards":
		return s.as(st.Action, owner, func(c *builtin.Contracts) error { return c.Election.ClaimRewards(st.Actor, st.Actor) })
	case "cfgbbpreward":
		return s.as(st.Action, admin, func(c *builtin.Contracts) error { return c.Election.CfgBBPReward(st.Quantity) })
	}
	panic(fmt.Sprintf("unknown action %q", st.Action))
}

func (s *Simulator) step(ctx context.Context, st *Step) error {
	switch {
	case st.Blocks > 0:
		return s.produce(ctx, st.Blocks)
	case st.Wait > 0:
		return s.produceAt(ctx, s.ts+slotsOf(st.Wait))
	case st.Verify:
		report, err := s.Verify(ctx)
		if err != nil {
			return err
		}
		if !report.OK() {
			return errors.Errorf("windows diverged: %s", strings.Join(report.Mismatches, "; "))
		}
		return nil
	}

	_, err := s.rt.Execute(ctx, s.action(st))
	s.stats.Actions++
	if st.Expect == "" {
		return err
	}
	if err == nil {
		return errors.Errorf("%s succeeded, expected %q", st.Action, st.Expect)
	}
	if !strings.Contains(err.Error(), st.Expect) {
		return errors.Errorf("%s failed with %q, expected %q", st.Action, err, st.Expect)
	}
	s.stats.Reverted++
	return nil
}

// generated runs a generated step. User errors are expected there, broken invariants are not.
func (s *Simulator) generated(ctx context.Context, g genStep) error {
	if g.blocks > 0 {
		return s.produce(ctx, g.blocks)
	}
	_, err := s.rt.Execute(ctx, s.action(&g.step))
	s.stats.Actions++
	if err == nil {
		return nil
	}
	if !reverts.IsRevertErr(err) || reverts.IsConsistency(err) {
		return err
	}
	s.stats.Reverted++
	metricSimReverted().AddWithLabel(1, map[string]string{"kind": reverts.KindOf(err).String()})
	logger.Debug("generated action reverted", "action", g.step.Action, "actor", g.step.Actor, "err", err)
	return nil
}

func (s *Simulator) produce(ctx context.Context, n uint32) error {
	for range n {
		if err := s.produceAt(ctx, s.ts+s.interval); err != nil {
			return err
		}
	}
	return nil
}

// produceAt produces a block at ts. Main producers take turns, and every BackupEvery blocks a
// backup producer is credited through the next block.
func (s *Simulator) produceAt(ctx context.Context, ts chain.BlockTimestamp) error {
	s.proposers.Advance()
	main, backup := s.proposers.Windows()

	blk := xenv.BlockContext{Timestamp: ts, PreviousBackup: s.prevBackup}
	s.prevBackup = nil
	height := s.stats.Blocks
	if names := main.Names(); len(names) > 0 {
		blk.Producer = names[height%uint32(len(names))]
	}
	if every := s.sc.BackupEvery; every > 0 && height%every == every-1 {
		if names := backup.Names(); len(names) > 0 {
			s.prevBackup = &xenv.BackupProducer{
				Producer:     names[(height/every)%uint32(len(names))],
				Contribution: chain.RatioBoost,
			}
		}
	}

	if err := s.rt.NextBlock(ctx, blk); err != nil {
		return err
	}
	s.ts = ts
	s.stats.Blocks++
	metricSimBlocks().Add(1)
	return nil
}

// settle produces a block a minute until the change log is drained and no publication is pending.
func (s *Simulator) settle(ctx context.Context) error {
	minute := slotsOf(time.Minute) + 1
	for range maxSettleRounds {
		var pending int
		if err := s.rt.View(func(c *builtin.Contracts) (err error) {
			pending, err = c.Election.ChangeLog().Len()
			return
		}); err != nil {
			return err
		}
		if pending == 0 && !s.proposers.Pending() {
			return nil
		}
		if err := s.produceAt(ctx, s.ts+minute); err != nil {
			return err
		}
	}
	return errors.New("change log did not drain")
}

func names(list []producer.ElectedInfo) []chain.Name {
	out := make([]chain.Name, 0, len(list))
	for _, info := range list {
		out = append(out, info.Name)
	}
	slices.Sort(out)
	return out
}

func diffWindow(queue string, want []chain.Name, got *proposer.Window) []string {
	var out []string
	if int(got.Count) != len(want) {
		out = append(out, fmt.Sprintf("%s window count %d, published %d", queue, len(want), got.Count))
	}
	published := got.Names()
	for _, n := range want {
		if _, ok := slices.BinarySearch(published, n); !ok {
			out = append(out, fmt.Sprintf("%s window misses %v", queue, n))
		}
	}
	for _, n := range published {
		if _, ok := slices.BinarySearch(want, n); !ok {
			out = append(out, fmt.Sprintf("%s window has extra %v", queue, n))
		}
	}
	return out
}

// Verify drains the change log, checks the window markers and compares both windows
// with the published proposer set.
func (s *Simulator) Verify(ctx context.Context) (*Report, error) {
	if err := s.settle(ctx); err != nil {
		return nil, err
	}
	if err := s.proposers.Err(); err != nil {
		return nil, errors.WithMessage(err, "proposer set")
	}

	report := &Report{Version: s.proposers.Version()}
	if err := s.rt.View(func(c *builtin.Contracts) error {
		if err := c.Election.CheckQueues(); err != nil {
			return err
		}
		st, err := c.Election.State()
		if err != nil {
			return err
		}
		report.Interrupted = st.ElectedChangeInterrupted
		main, backup, err := c.Election.Windows()
		report.Main, report.Backup = names(main), names(backup)
		return err
	}); err != nil {
		return nil, err
	}

	s.stats.Verified++
	if report.Interrupted {
		logger.Warn("windows interrupted, published windows kept", "version", report.Version)
		return report, nil
	}
	pm, pb := s.proposers.Windows()
	report.Mismatches = append(diffWindow("main", report.Main, &pm), diffWindow("backup", report.Backup, &pb)...)
	logger.Info("windows verified", "version", report.Version, "main", len(report.Main), "backup", len(report.Backup),
		"mismatches", len(report.Mismatches))
	return report, nil
}
