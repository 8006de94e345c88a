// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reward distributes the rewards producers share with their voters.
//
// Every deposit of a producer raises its rewards per vote. A voter is owed
// votes * (rewards per vote - rewards per vote at its last settlement) / 10^18.
package reward

import (
	"math"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/builtin/tables"
	"github.com/dposlab/bbpelect/builtin/token"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/log"
	"github.com/dposlab/bbpelect/xenv"
)

var (
	logger = log.WithContext("pkg", "reward")

	// HighPrecision scales rewards per vote.
	HighPrecision = uint256.NewInt(1_000_000_000_000_000_000)
)

type Producer struct {
	Owner             chain.Name
	Registered        bool
	TotalRewards      uint64
	AllocatingRewards uint64
	AllocatedRewards  uint64
	Votes             uint64
	RewardsPerVote    *uint256.Int
}

type VotedProducer struct {
	Name               chain.Name
	LastRewardsPerVote *uint256.Int
}

type Voter struct {
	Owner            chain.Name
	Votes            uint64
	Producers        []VotedProducer // sorted by name
	UnclaimedRewards uint64
	ClaimedRewards   uint64
}

type Global struct {
	TotalRewards uint64
}

// Distributor is the reward contract.
type Distributor struct {
	self   chain.Name
	system chain.Name
	ledger token.Ledger

	producers *tables.Mapping[chain.Name, *Producer]
	voters    *tables.Mapping[chain.Name, *Voter]
	global    *tables.Raw[*Global]
}

func New(ctx *tables.Context, accounts chain.Accounts, ledger token.Ledger) *Distributor {
	return &Distributor{
		self:      accounts.Reward,
		system:    accounts.System,
		ledger:    ledger,
		producers: tables.NewMapping[chain.Name, *Producer](ctx, "rwdproducers"),
		voters:    tables.NewMapping[chain.Name, *Voter](ctx, "rwdvoters"),
		global:    tables.NewRaw[*Global](ctx, "rwdglobal"),
	}
}

func (d *Distributor) Account() chain.Name { return d.self }

// Producer returns the producer, nil if unknown.
func (d *Distributor) Producer(name chain.Name) (*Producer, error) {
	p, err := d.producers.Get(name)
	return p, errors.Wrap(err, "failed to get reward producer")
}

// Voter returns the voter, nil if unknown.
func (d *Distributor) Voter(name chain.Name) (*Voter, error) {
	v, err := d.voters.Get(name)
	return v, errors.Wrap(err, "failed to get reward voter")
}

func (d *Distributor) Global() (*Global, error) {
	g, found, err := d.global.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get reward global")
	}
	if !found {
		return &Global{}, nil
	}
	return g, nil
}

func (d *Distributor) getOrNewProducer(name chain.Name) (*Producer, error) {
	p, err := d.Producer(name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &Producer{Owner: name}
	}
	if p.RewardsPerVote == nil {
		p.RewardsPerVote = new(uint256.Int)
	}
	return p, nil
}

// RegisterProducer allows producer to deposit rewards.
func (d *Distributor) RegisterProducer(env *xenv.Environment, producer chain.Name) error {
	if err := env.RequireAuth(producer); err != nil {
		return err
	}
	p, err := d.getOrNewProducer(producer)
	if err != nil {
		return err
	}
	p.Registered = true
	return d.producers.Set(producer, p)
}

// IsRegistered reports whether producer may deposit rewards.
func (d *Distributor) IsRegistered(producer chain.Name) (bool, error) {
	p, err := d.Producer(producer)
	if err != nil {
		return false, err
	}
	return p != nil && p.Registered, nil
}

// OnTransfer credits core tokens a registered producer sends to the reward account.
func (d *Distributor) OnTransfer(from, to chain.Name, quantity chain.Asset, _ string) error {
	if quantity.Symbol != chain.CoreSymbol || from == d.self || to != d.self {
		return nil
	}
	g, err := d.Global()
	if err != nil {
		return err
	}
	amount := uint64(quantity.Amount)
	g.TotalRewards += amount
	if err := d.global.Set(g); err != nil {
		return err
	}

	p, err := d.Producer(from)
	if err != nil {
		return err
	}
	if p == nil {
		return reverts.Newf(reverts.Validation, "producer %v not found", from)
	}
	if !p.Registered {
		return reverts.Newf(reverts.Validation, "producer %v not registered", from)
	}
	p.TotalRewards += amount
	p.AllocatingRewards += amount
	if p.RewardsPerVote, err = nextRewardsPerVote(p.RewardsPerVote, amount, p.Votes); err != nil {
		return err
	}
	logger.Debug("rewards deposited", "producer", from, "amount", quantity, "votes", p.Votes)
	return d.producers.Set(from, p)
}

func nextRewardsPerVote(rpv *uint256.Int, rewards, votes uint64) (*uint256.Int, error) {
	if rpv == nil {
		rpv = new(uint256.Int)
	}
	if rewards == 0 || votes == 0 {
		return rpv, nil
	}
	delta, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(rewards), HighPrecision)
	if overflow {
		return nil, reverts.New(reverts.Consistency, "calculated rewards_per_vote overflow")
	}
	delta.Div(delta, uint256.NewInt(votes))
	next, overflow := new(uint256.Int).AddOverflow(rpv, delta)
	if overflow {
		return nil, reverts.New(reverts.Consistency, "calculated rewards_per_vote overflow")
	}
	return next, nil
}

// voterRewards returns votes * rpvDelta / HighPrecision.
func voterRewards(votes uint64, rpvDelta *uint256.Int) (uint64, error) {
	r, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(votes), rpvDelta)
	if overflow {
		return 0, reverts.New(reverts.Consistency, "calculated rewards overflow")
	}
	r.Div(r, HighPrecision)
	if !r.IsUint64() || r.Uint64() > math.MaxInt64 {
		return 0, reverts.New(reverts.Consistency, "calculated rewards overflow")
	}
	return r.Uint64(), nil
}

// settle pays v what the producers owe for votesOld since the last settlement, then moves
// votesDelta onto them.
func (d *Distributor) settle(v *Voter, producers []VotedProducer, votesOld uint64, votesDelta int64) error {
	for i := range producers {
		vp := &producers[i]
		if vp.LastRewardsPerVote == nil {
			vp.LastRewardsPerVote = new(uint256.Int)
		}
		p, err := d.getOrNewProducer(vp.Name)
		if err != nil {
			return err
		}
		if p.RewardsPerVote.Lt(vp.LastRewardsPerVote) {
			return reverts.Newf(reverts.Consistency, "last_rewards_per_vote of %v invalid", vp.Name)
		}
		delta := new(uint256.Int).Sub(p.RewardsPerVote, vp.LastRewardsPerVote)
		if !delta.IsZero() && votesOld > 0 {
			rewards, err := voterRewards(votesOld, delta)
			if err != nil {
				return err
			}
			if p.AllocatingRewards < rewards {
				return reverts.Newf(reverts.Consistency, "producer %v allocating rewards insufficient", vp.Name)
			}
			p.AllocatingRewards -= rewards
			p.AllocatedRewards += rewards
			if p.TotalRewards != p.AllocatingRewards+p.AllocatedRewards {
				return reverts.Newf(reverts.Consistency, "producer %v rewards out of balance", vp.Name)
			}
			v.UnclaimedRewards += rewards
		}

		votes := int64(p.Votes) + votesDelta
		if votes < 0 {
			return reverts.Newf(reverts.Consistency, "producer %v votes can not be negative", vp.Name)
		}
		p.Votes = uint64(votes)
		vp.LastRewardsPerVote = new(uint256.Int).Set(p.RewardsPerVote)
		if err := d.producers.Set(vp.Name, p); err != nil {
			return err
		}
	}
	return nil
}

func (d *Distributor) getOrNewVoter(name chain.Name) (*Voter, error) {
	v, err := d.Voter(name)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = &Voter{Owner: name}
	}
	return v, nil
}

func (d *Distributor) requireSystemAndVoter(env *xenv.Environment, voter chain.Name) error {
	if err := env.RequireAuth(d.system); err != nil {
		return err
	}
	return env.RequireAuth(voter)
}

func (d *Distributor) AddVote(env *xenv.Environment, voter chain.Name, votes chain.Asset) error {
	return d.changeVote(env, voter, votes, true)
}

func (d *Distributor) SubVote(env *xenv.Environment, voter chain.Name, votes chain.Asset) error {
	return d.changeVote(env, voter, votes, false)
}

func (d *Distributor) changeVote(env *xenv.Environment, voter chain.Name, votes chain.Asset, adding bool) error {
	if err := d.requireSystemAndVoter(env, voter); err != nil {
		return err
	}
	if votes.Symbol != chain.VoteSymbol {
		return reverts.New(reverts.Validation, "votes symbol mismatch")
	}
	if votes.Amount <= 0 {
		return reverts.New(reverts.Validation, "votes must be positive")
	}
	v, err := d.getOrNewVoter(voter)
	if err != nil {
		return err
	}
	delta := votes.Amount
	if !adding {
		if v.Votes < uint64(votes.Amount) {
			return reverts.New(reverts.Resource, "voter's votes insufficient")
		}
		delta = -delta
	}
	if err := d.settle(v, v.Producers, v.Votes, delta); err != nil {
		return err
	}
	v.Votes = uint64(int64(v.Votes) + delta)
	return d.voters.Set(voter, v)
}

// VoteProducer moves the votes of voter to producers.
func (d *Distributor) VoteProducer(env *xenv.Environment, voter chain.Name, producers []chain.Name) error {
	if err := d.requireSystemAndVoter(env, voter); err != nil {
		return err
	}
	if !chain.IsSortedUnique(producers) {
		return reverts.New(reverts.Validation, "producer votes must be unique and sorted")
	}
	v, err := d.getOrNewVoter(voter)
	if err != nil {
		return err
	}

	var removed, kept, added []VotedProducer
	i, j := 0, 0
	for i < len(v.Producers) || j < len(producers) {
		switch {
		case j == len(producers) || (i < len(v.Producers) && v.Producers[i].Name < producers[j]):
			removed = append(removed, v.Producers[i])
			i++
		case i == len(v.Producers) || producers[j] < v.Producers[i].Name:
			added = append(added, VotedProducer{Name: producers[j]})
			j++
		default:
			kept = append(kept, v.Producers[i])
			i++
			j++
		}
	}

	votes := int64(v.Votes)
	if err := d.settle(v, removed, v.Votes, -votes); err != nil {
		return err
	}
	if err := d.settle(v, kept, v.Votes, 0); err != nil {
		return err
	}
	if err := d.settle(v, added, 0, votes); err != nil {
		return err
	}
	v.Producers = mergeVoted(kept, added)
	return d.voters.Set(voter, v)
}

func mergeVoted(a, b []VotedProducer) []VotedProducer {
	out := make([]VotedProducer, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		if j == len(b) || (i < len(a) && a[i].Name < b[j].Name) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	return out
}

// ClaimRewards pays voter its unclaimed rewards.
func (d *Distributor) ClaimRewards(env *xenv.Environment, voter chain.Name) error {
	if err := env.RequireAuth(voter); err != nil {
		return err
	}
	return d.claim(voter)
}

// ClaimFor pays voter its unclaimed rewards on behalf of submitter.
func (d *Distributor) ClaimFor(env *xenv.Environment, submitter, voter chain.Name) error {
	if err := env.RequireAuth(submitter); err != nil {
		return err
	}
	return d.claim(voter)
}

func (d *Distributor) claim(voter chain.Name) error {
	v, err := d.Voter(voter)
	if err != nil {
		return err
	}
	if v == nil {
		return reverts.New(reverts.Validation, "voter info not found")
	}
	if v.Votes == 0 {
		return reverts.New(reverts.Validation, "voter's votes must be positive")
	}
	if err := d.settle(v, v.Producers, v.Votes, 0); err != nil {
		return err
	}
	if v.UnclaimedRewards == 0 {
		return reverts.New(reverts.Resource, "no rewards to claim")
	}
	amount := chain.NewAsset(int64(v.UnclaimedRewards), chain.CoreSymbol)
	if err := d.ledger.Transfer(d.self, voter, amount, "voted rewards"); err != nil {
		return errors.Wrap(err, "pay voted rewards")
	}
	v.ClaimedRewards += v.UnclaimedRewards
	v.UnclaimedRewards = 0
	logger.Debug("rewards claimed", "voter", voter, "amount", amount)
	return d.voters.Set(voter, v)
}
