// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"slices"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/election/changes"
	"github.com/dposlab/bbpelect/builtin/election/globalstats"
	"github.com/dposlab/bbpelect/builtin/election/voter"
	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/chain"
)

// voteToCore converts a vote amount to the core tokens backing it.
func voteToCore(votes uint64) (chain.Asset, error) {
	amount, overflow := math.SafeMul(votes, uint64(chain.VoteToCoreAssetFactor))
	if overflow || amount > uint64(chain.MaxAssetAmount) {
		return chain.Asset{}, reverts.New(reverts.Validation, "votes out of range")
	}
	return chain.NewAsset(int64(amount), chain.CoreSymbol), nil
}

func checkVotes(votes chain.Asset) error {
	if !votes.IsValid() || votes.Symbol != chain.VoteSymbol {
		return reverts.New(reverts.Validation, "votes symbol mismatch")
	}
	if votes.Amount <= 0 {
		return reverts.New(reverts.Validation, "votes must be positive")
	}
	return nil
}

func (e *Election) checkVoteInterval(v *voter.Voter) error {
	if v.LastUnvotedTime+chain.VoteIntervalSec >= e.env.Now() {
		return reverts.New(reverts.Validation, "voter can only vote or subvote once a day")
	}
	return nil
}

// updateElectedVotes applies delta to the elected votes of producers and repositions them.
// Producers gaining votes through adding must be active.
func (e *Election) updateElectedVotes(st *globalstats.State, names []chain.Name, delta int64, adding bool, out *changes.Proposed) error {
	for _, name := range names {
		p, err := e.producers.Get(name)
		if err != nil {
			return err
		}
		if p == nil {
			return reverts.Newf(reverts.Validation, "producer %v is not registered", name)
		}
		if adding && !p.Active {
			return reverts.Newf(reverts.Validation, "producer %v is not active", name)
		}
		if p.Ext == nil {
			return reverts.Newf(reverts.Validation, "producer %v is not updated by regproducer", name)
		}
		if delta == 0 {
			continue
		}
		if delta < 0 && uint64(-delta) > p.Ext.ElectedVotes {
			return reverts.Newf(reverts.Consistency, "producer %v elected votes can not be negative", name)
		}
		old := p.ElectedInfo()
		p.Ext.ElectedVotes = uint64(int64(p.Ext.ElectedVotes) + delta)
		if err := e.producers.Update(p, &old); err != nil {
			return err
		}
		if err := st.AddElectedVotes(delta); err != nil {
			return err
		}
		cur := p.ElectedInfo()
		if err := e.processProducer(st, &old, &cur, out); err != nil {
			return err
		}
	}
	return nil
}

// AddVote locks core tokens of owner as votes for its delegated producers.
func (e *Election) AddVote(owner chain.Name, votes chain.Asset) error {
	if err := e.env.RequireAuth(owner); err != nil {
		return err
	}
	if err := checkVotes(votes); err != nil {
		return err
	}
	backing, err := voteToCore(uint64(votes.Amount))
	if err != nil {
		return err
	}
	if err := e.ledger.Transfer(owner, e.accounts.Vote, backing, "addvote"); err != nil {
		return errors.Wrap(err, "lock vote tokens")
	}

	err = e.update(func(st *globalstats.State) error {
		v, err := e.voters.Get(owner)
		if err != nil {
			return err
		}
		if v == nil {
			v = &voter.Voter{Owner: owner}
		} else if len(v.Producers) > 0 {
			out := changes.NewProposed()
			if err := e.updateElectedVotes(st, v.Producers, votes.Amount, false, out); err != nil {
				return err
			}
			if err := e.saveProducerChanges(st, out); err != nil {
				return err
			}
		}
		v.Votes += uint64(votes.Amount)
		logger.Debug("votes added", "voter", owner, "votes", votes, "producers", len(v.Producers))
		return e.voters.Set(v)
	})
	if err != nil {
		return err
	}
	return e.reward.AddVote(e.env.Inline(e.accounts.System), owner, votes)
}

// SubVote withdraws votes into a refund claimable after the refund delay.
func (e *Election) SubVote(owner chain.Name, votes chain.Asset) error {
	if err := e.env.RequireAuth(owner); err != nil {
		return err
	}
	if err := checkVotes(votes); err != nil {
		return err
	}
	amount := uint64(votes.Amount)

	err := e.update(func(st *globalstats.State) error {
		v, err := e.voters.Get(owner)
		if err != nil {
			return err
		}
		if v == nil {
			return reverts.New(reverts.Validation, "voter not found")
		}
		if v.Votes < amount {
			return reverts.New(reverts.Resource, "votes insufficient")
		}
		if err := e.checkVoteInterval(v); err != nil {
			return err
		}
		refund, err := e.voters.GetRefund(owner)
		if err != nil {
			return err
		}
		if refund != nil {
			return reverts.New(reverts.Validation, "this account already has a vote refund")
		}

		out := changes.NewProposed()
		if err := e.updateElectedVotes(st, v.Producers, -votes.Amount, false, out); err != nil {
			return err
		}
		if err := e.saveProducerChanges(st, out); err != nil {
			return err
		}
		v.Votes -= amount
		v.LastUnvotedTime = e.env.Now()
		if err := e.voters.Set(v); err != nil {
			return err
		}
		logger.Debug("votes subtracted", "voter", owner, "votes", votes)
		return e.voters.SetRefund(&voter.Refund{Owner: owner, Votes: amount, RequestTime: e.env.Now()})
	})
	if err != nil {
		return err
	}
	return e.reward.SubVote(e.env.Inline(e.accounts.System), owner, votes)
}

// RefundVote returns the core tokens of a matured refund.
func (e *Election) RefundVote(owner chain.Name) error {
	if err := e.env.RequireAuth(owner); err != nil {
		return err
	}
	refund, err := e.voters.GetRefund(owner)
	if err != nil {
		return err
	}
	if refund == nil {
		return reverts.New(reverts.Validation, "no vote refund found")
	}
	if refund.RequestTime+chain.RefundDelaySec > e.env.Now() {
		return reverts.New(reverts.Validation, "refund period not mature yet")
	}
	backing, err := voteToCore(refund.Votes)
	if err != nil {
		return err
	}
	if err := e.ledger.Transfer(e.accounts.Vote, owner, backing, "refundvote"); err != nil {
		return errors.Wrap(err, "refund vote tokens")
	}
	logger.Debug("votes refunded", "voter", owner, "amount", backing)
	return e.voters.DeleteRefund(owner)
}

// Vote delegates all votes of owner to producers, replacing its previous choice.
func (e *Election) Vote(owner chain.Name, producers []chain.Name) error {
	if err := e.env.RequireAuth(owner); err != nil {
		return err
	}
	if err := voter.ValidateProducers(producers); err != nil {
		return err
	}

	changed := false
	err := e.update(func(st *globalstats.State) error {
		v, err := e.voters.Get(owner)
		if err != nil {
			return err
		}
		if v == nil {
			return reverts.New(reverts.Validation, "voter not found")
		}
		if slices.Equal(v.Producers, producers) {
			return nil
		}
		if err := e.checkVoteInterval(v); err != nil {
			return err
		}

		votes := int64(v.Votes)
		removed, kept, added := voter.Diff(v.Producers, producers)
		out := changes.NewProposed()
		if err := e.updateElectedVotes(st, removed, -votes, false, out); err != nil {
			return err
		}
		if err := e.updateElectedVotes(st, kept, 0, false, out); err != nil {
			return err
		}
		if err := e.updateElectedVotes(st, added, votes, true, out); err != nil {
			return err
		}
		if err := e.saveProducerChanges(st, out); err != nil {
			return err
		}

		v.Producers = slices.Clone(producers)
		v.LastUnvotedTime = e.env.Now()
		changed = true
		logger.Debug("voted", "voter", owner, "removed", len(removed), "kept", len(kept), "added", len(added))
		return e.voters.Set(v)
	})
	if err != nil || !changed {
		return err
	}
	return e.reward.VoteProducer(e.env.Inline(e.accounts.System), owner, producers)
}
