// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package voter

import (
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/builtin/tables"
	"github.com/dposlab/bbpelect/chain"
)

type Voter struct {
	Owner           chain.Name
	Votes           uint64 // vote token amount
	Producers       []chain.Name
	LastUnvotedTime uint64 // unix seconds
}

// Refund is a pending return of unvoted tokens.
type Refund struct {
	Owner       chain.Name
	Votes       uint64
	RequestTime uint64
}

// ValidateProducers checks a vote list: bounded, strictly ascending.
func ValidateProducers(producers []chain.Name) error {
	if len(producers) > chain.MaxVoteProducerCount {
		return reverts.Newf(reverts.Validation, "attempt to vote for too many producers, limit is %d", chain.MaxVoteProducerCount)
	}
	if !chain.IsSortedUnique(producers) {
		return reverts.New(reverts.Validation, "producer votes must be unique and sorted")
	}
	return nil
}

// Diff splits two sorted producer lists into the producers only in from, in both, and only in to.
func Diff(from, to []chain.Name) (removed, kept, added []chain.Name) {
	i, j := 0, 0
	for i < len(from) || j < len(to) {
		switch {
		case j == len(to) || (i < len(from) && from[i] < to[j]):
			removed = append(removed, from[i])
			i++
		case i == len(from) || to[j] < from[i]:
			added = append(added, to[j])
			j++
		default:
			kept = append(kept, from[i])
			i++
			j++
		}
	}
	return
}

// Repository stores voters and their refunds.
type Repository struct {
	voters  *tables.Mapping[chain.Name, *Voter]
	refunds *tables.Mapping[chain.Name, *Refund]
}

func NewRepository(ctx *tables.Context) *Repository {
	return &Repository{
		voters:  tables.NewMapping[chain.Name, *Voter](ctx, "voters"),
		refunds: tables.NewMapping[chain.Name, *Refund](ctx, "refunds"),
	}
}

// Get returns the voter, nil if it never voted.
func (r *Repository) Get(owner chain.Name) (*Voter, error) {
	v, err := r.voters.Get(owner)
	return v, errors.Wrap(err, "failed to get voter")
}

func (r *Repository) Set(v *Voter) error {
	return errors.Wrap(r.voters.Set(v.Owner, v), "failed to save voter")
}

// Iterate visits voters in name order.
func (r *Repository) Iterate(fn func(*Voter) (bool, error)) error {
	return r.voters.Iterate(nil, func(_ []byte, v *Voter) (bool, error) {
		return fn(v)
	})
}

// GetRefund returns the pending refund, nil if none.
func (r *Repository) GetRefund(owner chain.Name) (*Refund, error) {
	v, err := r.refunds.Get(owner)
	return v, errors.Wrap(err, "failed to get refund")
}

func (r *Repository) SetRefund(refund *Refund) error {
	return errors.Wrap(r.refunds.Set(refund.Owner, refund), "failed to save refund")
}

func (r *Repository) DeleteRefund(owner chain.Name) error {
	return errors.Wrap(r.refunds.Delete(owner), "failed to delete refund")
}
