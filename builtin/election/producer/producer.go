// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package producer

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/dposlab/bbpelect/chain"
)

type Producer struct {
	Owner            chain.Name
	Active           bool
	URL              string
	Location         uint16
	Authority        chain.Authority
	LastClaimedTime  uint64 // unix seconds
	UnclaimedRewards uint64 // core token amount
	Ext              *Ext `rlp:"nil"` // set by the first registration through the election
}

type Ext struct {
	ElectedVotes      uint64 // vote token amount
	RewardSharedRatio uint32 // of chain.RatioBoost
}

// ElectedVotes returns the elected votes, zero without Ext.
func (p *Producer) ElectedVotes() uint64 {
	if p.Ext == nil {
		return 0
	}
	return p.Ext.ElectedVotes
}

// ElectedInfo returns the ranking relevant part of the producer.
func (p *Producer) ElectedInfo() ElectedInfo {
	return ElectedInfo{
		Name:         p.Owner,
		Active:       p.Active,
		ElectedVotes: p.ElectedVotes(),
		Authority:    p.Authority.Copy(),
	}
}

// ElectedInfo is a snapshot of a ranked producer. An empty name means no producer.
type ElectedInfo struct {
	Name         chain.Name
	Active       bool
	ElectedVotes uint64
	Authority    chain.Authority
}

func (e *ElectedInfo) IsEmpty() bool {
	return e == nil || e.Name.IsEmpty()
}

// Valid reports whether the producer is eligible for a window.
func (e *ElectedInfo) Valid(minVotes uint64) bool {
	return !e.IsEmpty() && e.Active && e.ElectedVotes >= minVotes
}

// SortKey orders producers: active first, then elected votes descending, then name ascending.
type SortKey [16]byte

func (e *ElectedInfo) SortKey() SortKey {
	var hi uint64
	if e.Active {
		hi = math.MaxInt64 - e.ElectedVotes
	} else {
		hi = math.MaxUint64 - e.ElectedVotes
	}
	var k SortKey
	binary.BigEndian.PutUint64(k[:8], hi)
	binary.BigEndian.PutUint64(k[8:], uint64(e.Name))
	return k
}

// Before reports whether e ranks strictly above o.
func (e *ElectedInfo) Before(o *ElectedInfo) bool {
	a, b := e.SortKey(), o.SortKey()
	return bytes.Compare(a[:], b[:]) < 0
}

func (k SortKey) Compare(o SortKey) int {
	return bytes.Compare(k[:], o[:])
}
