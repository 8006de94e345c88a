// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/election/queue"
	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/builtin/tables"
	"github.com/dposlab/bbpelect/chain"
)

// RewardInfo tracks one producer block reward pool.
type RewardInfo struct {
	Total    uint64
	PerBlock uint64
	Produced uint64
}

// Remaining is what is left to produce.
func (r *RewardInfo) Remaining() uint64 {
	if r.Produced >= r.Total {
		return 0
	}
	return r.Total - r.Produced
}

// State is the election-wide state.
type State struct {
	ElectedVersion         uint32
	MaxMainProducerCount   uint32
	MaxBackupProducerCount uint32
	MinProducerVotes       uint64

	Queues                   queue.Queues
	ElectedChangeInterrupted bool
	LastElectedChangeID      uint64
	ElectedSequence          uint64

	TotalProducerElectedVotes uint64

	MainRewardInfo              RewardInfo
	BackupRewardInfo            RewardInfo
	RewardPeriodNumber          uint64
	MinBackupRewardContribution uint32 // of chain.RatioBoost
	InitRewardStartTime         uint64 // unix seconds, zero until configured
	InitRewardEndTime           uint64

	LastProducerScheduleUpdate chain.BlockTimestamp
	ThresholdActivatedTime     uint64
}

// IsInitialized reports whether the main and backup windows are maintained.
func (s *State) IsInitialized() bool {
	return s.ElectedVersion >= chain.ElectedVersionBBPEnabled
}

// QueueParams are the window sizes and thresholds of the state.
func (s *State) QueueParams() queue.Params {
	return queue.Params{
		MaxMain:   s.MaxMainProducerCount,
		MaxBackup: s.MaxBackupProducerCount,
		MinBackup: chain.MinBackupProducerCount,
		MinVotes:  s.MinProducerVotes,
	}
}

// AddElectedVotes applies delta to the total elected votes.
func (s *State) AddElectedVotes(delta int64) error {
	total, err := addSigned(s.TotalProducerElectedVotes, delta)
	if err != nil {
		return reverts.Newf(reverts.Consistency, "total producer elected votes: %v", err)
	}
	s.TotalProducerElectedVotes = total
	return nil
}

func addSigned(v uint64, delta int64) (uint64, error) {
	if delta >= 0 {
		sum := v + uint64(delta)
		if sum < v {
			return 0, errors.New("overflow")
		}
		return sum, nil
	}
	d := uint64(-delta)
	if d > v {
		return 0, errors.New("negative result")
	}
	return v - d, nil
}

func Default() *State {
	return &State{
		MaxMainProducerCount:   chain.MaxMainProducerCount,
		MaxBackupProducerCount: chain.DefaultMaxBackupProducerCount,
		MinProducerVotes:       uint64(chain.DefaultMinProducerVotes),
	}
}

// Service loads and saves the state.
type Service struct {
	state *tables.Raw[*State]
}

func New(ctx *tables.Context) *Service {
	return &Service{state: tables.NewRaw[*State](ctx, "global")}
}

// Get returns the stored state or the defaults.
func (s *Service) Get() (*State, error) {
	st, found, err := s.state.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load global state")
	}
	if !found {
		return Default(), nil
	}
	return st, nil
}

func (s *Service) Set(st *State) error {
	return errors.Wrap(s.state.Set(st), "failed to save global state")
}
