// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/election/globalstats"
	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/chain"
)

func checkCore(quantity chain.Asset, what string) error {
	if !quantity.IsValid() || quantity.Symbol != chain.CoreSymbol {
		return reverts.Newf(reverts.Validation, "%s symbol mismatch", what)
	}
	if quantity.Amount < 0 {
		return reverts.Newf(reverts.Validation, "%s must not be negative", what)
	}
	return nil
}

// maxPerBlock bounds the per block rewards of a pool so that the first halving period
// pays out at most half of it.
func maxPerBlock(total int64) uint64 {
	return uint64(total) / 2 / chain.RewardHalvingPeriodBlocks
}

// CfgReward configures the initial producer reward phase, times in unix seconds.
func (e *Election) CfgReward(start, end uint64, mainPerBlock, backupPerBlock chain.Asset) error {
	if err := e.env.RequireAuth(e.accounts.System); err != nil {
		return err
	}
	if end < start {
		return reverts.New(reverts.Validation, "end time must be >= start time")
	}
	if err := checkCore(mainPerBlock, "main per block rewards"); err != nil {
		return err
	}
	if err := checkCore(backupPerBlock, "backup per block rewards"); err != nil {
		return err
	}
	now := e.env.Now()
	return e.update(func(st *globalstats.State) error {
		if st.InitRewardEndTime != 0 && now >= st.InitRewardEndTime {
			return reverts.New(reverts.Validation, "initializing reward phase has already ended")
		}
		if st.InitRewardStartTime != 0 && now >= st.InitRewardStartTime && start != st.InitRewardStartTime {
			return reverts.New(reverts.Validation, "can not change start time after reward phase started")
		}
		if uint64(mainPerBlock.Amount) > maxPerBlock(chain.TotalMainProducerRewards) {
			return reverts.New(reverts.Validation, "main per block rewards too large")
		}
		if uint64(backupPerBlock.Amount) > maxPerBlock(chain.TotalBackupProducerRewards) {
			return reverts.New(reverts.Validation, "backup per block rewards too large")
		}
		st.InitRewardStartTime = start
		st.InitRewardEndTime = end
		st.MainRewardInfo.Total = uint64(chain.TotalMainProducerRewards)
		st.MainRewardInfo.PerBlock = uint64(mainPerBlock.Amount)
		st.BackupRewardInfo.Total = uint64(chain.TotalBackupProducerRewards)
		st.BackupRewardInfo.PerBlock = uint64(backupPerBlock.Amount)
		logger.Info("producer rewards configured", "start", start, "end", end, "main", mainPerBlock, "backup", backupPerBlock)
		return nil
	})
}

// CfgBBPReward changes the per block rewards of backup producers.
func (e *Election) CfgBBPReward(backupPerBlock chain.Asset) error {
	if err := e.requireSelfOrAdmin(); err != nil {
		return err
	}
	if err := checkCore(backupPerBlock, "backup per block rewards"); err != nil {
		return err
	}
	return e.update(func(st *globalstats.State) error {
		remaining := st.BackupRewardInfo.Remaining()
		if remaining == 0 {
			return reverts.New(reverts.Resource, "insufficient remaining rewards")
		}
		if uint64(backupPerBlock.Amount) >= remaining {
			return reverts.New(reverts.Validation, "backup per block rewards must be less than remaining rewards")
		}
		st.BackupRewardInfo.PerBlock = uint64(backupPerBlock.Amount)
		return nil
	})
}

// CfgContrib sets the minimum contribution of a backup producer to be rewarded.
func (e *Election) CfgContrib(minContribution uint32) error {
	if err := e.env.RequireAuth(e.accounts.System); err != nil {
		return err
	}
	if minContribution > chain.RatioBoost {
		return reverts.Newf(reverts.Validation, "min backup reward contribution must be <= %d", chain.RatioBoost)
	}
	return e.update(func(st *globalstats.State) error {
		st.MinBackupRewardContribution = minContribution
		return nil
	})
}

// OnBlock credits the block rewards and periodically flushes the change log.
func (e *Election) OnBlock() error {
	if err := e.env.RequireAuth(e.accounts.System); err != nil {
		return err
	}
	return e.update(func(st *globalstats.State) error {
		if !st.IsInitialized() {
			return nil
		}
		blk := e.env.BlockContext()
		now := e.env.Now()

		if st.InitRewardStartTime != 0 && now >= st.InitRewardStartTime {
			e.halve(st, now)
			if err := e.incProducerRewards(blk.Producer, &st.MainRewardInfo); err != nil {
				return err
			}
			if prev := blk.PreviousBackup; st.BackupRewardInfo.PerBlock > 0 && !blk.IsBackup && prev != nil &&
				prev.Contribution >= st.MinBackupRewardContribution {
				if err := e.incProducerRewards(prev.Producer, &st.BackupRewardInfo); err != nil {
					return err
				}
			}
		}

		if blk.Timestamp.Slot() > st.LastProducerScheduleUpdate.Slot()+chain.BlocksPerMinute {
			if err := e.flushElectedChanges(st); err != nil {
				return errors.Wrap(err, "flush elected changes")
			}
			st.LastProducerScheduleUpdate = blk.Timestamp
		}
		return nil
	})
}

// halve starts a new halving period once the initial phase is over.
func (e *Election) halve(st *globalstats.State, now uint64) {
	if st.InitRewardEndTime == 0 || now < st.InitRewardEndTime {
		return
	}
	period := 1 + (now-st.InitRewardEndTime)/chain.RewardHalvingPeriodSeconds
	if period <= st.RewardPeriodNumber {
		return
	}
	st.RewardPeriodNumber = period
	st.MainRewardInfo.PerBlock = st.MainRewardInfo.Remaining() / 2 / chain.RewardHalvingPeriodBlocks
	st.BackupRewardInfo.PerBlock = st.BackupRewardInfo.Remaining() / 2 / chain.RewardHalvingPeriodBlocks
	logger.Info("producer rewards halved", "period", period,
		"main", st.MainRewardInfo.PerBlock, "backup", st.BackupRewardInfo.PerBlock)
}

func (e *Election) incProducerRewards(name chain.Name, info *globalstats.RewardInfo) error {
	if info.PerBlock == 0 || info.Produced+info.PerBlock > info.Total {
		return nil
	}
	p, err := e.producers.Get(name)
	if err != nil || p == nil {
		return err
	}
	old := p.ElectedInfo()
	p.UnclaimedRewards += info.PerBlock
	info.Produced += info.PerBlock
	return e.producers.Update(p, &old)
}

// sharedRewards is the part of rewards forwarded to voters.
func sharedRewards(rewards uint64, ratio uint32) uint64 {
	shared := new(uint256.Int).Mul(uint256.NewInt(rewards), uint256.NewInt(uint64(ratio)))
	return shared.Div(shared, uint256.NewInt(uint64(chain.RatioBoost))).Uint64()
}

// ClaimRewards pays the unclaimed block rewards of owner and forwards the voters' share
// to the reward distributor.
func (e *Election) ClaimRewards(submitter, owner chain.Name) error {
	if err := e.env.RequireAuth(submitter); err != nil {
		return err
	}
	st, err := e.global.Get()
	if err != nil {
		return err
	}
	p, err := e.producers.MustGet(owner)
	if err != nil {
		return err
	}
	switch {
	case !p.Active:
		return reverts.New(reverts.Validation, "producer does not have an active key")
	case p.Ext == nil:
		return reverts.Newf(reverts.Validation, "producer %v is not updated by regproducer", owner)
	case !st.IsInitialized():
		return reverts.New(reverts.Validation, "dual queue election is not enabled")
	case p.UnclaimedRewards == 0:
		return reverts.New(reverts.Resource, "no rewards to claim")
	}
	now := e.env.Now()
	if now < p.LastClaimedTime+chain.ClaimIntervalSec {
		return reverts.New(reverts.Validation, "already claimed rewards within past day")
	}

	rewards := chain.NewAsset(int64(p.UnclaimedRewards), chain.CoreSymbol)
	if err := e.ledger.Issue(e.accounts.System, rewards, "issue block rewards for producer"); err != nil {
		return errors.Wrap(err, "issue producer rewards")
	}
	if err := e.ledger.Transfer(e.accounts.System, owner, rewards, "producer block rewards"); err != nil {
		return errors.Wrap(err, "pay producer rewards")
	}
	if shared := sharedRewards(p.UnclaimedRewards, p.Ext.RewardSharedRatio); shared > 0 {
		registered, err := e.reward.IsRegistered(owner)
		if err != nil {
			return err
		}
		if !registered {
			if err := e.reward.RegisterProducer(e.env.Inline(owner), owner); err != nil {
				return err
			}
		}
		if err := e.ledger.Transfer(owner, e.reward.Account(), chain.NewAsset(int64(shared), chain.CoreSymbol), "reward"); err != nil {
			return errors.Wrap(err, "share producer rewards")
		}
	}

	logger.Debug("producer rewards claimed", "producer", owner, "rewards", rewards)
	old := p.ElectedInfo()
	p.UnclaimedRewards = 0
	p.LastClaimedTime = now
	return e.producers.Update(p, &old)
}

// UndoReward gives up part of the unclaimed block rewards of owner.
func (e *Election) UndoReward(owner chain.Name, rewards chain.Asset) error {
	if err := e.env.RequireAuth(owner); err != nil {
		return err
	}
	if err := checkCore(rewards, "rewards"); err != nil {
		return err
	}
	if rewards.Amount == 0 {
		return reverts.New(reverts.Validation, "rewards must be positive")
	}
	st, err := e.global.Get()
	if err != nil {
		return err
	}
	if !st.IsInitialized() {
		return reverts.New(reverts.Validation, "dual queue election is not enabled")
	}
	p, err := e.producers.MustGet(owner)
	if err != nil {
		return err
	}
	if !p.Active {
		return reverts.New(reverts.Validation, "producer does not have an active key")
	}
	if p.Ext == nil {
		return reverts.Newf(reverts.Validation, "producer %v is not updated by regproducer", owner)
	}
	if uint64(rewards.Amount) > p.UnclaimedRewards {
		return reverts.New(reverts.Resource, "rewards exceed unclaimed rewards")
	}
	old := p.ElectedInfo()
	p.UnclaimedRewards -= uint64(rewards.Amount)
	p.LastClaimedTime = e.env.Now()
	return e.producers.Update(p, &old)
}
