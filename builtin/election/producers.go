// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/election/changes"
	"github.com/dposlab/bbpelect/builtin/election/globalstats"
	"github.com/dposlab/bbpelect/builtin/election/producer"
	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/chain"
)

// RegProducer registers or updates a producer signing with a single key.
func (e *Election) RegProducer(owner chain.Name, key chain.PublicKey, url string, location uint16, ratio *uint32) error {
	if err := e.requireSelfOr(owner); err != nil {
		return err
	}
	return e.registerProducer(owner, chain.SingleKeyAuthority(key), url, location, ratio)
}

// RegProducer2 registers or updates a producer with a weighted signing authority.
func (e *Election) RegProducer2(owner chain.Name, auth chain.Authority, url string, location uint16, ratio *uint32) error {
	if err := e.requireSelfOr(owner); err != nil {
		return err
	}
	return e.registerProducer(owner, auth, url, location, ratio)
}

// AddProducer is RegProducer2 performed by the producer admin.
func (e *Election) AddProducer(owner chain.Name, auth chain.Authority, url string, location uint16, ratio *uint32) error {
	if err := e.env.RequireAuth(e.accounts.ProducerAdmin); err != nil {
		return err
	}
	return e.registerProducer(owner, auth, url, location, ratio)
}

func (e *Election) registerProducer(owner chain.Name, auth chain.Authority, url string, location uint16, ratio *uint32) error {
	if len(url) >= chain.MaxURLLength {
		return reverts.New(reverts.Validation, "url too long")
	}
	if ratio != nil && *ratio > chain.RatioBoost {
		return reverts.Newf(reverts.Validation, "reward shared ratio must be <= %d", chain.RatioBoost)
	}
	if err := auth.Validate(); err != nil {
		return reverts.Newf(reverts.Validation, "invalid producer authority: %v", err)
	}

	registered, err := e.reward.IsRegistered(owner)
	if err != nil {
		return err
	}
	if !registered {
		if err := e.reward.RegisterProducer(e.env.Inline(owner), owner); err != nil {
			return errors.Wrap(err, "register producer for rewards")
		}
	}

	return e.update(func(st *globalstats.State) error {
		p, err := e.producers.Get(owner)
		if err != nil {
			return err
		}
		out := changes.NewProposed()
		if p == nil {
			p = &producer.Producer{
				Owner:           owner,
				Active:          true,
				URL:             url,
				Location:        location,
				Authority:       auth.Copy(),
				LastClaimedTime: e.env.Now(),
				Ext:             &producer.Ext{},
			}
			if ratio != nil {
				p.Ext.RewardSharedRatio = *ratio
			}
			if err := e.producers.Create(p); err != nil {
				return err
			}
			cur := p.ElectedInfo()
			if err := e.processProducer(st, nil, &cur, out); err != nil {
				return err
			}
			logger.Debug("producer registered", "producer", owner, "url", url)
		} else {
			old := p.ElectedInfo()
			p.Active = true
			p.URL = url
			p.Location = location
			p.Authority = auth.Copy()
			if p.Ext == nil {
				p.Ext = &producer.Ext{}
			}
			if ratio != nil {
				p.Ext.RewardSharedRatio = *ratio
			}
			if p.LastClaimedTime == 0 {
				p.LastClaimedTime = e.env.Now()
			}
			if err := e.producers.Update(p, &old); err != nil {
				return err
			}
			cur := p.ElectedInfo()
			if err := e.processProducer(st, &old, &cur, out); err != nil {
				return err
			}
			logger.Debug("producer updated", "producer", owner, "active", old.Active)
		}
		return e.saveProducerChanges(st, out)
	})
}

// UnregProd deactivates a producer.
func (e *Election) UnregProd(owner chain.Name) error {
	if err := e.env.RequireAuth(owner); err != nil {
		return err
	}
	return e.update(func(st *globalstats.State) error {
		p, err := e.producers.MustGet(owner)
		if err != nil {
			return err
		}
		old := p.ElectedInfo()
		p.Active = false
		if err := e.producers.Update(p, &old); err != nil {
			return err
		}
		cur := p.ElectedInfo()
		out := changes.NewProposed()
		if err := e.processProducer(st, &old, &cur, out); err != nil {
			return err
		}
		logger.Debug("producer unregistered", "producer", owner)
		return e.saveProducerChanges(st, out)
	})
}

// SetVoteShare sets the part of block rewards a producer forwards to its voters.
func (e *Election) SetVoteShare(owner chain.Name, ratio uint32) error {
	if err := e.requireSelfOr(owner); err != nil {
		return err
	}
	if ratio > chain.RatioBoost {
		return reverts.Newf(reverts.Validation, "reward shared ratio must be <= %d", chain.RatioBoost)
	}
	p, err := e.producers.MustGet(owner)
	if err != nil {
		return err
	}
	if p.Ext == nil {
		return reverts.Newf(reverts.Validation, "producer %v is not updated by regproducer", owner)
	}
	old := p.ElectedInfo()
	p.Ext.RewardSharedRatio = ratio
	return e.producers.Update(p, &old)
}

// SetMinProducerVotes changes the validity threshold and rebuilds the windows.
func (e *Election) SetMinProducerVotes(votes chain.Asset) error {
	if err := e.requireSelfOrAdmin(); err != nil {
		return err
	}
	if votes.Symbol != chain.VoteSymbol {
		return reverts.New(reverts.Validation, "min producer votes symbol mismatch")
	}
	if votes.Amount <= 0 {
		return reverts.New(reverts.Validation, "min producer votes must be positive")
	}
	return e.update(func(st *globalstats.State) error {
		if st.MinProducerVotes == uint64(votes.Amount) {
			return reverts.New(reverts.Validation, "min producer votes not changed")
		}
		st.MinProducerVotes = uint64(votes.Amount)
		if !st.IsInitialized() {
			return nil
		}
		proposed, ok, err := e.reinit(st)
		if err != nil {
			return err
		}
		if !ok {
			st.ElectedChangeInterrupted = true
			metricInterruptions().Add(1)
			logger.Info("producer changes interrupted by min votes", "min", votes)
			return nil
		}
		st.ElectedSequence++
		st.ElectedChangeInterrupted = false
		logger.Info("min producer votes changed", "min", votes, "sequence", st.ElectedSequence)
		return e.appendChanges(st, proposed)
	})
}

// InitBBPElect enables the main and backup windows, or resizes the backup window.
func (e *Election) InitBBPElect(maxBackup uint32) error {
	if err := e.requireSelfOrAdmin(); err != nil {
		return err
	}
	if maxBackup < chain.MinBackupProducerCount {
		return reverts.Newf(reverts.Validation, "max_backup_producer_count must >= %d", chain.MinBackupProducerCount)
	}
	return e.update(func(st *globalstats.State) error {
		needReinit := !st.IsInitialized() || st.MaxBackupProducerCount != maxBackup
		st.ElectedVersion = chain.ElectedVersionBBPEnabled
		st.MaxBackupProducerCount = maxBackup

		if needReinit {
			proposed, ok, err := e.reinit(st)
			if err != nil {
				return err
			}
			if !ok {
				return reverts.Newf(reverts.Resource, "there must be at least %d valid producers",
					st.QueueParams().MinProducerCount()+1)
			}
			if ret := e.env.SetProposedProducers(proposed); ret < 0 {
				return reverts.Newf(reverts.Resource, "set proposed producers failed: %d", ret)
			}
			st.ElectedSequence++
			st.ElectedChangeInterrupted = false
			st.LastProducerScheduleUpdate = e.env.BlockContext().Timestamp
			logger.Info("dual queue election enabled", "main", st.MaxMainProducerCount, "backup", maxBackup,
				"sequence", st.ElectedSequence)
		}
		if st.ThresholdActivatedTime == 0 {
			st.ThresholdActivatedTime = e.env.Now()
		}
		return nil
	})
}
