// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package election implements the producer election: registration, voting, the main and
// backup producer windows, the change log published to the host and producer block rewards.
package election

import (
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/election/changes"
	"github.com/dposlab/bbpelect/builtin/election/globalstats"
	"github.com/dposlab/bbpelect/builtin/election/producer"
	"github.com/dposlab/bbpelect/builtin/election/queue"
	"github.com/dposlab/bbpelect/builtin/election/voter"
	"github.com/dposlab/bbpelect/builtin/reward"
	"github.com/dposlab/bbpelect/builtin/tables"
	"github.com/dposlab/bbpelect/builtin/token"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/log"
	"github.com/dposlab/bbpelect/xenv"
)

var logger = log.WithContext("pkg", "election")

// Election is the system contract bound to the env and store of one action.
type Election struct {
	env      *xenv.Environment
	accounts chain.Accounts
	ledger   token.Ledger
	reward   *reward.Distributor

	producers *producer.Repository
	voters    *voter.Repository
	changes   *changes.Log
	global    *globalstats.Service
}

func New(
	env *xenv.Environment,
	ctx *tables.Context,
	accounts chain.Accounts,
	ledger token.Ledger,
	dist *reward.Distributor,
) *Election {
	return &Election{
		env:       env,
		accounts:  accounts,
		ledger:    ledger,
		reward:    dist,
		producers: producer.NewRepository(ctx),
		voters:    voter.NewRepository(ctx),
		changes:   changes.NewLog(ctx),
		global:    globalstats.New(ctx),
	}
}

func (e *Election) Producers() *producer.Repository { return e.producers }
func (e *Election) Voters() *voter.Repository       { return e.voters }
func (e *Election) ChangeLog() *changes.Log         { return e.changes }

// State returns the election state.
func (e *Election) State() (*globalstats.State, error) {
	return e.global.Get()
}

// update runs fn on the state and saves it unless fn fails.
func (e *Election) update(fn func(st *globalstats.State) error) error {
	st, err := e.global.Get()
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return e.global.Set(st)
}

func (e *Election) requireSelfOrAdmin() error {
	if e.env.HasAuth(e.accounts.System) || e.env.HasAuth(e.accounts.ProducerAdmin) {
		return nil
	}
	return e.env.RequireAuth(e.accounts.ProducerAdmin)
}

func (e *Election) requireSelfOr(account chain.Name) error {
	if e.env.HasAuth(e.accounts.System) {
		return nil
	}
	return e.env.RequireAuth(account)
}

func (e *Election) maintainer(st *globalstats.State) *queue.Maintainer {
	return queue.NewMaintainer(e.producers, st.QueueParams())
}

// CheckQueues verifies the window markers against the producer index.
func (e *Election) CheckQueues() error {
	st, err := e.global.Get()
	if err != nil {
		return err
	}
	if !st.IsInitialized() || st.ElectedChangeInterrupted {
		return nil
	}
	return e.maintainer(st).Check(&st.Queues)
}

// processProducer repositions a producer in the windows once they are maintained.
func (e *Election) processProducer(st *globalstats.State, old, cur *producer.ElectedInfo, out *changes.Proposed) error {
	if !st.IsInitialized() || st.ElectedChangeInterrupted {
		return nil
	}
	interrupted, err := e.maintainer(st).Process(&st.Queues, old, cur, out)
	if err != nil {
		return errors.Wrapf(err, "process producer %v", cur.Name)
	}
	if interrupted {
		st.ElectedChangeInterrupted = true
		metricInterruptions().Add(1)
		logger.Info("producer changes interrupted", "producer", cur.Name, "backup", st.Queues.Backup.LastProducerCount)
	}
	return nil
}

// reinit rebuilds the windows, false if there are not enough valid producers.
func (e *Election) reinit(st *globalstats.State) (*changes.Proposed, bool, error) {
	proposed, ok, err := e.maintainer(st).Reinit(&st.Queues)
	if err != nil || !ok {
		return nil, ok, err
	}
	metricReinits().Add(1)
	return proposed, true, nil
}

// saveProducerChanges buffers the changes of an action. While interrupted the changes are
// dropped and a reinit is tried instead.
func (e *Election) saveProducerChanges(st *globalstats.State, out *changes.Proposed) error {
	if !st.IsInitialized() {
		return nil
	}
	if st.ElectedChangeInterrupted {
		proposed, ok, err := e.reinit(st)
		if err != nil {
			return err
		}
		if ok {
			st.ElectedSequence++
			st.ElectedChangeInterrupted = false
			logger.Info("producer changes recovered", "sequence", st.ElectedSequence)
			return e.appendChanges(st, proposed)
		}
		return nil
	}
	if out.IsEmpty() {
		return nil
	}
	return e.appendChanges(st, out)
}

func (e *Election) appendChanges(st *globalstats.State, p *changes.Proposed) error {
	st.LastElectedChangeID++
	rec := &changes.Record{
		ID:        st.LastElectedChangeID,
		Sequence:  st.ElectedSequence,
		Proposed:  p,
		CreatedAt: uint64(e.env.BlockContext().Timestamp),
	}
	if err := e.changes.Append(rec); err != nil {
		return err
	}
	metricChangeRecords().Add(1)
	metricChangeLogRows().Add(1)
	logger.Debug("producer changes saved", "id", rec.ID, "sequence", rec.Sequence, "main", p.Main.Len(), "backup", p.Backup.Len())
	return nil
}

// flushElectedChanges publishes buffered changes to the host in bounded batches.
func (e *Election) flushElectedChanges(st *globalstats.State) error {
	if e.env.SetProposedProducers(changes.NewProposed()) < 0 {
		logger.Debug("proposer set not settable")
		return nil
	}
	drained, err := e.changes.Drain(st.ElectedSequence, chain.MaxFlushElectedRows, chain.MinFlushElectedChanges)
	if err != nil {
		return err
	}
	if len(drained.IDs) == 0 {
		return nil
	}
	if !drained.Merged.IsEmpty() {
		if ret := e.env.SetProposedProducers(drained.Merged); ret < 0 {
			metricPublishDeferred().Add(1)
			logger.Warn("publish deferred", "rows", len(drained.IDs), "changes", drained.Merged.Size(), "ret", ret)
			return nil
		}
		metricPublishSize().Observe(int64(drained.Merged.Size()))
		metricPublishedCount().AddWithLabel(int64(drained.Merged.Main.Len()), map[string]string{"window": "main"})
		metricPublishedCount().AddWithLabel(int64(drained.Merged.Backup.Len()), map[string]string{"window": "backup"})
	}
	for _, id := range drained.IDs {
		if err := e.changes.Remove(id); err != nil {
			return err
		}
	}
	metricChangeLogRows().Add(-int64(len(drained.IDs)))
	logger.Info("producer changes flushed", "rows", len(drained.IDs), "changes", drained.Merged.Size(), "sequence", st.ElectedSequence)
	return nil
}
