// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes contract actions one at a time, each in its own store transaction.
package runtime

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin"
	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/kv"
	"github.com/dposlab/bbpelect/log"
	"github.com/dposlab/bbpelect/metrics"
	"github.com/dposlab/bbpelect/xenv"
)

var (
	logger = log.WithContext("pkg", "runtime")

	metricActionCount    = metrics.LazyLoadCounterVec("runtime_action_count", []string{"action", "result"})
	metricActionDuration = metrics.LazyLoadHistogram("runtime_action_duration_ms", metrics.BucketMillis)
	metricStorageUsed    = metrics.LazyLoadCounter("runtime_storage_bytes")
)

// Action is one contract call authorized by signers.
type Action struct {
	Name    string
	Signers []chain.Name
	Do      func(c *builtin.Contracts) error
}

// Receipt is the outcome of an executed action.
type Receipt struct {
	TxID        uint64
	StorageUsed uint64
}

// Runtime is the single writer of the store.
type Runtime struct {
	lock      sync.Mutex
	store     kv.TxStore
	accounts  chain.Accounts
	proposers xenv.ProposerSet

	block   xenv.BlockContext
	txID    uint64
	version uint64
}

// New create a Runtime object.
func New(store kv.TxStore, accounts chain.Accounts, proposers xenv.ProposerSet) *Runtime {
	return &Runtime{
		store:     store,
		accounts:  accounts,
		proposers: proposers,
	}
}

func (rt *Runtime) Accounts() chain.Accounts { return rt.accounts }

// Block returns the context of the current block.
func (rt *Runtime) Block() xenv.BlockContext {
	rt.lock.Lock()
	defer rt.lock.Unlock()
	return rt.block
}

// Version counts the committed actions.
func (rt *Runtime) Version() uint64 {
	rt.lock.Lock()
	defer rt.lock.Unlock()
	return rt.version
}

// Execute runs a in a store transaction, committed only if a succeeds.
func (rt *Runtime) Execute(ctx context.Context, a Action) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rt.lock.Lock()
	defer rt.lock.Unlock()
	return rt.execute(a)
}

func (rt *Runtime) execute(a Action) (*Receipt, error) {
	start := time.Now()
	tx, err := rt.store.Transaction()
	if err != nil {
		return nil, errors.Wrap(err, "open transaction")
	}

	rt.txID++
	blk := rt.block
	env := xenv.New(&blk, &xenv.TransactionContext{ID: rt.txID, Authorizers: slices.Clone(a.Signers)}, rt.proposers)
	if err := a.Do(builtin.Bind(rt.accounts, tx, env)); err != nil {
		tx.Discard()
		result := "error"
		if reverts.IsRevertErr(err) {
			result = reverts.KindOf(err).String()
		}
		metricActionCount().AddWithLabel(1, map[string]string{"action": a.Name, "result": result})
		logger.Debug("action reverted", "action", a.Name, "tx", rt.txID, "err", err)
		return nil, errors.WithMessage(err, a.Name)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	rt.version++

	metricActionCount().AddWithLabel(1, map[string]string{"action": a.Name, "result": "ok"})
	metricActionDuration().Observe(time.Since(start).Milliseconds())
	metricStorageUsed().Add(int64(env.StorageUsed()))
	logger.Trace("action executed", "action", a.Name, "tx", rt.txID, "storage", env.StorageUsed())
	return &Receipt{TxID: rt.txID, StorageUsed: env.StorageUsed()}, nil
}

// NextBlock moves to blk and runs the block action of the system account.
func (rt *Runtime) NextBlock(ctx context.Context, blk xenv.BlockContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rt.lock.Lock()
	defer rt.lock.Unlock()
	if blk.Timestamp <= rt.block.Timestamp {
		return errors.Errorf("block timestamp %d not after %d", blk.Timestamp, rt.block.Timestamp)
	}
	rt.block = blk
	_, err := rt.execute(Action{
		Name:    "onblock",
		Signers: []chain.Name{rt.accounts.System},
		Do:      func(c *builtin.Contracts) error { return c.Election.OnBlock() },
	})
	return err
}

// View runs fn on a read-only snapshot. It does not block the writer.
func (rt *Runtime) View(fn func(c *builtin.Contracts) error) error {
	snapshot, err := rt.store.Snapshot()
	if err != nil {
		return errors.Wrap(err, "snapshot")
	}
	defer snapshot.Release()

	blk := rt.Block()
	env := xenv.New(&blk, &xenv.TransactionContext{}, nil)
	return fn(builtin.Bind(rt.accounts, kv.ReadOnly(snapshot), env))
}
