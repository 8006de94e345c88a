// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"slices"

	"github.com/dposlab/bbpelect/builtin/election/changes"
	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/chain"
)

// BackupProducer is the backup producer credited in the previous block.
type BackupProducer struct {
	Producer     chain.Name
	Contribution uint32 // of chain.RatioBoost
}

// BlockContext block context.
type BlockContext struct {
	Timestamp      chain.BlockTimestamp
	Producer       chain.Name
	IsBackup       bool
	PreviousBackup *BackupProducer
}

// TransactionContext transaction context.
type TransactionContext struct {
	ID          uint64
	Authorizers []chain.Name
}

// ProposerSet is the host api taking proposed producer changes.
// A negative result means the host cannot take changes now.
type ProposerSet interface {
	SetProposedProducers(p *changes.Proposed) int64
}

// Environment an env to execute one action.
type Environment struct {
	blockCtx  *BlockContext
	txCtx     *TransactionContext
	proposers ProposerSet
	usage     *uint64
}

// New create a new env.
func New(blockCtx *BlockContext, txCtx *TransactionContext, proposers ProposerSet) *Environment {
	return &Environment{
		blockCtx:  blockCtx,
		txCtx:     txCtx,
		proposers: proposers,
		usage:     new(uint64),
	}
}

func (env *Environment) TransactionContext() *TransactionContext { return env.txCtx }
func (env *Environment) BlockContext() *BlockContext             { return env.blockCtx }

// Now returns the block time in unix seconds.
func (env *Environment) Now() uint64 {
	return env.blockCtx.Timestamp.Unix()
}

func (env *Environment) HasAuth(account chain.Name) bool {
	return slices.Contains(env.txCtx.Authorizers, account)
}

// RequireAuth fails unless account authorized the action.
func (env *Environment) RequireAuth(account chain.Name) error {
	if !env.HasAuth(account) {
		return reverts.Newf(reverts.Auth, "missing authority of %v", account)
	}
	return nil
}

// Inline returns an env sharing this one with accounts authorizing too, as when a
// contract sends an action under its own permission.
func (env *Environment) Inline(accounts ...chain.Name) *Environment {
	ctx := *env.txCtx
	ctx.Authorizers = append(slices.Clone(env.txCtx.Authorizers), accounts...)
	inline := *env
	inline.txCtx = &ctx
	return &inline
}

// UseStorage charges stored bytes to the action.
func (env *Environment) UseStorage(bytes uint64) {
	*env.usage += bytes
}

// StorageUsed returns the bytes charged so far, including inline actions.
func (env *Environment) StorageUsed() uint64 {
	return *env.usage
}

// SetProposedProducers hands changes to the host, -1 without a host.
func (env *Environment) SetProposedProducers(p *changes.Proposed) int64 {
	if env.proposers == nil {
		return -1
	}
	return env.proposers.SetProposedProducers(p)
}
