// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin binds the builtin contracts to the store and environment of an action.
package builtin

import (
	"github.com/dposlab/bbpelect/builtin/election"
	"github.com/dposlab/bbpelect/builtin/reward"
	"github.com/dposlab/bbpelect/builtin/tables"
	"github.com/dposlab/bbpelect/builtin/token"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/kv"
	"github.com/dposlab/bbpelect/xenv"
)

// Contracts are the builtin contracts of one action.
type Contracts struct {
	Env      *xenv.Environment
	Token    *token.Token
	Reward   *reward.Distributor
	Election *election.Election
}

// Bind creates the contracts over store. Stored bytes are charged to env.
func Bind(accounts chain.Accounts, store kv.Store, env *xenv.Environment) *Contracts {
	ctx := tables.NewContext(store, env.UseStorage)
	tk := token.New(ctx)
	dist := reward.New(ctx, accounts, tk)
	tk.OnNotify(accounts.Reward, dist.OnTransfer)
	return &Contracts{
		Env:      env,
		Token:    tk,
		Reward:   dist,
		Election: election.New(env, ctx, accounts, tk, dist),
	}
}
