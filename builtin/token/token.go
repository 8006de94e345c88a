// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the fungible token ledger the election moves votes and rewards through.
package token

import (
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/builtin/tables"
	"github.com/dposlab/bbpelect/chain"
)

// Ledger moves and mints tokens.
type Ledger interface {
	Balance(owner chain.Name, sym chain.Symbol) (chain.Asset, error)
	Transfer(from, to chain.Name, quantity chain.Asset, memo string) error
	Issue(to chain.Name, quantity chain.Asset, memo string) error
}

// TransferHandler is notified of a transfer involving the account it was registered for.
type TransferHandler func(from, to chain.Name, quantity chain.Asset, memo string) error

type stat struct {
	Supply uint64
}

type balanceKey struct {
	owner chain.Name
	code  string
}

func (k balanceKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.code...)
}

type symbolKey string

func (k symbolKey) Bytes() []byte { return []byte(k) }

// Token is the kv backed ledger.
type Token struct {
	balances *tables.Mapping[balanceKey, uint64]
	stats    *tables.Mapping[symbolKey, *stat]
	handlers map[chain.Name][]TransferHandler
}

var _ Ledger = (*Token)(nil)

func New(ctx *tables.Context) *Token {
	return &Token{
		balances: tables.NewMapping[balanceKey, uint64](ctx, "balances"),
		stats:    tables.NewMapping[symbolKey, *stat](ctx, "tokenstats"),
		handlers: make(map[chain.Name][]TransferHandler),
	}
}

// OnNotify registers a handler for transfers from or to account.
func (t *Token) OnNotify(account chain.Name, h TransferHandler) {
	t.handlers[account] = append(t.handlers[account], h)
}

func checkQuantity(quantity chain.Asset) error {
	if !quantity.IsValid() {
		return reverts.New(reverts.Validation, "invalid quantity")
	}
	if quantity.Amount <= 0 {
		return reverts.New(reverts.Validation, "must transfer positive quantity")
	}
	return nil
}

func (t *Token) Balance(owner chain.Name, sym chain.Symbol) (chain.Asset, error) {
	amount, err := t.balances.Get(balanceKey{owner, sym.Code})
	if err != nil {
		return chain.Asset{}, err
	}
	return chain.NewAsset(int64(amount), sym), nil
}

// Supply returns the issued amount of the symbol.
func (t *Token) Supply(sym chain.Symbol) (chain.Asset, error) {
	st, err := t.stats.Get(symbolKey(sym.Code))
	if err != nil {
		return chain.Asset{}, err
	}
	if st == nil {
		return chain.NewAsset(0, sym), nil
	}
	return chain.NewAsset(int64(st.Supply), sym), nil
}

func (t *Token) add(owner chain.Name, quantity chain.Asset) error {
	key := balanceKey{owner, quantity.Symbol.Code}
	bal, err := t.balances.Get(key)
	if err != nil {
		return err
	}
	sum := bal + uint64(quantity.Amount)
	if sum > uint64(chain.MaxAssetAmount) {
		return reverts.New(reverts.Validation, "balance overflow")
	}
	return t.balances.Set(key, sum)
}

func (t *Token) sub(owner chain.Name, quantity chain.Asset) error {
	key := balanceKey{owner, quantity.Symbol.Code}
	bal, err := t.balances.Get(key)
	if err != nil {
		return err
	}
	if bal < uint64(quantity.Amount) {
		return reverts.Newf(reverts.Resource, "overdrawn balance: %v has %v", owner, chain.NewAsset(int64(bal), quantity.Symbol))
	}
	if bal == uint64(quantity.Amount) {
		return t.balances.Delete(key)
	}
	return t.balances.Set(key, bal-uint64(quantity.Amount))
}

func (t *Token) Transfer(from, to chain.Name, quantity chain.Asset, memo string) error {
	if from == to {
		return reverts.New(reverts.Validation, "cannot transfer to self")
	}
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	if len(memo) > 256 {
		return reverts.New(reverts.Validation, "memo has more than 256 bytes")
	}
	if err := t.sub(from, quantity); err != nil {
		return err
	}
	if err := t.add(to, quantity); err != nil {
		return err
	}
	return t.notify(from, to, quantity, memo)
}

// Issue mints quantity to the receiver.
func (t *Token) Issue(to chain.Name, quantity chain.Asset, memo string) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	st, err := t.stats.Get(symbolKey(quantity.Symbol.Code))
	if err != nil {
		return err
	}
	if st == nil {
		st = &stat{}
	}
	if st.Supply+uint64(quantity.Amount) > uint64(chain.MaxAssetAmount) {
		return reverts.New(reverts.Validation, "quantity exceeds available supply")
	}
	st.Supply += uint64(quantity.Amount)
	if err := t.stats.Set(symbolKey(quantity.Symbol.Code), st); err != nil {
		return err
	}
	return errors.WithMessage(t.add(to, quantity), "issue")
}

func (t *Token) notify(from, to chain.Name, quantity chain.Asset, memo string) error {
	for _, account := range []chain.Name{from, to} {
		for _, h := range t.handlers[account] {
			if err := h(from, to, quantity, memo); err != nil {
				return errors.WithMessagef(err, "notify %v", account)
			}
		}
	}
	return nil
}
