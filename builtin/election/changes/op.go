// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package changes holds the producer changes proposed to the host, their coalescing rules
// and the log buffering them until they are published.
package changes

import (
	"github.com/dposlab/bbpelect/chain"
)

// Kind tags an Op on the wire.
type Kind uint8

const (
	KindAdd Kind = iota + 1
	KindModify
	KindDel
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindModify:
		return "modify"
	case KindDel:
		return "del"
	default:
		return "unknown"
	}
}

// Op is one change of a producer: Add, Modify or Del.
type Op interface {
	Kind() Kind
	isOp()
}

// Add adds the producer with its signing authority.
type Add struct{ Authority chain.Authority }

// Modify replaces the signing authority of a listed producer.
type Modify struct{ Authority chain.Authority }

// Del removes the producer.
type Del struct{}

func (Add) Kind() Kind    { return KindAdd }
func (Modify) Kind() Kind { return KindModify }
func (Del) Kind() Kind    { return KindDel }

func (Add) isOp()    {}
func (Modify) isOp() {}
func (Del) isOp()    {}

func authorityOf(op Op) *chain.Authority {
	switch o := op.(type) {
	case Add:
		return &o.Authority
	case Modify:
		return &o.Authority
	default:
		return nil
	}
}

func opOf(kind Kind, auth chain.Authority) (Op, bool) {
	switch kind {
	case KindAdd:
		return Add{auth}, true
	case KindModify:
		return Modify{auth}, true
	case KindDel:
		return Del{}, true
	default:
		return nil, false
	}
}
