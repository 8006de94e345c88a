// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package queue maintains the main and backup producer windows over the ranked
// producer index.
//
// With L the ranked producers, E the number of valid ones, K the main size and
// M the backup capacity, the backup size is c = min(M, E-K) and S = K+c.
// The main window is L[0:K] and the backup window L[K:S]. Each window only keeps
// its tail with both neighbours, so one vote change is handled by a few index
// seeks around the tails.
package queue

import (
	"github.com/dposlab/bbpelect/builtin/election/producer"
	"github.com/dposlab/bbpelect/log"
)

var logger = log.WithContext("pkg", "queue")

// ElectedQueue is the tail of one producer window.
type ElectedQueue struct {
	LastProducerCount uint32
	TailPrev          producer.ElectedInfo
	Tail              producer.ElectedInfo
	TailNext          producer.ElectedInfo // may be invalid or empty
}

// Queues are both producer windows.
type Queues struct {
	Main   ElectedQueue
	Backup ElectedQueue
}

type Params struct {
	MaxMain   uint32
	MaxBackup uint32
	MinBackup uint32
	MinVotes  uint64
}

// MinProducerCount is the number of valid producers needed to fill both windows.
func (p Params) MinProducerCount() uint32 {
	return p.MaxMain + p.MinBackup
}
