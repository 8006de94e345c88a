// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"context"
	"sync"
	"time"

	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/proposer"
	"github.com/dposlab/bbpelect/runtime"
)

type BlockIngestion struct {
	Timestamp  time.Time  `json:"timestamp"`
	Slot       uint32     `json:"slot"`
	ReceivedAt *time.Time `json:"receivedAt"`
}

type Proposers struct {
	Version int64  `json:"version"`
	Pending bool   `json:"pending"`
	Error   string `json:"error,omitempty"`
}

type Status struct {
	Healthy        bool            `json:"healthy"`
	BlockIngestion *BlockIngestion `json:"blockIngestion"`
	RuntimeVersion uint64          `json:"runtimeVersion"`
	Proposers      *Proposers      `json:"proposers,omitempty"`
}

// Health watches the runtime for new blocks. It is healthy while blocks keep coming
// and the proposer set accepts the published schedules.
type Health struct {
	lock       sync.RWMutex
	rt         *runtime.Runtime
	proposers  *proposer.Set
	maxIdle    time.Duration
	lastBlock  chain.BlockTimestamp
	receivedAt time.Time
}

func New(rt *runtime.Runtime, proposers *proposer.Set, maxIdle time.Duration) *Health {
	return &Health{rt: rt, proposers: proposers, maxIdle: maxIdle}
}

// Run polls the runtime until ctx is done.
func (h *Health) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	h.observe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.observe()
		}
	}
}

func (h *Health) observe() {
	ts := h.rt.Block().Timestamp

	h.lock.Lock()
	defer h.lock.Unlock()
	if ts != h.lastBlock {
		h.lastBlock = ts
		h.receivedAt = time.Now()
	}
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	st := &Status{
		BlockIngestion: &BlockIngestion{Timestamp: h.lastBlock.Time(), Slot: h.lastBlock.Slot()},
		RuntimeVersion: h.rt.Version(),
	}
	if !h.receivedAt.IsZero() {
		at := h.receivedAt
		st.BlockIngestion.ReceivedAt = &at
		st.Healthy = time.Since(at) <= h.maxIdle
	}
	if h.proposers != nil {
		st.Proposers = &Proposers{Version: h.proposers.Version(), Pending: h.proposers.Pending()}
		if err := h.proposers.Err(); err != nil {
			st.Proposers.Error = err.Error()
			st.Healthy = false
		}
	}
	return st
}
