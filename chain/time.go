// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"time"
)

const (
	// BlockIntervalMs is the block production interval.
	BlockIntervalMs = 500
	// BlockTimestampEpochMs is 2000-01-01T00:00:00Z in unix milliseconds.
	BlockTimestampEpochMs = 946684800000
)

// BlockTimestamp counts block slots since the block timestamp epoch.
type BlockTimestamp uint32

// NewBlockTimestamp returns the slot containing t.
func NewBlockTimestamp(t time.Time) BlockTimestamp {
	ms := t.UnixMilli() - BlockTimestampEpochMs
	if ms < 0 {
		return 0
	}
	return BlockTimestamp(ms / BlockIntervalMs)
}

// Slot returns the slot number.
func (b BlockTimestamp) Slot() uint32 {
	return uint32(b)
}

// Time returns the start time of the slot.
func (b BlockTimestamp) Time() time.Time {
	return time.UnixMilli(int64(b)*BlockIntervalMs + BlockTimestampEpochMs).UTC()
}

// Unix returns the slot start in unix seconds.
func (b BlockTimestamp) Unix() uint64 {
	return uint64(b.Time().Unix())
}

// Next returns the following slot.
func (b BlockTimestamp) Next() BlockTimestamp {
	return b + 1
}
