// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package changes

import (
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/tables"
)

// Record is one buffered change set.
type Record struct {
	ID        uint64
	Sequence  uint64 // elected sequence the changes apply to
	Proposed  *Proposed
	CreatedAt uint64 // block slot
}

// Log buffers change records until they are published.
type Log struct {
	records *tables.Log[*Record]
}

func NewLog(ctx *tables.Context) *Log {
	return &Log{records: tables.NewLog[*Record](ctx, "elchanges")}
}

func (l *Log) Append(r *Record) error {
	return errors.Wrap(l.records.Append(r.ID, r), "failed to append change record")
}

func (l *Log) Remove(id uint64) error {
	return errors.Wrap(l.records.Remove(id), "failed to remove change record")
}

// Scan visits records oldest first until fn returns false or an error.
func (l *Log) Scan(fn func(*Record) (bool, error)) error {
	return l.records.Scan(func(_ uint64, r *Record) (bool, error) {
		return fn(r)
	})
}

func (l *Log) Len() (int, error) {
	return l.records.Len()
}

// Drained is the outcome of Drain.
type Drained struct {
	Merged *Proposed
	IDs    []uint64 // every visited row, including stale sequences
}

// Drain merges the records of sequence oldest first, stopping once maxRows rows were
// visited or the merged set reached minChanges. Rows of other sequences are skipped
// but still counted and reported.
func (l *Log) Drain(sequence uint64, maxRows, minChanges int) (*Drained, error) {
	d := &Drained{Merged: NewProposed()}
	err := l.Scan(func(r *Record) (bool, error) {
		if len(d.IDs) >= maxRows || d.Merged.Size() >= minChanges {
			return false, nil
		}
		d.IDs = append(d.IDs, r.ID)
		if r.Sequence == sequence {
			if err := r.Proposed.MergeInto(d.Merged); err != nil {
				return false, errors.Wrapf(err, "merge change record %d", r.ID)
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}
