// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package queue

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/election/changes"
	"github.com/dposlab/bbpelect/builtin/election/producer"
	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/chain"
)

// Maintainer keeps Queues in step with the producer index.
type Maintainer struct {
	index  *producer.Repository
	params Params
}

func NewMaintainer(index *producer.Repository, params Params) *Maintainer {
	return &Maintainer{index: index, params: params}
}

func (m *Maintainer) Params() Params { return m.params }

// Reinit rebuilds both windows from the top of the index and returns clearing change maps
// listing every member. It returns false, leaving q untouched, when there are not enough
// valid producers.
func (m *Maintainer) Reinit(q *Queues) (*changes.Proposed, bool, error) {
	var (
		k     = int(m.params.MaxMain)
		limit = k + int(m.params.MaxBackup) + 1
		valid []producer.ElectedInfo
		stop  producer.ElectedInfo
	)
	cur := m.index.Cursor()
	defer cur.Release()
	for info, ok, err := cur.First(); ; info, ok, err = cur.Next() {
		if err != nil {
			return nil, false, err
		}
		if !ok {
			break
		}
		if !info.Valid(m.params.MinVotes) {
			stop = info
			break
		}
		valid = append(valid, info)
		if len(valid) == limit {
			break
		}
	}
	if len(valid) < int(m.params.MinProducerCount())+1 {
		logger.Debug("not enough valid producers to reinit", "valid", len(valid), "required", m.params.MinProducerCount()+1)
		return nil, false, nil
	}

	c := min(int(m.params.MaxBackup), len(valid)-k)
	s := k + c
	q.Main = ElectedQueue{
		LastProducerCount: uint32(k),
		TailPrev:          valid[k-2],
		Tail:              valid[k-1],
		TailNext:          valid[k],
	}
	q.Backup = ElectedQueue{
		LastProducerCount: uint32(c),
		TailPrev:          valid[s-2],
		Tail:              valid[s-1],
		TailNext:          stop,
	}
	if s < len(valid) {
		q.Backup.TailNext = valid[s]
	}

	out := changes.NewProposed()
	out.Main.ClearExisted, out.Main.ProducerCount = true, uint32(k)
	out.Backup.ClearExisted, out.Backup.ProducerCount = true, uint32(c)
	for i, info := range valid[:s] {
		window := out.Main
		if i >= k {
			window = out.Backup
		}
		if err := window.Add(info.Name, info.Authority.Copy()); err != nil {
			return nil, false, err
		}
	}
	logger.Debug("queues reinitialized", "main", k, "backup", c, "tail", q.Backup.Tail.Name)
	return out, true, nil
}

// Process repositions one producer whose ranking info changed from old to cur and adds
// the resulting window changes to out. old is nil for a producer new to the index.
// The index must already hold cur. It returns true, leaving q untouched, when the backup
// window would drop below its minimum size.
func (m *Maintainer) Process(q *Queues, old, cur *producer.ElectedInfo, out *changes.Proposed) (bool, error) {
	backupCount, ok := m.nextBackupCount(q, old, cur)
	if !ok {
		logger.Debug("backup window underflow", "producer", cur.Name, "backup", q.Backup.LastProducerCount)
		return true, nil
	}
	k := m.params.MaxMain

	var (
		next Queues
		err  error
	)
	if next.Main, err = m.relocateTail(&q.Main, k, k, old, cur); err != nil {
		return false, errors.Wrap(err, "relocate main tail")
	}
	if next.Backup, err = m.relocateTail(&q.Backup, k+q.Backup.LastProducerCount, k+backupCount, old, cur); err != nil {
		return false, errors.Wrap(err, "relocate backup tail")
	}
	next.Main.LastProducerCount = k
	next.Backup.LastProducerCount = backupCount

	if err := diffMembership(q, &next, old, cur, out); err != nil {
		return false, err
	}
	out.Main.ProducerCount = k
	out.Backup.ProducerCount = backupCount
	*q = next
	return false, nil
}

// nextBackupCount derives the backup size after the validity of one producer changed.
func (m *Maintainer) nextBackupCount(q *Queues, old, cur *producer.ElectedInfo) (uint32, bool) {
	var dv int64
	if old.Valid(m.params.MinVotes) {
		dv--
	}
	if cur.Valid(m.params.MinVotes) {
		dv++
	}
	count, capacity := int64(q.Backup.LastProducerCount), int64(m.params.MaxBackup)
	switch {
	case count < capacity:
		count = min(capacity, count+dv)
	case dv < 0 && !q.Backup.TailNext.Valid(m.params.MinVotes):
		// full window, only shrinks if nothing valid follows the tail
		count--
	}
	if count < int64(m.params.MinBackup) {
		return 0, false
	}
	return uint32(count), true
}

// relocateTail finds the tail of a window growing from n to newN ranked producers.
// It anchors on an old marker other than the moved producer, derives the anchor's new
// rank from where the producer left and entered, and walks the index to the new tail.
func (m *Maintainer) relocateTail(q *ElectedQueue, n, newN uint32, old, cur *producer.ElectedInfo) (ElectedQueue, error) {
	anchor, rank := q.Tail, int64(n)-1
	if anchor.Name == cur.Name {
		anchor, rank = q.TailPrev, rank-1
	}
	key := anchor.SortKey()
	if old != nil && old.SortKey().Compare(key) < 0 {
		rank--
	}
	if k := cur.SortKey(); k.Compare(key) < 0 {
		rank++
	}
	steps := int64(newN) - 1 - rank

	it := m.index.Cursor()
	defer it.Release()

	info, ok, err := it.Seek(key)
	if err != nil {
		return ElectedQueue{}, err
	}
	if !ok || info.Name != anchor.Name {
		return ElectedQueue{}, reverts.Newf(reverts.Consistency, "queue marker %v not found in the index", anchor.Name)
	}
	for steps != 0 {
		if steps > 0 {
			info, ok, err = it.Next()
			steps--
		} else {
			info, ok, err = it.Prev()
			steps++
		}
		if err != nil {
			return ElectedQueue{}, err
		}
		if !ok {
			return ElectedQueue{}, reverts.Newf(reverts.Consistency, "index ended walking from queue marker %v", anchor.Name)
		}
	}
	return m.markersAround(it, info)
}

func (m *Maintainer) markersAround(it *producer.Cursor, tail producer.ElectedInfo) (ElectedQueue, error) {
	if !tail.Valid(m.params.MinVotes) {
		return ElectedQueue{}, reverts.Newf(reverts.Consistency, "queue tail %v is not a valid producer", tail.Name)
	}
	q := ElectedQueue{Tail: tail}
	prev, ok, err := it.Prev()
	if err != nil {
		return ElectedQueue{}, err
	}
	if !ok {
		return ElectedQueue{}, reverts.Newf(reverts.Consistency, "queue tail %v has no predecessor", tail.Name)
	}
	q.TailPrev = prev

	if _, ok, err := it.Seek(tail.SortKey()); err != nil {
		return ElectedQueue{}, err
	} else if !ok {
		return ElectedQueue{}, reverts.Newf(reverts.Consistency, "queue tail %v vanished from the index", tail.Name)
	}
	next, ok, err := it.Next()
	if err != nil {
		return ElectedQueue{}, err
	}
	if ok {
		q.TailNext = next
	}
	return q, nil
}

type region int8

const (
	outside region = iota
	inMain
	inBackup
)

func regionOf(q *Queues, key producer.SortKey) region {
	switch {
	case key.Compare(q.Main.Tail.SortKey()) <= 0:
		return inMain
	case key.Compare(q.Backup.Tail.SortKey()) <= 0:
		return inBackup
	default:
		return outside
	}
}

// diffMembership emits the window changes between prev and next. Besides the moved
// producer only producers next to a tail can change window.
func diffMembership(prev, next *Queues, old, cur *producer.ElectedInfo, out *changes.Proposed) error {
	candidates := make(map[chain.Name]producer.ElectedInfo)
	for _, q := range []*Queues{prev, next} {
		for _, info := range []producer.ElectedInfo{
			q.Main.TailPrev, q.Main.Tail, q.Main.TailNext,
			q.Backup.TailPrev, q.Backup.Tail, q.Backup.TailNext,
		} {
			if !info.IsEmpty() && info.Name != cur.Name {
				candidates[info.Name] = info
			}
		}
	}
	names := make([]chain.Name, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	slices.Sort(names)

	window := func(r region) *changes.ChangeMap {
		if r == inMain {
			return out.Main
		}
		return out.Backup
	}
	move := func(name chain.Name, from, to region, auth *chain.Authority) error {
		if from != outside {
			if err := window(from).Del(name); err != nil {
				return err
			}
		}
		if to != outside {
			return window(to).Add(name, auth.Copy())
		}
		return nil
	}

	for _, name := range names {
		info := candidates[name]
		key := info.SortKey()
		if from, to := regionOf(prev, key), regionOf(next, key); from != to {
			if err := move(name, from, to, &info.Authority); err != nil {
				return err
			}
		}
	}

	from, to := outside, regionOf(next, cur.SortKey())
	if old != nil {
		from = regionOf(prev, old.SortKey())
	}
	switch {
	case from != to:
		return move(cur.Name, from, to, &cur.Authority)
	case from != outside && !old.Authority.Equal(&cur.Authority):
		return window(from).Modify(cur.Name, cur.Authority.Copy())
	}
	return nil
}

// Check verifies the markers of both windows against the index.
func (m *Maintainer) Check(q *Queues) error {
	if q.Main.LastProducerCount != m.params.MaxMain {
		return reverts.Newf(reverts.Consistency, "main window holds %d producers", q.Main.LastProducerCount)
	}
	if c := q.Backup.LastProducerCount; c < m.params.MinBackup || c > m.params.MaxBackup {
		return reverts.Newf(reverts.Consistency, "backup window holds %d producers", c)
	}
	if !q.Main.Tail.Before(&q.Backup.Tail) {
		return reverts.New(reverts.Consistency, "backup tail ranks above the main tail")
	}
	if !q.Main.TailNext.Valid(m.params.MinVotes) {
		return reverts.New(reverts.Consistency, "backup head is not a valid producer")
	}
	for _, w := range []struct {
		name string
		q    *ElectedQueue
	}{{"main", &q.Main}, {"backup", &q.Backup}} {
		if err := m.checkQueue(w.q); err != nil {
			return errors.Wrapf(err, "%s queue", w.name)
		}
	}
	return nil
}

func (m *Maintainer) checkQueue(q *ElectedQueue) error {
	if !q.TailPrev.Before(&q.Tail) {
		return reverts.Newf(reverts.Consistency, "tail %v not after %v", q.Tail.Name, q.TailPrev.Name)
	}
	if !q.TailNext.IsEmpty() && !q.Tail.Before(&q.TailNext) {
		return reverts.Newf(reverts.Consistency, "tail %v not before %v", q.Tail.Name, q.TailNext.Name)
	}
	it := m.index.Cursor()
	defer it.Release()
	tail, ok, err := it.Seek(q.Tail.SortKey())
	if err != nil {
		return err
	}
	if !ok || !sameInfo(&tail, &q.Tail) {
		return reverts.Newf(reverts.Consistency, "stale tail %v", q.Tail.Name)
	}
	if !tail.Valid(m.params.MinVotes) {
		return reverts.Newf(reverts.Consistency, "tail %v is not valid", q.Tail.Name)
	}
	if prev, ok, err := it.Prev(); err != nil || !ok || !sameInfo(&prev, &q.TailPrev) {
		return reverts.Newf(reverts.Consistency, "stale tail predecessor %v", q.TailPrev.Name)
	}
	if _, _, err := it.Seek(q.Tail.SortKey()); err != nil {
		return err
	}
	next, _, err := it.Next()
	if err != nil {
		return err
	}
	if !sameInfo(&next, &q.TailNext) {
		return reverts.Newf(reverts.Consistency, "stale tail successor %v", q.TailNext.Name)
	}
	return nil
}

func sameInfo(a, b *producer.ElectedInfo) bool {
	return a.Name == b.Name && a.SortKey() == b.SortKey() && a.Authority.Equal(&b.Authority)
}
