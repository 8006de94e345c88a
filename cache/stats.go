// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"sync/atomic"

	"github.com/dposlab/bbpelect/metrics"
)

var metricLookups = metrics.LazyLoadCounterVec("cache_lookup_count", []string{"cache", "result"})

// Stats counts the lookups of a named cache. Counts are also exported as metrics.
type Stats struct {
	name      string
	hit, miss atomic.Int64
	permille  atomic.Int32
}

// Snapshot is the lookup counts at one point.
type Snapshot struct {
	Hit, Miss int64
}

// HitRate is zero before the first lookup.
func (s Snapshot) HitRate() float64 {
	if lookups := s.Hit + s.Miss; lookups > 0 {
		return float64(s.Hit) / float64(lookups)
	}
	return 0
}

func (cs *Stats) Hit() int64 {
	metricLookups().AddWithLabel(1, map[string]string{"cache": cs.name, "result": "hit"})
	return cs.hit.Add(1)
}

func (cs *Stats) Miss() int64 {
	metricLookups().AddWithLabel(1, map[string]string{"cache": cs.name, "result": "miss"})
	return cs.miss.Add(1)
}

// Stats returns the counts, and whether the hit rate moved by a permille or more
// since the previous call.
func (cs *Stats) Stats() (bool, Snapshot) {
	s := Snapshot{Hit: cs.hit.Load(), Miss: cs.miss.Load()}
	permille := int32(s.HitRate() * 1000)
	return cs.permille.Swap(permille) != permille, s
}
