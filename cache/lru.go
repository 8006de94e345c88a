// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import lru "github.com/hashicorp/golang-lru"

// LRU a LRU cache extends golang-lru with loading and hit statistics.
type LRU struct {
	cache *lru.Cache
	stats Stats
}

// NewLRU create a LRU cache instance. name labels its lookup metrics.
// maxSize should be > 0, or an error returned.
func NewLRU(name string, maxSize int) (*LRU, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: cache, stats: Stats{name: name}}, nil
}

// Loader defines loader to load value.
type Loader func(key any) (any, error)

// GetOrLoad first try to get from cache, do load if missed.
// Failed loads are not cached.
func (l *LRU) GetOrLoad(key any, loader Loader) (any, error) {
	if v, ok := l.cache.Get(key); ok {
		l.stats.Hit()
		return v, nil
	}
	l.stats.Miss()
	v, err := loader(key)
	if err != nil {
		return nil, err
	}

	l.cache.Add(key, v)
	return v, nil
}

// Len returns the number of cached entries.
func (l *LRU) Len() int { return l.cache.Len() }

// Purge drops every entry.
func (l *LRU) Purge() { l.cache.Purge() }

// Stats returns whether the hit rate moved since the last call, with the lookup counts.
func (l *LRU) Stats() (bool, Snapshot) { return l.stats.Stats() }
