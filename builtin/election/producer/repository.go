// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package producer

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/builtin/tables"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/kv"
)

// Repository stores producers and keeps the electedprod index in ranking order.
type Repository struct {
	producers *tables.Mapping[chain.Name, *Producer]
	index     *tables.Index
}

func NewRepository(ctx *tables.Context) *Repository {
	return &Repository{
		producers: tables.NewMapping[chain.Name, *Producer](ctx, "producers"),
		index:     tables.NewIndex(ctx, "electedprod"),
	}
}

// Get returns the producer, nil if not registered.
func (r *Repository) Get(name chain.Name) (*Producer, error) {
	p, err := r.producers.Get(name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get producer")
	}
	return p, nil
}

// MustGet is Get failing with a validation revert when absent.
func (r *Repository) MustGet(name chain.Name) (*Producer, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, reverts.Newf(reverts.Validation, "producer %v is not registered", name)
	}
	return p, nil
}

// Create stores a new producer and ranks it.
func (r *Repository) Create(p *Producer) error {
	info := p.ElectedInfo()
	key := info.SortKey()
	if err := r.index.Put(key[:], p.Owner.Bytes()); err != nil {
		return err
	}
	return errors.Wrap(r.producers.Set(p.Owner, p), "failed to create producer")
}

// Update stores p whose ranking info was old before the change, re-ranking it if needed.
func (r *Repository) Update(p *Producer, old *ElectedInfo) error {
	info := p.ElectedInfo()
	if oldKey, newKey := old.SortKey(), info.SortKey(); oldKey != newKey {
		if err := r.index.Delete(oldKey[:]); err != nil {
			return err
		}
		if err := r.index.Put(newKey[:], p.Owner.Bytes()); err != nil {
			return err
		}
	}
	return errors.Wrap(r.producers.Set(p.Owner, p), "failed to update producer")
}

// Iterate visits producers in name order.
func (r *Repository) Iterate(fn func(*Producer) (bool, error)) error {
	return r.producers.Iterate(nil, func(_ []byte, p *Producer) (bool, error) {
		return fn(p)
	})
}

// Cursor walks the electedprod index in ranking order.
func (r *Repository) Cursor() *Cursor {
	return &Cursor{repo: r, it: r.index.Iterator()}
}

type Cursor struct {
	repo *Repository
	it   kv.Iterator
}

func (c *Cursor) load(ok bool) (ElectedInfo, bool, error) {
	if !ok {
		return ElectedInfo{}, false, c.it.Error()
	}
	val := c.it.Value()
	if len(val) != 8 {
		return ElectedInfo{}, false, reverts.Newf(reverts.Consistency, "malformed electedprod entry %x", c.it.Key())
	}
	name := chain.Name(binary.BigEndian.Uint64(val))
	p, err := c.repo.Get(name)
	if err != nil {
		return ElectedInfo{}, false, err
	}
	if p == nil {
		return ElectedInfo{}, false, reverts.Newf(reverts.Consistency, "electedprod entry of unknown producer %v", name)
	}
	info := p.ElectedInfo()
	if key := info.SortKey(); string(key[:]) != string(c.it.Key()) {
		return ElectedInfo{}, false, reverts.Newf(reverts.Consistency, "stale electedprod entry of producer %v", name)
	}
	return info, true, nil
}

// First moves to the highest ranked producer.
func (c *Cursor) First() (ElectedInfo, bool, error) { return c.load(c.it.First()) }

// Seek moves to the first producer ranked at or below key.
func (c *Cursor) Seek(key SortKey) (ElectedInfo, bool, error) { return c.load(c.it.Seek(key[:])) }

// Next moves one rank down.
func (c *Cursor) Next() (ElectedInfo, bool, error) { return c.load(c.it.Next()) }

// Prev moves one rank up.
func (c *Cursor) Prev() (ElectedInfo, bool, error) { return c.load(c.it.Prev()) }

func (c *Cursor) Release() { c.it.Release() }
