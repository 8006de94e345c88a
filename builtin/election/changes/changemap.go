// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package changes

import (
	"io"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/reverts"
	"github.com/dposlab/bbpelect/chain"
)

// ChangeMap is the set of changes of one producer window.
// With ClearExisted set the host drops the window before applying the changes.
type ChangeMap struct {
	ClearExisted  bool
	ProducerCount uint32
	Changes       map[chain.Name]Op
}

func NewChangeMap() *ChangeMap {
	return &ChangeMap{Changes: make(map[chain.Name]Op)}
}

func (m *ChangeMap) Len() int { return len(m.Changes) }

func (m *ChangeMap) init() {
	if m.Changes == nil {
		m.Changes = make(map[chain.Name]Op)
	}
}

// Add records that name enters the window.
func (m *ChangeMap) Add(name chain.Name, auth chain.Authority) error {
	m.init()
	prev, ok := m.Changes[name]
	if !ok {
		m.Changes[name] = Add{auth}
		return nil
	}
	switch prev.(type) {
	case Del:
		m.Changes[name] = Modify{auth}
		return nil
	default:
		return reverts.Newf(reverts.Consistency, "add producer %v over a pending %v", name, prev.Kind())
	}
}

// Modify records a new authority of name.
func (m *ChangeMap) Modify(name chain.Name, auth chain.Authority) error {
	m.init()
	prev, ok := m.Changes[name]
	if !ok {
		m.Changes[name] = Modify{auth}
		return nil
	}
	switch prev.(type) {
	case Add:
		m.Changes[name] = Add{auth}
		return nil
	case Modify:
		m.Changes[name] = Modify{auth}
		return nil
	default:
		return reverts.Newf(reverts.Consistency, "modify producer %v over a pending %v", name, prev.Kind())
	}
}

// Del records that name leaves the window.
func (m *ChangeMap) Del(name chain.Name) error {
	m.init()
	prev, ok := m.Changes[name]
	if !ok {
		m.Changes[name] = Del{}
		return nil
	}
	switch prev.(type) {
	case Add:
		delete(m.Changes, name)
		return nil
	case Modify:
		m.Changes[name] = Del{}
		return nil
	default:
		return reverts.Newf(reverts.Consistency, "del producer %v over a pending %v", name, prev.Kind())
	}
}

// Apply coalesces op for name into m.
func (m *ChangeMap) Apply(name chain.Name, op Op) error {
	switch o := op.(type) {
	case Add:
		return m.Add(name, o.Authority)
	case Modify:
		return m.Modify(name, o.Authority)
	case Del:
		return m.Del(name)
	default:
		return errors.Errorf("unknown change op %T", op)
	}
}

// MergeInto merges m into dest. A clearing map replaces dest.
func (m *ChangeMap) MergeInto(dest *ChangeMap) error {
	if m.ClearExisted {
		*dest = *m.Copy()
		return nil
	}
	for _, name := range m.Names() {
		if err := dest.Apply(name, m.Changes[name]); err != nil {
			return err
		}
	}
	dest.ProducerCount = m.ProducerCount
	return nil
}

// Names returns the changed producers in name order.
func (m *ChangeMap) Names() []chain.Name {
	names := make([]chain.Name, 0, len(m.Changes))
	for name := range m.Changes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (m *ChangeMap) Copy() *ChangeMap {
	c := &ChangeMap{
		ClearExisted:  m.ClearExisted,
		ProducerCount: m.ProducerCount,
		Changes:       make(map[chain.Name]Op, len(m.Changes)),
	}
	for name, op := range m.Changes {
		if auth := authorityOf(op); auth != nil {
			op, _ = opOf(op.Kind(), auth.Copy())
		}
		c.Changes[name] = op
	}
	return c
}

type entry struct {
	Name      chain.Name
	Kind      Kind
	Authority chain.Authority
}

type changeMapRLP struct {
	ClearExisted  bool
	ProducerCount uint32
	Entries       []entry
}

// EncodeRLP implements rlp.Encoder, entries sorted by name.
func (m *ChangeMap) EncodeRLP(w io.Writer) error {
	obj := changeMapRLP{
		ClearExisted:  m.ClearExisted,
		ProducerCount: m.ProducerCount,
		Entries:       make([]entry, 0, len(m.Changes)),
	}
	for _, name := range m.Names() {
		op := m.Changes[name]
		e := entry{Name: name, Kind: op.Kind()}
		if auth := authorityOf(op); auth != nil {
			e.Authority = *auth
		}
		obj.Entries = append(obj.Entries, e)
	}
	return rlp.Encode(w, &obj)
}

// DecodeRLP implements rlp.Decoder.
func (m *ChangeMap) DecodeRLP(s *rlp.Stream) error {
	var obj changeMapRLP
	if err := s.Decode(&obj); err != nil {
		return err
	}
	*m = ChangeMap{
		ClearExisted:  obj.ClearExisted,
		ProducerCount: obj.ProducerCount,
		Changes:       make(map[chain.Name]Op, len(obj.Entries)),
	}
	for _, e := range obj.Entries {
		op, ok := opOf(e.Kind, e.Authority)
		if !ok {
			return errors.Errorf("invalid change kind %d of producer %v", e.Kind, e.Name)
		}
		m.Changes[e.Name] = op
	}
	return nil
}
