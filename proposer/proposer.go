// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package proposer simulates the host side of the proposer set: it applies the published
// producer changes and refuses new ones while the previous proposal is pending.
package proposer

import (
	"slices"
	"sync"

	"github.com/pkg/errors"

	"github.com/dposlab/bbpelect/builtin/election/changes"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/log"
)

var logger = log.WithContext("pkg", "proposer")

// Archive keeps published change sets.
type Archive interface {
	Save(version int64, p *changes.Proposed) error
}

// Window is one published producer window.
type Window struct {
	Count     uint32
	Producers map[chain.Name]chain.Authority
}

func newWindow() Window {
	return Window{Producers: make(map[chain.Name]chain.Authority)}
}

// Names returns the window members in name order.
func (w *Window) Names() []chain.Name {
	names := make([]chain.Name, 0, len(w.Producers))
	for name := range w.Producers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (w *Window) copy() Window {
	c := Window{Count: w.Count, Producers: make(map[chain.Name]chain.Authority, len(w.Producers))}
	for name, auth := range w.Producers {
		c.Producers[name] = auth.Copy()
	}
	return c
}

// apply replays m on w. Ops not matching the membership of w are errors.
func (w *Window) apply(m *changes.ChangeMap) error {
	if m.ClearExisted {
		w.Producers = make(map[chain.Name]chain.Authority, len(m.Changes))
	}
	for _, name := range m.Names() {
		_, exists := w.Producers[name]
		switch op := m.Changes[name].(type) {
		case changes.Add:
			if exists {
				return errors.Errorf("add existing producer %v", name)
			}
			w.Producers[name] = op.Authority.Copy()
		case changes.Modify:
			if !exists {
				return errors.Errorf("modify unknown producer %v", name)
			}
			w.Producers[name] = op.Authority.Copy()
		case changes.Del:
			if !exists {
				return errors.Errorf("delete unknown producer %v", name)
			}
			delete(w.Producers, name)
		}
	}
	if m.ClearExisted || m.Len() > 0 {
		if len(w.Producers) != int(m.ProducerCount) {
			return errors.Errorf("window has %d producers, want %d", len(w.Producers), m.ProducerCount)
		}
		w.Count = m.ProducerCount
	}
	return nil
}

// Set is the simulated proposer set.
type Set struct {
	lock    sync.Mutex
	delay   uint32
	pending uint32
	version int64
	main    Window
	backup  Window
	archive Archive
	err     error
}

// New creates an empty set. A published proposal stays pending for delay blocks.
func New(delay uint32) *Set {
	return &Set{delay: delay, main: newWindow(), backup: newWindow()}
}

// SetArchive installs the archive of published change sets.
func (s *Set) SetArchive(a Archive) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.archive = a
}

// SetProposedProducers applies p and returns the new version. It returns -1 while the
// previous proposal is pending or after a change failed to apply. An empty p only probes.
func (s *Set) SetProposedProducers(p *changes.Proposed) int64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.err != nil || s.pending > 0 {
		return -1
	}
	if p.IsEmpty() {
		return s.version
	}

	main, backup := s.main.copy(), s.backup.copy()
	if err := main.apply(p.Main); err != nil {
		s.err = errors.Wrap(err, "main window")
	} else if err := backup.apply(p.Backup); err != nil {
		s.err = errors.Wrap(err, "backup window")
	}
	if s.err != nil {
		logger.Error("rejected proposed producers", "version", s.version+1, "err", s.err)
		return -1
	}
	if s.archive != nil {
		if err := s.archive.Save(s.version+1, p); err != nil {
			logger.Warn("failed to archive proposed producers", "err", err)
			return -1
		}
	}

	s.main, s.backup = main, backup
	s.version++
	s.pending = s.delay
	logger.Debug("proposed producers applied", "version", s.version,
		"main", len(s.main.Producers), "backup", len(s.backup.Producers), "changes", p.Size())
	return s.version
}

// Advance is called once per block and counts down the pending proposal.
func (s *Set) Advance() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.pending > 0 {
		s.pending--
	}
}

func (s *Set) Pending() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pending > 0
}

func (s *Set) Version() int64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.version
}

// Err returns the error that broke the set, if any.
func (s *Set) Err() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.err
}

// Windows returns copies of the published main and backup windows.
func (s *Set) Windows() (main, backup Window) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.main.copy(), s.backup.copy()
}
