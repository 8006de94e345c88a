// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package proposer

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/builtin/election/changes"
	"github.com/dposlab/bbpelect/chain"
)

var (
	alice = chain.MustParseName("alice")
	bob   = chain.MustParseName("bob")
	carol = chain.MustParseName("carol")
)

func authOf(b byte) chain.Authority {
	return chain.SingleKeyAuthority(chain.PublicKey{2, b})
}

type memArchive struct {
	saved []int64
	fail  bool
}

func (a *memArchive) Save(version int64, _ *changes.Proposed) error {
	if a.fail {
		return errors.New("disk full")
	}
	a.saved = append(a.saved, version)
	return nil
}

func initial() *changes.Proposed {
	p := changes.NewProposed()
	p.Main.ClearExisted, p.Main.ProducerCount = true, 2
	p.Backup.ClearExisted, p.Backup.ProducerCount = true, 1
	_ = p.Main.Add(alice, authOf(1))
	_ = p.Main.Add(bob, authOf(2))
	_ = p.Backup.Add(carol, authOf(3))
	return p
}

func TestPending(t *testing.T) {
	s := New(2)
	arch := &memArchive{}
	s.SetArchive(arch)

	assert.Equal(t, int64(0), s.SetProposedProducers(changes.NewProposed()), "probe on idle set")
	assert.Equal(t, int64(1), s.SetProposedProducers(initial()))
	assert.True(t, s.Pending())
	assert.Equal(t, int64(-1), s.SetProposedProducers(changes.NewProposed()))

	s.Advance()
	assert.True(t, s.Pending())
	s.Advance()
	assert.False(t, s.Pending())
	assert.Equal(t, int64(1), s.SetProposedProducers(changes.NewProposed()))
	assert.Equal(t, []int64{1}, arch.saved)

	main, backup := s.Windows()
	assert.Equal(t, []chain.Name{alice, bob}, main.Names())
	assert.Equal(t, []chain.Name{carol}, backup.Names())
	assert.Equal(t, uint32(2), main.Count)
}

func TestSwap(t *testing.T) {
	s := New(0)
	require.Equal(t, int64(1), s.SetProposedProducers(initial()))

	p := changes.NewProposed()
	p.Main.ProducerCount, p.Backup.ProducerCount = 2, 1
	require.NoError(t, p.Main.Del(bob))
	require.NoError(t, p.Main.Add(carol, authOf(3)))
	require.NoError(t, p.Backup.Del(carol))
	require.NoError(t, p.Backup.Add(bob, authOf(2)))
	require.NoError(t, p.Main.Modify(alice, authOf(9)))
	assert.Equal(t, int64(2), s.SetProposedProducers(p))

	main, backup := s.Windows()
	assert.Equal(t, []chain.Name{alice, carol}, main.Names())
	assert.Equal(t, []chain.Name{bob}, backup.Names())
	assert.Equal(t, authOf(9), main.Producers[alice])
	assert.NoError(t, s.Err())
}

func TestRejectInconsistent(t *testing.T) {
	s := New(0)
	require.Equal(t, int64(1), s.SetProposedProducers(initial()))

	p := changes.NewProposed()
	p.Main.ProducerCount = 3
	require.NoError(t, p.Main.Add(alice, authOf(1)))
	assert.Equal(t, int64(-1), s.SetProposedProducers(p))
	assert.ErrorContains(t, s.Err(), "add existing producer")

	assert.Equal(t, int64(-1), s.SetProposedProducers(changes.NewProposed()), "broken set refuses probes")
	main, _ := s.Windows()
	assert.Len(t, main.Producers, 2)
}

func TestCountMismatch(t *testing.T) {
	s := New(0)
	p := initial()
	p.Backup.ProducerCount = 2
	assert.Equal(t, int64(-1), s.SetProposedProducers(p))
	assert.ErrorContains(t, s.Err(), "backup window")
}

func TestArchiveFailure(t *testing.T) {
	s := New(0)
	s.SetArchive(&memArchive{fail: true})
	assert.Equal(t, int64(-1), s.SetProposedProducers(initial()))
	assert.NoError(t, s.Err())
	assert.Equal(t, int64(0), s.Version())
}
