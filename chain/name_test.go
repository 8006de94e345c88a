// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"", true},
		{"amax", true},
		{"amax.token", true},
		{"producer1111", true},
		{"a1234512345aj", true},
		{"a1234512345ak", false},
		{"Amax", false},
		{"amax6", false},
		{"amax.", false},
		{"toolongname12345", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := ParseName(tt.in)
			if !tt.valid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.in, n.String())
		})
	}
}

func TestNameOrder(t *testing.T) {
	strs := []string{"zed", "a", "a.b", "ab", "a1", "a5z", "b", "producer", "prod.a", "z1"}
	names := make([]Name, len(strs))
	for i, s := range strs {
		names[i] = MustParseName(s)
	}

	sort.Strings(strs)
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for i := range strs {
		assert.Equal(t, strs[i], names[i].String())
	}

	sort.Slice(names, func(i, j int) bool { return bytes.Compare(names[i].Bytes(), names[j].Bytes()) < 0 })
	for i := range strs {
		assert.Equal(t, strs[i], names[i].String())
	}
	assert.True(t, IsSortedUnique(names))
	assert.False(t, IsSortedUnique([]Name{names[0], names[0]}))
}

func TestNameText(t *testing.T) {
	var n Name
	assert.NoError(t, n.UnmarshalText([]byte("amax.reward")))
	txt, err := n.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "amax.reward", string(txt))
	assert.Error(t, n.UnmarshalText([]byte("UPPER")))
}
