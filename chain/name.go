// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

const nameCharmap = ".12345abcdefghijklmnopqrstuvwxyz"

// Name is an account name packed into 64 bits.
// Up to 12 characters from [.1-5a-z] take 5 bits each, an optional 13th character
// from [.1-5a-j] takes the remaining 4 bits. The numeric order of two names equals
// the lexical order of their string forms.
type Name uint64

// ParseName parses the string form of a name.
func ParseName(s string) (Name, error) {
	if len(s) > 13 {
		return 0, errors.Errorf("name %q is longer than 13 characters", s)
	}
	var value uint64
	for i := 0; i < len(s); i++ {
		sym, ok := charToSymbol(s[i])
		if !ok {
			return 0, errors.Errorf("name %q contains invalid character %q", s, s[i])
		}
		if i < 12 {
			value |= (sym & 0x1f) << (64 - 5*(i+1))
		} else {
			if sym > 0x0f {
				return 0, errors.Errorf("thirteenth character of name %q out of range", s)
			}
			value |= sym & 0x0f
		}
	}
	n := Name(value)
	if n.String() != s {
		return 0, errors.Errorf("name %q is not normalized", s)
	}
	return n, nil
}

// MustParseName parses a name, panics on error.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func charToSymbol(c byte) (uint64, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6, true
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1, true
	case c == '.':
		return 0, true
	}
	return 0, false
}

// IsEmpty returns whether the name is the empty name.
func (n Name) IsEmpty() bool {
	return n == 0
}

// String returns the string form of the name.
func (n Name) String() string {
	var buf [13]byte
	tmp := uint64(n)
	for i := 0; i <= 12; i++ {
		if i == 0 {
			buf[12-i] = nameCharmap[tmp&0x0f]
			tmp >>= 4
		} else {
			buf[12-i] = nameCharmap[tmp&0x1f]
			tmp >>= 5
		}
	}
	return strings.TrimRight(string(buf[:]), ".")
}

// Bytes returns the big-endian encoding, which keeps names sorted in byte order.
func (n Name) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n))
	return b[:]
}

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Name) UnmarshalText(text []byte) error {
	v, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// IsSortedUnique reports whether names are in strictly ascending order.
func IsSortedUnique(names []Name) bool {
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			return false
		}
	}
	return true
}
