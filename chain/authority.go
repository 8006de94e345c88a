// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

// PublicKey is a compressed secp256k1 public key.
type PublicKey [secp256k1.PubKeyBytesLenCompressed]byte

// ParsePublicKey accepts a compressed or uncompressed secp256k1 key and returns its compressed form.
func ParsePublicKey(b []byte) (PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return PublicKey{}, errors.Wrap(err, "parse public key")
	}
	var k PublicKey
	copy(k[:], pub.SerializeCompressed())
	return k, nil
}

// ParsePublicKeyHex parses a hex encoded key, with or without 0x prefix.
func ParsePublicKeyHex(s string) (PublicKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return PublicKey{}, errors.Wrap(err, "decode public key")
	}
	return ParsePublicKey(b)
}

// IsZero returns whether the key is unset.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

func (k PublicKey) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

// MarshalText implements encoding.TextMarshaler.
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PublicKey) UnmarshalText(text []byte) error {
	v, err := ParsePublicKeyHex(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// KeyWeight is one signing key of an authority.
type KeyWeight struct {
	Key    PublicKey
	Weight uint16
}

// Authority is the block signing authority of a producer: a block is valid when the
// weights of the keys that signed it reach the threshold.
type Authority struct {
	Threshold uint32
	Keys      []KeyWeight
}

// SingleKeyAuthority returns an authority satisfied by one key.
func SingleKeyAuthority(key PublicKey) Authority {
	return Authority{
		Threshold: 1,
		Keys:      []KeyWeight{{Key: key, Weight: 1}},
	}
}

// Validate checks the threshold is reachable, keys are well formed and sorted without duplicates.
func (a *Authority) Validate() error {
	if a.Threshold == 0 {
		return errors.New("authority threshold must be positive")
	}
	if len(a.Keys) == 0 {
		return errors.New("authority has no keys")
	}
	var total uint64
	for i, kw := range a.Keys {
		if _, err := secp256k1.ParsePubKey(kw.Key[:]); err != nil {
			return errors.Wrapf(err, "authority key #%d", i)
		}
		if kw.Weight == 0 {
			return errors.Errorf("authority key #%d has zero weight", i)
		}
		if i > 0 && bytes.Compare(a.Keys[i-1].Key[:], kw.Key[:]) >= 0 {
			return errors.New("authority keys must be sorted and unique")
		}
		total += uint64(kw.Weight)
	}
	if total < uint64(a.Threshold) {
		return errors.New("authority threshold is unreachable")
	}
	return nil
}

// Equal reports whether both authorities have the same threshold and keys.
func (a *Authority) Equal(b *Authority) bool {
	if a.Threshold != b.Threshold || len(a.Keys) != len(b.Keys) {
		return false
	}
	for i := range a.Keys {
		if a.Keys[i] != b.Keys[i] {
			return false
		}
	}
	return true
}

// Copy returns a deep copy.
func (a *Authority) Copy() Authority {
	return Authority{
		Threshold: a.Threshold,
		Keys:      append([]KeyWeight(nil), a.Keys...),
	}
}
