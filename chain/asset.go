// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxAssetAmount is the largest absolute amount an asset may hold.
const MaxAssetAmount = int64(1)<<62 - 1

// Symbol identifies a token by code and decimal precision.
type Symbol struct {
	Code      string
	Precision uint8
}

// IsValid returns whether the code is 1-7 upper case letters and the precision is at most 18.
func (s Symbol) IsValid() bool {
	if len(s.Code) == 0 || len(s.Code) > 7 || s.Precision > 18 {
		return false
	}
	for i := 0; i < len(s.Code); i++ {
		if s.Code[i] < 'A' || s.Code[i] > 'Z' {
			return false
		}
	}
	return true
}

func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// Asset is an amount of a token in its smallest unit.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// NewAsset creates an asset.
func NewAsset(amount int64, sym Symbol) Asset {
	return Asset{Amount: amount, Symbol: sym}
}

// IsValid checks the symbol and the amount range.
func (a Asset) IsValid() bool {
	return a.Symbol.IsValid() && a.Amount >= -MaxAssetAmount && a.Amount <= MaxAssetAmount
}

// Add returns a + b, failing on symbol mismatch or overflow.
func (a Asset) Add(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, errors.Errorf("symbol mismatch %v vs %v", a.Symbol, b.Symbol)
	}
	sum := a.Amount + b.Amount
	if sum < -MaxAssetAmount || sum > MaxAssetAmount {
		return Asset{}, errors.New("asset addition overflow")
	}
	return Asset{sum, a.Symbol}, nil
}

// Sub returns a - b, failing on symbol mismatch or overflow.
func (a Asset) Sub(b Asset) (Asset, error) {
	return a.Add(Asset{-b.Amount, b.Symbol})
}

// Neg returns -a.
func (a Asset) Neg() Asset {
	return Asset{-a.Amount, a.Symbol}
}

// String formats the asset like "12.3400 VOTE".
func (a Asset) String() string {
	amount := a.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	p := int(a.Symbol.Precision)
	if p == 0 {
		return sign + s + " " + a.Symbol.Code
	}
	if len(s) <= p {
		s = strings.Repeat("0", p-len(s)+1) + s
	}
	return sign + s[:len(s)-p] + "." + s[len(s)-p:] + " " + a.Symbol.Code
}

// ParseAsset parses strings like "12.3400 VOTE". The number of decimals defines the precision.
func ParseAsset(str string) (Asset, error) {
	parts := strings.Fields(str)
	if len(parts) != 2 {
		return Asset{}, errors.Errorf("asset %q must be <amount> <code>", str)
	}
	num, code := parts[0], parts[1]
	neg := strings.HasPrefix(num, "-")
	num = strings.TrimPrefix(num, "-")

	var precision int
	if dot := strings.IndexByte(num, '.'); dot >= 0 {
		precision = len(num) - dot - 1
		num = num[:dot] + num[dot+1:]
	}
	amount, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return Asset{}, errors.Wrapf(err, "asset %q", str)
	}
	if neg {
		amount = -amount
	}
	a := Asset{amount, Symbol{Code: code, Precision: uint8(precision)}}
	if !a.IsValid() {
		return Asset{}, errors.Errorf("invalid asset %q", str)
	}
	return a, nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Asset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Asset) UnmarshalText(text []byte) error {
	v, err := ParseAsset(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
