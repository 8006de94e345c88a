// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

// Accounts names the system accounts the builtin contracts act as.
type Accounts struct {
	System        Name `yaml:"system"`
	Token         Name `yaml:"token"`
	Vote          Name `yaml:"vote"`
	Reward        Name `yaml:"reward"`
	ProducerAdmin Name `yaml:"producer_admin"`
}

// DefaultAccounts returns the conventional system account names.
func DefaultAccounts() Accounts {
	return Accounts{
		System:        MustParseName("amax"),
		Token:         MustParseName("amax.token"),
		Vote:          MustParseName("amax.vote"),
		Reward:        MustParseName("amax.reward"),
		ProducerAdmin: MustParseName("amax.prod"),
	}
}
