// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

// Symbols.
var (
	CoreSymbol = Symbol{Code: "AMAX", Precision: 8}
	VoteSymbol = Symbol{Code: "VOTE", Precision: 4}
)

// Constants of the election.
const (
	MaxMainProducerCount          uint32 = 21
	MinBackupProducerCount        uint32 = 3
	DefaultMaxBackupProducerCount uint32 = 10000
	DefaultMinProducerVotes       int64  = 1000_0000 // 1000.0000 VOTE
	MaxVoteProducerCount                 = 30

	RatioBoost            uint32 = 10000
	VoteToCoreAssetFactor int64  = 10000

	SecondsPerDay   uint64 = 24 * 3600
	VoteIntervalSec uint64 = SecondsPerDay
	RefundDelaySec  uint64 = 3 * SecondsPerDay
	// ClaimIntervalSec is how long a producer waits between two reward claims.
	ClaimIntervalSec uint64 = SecondsPerDay - 1800

	BlocksPerMinute uint32 = 60 * 1000 / BlockIntervalMs

	// MaxFlushElectedRows and MinFlushElectedChanges bound the work of one change-log flush.
	MaxFlushElectedRows    = 10
	MinFlushElectedChanges = 300

	MaxURLLength = 512
)

// Constants of producer block rewards.
const (
	TotalMainProducerRewards   int64 = 20_000_000 * 1_0000_0000
	TotalBackupProducerRewards int64 = 10_000_000 * 1_0000_0000

	RewardHalvingPeriodSeconds uint64 = 4 * 365 * SecondsPerDay
	RewardHalvingPeriodBlocks  uint64 = RewardHalvingPeriodSeconds * 1000 / BlockIntervalMs
)

// Elected versions.
const (
	ElectedVersionNone       uint32 = 0
	ElectedVersionBBPEnabled uint32 = 2
)
