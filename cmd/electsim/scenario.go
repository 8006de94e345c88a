// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/dposlab/bbpelect/chain"
)

// Scenario describes an election to simulate.
type Scenario struct {
	Accounts      *chain.Accounts `yaml:"accounts"`
	Genesis       time.Time       `yaml:"genesis"`
	BlockInterval time.Duration   `yaml:"block_interval"`
	ProposerDelay uint32          `yaml:"proposer_delay"`
	// BackupEvery credits a backup producer every n blocks, never when zero.
	BackupEvery uint32 `yaml:"backup_every"`

	MinProducerVotes   chain.Asset   `yaml:"min_producer_votes"`
	MaxBackupProducers uint32        `yaml:"max_backup_producers"`
	Reward             *RewardConfig `yaml:"reward"`

	Producers []ProducerSpec `yaml:"producers"`
	Voters    []VoterSpec    `yaml:"voters"`
	Steps     []Step         `yaml:"steps"`
	Random    *RandomSpec    `yaml:"random"`
}

type RewardConfig struct {
	// Start is the offset of the initial reward phase from genesis.
	Start           time.Duration `yaml:"start"`
	Duration        time.Duration `yaml:"duration"`
	MainPerBlock    chain.Asset   `yaml:"main_per_block"`
	BackupPerBlock  chain.Asset   `yaml:"backup_per_block"`
	MinContribution uint32        `yaml:"min_contribution"`
}

type ProducerSpec struct {
	Name     chain.Name      `yaml:"name"`
	Key      chain.PublicKey `yaml:"key"`
	URL      string          `yaml:"url"`
	Location uint16          `yaml:"location"`
	Ratio    *uint32         `yaml:"ratio"`
}

type VoterSpec struct {
	Name      chain.Name   `yaml:"name"`
	Votes     chain.Asset  `yaml:"votes"`
	Producers []chain.Name `yaml:"producers"`
}

// Step is one of: produce blocks, wait, or run an action.
type Step struct {
	Blocks uint32        `yaml:"blocks"`
	Wait   time.Duration `yaml:"wait"`
	Verify bool          `yaml:"verify"`

	Action    string          `yaml:"action"`
	Actor     chain.Name      `yaml:"actor"`
	Quantity  chain.Asset     `yaml:"quantity"`
	Producers []chain.Name    `yaml:"producers"`
	Key       chain.PublicKey `yaml:"key"`
	URL       string          `yaml:"url"`
	Location  uint16          `yaml:"location"`
	Ratio     *uint32         `yaml:"ratio"`
	Count     uint32          `yaml:"count"`
	// Expect makes the step pass only if the action fails with a message containing it.
	Expect string `yaml:"expect"`
}

// RandomSpec appends generated voter activity after the scripted steps.
type RandomSpec struct {
	Seed  uint64 `yaml:"seed"`
	Steps int    `yaml:"steps"`
	// MaxStake bounds the votes added by one generated step, in whole VOTE.
	MaxStake int64 `yaml:"max_stake"`
}

var actions = map[string]bool{
	"regproducer":  true,
	"unregprod":    true,
	"setvoteshare": true,
	"setmprodvote": true,
	"initbbpelect": true,
	"addvote":      true,
	"subvote":      true,
	"refundvote":   true,
	"vote":         true,
	"claimrewards": true,
	"cfgbbpreward": true,
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario, rejecting unknown fields, and fills defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	if err := sc.normalize(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) normalize() error {
	if sc.Accounts == nil {
		accounts := chain.DefaultAccounts()
		sc.Accounts = &accounts
	}
	if sc.Genesis.IsZero() {
		sc.Genesis = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if sc.BlockInterval == 0 {
		sc.BlockInterval = chain.BlockIntervalMs * time.Millisecond
	}
	if sc.BlockInterval < 0 || sc.BlockInterval%(chain.BlockIntervalMs*time.Millisecond) != 0 {
		return errors.Errorf("block_interval %v is not a positive multiple of %dms", sc.BlockInterval, chain.BlockIntervalMs)
	}
	if sc.MinProducerVotes.Symbol.Code == "" {
		sc.MinProducerVotes = chain.NewAsset(chain.DefaultMinProducerVotes, chain.VoteSymbol)
	}
	if sc.MaxBackupProducers == 0 {
		sc.MaxBackupProducers = chain.DefaultMaxBackupProducerCount
	}
	if required := chain.MaxMainProducerCount + chain.MinBackupProducerCount + 1; len(sc.Producers) < int(required) {
		return errors.Errorf("at least %d producers are needed, got %d", required, len(sc.Producers))
	}

	seen := make(map[chain.Name]bool)
	for i, p := range sc.Producers {
		if p.Name.IsEmpty() {
			return errors.Errorf("producer #%d has no name", i)
		}
		if seen[p.Name] {
			return errors.Errorf("producer %v declared twice", p.Name)
		}
		seen[p.Name] = true
	}
	for i, v := range sc.Voters {
		if v.Name.IsEmpty() {
			return errors.Errorf("voter #%d has no name", i)
		}
		if v.Votes.Symbol != chain.VoteSymbol {
			return errors.Errorf("voter %v: votes must be in %v", v.Name, chain.VoteSymbol)
		}
		for _, p := range v.Producers {
			if !seen[p] {
				return errors.Errorf("voter %v votes for undeclared producer %v", v.Name, p)
			}
		}
	}
	for i := range sc.Steps {
		if err := sc.Steps[i].validate(); err != nil {
			return errors.WithMessagef(err, "step #%d", i)
		}
	}
	if r := sc.Random; r != nil {
		if len(sc.Voters) == 0 {
			return errors.New("random steps need voters")
		}
		if r.MaxStake <= 0 {
			r.MaxStake = 1000
		}
	}
	return nil
}

func (s *Step) validate() error {
	kinds := 0
	if s.Blocks > 0 {
		kinds++
	}
	if s.Wait > 0 {
		kinds++
	}
	if s.Verify {
		kinds++
	}
	if s.Action != "" {
		kinds++
		if !actions[s.Action] {
			return errors.Errorf("unknown action %q", s.Action)
		}
		if s.Actor.IsEmpty() && s.Action != "setmprodvote" && s.Action != "initbbpelect" && s.Action != "cfgbbpreward" {
			return errors.Errorf("action %s needs an actor", s.Action)
		}
	}
	if kinds != 1 {
		return errors.New("exactly one of blocks, wait, verify or action must be set")
	}
	return nil
}

// Size is the number of steps to run, generated ones included.
func (sc *Scenario) Size() int {
	n := len(sc.Steps)
	if sc.Random != nil {
		n += sc.Random.Steps
	}
	return n
}
