// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"github.com/dposlab/bbpelect/builtin/election/globalstats"
	"github.com/dposlab/bbpelect/builtin/election/producer"
	"github.com/dposlab/bbpelect/builtin/election/queue"
	"github.com/dposlab/bbpelect/builtin/election/voter"
	"github.com/dposlab/bbpelect/builtin/reward"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/proposer"
)

func votes(amount uint64) chain.Asset { return chain.NewAsset(int64(amount), chain.VoteSymbol) }
func core(amount uint64) chain.Asset  { return chain.NewAsset(int64(amount), chain.CoreSymbol) }

type Ranked struct {
	Rank         int              `json:"rank"`
	Name         chain.Name       `json:"name"`
	Active       bool             `json:"active"`
	ElectedVotes chain.Asset      `json:"electedVotes"`
	Authority    *chain.Authority `json:"authority"`
}

func convertRanked(list []producer.ElectedInfo) []*Ranked {
	out := make([]*Ranked, 0, len(list))
	for i := range list {
		out = append(out, &Ranked{
			Rank:         i + 1,
			Name:         list[i].Name,
			Active:       list[i].Active,
			ElectedVotes: votes(list[i].ElectedVotes),
			Authority:    &list[i].Authority,
		})
	}
	return out
}

type Marker struct {
	Name         chain.Name  `json:"name"`
	ElectedVotes chain.Asset `json:"electedVotes"`
}

type Queue struct {
	Count    uint32  `json:"count"`
	TailPrev *Marker `json:"tailPrev"`
	Tail     *Marker `json:"tail"`
	TailNext *Marker `json:"tailNext"`
}

func convertMarker(info *producer.ElectedInfo) *Marker {
	if info.IsEmpty() {
		return nil
	}
	return &Marker{Name: info.Name, ElectedVotes: votes(info.ElectedVotes)}
}

func convertQueue(q *queue.ElectedQueue) *Queue {
	return &Queue{
		Count:    q.LastProducerCount,
		TailPrev: convertMarker(&q.TailPrev),
		Tail:     convertMarker(&q.Tail),
		TailNext: convertMarker(&q.TailNext),
	}
}

type RewardInfo struct {
	Total    chain.Asset `json:"total"`
	PerBlock chain.Asset `json:"perBlock"`
	Produced chain.Asset `json:"produced"`
}

func convertRewardInfo(r *globalstats.RewardInfo) *RewardInfo {
	return &RewardInfo{Total: core(r.Total), PerBlock: core(r.PerBlock), Produced: core(r.Produced)}
}

type State struct {
	Initialized       bool        `json:"initialized"`
	Interrupted       bool        `json:"interrupted"`
	MaxMain           uint32      `json:"maxMainProducers"`
	MaxBackup         uint32      `json:"maxBackupProducers"`
	MinProducerVotes  chain.Asset `json:"minProducerVotes"`
	TotalVotes        chain.Asset `json:"totalElectedVotes"`
	ElectedSequence   uint64      `json:"electedSequence"`
	LastChangeID      uint64      `json:"lastChangeId"`
	PendingChanges    int         `json:"pendingChanges"`
	Main              *Queue      `json:"main"`
	Backup            *Queue      `json:"backup"`
	MainRewards       *RewardInfo `json:"mainRewards"`
	BackupRewards     *RewardInfo `json:"backupRewards"`
	RewardPeriod      uint64      `json:"rewardPeriod"`
	LastScheduleSlot  uint32      `json:"lastScheduleSlot"`
	TotalVoterRewards chain.Asset `json:"totalVoterRewards"`
}

func convertState(st *globalstats.State, pending int, g *reward.Global) *State {
	return &State{
		Initialized:       st.IsInitialized(),
		Interrupted:       st.ElectedChangeInterrupted,
		MaxMain:           st.MaxMainProducerCount,
		MaxBackup:         st.MaxBackupProducerCount,
		MinProducerVotes:  votes(st.MinProducerVotes),
		TotalVotes:        votes(st.TotalProducerElectedVotes),
		ElectedSequence:   st.ElectedSequence,
		LastChangeID:      st.LastElectedChangeID,
		PendingChanges:    pending,
		Main:              convertQueue(&st.Queues.Main),
		Backup:            convertQueue(&st.Queues.Backup),
		MainRewards:       convertRewardInfo(&st.MainRewardInfo),
		BackupRewards:     convertRewardInfo(&st.BackupRewardInfo),
		RewardPeriod:      st.RewardPeriodNumber,
		LastScheduleSlot:  st.LastProducerScheduleUpdate.Slot(),
		TotalVoterRewards: core(g.TotalRewards),
	}
}

type Producer struct {
	Name              chain.Name      `json:"name"`
	Active            bool            `json:"active"`
	URL               string          `json:"url"`
	Location          uint16          `json:"location"`
	Authority         chain.Authority `json:"authority"`
	ElectedVotes      chain.Asset     `json:"electedVotes"`
	RewardSharedRatio uint32          `json:"rewardSharedRatio"`
	UnclaimedRewards  chain.Asset     `json:"unclaimedRewards"`
	LastClaimedTime   uint64          `json:"lastClaimedTime"`
	VoterRewards      *VoterPool      `json:"voterRewards,omitempty"`
}

// VoterPool is the reward distributor side of a producer.
type VoterPool struct {
	Votes          chain.Asset `json:"votes"`
	Total          chain.Asset `json:"total"`
	Allocating     chain.Asset `json:"allocating"`
	Allocated      chain.Asset `json:"allocated"`
	RewardsPerVote string      `json:"rewardsPerVote"`
}

func convertProducer(p *producer.Producer, rp *reward.Producer) *Producer {
	out := &Producer{
		Name:             p.Owner,
		Active:           p.Active,
		URL:              p.URL,
		Location:         p.Location,
		Authority:        p.Authority,
		ElectedVotes:     votes(p.ElectedVotes()),
		UnclaimedRewards: core(p.UnclaimedRewards),
		LastClaimedTime:  p.LastClaimedTime,
	}
	if p.Ext != nil {
		out.RewardSharedRatio = p.Ext.RewardSharedRatio
	}
	if rp != nil {
		out.VoterRewards = &VoterPool{
			Votes:      votes(rp.Votes),
			Total:      core(rp.TotalRewards),
			Allocating: core(rp.AllocatingRewards),
			Allocated:  core(rp.AllocatedRewards),
		}
		if rp.RewardsPerVote != nil {
			out.VoterRewards.RewardsPerVote = rp.RewardsPerVote.Dec()
		}
	}
	return out
}

type Refund struct {
	Votes       chain.Asset `json:"votes"`
	RequestTime uint64      `json:"requestTime"`
}

type Voter struct {
	Name             chain.Name   `json:"name"`
	Votes            chain.Asset  `json:"votes"`
	Producers        []chain.Name `json:"producers"`
	LastUnvotedTime  uint64       `json:"lastUnvotedTime"`
	UnclaimedRewards chain.Asset  `json:"unclaimedRewards"`
	ClaimedRewards   chain.Asset  `json:"claimedRewards"`
	Refund           *Refund      `json:"refund,omitempty"`
}

func convertVoter(v *voter.Voter, rv *reward.Voter, refund *voter.Refund) *Voter {
	out := &Voter{
		Name:            v.Owner,
		Votes:           votes(v.Votes),
		Producers:       v.Producers,
		LastUnvotedTime: v.LastUnvotedTime,
	}
	if rv != nil {
		out.UnclaimedRewards = core(rv.UnclaimedRewards)
		out.ClaimedRewards = core(rv.ClaimedRewards)
	}
	if refund != nil {
		out.Refund = &Refund{Votes: votes(refund.Votes), RequestTime: refund.RequestTime}
	}
	return out
}

type Window struct {
	Count     uint32       `json:"count"`
	Producers []chain.Name `json:"producers"`
}

type Elected struct {
	Main   []chain.Name `json:"main"`
	Backup []chain.Name `json:"backup"`
}

type Published struct {
	Version int64   `json:"version"`
	Pending bool    `json:"pending"`
	Main    *Window `json:"main"`
	Backup  *Window `json:"backup"`
}

// Windows compares the windows held by the election with the ones published to the proposer set.
// Elected is nil while the windows are interrupted or not yet initialized.
type Windows struct {
	Elected   *Elected   `json:"elected"`
	Published *Published `json:"published,omitempty"`
}

func names(list []producer.ElectedInfo) []chain.Name {
	out := make([]chain.Name, 0, len(list))
	for _, info := range list {
		out = append(out, info.Name)
	}
	return out
}

func convertWindow(w *proposer.Window) *Window {
	return &Window{Count: w.Count, Producers: w.Names()}
}
