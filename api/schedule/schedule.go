// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package schedule

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dposlab/bbpelect/api/utils"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/schedlog"
)

type Schedule struct {
	log   *schedlog.SchedLog
	limit int64
}

func New(log *schedlog.SchedLog, limit int64) *Schedule {
	return &Schedule{log, limit}
}

type Publication struct {
	Version     int64  `json:"version"`
	MainCount   uint32 `json:"mainCount"`
	BackupCount uint32 `json:"backupCount"`
	MainClear   bool   `json:"mainClear"`
	BackupClear bool   `json:"backupClear"`
	Changes     int    `json:"changes"`
}

type Change struct {
	Version   int64            `json:"version"`
	Queue     string           `json:"queue"`
	Kind      string           `json:"kind"`
	Authority *chain.Authority `json:"authority,omitempty"`
}

func (s *Schedule) handleGetPublications(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()
	from, err := utils.ParseInt(query.Get("from"), 0, 0)
	if err != nil {
		return err
	}
	limit, err := utils.ParseInt(query.Get("limit"), s.limit, s.limit)
	if err != nil {
		return err
	}
	pubs, err := s.log.Publications(req.Context(), from, int(limit))
	if err != nil {
		return err
	}
	out := make([]*Publication, 0, len(pubs))
	for _, p := range pubs {
		out = append(out, &Publication{
			Version:     p.Version,
			MainCount:   p.MainCount,
			BackupCount: p.BackupCount,
			MainClear:   p.MainClear,
			BackupClear: p.BackupClear,
			Changes:     p.Changes,
		})
	}
	return utils.WriteJSON(w, out)
}

func (s *Schedule) handleGetHistory(w http.ResponseWriter, req *http.Request) error {
	name, err := utils.ParseName(mux.Vars(req)["name"])
	if err != nil {
		return err
	}
	history, err := s.log.History(req.Context(), name)
	if err != nil {
		return err
	}
	out := make([]*Change, 0, len(history))
	for _, c := range history {
		out = append(out, &Change{
			Version:   c.Version,
			Queue:     c.Queue.String(),
			Kind:      c.Kind.String(),
			Authority: c.Authority,
		})
	}
	return utils.WriteJSON(w, out)
}

func (s *Schedule) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("schedule_get_publications").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetPublications))
	sub.Path("/{name}").
		Methods(http.MethodGet).
		Name("schedule_get_history").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetHistory))
}
