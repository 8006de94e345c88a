// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dposlab/bbpelect/api/utils"
)

type API struct {
	health *Health
}

func NewAPI(health *Health) *API {
	return &API{health: health}
}

func (h *API) handleGetHealth(w http.ResponseWriter, _ *http.Request) error {
	st := h.health.Status()
	if !st.Healthy {
		w.Header().Set("Content-Type", utils.JSONContentType)
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return utils.WriteJSON(w, st)
}

func (h *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("admin_get_health").
		HandlerFunc(utils.WrapHandlerFunc(h.handleGetHealth))
}
