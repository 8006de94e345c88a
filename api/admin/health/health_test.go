// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/test/testchain"
)

func getHealth(t *testing.T, h *Health) (*Status, int) {
	router := mux.NewRouter()
	NewAPI(h).Mount(router, "/admin/health")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/health", nil))

	var st Status
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&st))
	return &st, rr.Code
}

func TestHealth(t *testing.T) {
	c, err := testchain.New(1)
	require.NoError(t, err)
	h := New(c.Runtime(), c.Proposers(), time.Minute)

	st, code := getHealth(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, st.Healthy)
	assert.Nil(t, st.BlockIngestion.ReceivedAt)

	h.observe()
	st, code = getHealth(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, st.Healthy)
	assert.Equal(t, c.Now().Slot(), st.BlockIngestion.Slot)
	require.NotNil(t, st.Proposers)
	assert.Empty(t, st.Proposers.Error)

	require.NoError(t, c.NextBlock())
	h.observe()
	st, _ = getHealth(t, h)
	assert.Equal(t, c.Now().Slot(), st.BlockIngestion.Slot)
	assert.Equal(t, c.Runtime().Version(), st.RuntimeVersion)
}

func TestHealthIdle(t *testing.T) {
	c, err := testchain.New(1)
	require.NoError(t, err)
	h := New(c.Runtime(), nil, time.Millisecond)

	h.observe()
	time.Sleep(5 * time.Millisecond)
	st, code := getHealth(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, st.Healthy)
	assert.Nil(t, st.Proposers)
}
