// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/api/admin/health"
	"github.com/dposlab/bbpelect/test/testchain"
)

func TestAdminRoutes(t *testing.T) {
	c, err := testchain.New(1)
	require.NoError(t, err)

	var level slog.LevelVar
	srv := httptest.NewServer(New(&level, health.New(c.Runtime(), c.Proposers(), time.Minute)))
	defer srv.Close()

	res, err := http.Post(srv.URL+"/admin/loglevel", "application/json", strings.NewReader(`{"level":"warn"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, slog.LevelWarn, level.Level())

	// nothing observed the runtime yet
	res, err = http.Get(srv.URL + "/admin/health")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	res, err = http.Get(srv.URL + "/loglevel")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
