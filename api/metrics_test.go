// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dposlab/bbpelect/metrics"
	"github.com/dposlab/bbpelect/schedlog"
	"github.com/dposlab/bbpelect/test/testchain"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func TestMetricsMiddleware(t *testing.T) {
	tc, err := testchain.New(0)
	require.NoError(t, err)
	sl, err := schedlog.NewMem()
	require.NoError(t, err)
	defer sl.Close()

	handler, err := New(tc.Runtime(), tc.Proposers(), sl, Options{
		AllowedOrigins: "*",
		CacheSize:      16,
		ScheduleLimit:  100,
		EnableMetrics:  true,
	})
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	_, code := httpGet(t, ts.URL+"/election/state")
	assert.Equal(t, http.StatusOK, code)
	_, code = httpGet(t, ts.URL+"/election/voters/nobody")
	assert.Equal(t, http.StatusNotFound, code)
	_, code = httpGet(t, ts.URL+"/election/voters/nobody")
	assert.Equal(t, http.StatusNotFound, code)
	_, code = httpGet(t, ts.URL+"/schedule")
	assert.Equal(t, http.StatusOK, code)

	body, _ := httpGet(t, ts.URL+"/metrics")
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	counts := make(map[string]float64)
	for _, m := range families["bbpelect_api_request_count"].GetMetric() {
		labels := make(map[string]string)
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		assert.Equal(t, http.MethodGet, labels["method"])
		counts[labels["name"]+"/"+labels["code"]] = m.GetCounter().GetValue()
	}
	assert.Equal(t, float64(1), counts["election_get_state/200"])
	assert.Equal(t, float64(2), counts["election_get_voter/404"])
	assert.Equal(t, float64(1), counts["schedule_get_publications/200"])
}

func TestCORS(t *testing.T) {
	tc, err := testchain.New(0)
	require.NoError(t, err)
	handler, err := New(tc.Runtime(), nil, nil, Options{AllowedOrigins: "https://example.org", CacheSize: 1})
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/election/state", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.org")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "https://example.org", res.Header.Get("Access-Control-Allow-Origin"))

	_, code := httpGet(t, ts.URL+"/schedule")
	assert.Equal(t, http.StatusNotFound, code, "no archive, no route")
}
