// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily)
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestNoopMetrics(t *testing.T) {
	m := defaultNoopMetrics()
	assert.NotPanics(t, func() {
		m.GetOrCreateCountMeter("c").Add(1)
		m.GetOrCreateCountVecMeter("cv", []string{"l"}).AddWithLabel(1, map[string]string{"l": "x"})
		m.GetOrCreateGaugeMeter("g").Set(3)
		m.GetOrCreateHistogramMeter("h", nil).Observe(5)
	})
	assert.Nil(t, m.GetOrCreateHandler())
}

func TestPromMetrics(t *testing.T) {
	lazy := LazyLoadCounter("lazy_count")

	InitializePrometheusMetrics()
	InitializePrometheusMetrics()
	require.NotNil(t, HTTPHandler())

	Counter("count1").Add(1)
	Counter("count1").Add(2)
	lazy().Add(4)

	vec := CounterVec("count_vec", []string{"action"})
	vec.AddWithLabel(1, map[string]string{"action": "vote"})
	vec.AddWithLabel(2, map[string]string{"action": "vote"})
	vec.AddWithLabel(5, map[string]string{"action": "regproducer"})

	g := Gauge("gauge1")
	g.Set(10)
	g.Add(-3)

	h := Histogram("hist1", BucketChanges)
	for i := range 10 {
		h.Observe(int64(i))
	}

	families := gather(t)

	assert.Equal(t, float64(3), families[namespace+"_count1"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, float64(4), families[namespace+"_lazy_count"].GetMetric()[0].GetCounter().GetValue())
	assert.Len(t, families[namespace+"_count_vec"].GetMetric(), 2)
	assert.Equal(t, float64(7), families[namespace+"_gauge1"].GetMetric()[0].GetGauge().GetValue())

	hist := families[namespace+"_hist1"].GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(10), hist.GetSampleCount())
	assert.Equal(t, float64(45), hist.GetSampleSum())
}
