// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import "github.com/dposlab/bbpelect/metrics"

var (
	metricChangeRecords   = metrics.LazyLoadCounter("election_change_records_count")
	metricPublishedCount  = metrics.LazyLoadCounterVec("election_published_changes_count", []string{"window"})
	metricPublishDeferred = metrics.LazyLoadCounter("election_publish_deferred_count")
	metricInterruptions   = metrics.LazyLoadCounter("election_interruptions_count")
	metricReinits         = metrics.LazyLoadCounter("election_reinits_count")
	metricChangeLogRows   = metrics.LazyLoadGauge("election_change_log_rows")
	metricPublishSize     = metrics.LazyLoadHistogram("election_publish_size", metrics.BucketChanges)
)
