// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pipeline

import (
	"github.com/keldachain/kelda/metrics"
)

var (
	metricCommittedCounter = metrics.LazyLoadCounter("pipeline_committed_tx_count")
	metricRejectedCounter  = metrics.LazyLoadCounter("pipeline_rejected_tx_count")
	metricVersionGauge     = metrics.LazyLoadGauge("pipeline_ledger_version")
	metricCommitDuration   = metrics.LazyLoadHistogram("pipeline_commit_duration_ms", metrics.Bucket2s)
)
