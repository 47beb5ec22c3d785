// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"github.com/keldachain/kelda/metrics"
)

var (
	metricPoolGauge      = metrics.LazyLoadGauge("txpool_pooled_tx_count")
	metricEvictedCounter = metrics.LazyLoadCounter("txpool_evicted_tx_count")
)
