// Copyright 2023 The zmz Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	moduleOfMDSLog = "mds_log"

	LogEventsAddedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: moduleOfMDSLog,
		Name:      "events_added_total",
		Help:      "Total log events submitted to the journal",
	})

	LogEventsTrimmedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: moduleOfMDSLog,
		Name:      "events_trimmed_total",
		Help:      "Total log events removed by trimming",
	})

	LogEventsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: moduleOfMDSLog,
		Name:      "events",
		Help:      "Log events currently in live segments",
	})

	LogSegmentsAddedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: moduleOfMDSLog,
		Name:      "segments_added_total",
		Help:      "Total log segments started",
	})

	LogSegmentsTrimmedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: moduleOfMDSLog,
		Name:      "segments_trimmed_total",
		Help:      "Total log segments removed by trimming",
	})

	LogSegmentsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: moduleOfMDSLog,
		Name:      "segments",
		Help:      "Live log segments",
	})

	LogSegmentsTrimmingGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: moduleOfMDSLog,
		Name:      "segments_trimming",
		Help:      "Log segments with an expirability check in flight",
	})

	LogExpirePosGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: moduleOfMDSLog,
		Name:      "expire_pos",
		Help:      "Journal expire position",
	})

	LogWritePosGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: moduleOfMDSLog,
		Name:      "write_pos",
		Help:      "Journal write position",
	})

	JournalFlushLatencySecond = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: moduleOfMDSLog,
		Name:      "journal_flush_latency_seconds",
		Help:      "Latency of journal flushes",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
	})

	JournalFlushBytesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: moduleOfMDSLog,
		Name:      "journal_flush_bytes_total",
		Help:      "Total bytes flushed to the journal",
	})
)
