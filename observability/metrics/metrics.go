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

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	namespace = "ceph"
)

func RegisterMDSLogMetrics() {
	registerGoRuntimeMetrics()
	prometheus.MustRegister(LogEventsAddedCounter)
	prometheus.MustRegister(LogEventsTrimmedCounter)
	prometheus.MustRegister(LogEventsGauge)
	prometheus.MustRegister(LogSegmentsAddedCounter)
	prometheus.MustRegister(LogSegmentsTrimmedCounter)
	prometheus.MustRegister(LogSegmentsGauge)
	prometheus.MustRegister(LogSegmentsTrimmingGauge)
	prometheus.MustRegister(LogExpirePosGauge)
	prometheus.MustRegister(LogWritePosGauge)
	prometheus.MustRegister(JournalFlushLatencySecond)
	prometheus.MustRegister(JournalFlushBytesCounter)
}

func registerGoRuntimeMetrics() {
	// The default registerer carries a base Go collector and a process
	// collector; swap the former for one with runtime/metrics enabled.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.MustRegister(collectors.NewBuildInfoCollector())
	prometheus.MustRegister(collectors.NewGoCollector(
		collectors.WithGoCollections(collectors.GoRuntimeMetricsCollection)))
}
