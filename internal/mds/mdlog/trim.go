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

package mdlog

import (
	// standard libraries.
	"context"
	"time"

	// this project.
	"github.com/zmz/ceph/observability/log"
	"github.com/zmz/ceph/observability/metrics"
)

// Trim examines the segment table oldest-first and initiates expiration for
// as many segments as retention policy allows, bounded by a wall-clock
// budget and the in-flight check cap.
func (m *MDLog) Trim() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimLocked()
}

func (m *MDLog) trimLocked() {
	log.Debug(context.Background(), "Trim.", map[string]interface{}{
		log.KeyNumSegments: m.segments.Len(),
		"max_segments":     m.cfg.maxSegments,
		log.KeyNumEvents:   m.numEvents,
		"max_events":       m.cfg.maxEvents,
		"trimming":         len(m.trimming),
	})

	if m.segments.Len() == 0 {
		return
	}

	stop := time.Now().Add(m.cfg.trimBudget)

	el := m.segments.Front()
	left := m.numEvents
	for el != nil &&
		((m.cfg.maxEvents >= 0 && left > m.cfg.maxEvents) ||
			(m.cfg.maxSegments >= 0 && m.segments.Len()-len(m.trimming) > m.cfg.maxSegments)) {
		if time.Now().After(stop) {
			break
		}
		if len(m.trimming) >= m.cfg.maxTrimming {
			break
		}

		ls := el.Value.(*Segment)
		el = el.Next()

		if _, ok := m.trimming[ls.Offset]; ok {
			log.Debug(context.Background(), "Trim already trimming segment.", map[string]interface{}{
				log.KeySegmentOffset: ls.Offset,
				log.KeyNumEvents:     ls.NumEvents,
			})
		} else {
			m.tryTrimLocked(ls)
		}

		left -= int64(ls.NumEvents)
	}

	metrics.LogSegmentsTrimmingGauge.Set(float64(len(m.trimming)))
}

// tryTrimLocked asks the cache whether ls may expire. If blocking
// references remain, the segment joins the trimming set and the check is
// re-run after the cache's gate fires.
func (m *MDLog) tryTrimLocked(ls *Segment) {
	if gate := m.cache.SegmentExpirable(ls.Offset); gate != nil {
		log.Debug(context.Background(), "Trim waiting on segment.", map[string]interface{}{
			log.KeySegmentOffset: ls.Offset,
		})
		m.trimming[ls.Offset] = ls
		gate.OnComplete(func() {
			// The gate may already have fired, running this inline on the
			// goroutine holding the server lock; re-check from a fresh one.
			go func() {
				m.mu.Lock()
				defer m.mu.Unlock()
				m.maybeTrimmedLocked(ls)
			}()
		})
	} else {
		m.trimmedLocked(ls)
	}
}

func (m *MDLog) maybeTrimmedLocked(ls *Segment) {
	if _, ok := m.trimming[ls.Offset]; !ok {
		panic("mdlog: segment not in trimming set")
	}
	delete(m.trimming, ls.Offset)
	metrics.LogSegmentsTrimmingGauge.Set(float64(len(m.trimming)))

	// The gate firing does not guarantee all references are gone.
	m.tryTrimLocked(ls)
}

// trimmedLocked finalizes expiration of ls.
func (m *MDLog) trimmedLocked(ls *Segment) {
	// Never remove the tail segment while writes may still target it.
	if !m.capped && ls == m.currentSegmentLocked() {
		log.Debug(context.Background(), "Trim not trimming tail segment.", map[string]interface{}{
			log.KeySegmentOffset: ls.Offset,
		})
		return
	}

	log.Debug(context.Background(), "Trimmed segment.", map[string]interface{}{
		log.KeySegmentOffset: ls.Offset,
		log.KeyNumEvents:     ls.NumEvents,
	})

	m.numEvents -= int64(ls.NumEvents)
	if m.numEvents < 0 {
		panic("mdlog: negative event count")
	}

	if m.oldestSegmentLocked() == ls {
		// Everything before the oldest segment is provably unneeded for
		// recovery.
		m.journal.SetExpirePos(ls.Offset)
	}
	if m.segments.Remove(ls.Offset) == nil {
		panic("mdlog: segment not in table")
	}

	metrics.LogEventsTrimmedCounter.Add(float64(ls.NumEvents))
	metrics.LogEventsGauge.Set(float64(m.numEvents))
	metrics.LogSegmentsTrimmedCounter.Inc()
	metrics.LogSegmentsGauge.Set(float64(m.segments.Len()))
}
