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

	// this project.
	"github.com/zmz/ceph/internal/mds/event"
	"github.com/zmz/ceph/internal/store/journal"
	"github.com/zmz/ceph/observability/log"
	"github.com/zmz/ceph/observability/metrics"
)

// Replay reconstructs server state from the durable journal after a
// restart. It is invoked once, before normal submission begins. If the log
// is empty onComplete fires inline; otherwise the scan runs on a separate
// goroutine and onComplete fires when it finishes.
func (m *MDLog) Replay(onComplete journal.Completion) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.journal.IsActive() {
		panic("mdlog: replay on inactive journal")
	}

	// Start reading at the last known expire point.
	m.journal.SetReadPos(m.journal.GetExpirePos())

	if m.journal.GetReadPos() == m.journal.GetWritePos() {
		log.Info(context.Background(), "Replay: journal empty, done.", nil)
		if onComplete != nil {
			onComplete(nil)
		}
		return
	}

	if onComplete != nil {
		m.replayWaiters = append(m.replayWaiters, onComplete)
	}

	log.Info(context.Background(), "Replay start.", map[string]interface{}{
		log.KeyReadPos:  m.journal.GetReadPos(),
		log.KeyWritePos: m.journal.GetWritePos(),
	})

	if m.numEvents != 0 {
		panic("mdlog: replay with attributed events")
	}

	go m.replayLoop()
}

// replayLoop runs under the shared server lock, releasing it while blocked
// on journal readability and once per processed record to admit unrelated
// work.
func (m *MDLog) replayLoop() {
	m.mu.Lock()

	newExpirePos := m.journal.GetExpirePos()
	firstApplied := false

	for {
		// Wait for a readable record.
		for !m.journal.IsReadable() &&
			m.journal.GetReadPos() < m.journal.GetWritePos() {
			m.waitForReadableLocked()
		}

		if !m.journal.IsReadable() &&
			m.journal.GetReadPos() == m.journal.GetWritePos() {
			break
		}

		pos := m.journal.GetReadPos()
		data, err := m.journal.TryReadEntry()
		if err != nil {
			panic("mdlog: read entry during replay: " + err.Error())
		}

		ev, err := event.Unmarshal(data)
		if err != nil {
			panic("mdlog: decode entry during replay: " + err.Error())
		}

		// Every segment begins with a checkpoint record.
		if ev.EventType() == event.TypeCheckpoint {
			m.segments.Set(pos, newSegment(pos))
			metrics.LogSegmentsGauge.Set(float64(m.segments.Len()))
		}

		if m.segments.Len() == 0 {
			// Records preceding the first checkpoint lack the partitioning
			// context required to apply them safely.
			log.Debug(context.Background(), "Replay waiting for checkpoint, skipping record.",
				map[string]interface{}{
					log.KeyReadPos: pos,
					"type":         ev.EventType().String(),
				})
		} else {
			ev.Replay(m.state)

			m.currentSegmentLocked().NumEvents++
			m.numEvents++
			if !firstApplied {
				firstApplied = true
				newExpirePos = pos
			}
		}

		// Yield the lock so unrelated server activity can interleave.
		m.mu.Unlock()
		m.mu.Lock()
	}

	if m.journal.GetReadPos() != m.journal.GetWritePos() {
		panic("mdlog: replay ended before write position")
	}

	log.Info(context.Background(), "Replay complete.", map[string]interface{}{
		log.KeyNumEvents:   m.numEvents,
		log.KeyNumSegments: m.segments.Len(),
		log.KeyExpirePos:   newExpirePos,
	})

	// Rewind to the first checkpoint boundary actually used, so future
	// trimming starts from a consistent point.
	m.journal.SetReadPos(newExpirePos)
	m.journal.SetExpirePos(newExpirePos)

	metrics.LogEventsGauge.Set(float64(m.numEvents))

	waiters := m.replayWaiters
	m.replayWaiters = nil
	m.mu.Unlock()

	// Replay is not complete until the rewound positions are durable; a
	// failed head write reaches the waiters.
	m.journal.WriteHead(func(err error) {
		for _, w := range waiters {
			w(err)
		}
	})
}

func (m *MDLog) waitForReadableLocked() {
	m.replayWake = false
	m.journal.WaitForReadable(func(err error) {
		m.mu.Lock()
		m.replayWake = true
		m.replayCond.Signal()
		m.mu.Unlock()
	})
	for !m.replayWake {
		m.replayCond.Wait()
	}
}
