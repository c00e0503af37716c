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

// Package mdlog is the metadata journal manager of the MDS: it owns the
// append-only log of metadata mutations, partitions it into segments
// aligned to checkpoint records, trims segments whose content is no longer
// referenced, and replays the log after a restart.
package mdlog

//go:generate mockgen -source=mdlog.go -destination=testing/mock_cache.go -package=testing

import (
	// standard libraries.
	"context"
	"sync"

	// third-party libraries.
	"github.com/huandu/skiplist"

	// this project.
	"github.com/zmz/ceph/internal/mds/event"
	"github.com/zmz/ceph/internal/primitive/gather"
	"github.com/zmz/ceph/internal/store/journal"
	"github.com/zmz/ceph/observability/log"
	"github.com/zmz/ceph/observability/metrics"
)

// Cache is the metadata cache collaborator of the journal. It supplies
// checkpoint records and decides segment expirability.
//
// SegmentExpirable returns nil when the segment at offset may expire now,
// or a gate that fires once the blocking references may be gone; the gate
// may already have fired. The journal re-queries after every fire.
type Cache interface {
	CreateCheckpointEvent() event.Event
	SegmentExpirable(offset int64) *gather.Gather
}

// MDLog is the metadata journal manager. All public methods serialize on
// the shared server lock passed to New.
type MDLog struct {
	mu         *sync.Mutex
	replayCond *sync.Cond
	replayWake bool

	journal *journal.Journaler
	cache   Cache
	state   event.ReplayState

	cfg config

	// segments maps a start offset to its live segment, ordered by offset.
	segments *skiplist.SkipList
	// trimming tracks segments with an expirability check in flight.
	trimming map[int64]*Segment

	numEvents int64
	unflushed int
	capped    bool

	// writingCheckpoint suppresses segment rotation while the checkpoint
	// record opening a new segment is in flight.
	writingCheckpoint bool

	replayWaiters []journal.Completion
}

// New creates the journal manager over j, serialized on lk (the lock shared
// with the rest of the metadata server). The journal is unusable until
// Create, or Open followed by Replay or Append.
func New(lk *sync.Mutex, j *journal.Journaler, c Cache, st event.ReplayState, opts ...Option) *MDLog {
	m := &MDLog{
		mu:       lk,
		journal:  j,
		cache:    c,
		state:    st,
		cfg:      makeConfig(opts...),
		segments: skiplist.New(skiplist.Int64),
		trimming: make(map[int64]*Segment),
	}
	m.replayCond = sync.NewCond(lk)
	return m
}

// Create resets the journal to empty and seeds the segment table with the
// first segment. onDone fires once the opening checkpoint is durable.
func (m *MDLog) Create(onDone journal.Completion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log.Info(context.Background(), "Create empty metadata journal.", map[string]interface{}{
		"dir": m.journal.Dir(),
	})

	if err := m.journal.Reset(); err != nil {
		return err
	}
	m.startNewSegmentLocked(onDone)
	return nil
}

// Open recovers the journal bounds from durable state. Replay or Append
// will follow.
func (m *MDLog) Open(onDone journal.Completion) {
	log.Info(context.Background(), "Open metadata journal, discovering bounds.", map[string]interface{}{
		"dir": m.journal.Dir(),
	})
	m.journal.Recover(onDone)
}

// Append positions the journal for appending without replaying: the read
// and expire positions move to the end of the log.
func (m *MDLog) Append() {
	m.mu.Lock()
	defer m.mu.Unlock()

	wp := m.journal.GetWritePos()
	m.journal.SetReadPos(wp)
	m.journal.SetExpirePos(wp)
}

// SubmitEntry appends ev to the journal, attributing it to the current
// segment, and returns the segment's offset. If onDurable is non-nil it
// fires once the record is durable; otherwise durability is eventual.
func (m *MDLog) SubmitEntry(ev event.Event, onDurable journal.Completion) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitEntryLocked(ev, onDurable)
}

// SubmitEntryLocked is SubmitEntry for callers already holding the server
// lock. It lets an event be built and appended under one critical section,
// so the journal order matches the order the event was produced in.
func (m *MDLog) SubmitEntryLocked(ev event.Event, onDurable journal.Completion) int64 {
	return m.submitEntryLocked(ev, onDurable)
}

func (m *MDLog) submitEntryLocked(ev event.Event, onDurable journal.Completion) int64 {
	if !m.cfg.enabled {
		// Journal is administratively disabled: bypass, not an error.
		if onDurable != nil {
			go onDurable(nil)
		}
		return -1
	}

	if m.segments.Len() == 0 {
		panic("mdlog: submit with empty segment table")
	}
	if m.capped {
		panic("mdlog: submit on capped journal")
	}

	seg := m.currentSegmentLocked()
	seg.NumEvents++
	m.numEvents++

	data, err := event.Marshal(ev)
	if err != nil {
		panic("mdlog: marshal event: " + err.Error())
	}
	m.journal.AppendEntry(data)

	metrics.LogEventsAddedCounter.Inc()
	metrics.LogEventsGauge.Set(float64(m.numEvents))

	if onDurable != nil {
		m.unflushed = 0
		m.journal.Flush(onDurable)
	} else {
		m.unflushed++
	}

	// Roll a new segment once the write position crosses into a new
	// period-aligned window, with hysteresis so a segment is not rolled
	// for every small write near a boundary.
	period := m.journal.ObjectSize()
	margin := m.cfg.rotateMargin
	if margin == 0 {
		margin = period / 2
	}
	wp := m.journal.GetWritePos()
	last := seg.Offset
	if !m.writingCheckpoint && wp/period != last/period && wp-last > margin {
		log.Debug(context.Background(), "Submit also starting new segment.", map[string]interface{}{
			log.KeySegmentOffset: last,
			log.KeyWritePos:      wp,
		})
		m.startNewSegmentLocked(nil)
	}

	return seg.Offset
}

// StartNewSegment rolls the current segment: a new segment is inserted at
// the write position and opened with a checkpoint record. onDurable, if
// given, fires once the journal is synced past the checkpoint.
func (m *MDLog) StartNewSegment(onDurable journal.Completion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startNewSegmentLocked(onDurable)
}

func (m *MDLog) startNewSegmentLocked(onDurable journal.Completion) {
	if m.writingCheckpoint {
		panic("mdlog: overlapping segment rotation")
	}

	wp := m.journal.GetWritePos()
	log.Debug(context.Background(), "Start new segment.", map[string]interface{}{
		log.KeySegmentOffset: wp,
	})

	m.segments.Set(wp, newSegment(wp))
	m.writingCheckpoint = true

	cp := m.cache.CreateCheckpointEvent()
	m.submitEntryLocked(cp, func(err error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.loggedCheckpointLocked(wp, err)
	})
	if onDurable != nil {
		m.waitForSyncLocked(onDurable)
	}

	metrics.LogSegmentsAddedCounter.Inc()
	metrics.LogSegmentsGauge.Set(float64(m.segments.Len()))
}

func (m *MDLog) loggedCheckpointLocked(offset int64, err error) {
	if err != nil {
		log.Error(context.Background(), "Checkpoint write failed.", map[string]interface{}{
			log.KeySegmentOffset: offset,
			log.KeyError:         err,
		})
	}
	log.Debug(context.Background(), "Checkpoint durable.", map[string]interface{}{
		log.KeySegmentOffset: offset,
	})
	m.writingCheckpoint = false
}

// WaitForSync fires onDone once everything submitted so far is durable.
func (m *MDLog) WaitForSync(onDone journal.Completion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitForSyncLocked(onDone)
}

func (m *MDLog) waitForSyncLocked(onDone journal.Completion) {
	if !m.cfg.enabled {
		// bypass.
		if onDone != nil {
			go onDone(nil)
		}
		return
	}
	m.journal.Flush(onDone)
}

// Flush issues a bare flush if there are unsynchronized submissions, then
// runs a trim pass.
func (m *MDLog) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unflushed > 0 {
		m.journal.Flush(nil)
	}
	m.unflushed = 0

	m.trimLocked()
}

// Cap marks the journal as capped: no further submissions will occur, and
// the tail segment becomes eligible for trimming. This is a one-way
// transition.
func (m *MDLog) Cap() {
	m.mu.Lock()
	defer m.mu.Unlock()

	log.Info(context.Background(), "Cap metadata journal.", map[string]interface{}{
		log.KeyNumEvents: m.numEvents,
	})
	m.capped = true
}

// Close flushes and shuts down the journal transport.
func (m *MDLog) Close() {
	m.journal.Close()
}

func (m *MDLog) currentSegmentLocked() *Segment {
	back := m.segments.Back()
	if back == nil {
		return nil
	}
	return back.Value.(*Segment)
}

func (m *MDLog) oldestSegmentLocked() *Segment {
	front := m.segments.Front()
	if front == nil {
		return nil
	}
	return front.Value.(*Segment)
}

// NumEvents is the count of events in live segments.
func (m *MDLog) NumEvents() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.numEvents
}

// NumSegments is the count of live segments.
func (m *MDLog) NumSegments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.segments.Len()
}

// SegmentOffsets lists the live segment offsets in ascending order.
func (m *MDLog) SegmentOffsets() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	offsets := make([]int64, 0, m.segments.Len())
	for el := m.segments.Front(); el != nil; el = el.Next() {
		offsets = append(offsets, el.Value.(*Segment).Offset)
	}
	return offsets
}

// WritingCheckpoint reports whether a checkpoint record is in flight.
func (m *MDLog) WritingCheckpoint() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writingCheckpoint
}

func (m *MDLog) GetReadPos() int64 {
	return m.journal.GetReadPos()
}

func (m *MDLog) GetWritePos() int64 {
	return m.journal.GetWritePos()
}
