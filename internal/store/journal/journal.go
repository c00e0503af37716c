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

// Package journal implements the append-only log-stream transport of the
// metadata journal: ordered framed appends with completion-based flushing,
// sequential reads with position tracking, and explicit write/read/expire
// position control over a run of period-sized object files.
package journal

import (
	// standard libraries.
	"context"
	"errors"
	"sync"
	"time"

	// this project.
	"github.com/zmz/ceph/internal/store/journal/object"
	"github.com/zmz/ceph/internal/store/journal/record"
	"github.com/zmz/ceph/observability/log"
	"github.com/zmz/ceph/observability/metrics"
)

var (
	ErrClosed      = errors.New("journal: closed")
	ErrNotActive   = errors.New("journal: not active")
	ErrNotReadable = errors.New("journal: not readable")
)

// Completion is a one-shot durability callback. It is invoked exactly once,
// off the caller's goroutine, with the status of the operation it was
// attached to.
type Completion func(err error)

type flushTask struct {
	so       int64
	data     []byte
	head     head
	syncHead bool
	cbs      []Completion
}

// Journaler is the journal transport handle. The write position is owned by
// the appender, the read position by the replay scan, and the expire
// position by the trimmer; all three are tracked here.
type Journaler struct {
	mu sync.Mutex

	// writePos is the logical end of the journal, including unflushed data.
	writePos int64
	// flushedPos is the durable end of the journal.
	flushedPos int64
	readPos    int64
	expirePos  int64

	pending   []byte
	pendingSO int64

	readableWaiters []Completion

	stream *object.Stream
	dir    string
	cfg    config

	active bool
	closed bool

	// tasks is the flush queue. It is unbounded so that Flush never blocks:
	// completions may need locks held by the caller of a later Flush.
	tasks []flushTask
	taskC chan struct{}
	doneC chan struct{}
}

// New creates an inactive Journaler for dir. Recover or Reset must be
// called before any append or read.
func New(dir string, opts ...Option) (*Journaler, error) {
	cfg := makeConfig(opts...)

	stream, err := object.Recover(dir, cfg.objectOptions()...)
	if err != nil {
		return nil, err
	}

	j := &Journaler{
		stream: stream,
		dir:    dir,
		cfg:    cfg,
		taskC:  make(chan struct{}, 1),
		doneC:  make(chan struct{}),
	}

	go j.runFlush()

	return j, nil
}

func (j *Journaler) Dir() string {
	return j.dir
}

// ObjectSize is the period of the underlying object store; segment
// boundaries are aligned to it.
func (j *Journaler) ObjectSize() int64 {
	return j.stream.ObjectSize()
}

// IsActive reports whether the journal has been recovered or reset and is
// ready for I/O.
func (j *Journaler) IsActive() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.active
}

func (j *Journaler) GetWritePos() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.writePos
}

func (j *Journaler) GetReadPos() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.readPos
}

func (j *Journaler) SetReadPos(pos int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.readPos = pos
}

func (j *Journaler) GetExpirePos() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.expirePos
}

// SetExpirePos advances the expire position and releases object files that
// fall wholly behind it. The new position is persisted with the next head
// write.
func (j *Journaler) SetExpirePos(pos int64) {
	j.mu.Lock()
	j.expirePos = pos
	j.mu.Unlock()

	metrics.LogExpirePosGauge.Set(float64(pos))
	j.stream.Expire(pos)
}

// AppendEntry frames data and appends it to the journal, advancing the
// write position immediately. The entry is not durable until a flush
// completes. It returns the stream offset at which the entry begins.
func (j *Journaler) AppendEntry(data []byte) int64 {
	r := record.Pack(data)

	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.active {
		panic("journal: append on inactive journal")
	}

	if len(j.pending) == 0 {
		j.pendingSO = j.writePos
	}
	so := j.writePos
	j.pending = append(j.pending, r.Marshal()...)
	j.writePos += int64(r.Size())

	metrics.LogWritePosGauge.Set(float64(j.writePos))

	return so
}

// Flush hands all pending entries to the flusher. The completion, if any,
// fires once everything appended so far is durable, in submission order
// with every other completion. Flush never blocks.
func (j *Journaler) Flush(cb Completion) {
	j.mu.Lock()

	if j.closed {
		j.mu.Unlock()
		if cb != nil {
			go cb(ErrClosed)
		}
		return
	}

	task := flushTask{
		so:       j.pendingSO,
		data:     j.pending,
		head:     head{writePos: j.writePos, expirePos: j.expirePos},
		syncHead: j.active,
	}
	if cb != nil {
		task.cbs = []Completion{cb}
	}
	j.pending = nil

	j.tasks = append(j.tasks, task)
	j.mu.Unlock()

	j.wakeFlusher()
}

func (j *Journaler) wakeFlusher() {
	select {
	case j.taskC <- struct{}{}:
	default:
	}
}

// WriteHead persists the current positions without flushing data.
func (j *Journaler) WriteHead(cb Completion) {
	j.Flush(cb)
}

func (j *Journaler) runFlush() {
	for {
		j.mu.Lock()
		if len(j.tasks) == 0 {
			closed := j.closed
			j.mu.Unlock()
			if closed {
				break
			}
			<-j.taskC
			continue
		}
		task := j.tasks[0]
		j.tasks = j.tasks[1:]
		j.mu.Unlock()

		j.processTask(task)
	}

	j.drainOnClose()
	close(j.doneC)
}

func (j *Journaler) processTask(task flushTask) {
	start := time.Now()

	err := j.doFlush(task)

	metrics.JournalFlushLatencySecond.Observe(time.Since(start).Seconds())
	metrics.JournalFlushBytesCounter.Add(float64(len(task.data)))

	var waiters []Completion
	if err == nil {
		j.mu.Lock()
		if end := task.so + int64(len(task.data)); end > j.flushedPos {
			j.flushedPos = end
		}
		waiters = j.takeReadableWaitersLocked()
		j.mu.Unlock()
	} else {
		log.Error(context.Background(), "Journal flush failed.", map[string]interface{}{
			log.KeyWritePos: task.so,
			log.KeyError:    err,
		})
	}

	for _, cb := range task.cbs {
		cb(err)
	}
	for _, w := range waiters {
		w(nil)
	}
}

func (j *Journaler) doFlush(task flushTask) error {
	if len(task.data) != 0 {
		if err := j.stream.WriteAt(task.data, task.so); err != nil {
			return err
		}
	}
	if !task.syncHead {
		return nil
	}
	return writeHead(j.dir, task.head)
}

func (j *Journaler) drainOnClose() {
	j.mu.Lock()
	waiters := j.takeReadableWaitersLocked()
	j.mu.Unlock()

	for _, w := range waiters {
		w(ErrClosed)
	}
}

// Close flushes pending data, stops the flusher and closes all files.
func (j *Journaler) Close() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		<-j.doneC
		return
	}
	j.closed = true

	task := flushTask{
		so:       j.pendingSO,
		data:     j.pending,
		head:     head{writePos: j.writePos, expirePos: j.expirePos},
		syncHead: j.active,
	}
	j.pending = nil

	j.tasks = append(j.tasks, task)
	j.mu.Unlock()

	j.wakeFlusher()
	<-j.doneC
	j.stream.Close()
}
