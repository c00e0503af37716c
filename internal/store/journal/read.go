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

package journal

import (
	// standard libraries.
	"io"

	// this project.
	"github.com/zmz/ceph/internal/store/journal/record"
)

// IsReadable reports whether a complete entry is durable at the read
// position.
func (j *Journaler) IsReadable() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.isReadableLocked()
}

func (j *Journaler) isReadableLocked() bool {
	_, ok := j.peekEntryLocked()
	return ok
}

// peekEntryLocked decodes the record header at the read position and
// reports whether the full entry lies within the durable range.
func (j *Journaler) peekEntryLocked() (record.Record, bool) {
	if j.readPos+record.HeaderSize > j.flushedPos {
		return record.Record{}, false
	}

	hbuf := make([]byte, record.HeaderSize)
	if err := j.readFull(hbuf, j.readPos); err != nil {
		return record.Record{}, false
	}
	r, err := record.UnmarshalHeader(hbuf)
	if err != nil {
		return record.Record{}, false
	}
	if j.readPos+int64(r.Size()) > j.flushedPos {
		return record.Record{}, false
	}
	return r, true
}

// TryReadEntry reads the framed entry at the read position and advances it.
// ErrNotReadable is returned when no complete entry is durable there.
func (j *Journaler) TryReadEntry() ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	r, ok := j.peekEntryLocked()
	if !ok {
		return nil, ErrNotReadable
	}

	buf := make([]byte, r.Size())
	if err := j.readFull(buf, j.readPos); err != nil {
		return nil, err
	}
	rec, err := record.Unmarshal(buf)
	if err != nil {
		return nil, err
	}

	j.readPos += int64(rec.Size())
	return rec.Data, nil
}

// WaitForReadable registers a completion fired after the durable range
// grows. The caller rechecks readability; a fire does not guarantee an
// entry is available.
func (j *Journaler) WaitForReadable(cb Completion) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		go cb(ErrClosed)
		return
	}
	if j.isReadableLocked() {
		go cb(nil)
		return
	}
	j.readableWaiters = append(j.readableWaiters, cb)
}

func (j *Journaler) takeReadableWaitersLocked() []Completion {
	waiters := j.readableWaiters
	j.readableWaiters = nil
	return waiters
}

// readFull reads exactly len(b) bytes at stream offset off.
func (j *Journaler) readFull(b []byte, off int64) error {
	read := 0
	for read < len(b) {
		n, err := j.stream.ReadAt(b[read:], off+int64(read))
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		read += n
	}
	return nil
}
