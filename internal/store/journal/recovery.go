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
	"context"

	// this project.
	"github.com/zmz/ceph/internal/store/journal/record"
	"github.com/zmz/ceph/observability/log"
)

// Recover loads the persisted head and probes forward from its write
// position through valid records to find the true end of the journal. The
// completion fires with the outcome; on success the journal is active.
func (j *Journaler) Recover(cb Completion) {
	h, err := readHead(j.dir)
	if err != nil {
		if cb != nil {
			go cb(err)
		}
		return
	}

	end := j.probeEnd(h.writePos)

	j.mu.Lock()
	j.writePos = end
	j.flushedPos = end
	j.expirePos = h.expirePos
	j.readPos = h.expirePos
	j.active = true
	j.mu.Unlock()

	log.Info(context.Background(), "Journal recovered.", map[string]interface{}{
		"head_write_pos": h.writePos,
		log.KeyWritePos:  end,
		log.KeyExpirePos: h.expirePos,
	})

	if cb != nil {
		go cb(nil)
	}
}

// probeEnd scans records from pos until the first torn or invalid one. The
// head write position is durable but may trail appends that were flushed
// after the last head write.
func (j *Journaler) probeEnd(pos int64) int64 {
	hbuf := make([]byte, record.HeaderSize)
	for {
		if err := j.readFull(hbuf, pos); err != nil {
			return pos
		}
		r, err := record.UnmarshalHeader(hbuf)
		if err != nil {
			return pos
		}

		buf := make([]byte, r.Length)
		if err := j.readFull(buf, pos+record.HeaderSize); err != nil {
			return pos
		}
		if record.Checksum(buf) != r.CRC {
			return pos
		}

		pos += int64(r.Size())
	}
}

// Reset discards all journal content and activates the journal at position
// zero. The head is persisted before Reset returns.
func (j *Journaler) Reset() error {
	if err := j.stream.RemoveAll(); err != nil {
		return err
	}

	j.mu.Lock()
	j.writePos = 0
	j.flushedPos = 0
	j.readPos = 0
	j.expirePos = 0
	j.pending = nil
	j.active = true
	j.mu.Unlock()

	return writeHead(j.dir, head{})
}
