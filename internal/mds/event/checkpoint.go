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

package event

import (
	// standard libraries.
	"encoding/binary"
)

func init() {
	Register(TypeCheckpoint, func() Event { return &Checkpoint{} })
}

// Checkpoint snapshots the spatial partitioning of the metadata tree: the
// set of subtree roots this server is authoritative for. It establishes the
// context needed to interpret all subsequent records in its segment.
type Checkpoint struct {
	Roots []string
}

// Make sure Checkpoint implements Event.
var _ Event = (*Checkpoint)(nil)

func (cp *Checkpoint) EventType() Type {
	return TypeCheckpoint
}

func (cp *Checkpoint) MarshalPayload() ([]byte, error) {
	data := binary.BigEndian.AppendUint32(nil, uint32(len(cp.Roots)))
	for _, root := range cp.Roots {
		data = appendString(data, root)
	}
	return data, nil
}

func (cp *Checkpoint) UnmarshalPayload(data []byte) error {
	if len(data) < 4 {
		return ErrTruncated
	}
	n := binary.BigEndian.Uint32(data)
	data = data[4:]

	roots := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		root, rest, err := consumeString(data)
		if err != nil {
			return err
		}
		roots = append(roots, root)
		data = rest
	}
	cp.Roots = roots
	return nil
}

func (cp *Checkpoint) Replay(st ReplayState) {
	st.ApplyCheckpoint(cp)
}
