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

// Segment records one contiguous span of the journal beginning at Offset.
// Segments are owned by the segment table; everything else refers to them
// by offset.
type Segment struct {
	// Offset is the journal position at which the segment begins. It is
	// immutable and keys the segment table.
	Offset int64
	// NumEvents is the count of log events attributed to this segment.
	NumEvents int
}

func newSegment(offset int64) *Segment {
	return &Segment{Offset: offset}
}
