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

package record

import (
	// standard libraries.
	"testing"

	// third-party libraries.
	. "github.com/smartystreets/goconvey/convey"
)

var payload = []byte{0x41, 0x42, 0x43}

func TestRecord(t *testing.T) {
	Convey("record", t, func() {
		Convey("pack and marshal", func() {
			r := Pack(payload)
			So(r.Length, ShouldEqual, 3)
			So(r.Size(), ShouldEqual, HeaderSize+3)

			data := r.Marshal()
			So(len(data), ShouldEqual, r.Size())

			r2, err := Unmarshal(data)
			So(err, ShouldBeNil)
			So(r2.CRC, ShouldEqual, r.CRC)
			So(r2.Data, ShouldResemble, payload)
		})

		Convey("unmarshal truncated buffer", func() {
			r := Pack(payload)
			data := r.Marshal()

			_, err := Unmarshal(data[:HeaderSize-1])
			So(err, ShouldEqual, ErrTooSmall)

			_, err = Unmarshal(data[:HeaderSize+1])
			So(err, ShouldEqual, ErrTooSmall)
		})

		Convey("unmarshal corrupted data", func() {
			r := Pack(payload)
			data := r.Marshal()
			data[HeaderSize] ^= 0xFF

			_, err := Unmarshal(data)
			So(err, ShouldEqual, ErrChecksum)
		})

		Convey("marshal to small buffer", func() {
			r := Pack(payload)
			_, err := r.MarshalTo(make([]byte, r.Size()-1))
			So(err, ShouldEqual, ErrTooSmall)
		})
	})
}
