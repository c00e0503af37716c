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

package object

import (
	// standard libraries.
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	// third-party libraries.
	. "github.com/smartystreets/goconvey/convey"
)

const testObjectSize int64 = 64

func TestStream_WriteRead(t *testing.T) {
	Convey("object stream write and read", t, func() {
		dir, err := os.MkdirTemp("", "object-*")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		s, err := Recover(dir, WithObjectSize(testObjectSize))
		So(err, ShouldBeNil)
		defer s.Close()

		Convey("write crossing a file boundary", func() {
			data := bytes.Repeat([]byte{0xA5}, 100)
			So(s.WriteAt(data, 0), ShouldBeNil)

			So(len(s.files), ShouldEqual, 2)
			So(s.files[0].size, ShouldEqual, testObjectSize)
			So(s.files[1].size, ShouldEqual, 100-testObjectSize)

			b := make([]byte, 100)
			n, err2 := s.ReadAt(b, 0)
			So(err2, ShouldBeNil)
			So(n, ShouldEqual, 100)
			So(b, ShouldResemble, data)
		})

		Convey("read stops at the written end", func() {
			So(s.WriteAt([]byte("abc"), 0), ShouldBeNil)

			b := make([]byte, 8)
			n, err2 := s.ReadAt(b, 0)
			So(err2, ShouldBeNil)
			So(n, ShouldEqual, 3)

			_, err2 = s.ReadAt(b, 3)
			So(err2, ShouldEqual, io.EOF)
		})

		Convey("first write aligns the file to the period boundary", func() {
			So(s.WriteAt([]byte("xyz"), 70), ShouldBeNil)

			So(len(s.files), ShouldEqual, 1)
			So(s.files[0].so, ShouldEqual, testObjectSize)
			So(s.files[0].size, ShouldEqual, 70-testObjectSize+3)

			_, err2 := os.Stat(filepath.Join(dir, fmt.Sprintf("%020d.obj", testObjectSize)))
			So(err2, ShouldBeNil)
		})
	})
}

func TestStream_Recover(t *testing.T) {
	Convey("object stream recovery", t, func() {
		dir, err := os.MkdirTemp("", "object-*")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		makeObject := func(so int64, size int) {
			path := filepath.Join(dir, fmt.Sprintf("%020d.obj", so))
			err2 := os.WriteFile(path, bytes.Repeat([]byte{0x5A}, size), defaultFilePerm)
			So(err2, ShouldBeNil)
		}

		Convey("contiguous files are all kept", func() {
			makeObject(0, int(testObjectSize))
			makeObject(testObjectSize, 10)

			s, err2 := Recover(dir, WithObjectSize(testObjectSize))
			So(err2, ShouldBeNil)
			defer s.Close()

			So(len(s.files), ShouldEqual, 2)
			So(s.files[0].so, ShouldEqual, 0)
			So(s.files[1].so, ShouldEqual, testObjectSize)
			So(s.files[1].size, ShouldEqual, 10)
		})

		Convey("files before a gap are discarded", func() {
			makeObject(0, int(testObjectSize))
			makeObject(3*testObjectSize, 10)

			s, err2 := Recover(dir, WithObjectSize(testObjectSize))
			So(err2, ShouldBeNil)
			defer s.Close()

			So(len(s.files), ShouldEqual, 1)
			So(s.files[0].so, ShouldEqual, 3*testObjectSize)

			_, err2 = os.Stat(filepath.Join(dir, fmt.Sprintf("%020d.obj", 0)))
			So(os.IsNotExist(err2), ShouldBeTrue)
		})

		Convey("foreign files are ignored", func() {
			makeObject(0, 5)
			err2 := os.WriteFile(filepath.Join(dir, "head"), []byte("head"), defaultFilePerm)
			So(err2, ShouldBeNil)

			s, err2 := Recover(dir, WithObjectSize(testObjectSize))
			So(err2, ShouldBeNil)
			defer s.Close()

			So(len(s.files), ShouldEqual, 1)
		})
	})
}

func TestStream_Expire(t *testing.T) {
	Convey("object stream expiration", t, func() {
		dir, err := os.MkdirTemp("", "object-*")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		s, err := Recover(dir, WithObjectSize(testObjectSize))
		So(err, ShouldBeNil)
		defer s.Close()

		data := bytes.Repeat([]byte{0x11}, int(3*testObjectSize))
		So(s.WriteAt(data, 0), ShouldBeNil)
		So(len(s.files), ShouldEqual, 3)

		Convey("expire removes wholly covered files", func() {
			s.Expire(testObjectSize)

			So(len(s.files), ShouldEqual, 2)
			So(s.files[0].so, ShouldEqual, testObjectSize)
		})

		Convey("the last file is always retained", func() {
			s.Expire(10 * testObjectSize)

			So(len(s.files), ShouldEqual, 1)
			So(s.files[0].so, ShouldEqual, 2*testObjectSize)
		})

		Convey("remove all deletes every file", func() {
			So(s.RemoveAll(), ShouldBeNil)

			So(len(s.files), ShouldEqual, 0)
			entries, err2 := os.ReadDir(dir)
			So(err2, ShouldBeNil)
			So(len(filterRegularObject(entries, ".obj")), ShouldEqual, 0)
		})
	})
}
