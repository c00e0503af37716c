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
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	// third-party libraries.
	. "github.com/smartystreets/goconvey/convey"

	// this project.
	"github.com/zmz/ceph/internal/store/journal/record"
)

var (
	entry0 = []byte{0x41, 0x42, 0x43}
	entry1 = []byte{0x44, 0x45, 0x46, 0x47}
)

func flushAndWait(j *Journaler) error {
	done := make(chan error, 1)
	j.Flush(func(err error) {
		done <- err
	})
	return <-done
}

func TestJournaler_AppendFlushRead(t *testing.T) {
	Convey("journal append, flush and read", t, func() {
		dir, err := os.MkdirTemp("", "journal-*")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		j, err := New(dir, WithObjectSize(128))
		So(err, ShouldBeNil)
		So(j.Reset(), ShouldBeNil)
		defer j.Close()

		Convey("append advances the write position immediately", func() {
			so0 := j.AppendEntry(entry0)
			so1 := j.AppendEntry(entry1)

			So(so0, ShouldEqual, 0)
			So(so1, ShouldEqual, record.HeaderSize+len(entry0))
			So(j.GetWritePos(), ShouldEqual, so1+record.HeaderSize+int64(len(entry1)))

			Convey("entries are not readable before a flush", func() {
				So(j.IsReadable(), ShouldBeFalse)
				_, err2 := j.TryReadEntry()
				So(err2, ShouldEqual, ErrNotReadable)
			})

			Convey("entries read back in order after a flush", func() {
				So(flushAndWait(j), ShouldBeNil)

				data, err2 := j.TryReadEntry()
				So(err2, ShouldBeNil)
				So(data, ShouldResemble, entry0)
				So(j.GetReadPos(), ShouldEqual, so1)

				data, err2 = j.TryReadEntry()
				So(err2, ShouldBeNil)
				So(data, ShouldResemble, entry1)
				So(j.GetReadPos(), ShouldEqual, j.GetWritePos())

				_, err2 = j.TryReadEntry()
				So(err2, ShouldEqual, ErrNotReadable)
			})
		})

		Convey("readable waiter fires after the durable range grows", func() {
			fired := make(chan error, 1)
			j.WaitForReadable(func(err2 error) {
				fired <- err2
			})

			j.AppendEntry(entry0)
			So(flushAndWait(j), ShouldBeNil)

			So(<-fired, ShouldBeNil)
			So(j.IsReadable(), ShouldBeTrue)
		})

		Convey("readable waiter fires immediately when readable", func() {
			j.AppendEntry(entry0)
			So(flushAndWait(j), ShouldBeNil)

			fired := make(chan error, 1)
			j.WaitForReadable(func(err2 error) {
				fired <- err2
			})
			So(<-fired, ShouldBeNil)
		})

		Convey("flush never blocks while a completion waits on the caller", func() {
			// Park the flusher on a lock the flushing goroutine holds.
			var lk sync.Mutex
			lk.Lock()
			parked := make(chan struct{})
			j.AppendEntry(entry0)
			j.Flush(func(err2 error) {
				lk.Lock()
				lk.Unlock()
				close(parked)
			})

			var mu sync.Mutex
			var order []int
			done := make(chan struct{})
			returned := make(chan struct{})
			go func() {
				for i := 0; i < 128; i++ {
					i := i
					j.AppendEntry(entry0)
					j.Flush(func(err2 error) {
						mu.Lock()
						order = append(order, i)
						mu.Unlock()
						if i == 127 {
							close(done)
						}
					})
				}
				close(returned)
			}()

			var ok bool
			select {
			case <-returned:
				ok = true
			case <-time.After(time.Second):
			}
			So(ok, ShouldBeTrue)

			lk.Unlock()
			<-parked
			<-done

			mu.Lock()
			defer mu.Unlock()
			So(len(order), ShouldEqual, 128)
			for i, o := range order {
				So(o, ShouldEqual, i)
			}
		})

		Convey("append on inactive journal panics", func() {
			j2, err2 := New(dir+"-inactive", WithObjectSize(128))
			So(err2, ShouldBeNil)
			defer func() {
				j2.Close()
				os.RemoveAll(dir + "-inactive")
			}()

			So(func() { j2.AppendEntry(entry0) }, ShouldPanic)
		})
	})
}

func TestJournaler_Recover(t *testing.T) {
	Convey("journal recovery", t, func() {
		dir, err := os.MkdirTemp("", "journal-*")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		recoverAndWait := func(j *Journaler) error {
			done := make(chan error, 1)
			j.Recover(func(err2 error) {
				done <- err2
			})
			return <-done
		}

		Convey("recover without a head", func() {
			j, err2 := New(dir)
			So(err2, ShouldBeNil)
			defer j.Close()

			So(recoverAndWait(j), ShouldEqual, ErrNoHead)
			So(j.IsActive(), ShouldBeFalse)
		})

		Convey("recover resumes at the persisted positions", func() {
			j, err2 := New(dir, WithObjectSize(128))
			So(err2, ShouldBeNil)
			So(j.Reset(), ShouldBeNil)
			j.AppendEntry(entry0)
			so1 := j.AppendEntry(entry1)
			So(flushAndWait(j), ShouldBeNil)
			end := j.GetWritePos()
			j.Close()

			j, err2 = New(dir, WithObjectSize(128))
			So(err2, ShouldBeNil)
			defer j.Close()
			So(recoverAndWait(j), ShouldBeNil)

			So(j.IsActive(), ShouldBeTrue)
			So(j.GetWritePos(), ShouldEqual, end)
			So(j.GetReadPos(), ShouldEqual, 0)

			data, err2 := j.TryReadEntry()
			So(err2, ShouldBeNil)
			So(data, ShouldResemble, entry0)

			Convey("recover after expiration starts reading at the expire position", func() {
				j.SetExpirePos(so1)
				done := make(chan error, 1)
				j.WriteHead(func(err3 error) {
					done <- err3
				})
				So(<-done, ShouldBeNil)
				j.Close()

				j2, err3 := New(dir, WithObjectSize(128))
				So(err3, ShouldBeNil)
				defer j2.Close()
				So(recoverAndWait(j2), ShouldBeNil)

				So(j2.GetExpirePos(), ShouldEqual, so1)
				So(j2.GetReadPos(), ShouldEqual, so1)

				data, err3 = j2.TryReadEntry()
				So(err3, ShouldBeNil)
				So(data, ShouldResemble, entry1)
			})
		})

		Convey("recover probes forward past a stale head", func() {
			j, err2 := New(dir, WithObjectSize(128))
			So(err2, ShouldBeNil)
			So(j.Reset(), ShouldBeNil)
			j.AppendEntry(entry0)
			so1 := j.AppendEntry(entry1)
			So(flushAndWait(j), ShouldBeNil)
			end := j.GetWritePos()
			j.Close()

			// Rewind the head to before the last entry.
			So(writeHead(dir, head{writePos: so1}), ShouldBeNil)

			j, err2 = New(dir, WithObjectSize(128))
			So(err2, ShouldBeNil)
			defer j.Close()
			So(recoverAndWait(j), ShouldBeNil)

			So(j.GetWritePos(), ShouldEqual, end)
		})

		Convey("recover stops at a torn record", func() {
			j, err2 := New(dir, WithObjectSize(128))
			So(err2, ShouldBeNil)
			So(j.Reset(), ShouldBeNil)
			j.AppendEntry(entry0)
			so1 := j.AppendEntry(entry1)
			So(flushAndWait(j), ShouldBeNil)
			j.Close()

			// Corrupt the payload of the second entry.
			path := filepath.Join(dir, fmt.Sprintf("%020d.obj", 0))
			f, err2 := os.OpenFile(path, os.O_RDWR, 0o644)
			So(err2, ShouldBeNil)
			_, err2 = f.WriteAt([]byte{0xFF}, so1+record.HeaderSize)
			So(err2, ShouldBeNil)
			So(f.Close(), ShouldBeNil)
			So(writeHead(dir, head{writePos: 0}), ShouldBeNil)

			j, err2 = New(dir, WithObjectSize(128))
			So(err2, ShouldBeNil)
			defer j.Close()
			So(recoverAndWait(j), ShouldBeNil)

			So(j.GetWritePos(), ShouldEqual, so1)

			data, err2 := j.TryReadEntry()
			So(err2, ShouldBeNil)
			So(data, ShouldResemble, entry0)
			_, err2 = j.TryReadEntry()
			So(err2, ShouldEqual, ErrNotReadable)
		})
	})
}
