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

package cache

import (
	// standard libraries.
	"testing"

	// third-party libraries.
	. "github.com/smartystreets/goconvey/convey"

	// this project.
	"github.com/zmz/ceph/internal/mds/event"
)

func TestCache_Update(t *testing.T) {
	Convey("cache update", t, func() {
		c := New()

		Convey("update bumps the version and returns the record", func() {
			ev := c.Update("/a", Inode{Ino: 1, Mode: 0o644, Size: 10})

			So(ev.Path, ShouldEqual, "/a")
			So(ev.Version, ShouldEqual, 1)

			ino, ok := c.Lookup("/a")
			So(ok, ShouldBeTrue)
			So(ino.Version, ShouldEqual, 1)

			ev = c.Update("/a", Inode{Ino: 1, Mode: 0o644, Size: 20})
			So(ev.Version, ShouldEqual, 2)
		})

		Convey("replaying an update restores the entry verbatim", func() {
			c.ApplyUpdate(&event.Update{Path: "/b", Ino: 2, Mode: 0o755, Size: 5, Version: 7})

			ino, ok := c.Lookup("/b")
			So(ok, ShouldBeTrue)
			So(ino, ShouldResemble, Inode{Ino: 2, Mode: 0o755, Size: 5, Version: 7})
		})
	})
}

func TestCache_Checkpoint(t *testing.T) {
	Convey("cache checkpoint", t, func() {
		c := New()

		Convey("checkpoint snapshots the subtree roots, sorted", func() {
			c.SetSubtrees([]string{"/b", "/a"})

			ev := c.CreateCheckpointEvent()
			cp, ok := ev.(*event.Checkpoint)
			So(ok, ShouldBeTrue)
			So(cp.Roots, ShouldResemble, []string{"/a", "/b"})
			// The snapshot is a copy.
			So(c.Subtrees(), ShouldResemble, []string{"/b", "/a"})
		})

		Convey("replaying a checkpoint replaces the subtree partitioning", func() {
			c.ApplyCheckpoint(&event.Checkpoint{Roots: []string{"/x"}})
			So(c.Subtrees(), ShouldResemble, []string{"/x"})
		})
	})
}

func TestCache_SegmentExpirable(t *testing.T) {
	Convey("cache segment expirability", t, func() {
		c := New()

		Convey("a clean segment is immediately expirable", func() {
			So(c.SegmentExpirable(0), ShouldBeNil)
		})

		Convey("a dirty segment yields a gate fired by the next writeback", func() {
			c.Update("/a", Inode{Ino: 1})
			c.Journaled("/a", 0)
			So(c.NumDirty(), ShouldEqual, 1)

			g := c.SegmentExpirable(0)
			So(g, ShouldNotBeNil)
			So(g.Fired(), ShouldBeFalse)

			// Re-querying returns the same gate.
			So(c.SegmentExpirable(0), ShouldEqual, g)

			c.Flush()

			So(g.Fired(), ShouldBeTrue)
			So(c.NumDirty(), ShouldEqual, 0)
			So(c.SegmentExpirable(0), ShouldBeNil)
		})

		Convey("re-journaling moves the dirty entry to the newer segment", func() {
			c.Update("/a", Inode{Ino: 1})
			c.Journaled("/a", 0)
			c.Update("/a", Inode{Ino: 1, Size: 2})
			c.Journaled("/a", 100)

			So(c.SegmentExpirable(0), ShouldBeNil)
			So(c.SegmentExpirable(100), ShouldNotBeNil)
			So(c.NumDirty(), ShouldEqual, 1)
		})
	})
}
