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

package gather

import (
	// standard libraries.
	"testing"

	// third-party libraries.
	. "github.com/smartystreets/goconvey/convey"
)

func TestGather(t *testing.T) {
	Convey("gather", t, func() {
		Convey("fires after last done", func() {
			g := New(2)

			var order []int
			g.OnComplete(func() {
				order = append(order, 0)
			})
			g.OnComplete(func() {
				order = append(order, 1)
			})

			g.Done()
			So(g.Fired(), ShouldBeFalse)
			So(order, ShouldBeEmpty)

			g.Done()
			So(g.Fired(), ShouldBeTrue)
			So(order, ShouldResemble, []int{0, 1})
		})

		Convey("waiter after fire runs inline", func() {
			g := New(1)
			g.Done()

			var fired bool
			g.OnComplete(func() {
				fired = true
			})
			So(fired, ShouldBeTrue)
		})

		Convey("add extends the gate", func() {
			g := New(1)
			g.Add(1)

			var fired bool
			g.OnComplete(func() {
				fired = true
			})

			g.Done()
			So(fired, ShouldBeFalse)
			g.Done()
			So(fired, ShouldBeTrue)
		})

		Convey("done after fire panics", func() {
			g := New(1)
			g.Done()
			So(func() { g.Done() }, ShouldPanic)
		})
	})
}
