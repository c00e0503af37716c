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

package mds

import (
	// standard libraries.
	"os"
	"path/filepath"
	"testing"

	// third-party libraries.
	. "github.com/smartystreets/goconvey/convey"
)

func TestInitConfig(t *testing.T) {
	Convey("mds config loading", t, func() {
		dir, err := os.MkdirTemp("", "mds-config-*")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		write := func(content string) string {
			path := filepath.Join(dir, "mds.yaml")
			So(os.WriteFile(path, []byte(content), 0o644), ShouldBeNil)
			return path
		}

		Convey("explicit values override the defaults", func() {
			path := write(`
data_dir: /tmp/mds
metrics_port: 9000
log:
  enabled: false
  max_segments: 8
  max_events: 100
`)
			cfg, err2 := InitConfig(path)
			So(err2, ShouldBeNil)
			So(cfg.DataDir, ShouldEqual, "/tmp/mds")
			So(cfg.MetricsPort, ShouldEqual, 9000)
			So(cfg.Log.Enabled, ShouldBeFalse)
			So(cfg.Log.MaxSegments, ShouldEqual, 8)
			So(cfg.Log.MaxEvents, ShouldEqual, 100)
			// Untouched fields keep their defaults.
			So(cfg.Log.MaxConcurrentTrims, ShouldEqual, 4)
			So(cfg.Log.ObjectPeriod, ShouldEqual, 4*1024*1024)
		})

		Convey("environment variables are expanded", func() {
			os.Setenv("MDS_TEST_DATA_DIR", "/data/mds")
			defer os.Unsetenv("MDS_TEST_DATA_DIR")

			path := write("data_dir: ${MDS_TEST_DATA_DIR}\n")
			cfg, err2 := InitConfig(path)
			So(err2, ShouldBeNil)
			So(cfg.DataDir, ShouldEqual, "/data/mds")
		})

		Convey("a missing data_dir is rejected", func() {
			path := write("metrics_port: 9000\n")
			_, err2 := InitConfig(path)
			So(err2, ShouldNotBeNil)
		})

		Convey("a missing file is an error", func() {
			_, err2 := InitConfig(filepath.Join(dir, "absent.yaml"))
			So(err2, ShouldNotBeNil)
		})
	})
}
