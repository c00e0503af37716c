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
	"context"
	"os"
	"path/filepath"
	"strconv"

	// this project.
	"github.com/zmz/ceph/observability/log"
)

const defaultDirPerm = 0o755

// Recover rebuilds the object stream from the files in dir, keeping the
// latest contiguous run and discarding anything before a gap.
func Recover(dir string, opts ...Option) (*Stream, error) {
	cfg := makeConfig(opts...)

	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return nil, err
	}

	files, err := scanObjectFiles(dir, cfg)
	if err != nil {
		return nil, err
	}

	return &Stream{
		files:      files,
		dir:        dir,
		ext:        cfg.ext,
		objectSize: cfg.objectSize,
	}, nil
}

func scanObjectFiles(dir string, cfg config) (files []*File, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries = filterRegularObject(entries, cfg.ext)

	var discards []*File
	var last *File
	for _, entry := range entries {
		filename := entry.Name()
		so, err2 := strconv.ParseInt(filename[:len(filename)-len(cfg.ext)], 10, 64)
		if err2 != nil {
			return nil, err2
		}

		if last != nil && so != last.eo {
			// discontinuous object stream
			log.Warning(context.Background(), "Discontinuous object file, discard before.",
				map[string]interface{}{
					"last_end":   last.eo,
					"next_start": so,
				})
			discards = append(discards, files...)
			files = nil
		}

		info, err2 := entry.Info()
		if err2 != nil {
			return nil, err2
		}

		path := filepath.Join(dir, filename)
		f, err2 := os.OpenFile(path, os.O_RDWR, defaultFilePerm)
		if err2 != nil {
			return nil, err2
		}

		last = &File{
			path: path,
			so:   so,
			eo:   so + cfg.objectSize,
			size: info.Size(),
			f:    f,
		}
		files = append(files, last)
	}

	for _, f := range discards {
		_ = f.f.Close()
		_ = os.Remove(f.path)
	}

	return files, nil
}

func filterRegularObject(entries []os.DirEntry, ext string) []os.DirEntry {
	if len(entries) == 0 {
		return entries
	}

	n := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if filepath.Ext(entry.Name()) != ext {
			continue
		}
		entries[n] = entry
		n++
	}
	return entries[:n]
}
