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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	// this project.
	"github.com/zmz/ceph/observability/log"
)

const defaultFilePerm = 0o644

// File is one period-sized object of the journal stream, covering the
// offset range [so, eo). Only a prefix of size bytes has been written.
type File struct {
	path string
	so   int64
	eo   int64
	size int64
	f    *os.File
}

func (f *File) StartOffset() int64 {
	return f.so
}

func (f *File) EndOffset() int64 {
	return f.eo
}

// Stream is a run of contiguous object files backing the journal byte
// stream. Offsets are global stream offsets; file boundaries fall at
// multiples of the object size.
type Stream struct {
	mu    sync.RWMutex
	files []*File

	dir        string
	ext        string
	objectSize int64
}

func (s *Stream) Dir() string {
	return s.dir
}

func (s *Stream) ObjectSize() int64 {
	return s.objectSize
}

func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		if err := f.f.Close(); err != nil {
			log.Error(context.Background(), "Close object file failed.", map[string]interface{}{
				"path": f.path,
				log.KeyError: err,
			})
		}
	}
	s.files = nil
}

// WriteAt writes data at stream offset off, creating object files as the
// write crosses file boundaries, and syncs every touched file.
func (s *Stream) WriteAt(data []byte, off int64) error {
	for len(data) > 0 {
		f := s.selectFile(off, true)
		if f == nil {
			return fmt.Errorf("object: no file covers offset %d", off)
		}
		n := f.eo - off
		if n > int64(len(data)) {
			n = int64(len(data))
		}
		if _, err := f.f.WriteAt(data[:n], off-f.so); err != nil {
			return err
		}
		if err := f.f.Sync(); err != nil {
			return err
		}
		if end := off - f.so + n; end > f.size {
			f.size = end
		}
		data = data[n:]
		off += n
	}
	return nil
}

// ReadAt reads up to len(b) bytes at stream offset off. It may return a
// short read at a file boundary; io.EOF is returned past the written end.
func (s *Stream) ReadAt(b []byte, off int64) (int, error) {
	read := 0
	for read < len(b) {
		f := s.selectFile(off, false)
		if f == nil {
			if read > 0 {
				return read, nil
			}
			return 0, io.EOF
		}
		avail := f.size - (off - f.so)
		if avail <= 0 {
			if read > 0 {
				return read, nil
			}
			return 0, io.EOF
		}
		n := int64(len(b) - read)
		if n > avail {
			n = avail
		}
		if _, err := f.f.ReadAt(b[read:read+int(n)], off-f.so); err != nil {
			return read, err
		}
		read += int(n)
		off += n
	}
	return read, nil
}

func (s *Stream) selectFile(offset int64, autoCreate bool) *File {
	s.mu.RLock()

	sz := len(s.files)
	if sz == 0 {
		s.mu.RUnlock()

		if !autoCreate {
			return nil
		}
		return s.createNextFile(nil, offset)
	}

	// Fast return for append.
	if last := s.files[sz-1]; offset >= last.so {
		s.mu.RUnlock()

		if offset < last.eo {
			return last
		}
		if offset == last.eo {
			if !autoCreate {
				return nil
			}
			return s.createNextFile(last, 0)
		}
		panic("object: stream overflow")
	}

	defer s.mu.RUnlock()

	first := s.files[0]
	if offset < first.so {
		return nil
	}

	i := sort.Search(sz-1, func(i int) bool {
		return s.files[i].eo > offset
	})
	return s.files[i]
}

func (s *Stream) createNextFile(last *File, offset int64) *File {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last != nil {
		// Another goroutine may have created the file.
		if cur := s.files[len(s.files)-1]; cur != last {
			return cur
		}
	}

	var so int64
	if last != nil {
		so = last.eo
	} else {
		// The first file starts at the period boundary at or below offset.
		so = offset - offset%s.objectSize
	}

	f, err := createFile(s.dir, so, s.objectSize, s.ext)
	if err != nil {
		panic(fmt.Sprintf("object: create file at offset %d: %v", so, err))
	}
	s.files = append(s.files, f)
	return f
}

func createFile(dir string, so, size int64, ext string) (*File, error) {
	path := filepath.Join(dir, fmt.Sprintf("%020d%s", so, ext))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, defaultFilePerm)
	if err != nil {
		return nil, err
	}
	return &File{
		path: path,
		so:   so,
		eo:   so + size,
		f:    f,
	}, nil
}
