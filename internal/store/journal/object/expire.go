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
	"os"
)

// Expire removes all object files whose end offset is not after off. The
// last file is always retained.
func (s *Stream) Expire(off int64) {
	var expired []*File
	defer func() {
		if expired != nil {
			go doExpire(expired)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	sz := len(s.files)
	if sz <= 1 {
		return
	}

	for i, f := range s.files[:sz-1] {
		if f.eo > off {
			if i > 0 {
				expired = s.files[:i]
				s.files = s.files[i:]
			}
			return
		}
	}
	expired = s.files[:sz-1]
	s.files = s.files[sz-1:]
}

// RemoveAll deletes every object file, returning the stream to an empty
// state.
func (s *Stream) RemoveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.files {
		_ = f.f.Close()
		if err := os.Remove(f.path); err != nil {
			return err
		}
	}
	s.files = nil
	return nil
}

func doExpire(files []*File) {
	for _, f := range files {
		_ = f.f.Close()
		_ = os.Remove(f.path)
	}
}
