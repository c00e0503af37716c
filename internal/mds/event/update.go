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

package event

import (
	// standard libraries.
	"encoding/binary"
)

func init() {
	Register(TypeUpdate, func() Event { return &Update{} })
}

// Update journals one metadata mutation: the new attributes of the dentry
// at Path.
type Update struct {
	Path    string
	Ino     uint64
	Mode    uint32
	Size    uint64
	Version uint64
}

// Make sure Update implements Event.
var _ Event = (*Update)(nil)

func (u *Update) EventType() Type {
	return TypeUpdate
}

func (u *Update) MarshalPayload() ([]byte, error) {
	data := appendString(nil, u.Path)
	data = binary.BigEndian.AppendUint64(data, u.Ino)
	data = binary.BigEndian.AppendUint32(data, u.Mode)
	data = binary.BigEndian.AppendUint64(data, u.Size)
	data = binary.BigEndian.AppendUint64(data, u.Version)
	return data, nil
}

func (u *Update) UnmarshalPayload(data []byte) error {
	path, data, err := consumeString(data)
	if err != nil {
		return err
	}
	if len(data) < 28 {
		return ErrTruncated
	}
	u.Path = path
	u.Ino = binary.BigEndian.Uint64(data)
	u.Mode = binary.BigEndian.Uint32(data[8:])
	u.Size = binary.BigEndian.Uint64(data[12:])
	u.Version = binary.BigEndian.Uint64(data[20:])
	return nil
}

func (u *Update) Replay(st ReplayState) {
	st.ApplyUpdate(u)
}
