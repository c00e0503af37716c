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

// Package event defines the log-record variants of the metadata journal.
// Every record is wired as a leading type discriminator followed by a
// type-specific payload.
package event

import (
	// standard libraries.
	"encoding/binary"
	"errors"
	"fmt"
)

// Type is the record type discriminator.
type Type uint32

const (
	// TypeCheckpoint marks a record snapshotting the subtree partitioning
	// of the metadata tree. Every segment begins with exactly one.
	TypeCheckpoint Type = 1
	// TypeUpdate marks a metadata mutation record.
	TypeUpdate Type = 2
)

func (t Type) String() string {
	switch t {
	case TypeCheckpoint:
		return "checkpoint"
	case TypeUpdate:
		return "update"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

const typeFieldSize = 4

var (
	ErrTruncated   = errors.New("event: truncated")
	ErrUnknownType = errors.New("event: unknown type")
)

// ReplayState is the server state a recovered record is applied against.
type ReplayState interface {
	ApplyCheckpoint(cp *Checkpoint)
	ApplyUpdate(u *Update)
}

// Event is one metadata journal record.
type Event interface {
	EventType() Type
	MarshalPayload() ([]byte, error)
	UnmarshalPayload(data []byte) error
	// Replay applies the record against server state during recovery.
	Replay(st ReplayState)
}

var registry = map[Type]func() Event{}

// Register binds a record type to its factory. Duplicate registration is a
// broken internal contract.
func Register(t Type, factory func() Event) {
	if _, ok := registry[t]; ok {
		panic(fmt.Sprintf("event: type %d already registered", t))
	}
	registry[t] = factory
}

// Marshal encodes ev as a tagged payload.
func Marshal(ev Event) ([]byte, error) {
	payload, err := ev.MarshalPayload()
	if err != nil {
		return nil, err
	}
	data := make([]byte, typeFieldSize+len(payload))
	binary.BigEndian.PutUint32(data, uint32(ev.EventType()))
	copy(data[typeFieldSize:], payload)
	return data, nil
}

// Unmarshal decodes a tagged payload, dispatching on the discriminator.
func Unmarshal(data []byte) (Event, error) {
	if len(data) < typeFieldSize {
		return nil, ErrTruncated
	}
	t := Type(binary.BigEndian.Uint32(data))
	factory, ok := registry[t]
	if !ok {
		return nil, ErrUnknownType
	}
	ev := factory()
	if err := ev.UnmarshalPayload(data[typeFieldSize:]); err != nil {
		return nil, err
	}
	return ev, nil
}

// string encoding helpers shared by record payloads.

func appendString(data []byte, s string) []byte {
	data = binary.BigEndian.AppendUint16(data, uint16(len(s)))
	return append(data, s...)
}

func consumeString(data []byte) (string, []byte, error) {
	if len(data) < 2 {
		return "", nil, ErrTruncated
	}
	n := int(binary.BigEndian.Uint16(data))
	data = data[2:]
	if len(data) < n {
		return "", nil, ErrTruncated
	}
	return string(data[:n]), data[n:], nil
}
