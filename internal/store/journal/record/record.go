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

package record

import (
	// standard libraries.
	"encoding/binary"
	"errors"
	"hash/crc32"
)

const (
	crcFieldSO    = 0
	crcFieldEO    = crcFieldSO + 4
	lengthFieldSO = crcFieldEO
	lengthFieldEO = lengthFieldSO + 4
	dataFieldSO   = lengthFieldEO
)

// HeaderSize is the size of the fixed record header: crc32c + length.
const HeaderSize = dataFieldSO

var crc32q = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes the crc32c used in record headers.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, crc32q)
}

var (
	ErrTooSmall = errors.New("record: buffer too small")
	ErrChecksum = errors.New("record: checksum mismatch")
)

// Record is one framed journal entry.
type Record struct {
	// CRC is crc32c of Data.
	CRC    uint32
	Length uint32
	Data   []byte
}

func Pack(data []byte) Record {
	return Record{
		CRC:    crc32.Checksum(data, crc32q),
		Length: uint32(len(data)),
		Data:   data,
	}
}

// Size is the framed size of the record, valid even when only the header
// has been decoded.
func (r *Record) Size() int {
	return HeaderSize + int(r.Length)
}

func (r *Record) Marshal() []byte {
	data := make([]byte, r.Size())
	_, _ = r.MarshalTo(data)
	return data
}

func (r *Record) MarshalTo(data []byte) (int, error) {
	sz := r.Size()
	if len(data) < sz {
		return 0, ErrTooSmall
	}
	binary.BigEndian.PutUint32(data[crcFieldSO:crcFieldEO], r.CRC)
	binary.BigEndian.PutUint32(data[lengthFieldSO:lengthFieldEO], r.Length)
	copy(data[dataFieldSO:], r.Data)
	return sz, nil
}

// UnmarshalHeader decodes only the fixed header, leaving Data empty.
func UnmarshalHeader(data []byte) (record Record, err error) {
	if len(data) < HeaderSize {
		return record, ErrTooSmall
	}
	record.CRC = binary.BigEndian.Uint32(data[crcFieldSO:crcFieldEO])
	record.Length = binary.BigEndian.Uint32(data[lengthFieldSO:lengthFieldEO])
	return record, nil
}

func Unmarshal(data []byte) (record Record, err error) {
	if record, err = UnmarshalHeader(data); err != nil {
		return record, err
	}
	if len(data) < int(record.Length)+HeaderSize {
		return record, ErrTooSmall
	}
	record.Data = data[dataFieldSO : dataFieldSO+record.Length]
	if crc32.Checksum(record.Data, crc32q) != record.CRC {
		return record, ErrChecksum
	}
	return record, nil
}
