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
	"encoding/binary"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
)

const (
	headFileName = "head"

	headMagic   uint32 = 0x4D444A48 // "MDJH"
	headVersion uint32 = 1

	headMagicSO     = 0
	headMagicEO     = headMagicSO + 4
	headVersionSO   = headMagicEO
	headVersionEO   = headVersionSO + 4
	headWritePosSO  = headVersionEO
	headWritePosEO  = headWritePosSO + 8
	headExpirePosSO = headWritePosEO
	headExpirePosEO = headExpirePosSO + 8
	headCRCSO       = headExpirePosEO
	headCRCEO       = headCRCSO + 4

	headSize = headCRCEO
)

var (
	ErrNoHead        = errors.New("journal: no head")
	ErrCorruptedHead = errors.New("journal: corrupted head")
)

var headCRC32q = crc32.MakeTable(crc32.Castagnoli)

// head is the small persisted object tracking the durable write position
// and the expire position, so recovery can resume without rescanning
// expired objects.
type head struct {
	writePos  int64
	expirePos int64
}

func (h *head) marshal() []byte {
	data := make([]byte, headSize)
	binary.BigEndian.PutUint32(data[headMagicSO:headMagicEO], headMagic)
	binary.BigEndian.PutUint32(data[headVersionSO:headVersionEO], headVersion)
	binary.BigEndian.PutUint64(data[headWritePosSO:headWritePosEO], uint64(h.writePos))
	binary.BigEndian.PutUint64(data[headExpirePosSO:headExpirePosEO], uint64(h.expirePos))
	crc := crc32.Checksum(data[headMagicSO:headCRCSO], headCRC32q)
	binary.BigEndian.PutUint32(data[headCRCSO:headCRCEO], crc)
	return data
}

func (h *head) unmarshal(data []byte) error {
	if len(data) < headSize {
		return ErrCorruptedHead
	}
	if binary.BigEndian.Uint32(data[headMagicSO:headMagicEO]) != headMagic {
		return ErrCorruptedHead
	}
	if binary.BigEndian.Uint32(data[headVersionSO:headVersionEO]) != headVersion {
		return ErrCorruptedHead
	}
	crc := binary.BigEndian.Uint32(data[headCRCSO:headCRCEO])
	if crc32.Checksum(data[headMagicSO:headCRCSO], headCRC32q) != crc {
		return ErrCorruptedHead
	}
	h.writePos = int64(binary.BigEndian.Uint64(data[headWritePosSO:headWritePosEO]))
	h.expirePos = int64(binary.BigEndian.Uint64(data[headExpirePosSO:headExpirePosEO]))
	return nil
}

func readHead(dir string) (head, error) {
	var h head
	data, err := os.ReadFile(filepath.Join(dir, headFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return h, ErrNoHead
		}
		return h, err
	}
	if err = h.unmarshal(data); err != nil {
		return h, err
	}
	return h, nil
}

func writeHead(dir string, h head) error {
	path := filepath.Join(dir, headFileName)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err = f.Write(h.marshal()); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
