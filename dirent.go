// Copyright 2015 Google Inc. All Rights Reserved.
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

package vfs

import "encoding/binary"

// DirentType classifies a directory entry the way a vnode's FileMode does,
// plus DTUnknown for unused slots in a driver's entry table.
type DirentType uint8

const (
	DTUnknown DirentType = iota
	DTReg
	DTDir
	DTChr
	DTBlk
)

// Dirent is a single directory entry, as produced by a driver's Readdir
// operation and consumed by Process.Getdent.
type Dirent struct {
	Ino    uint64
	Offset int64
	Type   DirentType
	Name   string
}

const direntAlignment = 8
const direntHeaderSize = 8 + 8 + 4 + 4 // ino, off, namelen, type

// direntSize returns the total on-wire size of d, including the
// alignment padding PutDirent appends after the name.
func direntSize(d Dirent) int {
	n := direntHeaderSize + len(d.Name)
	if pad := len(d.Name) % direntAlignment; pad != 0 {
		n += direntAlignment - pad
	}
	return n
}

// PutDirent writes d into buf in the fixed, 8-byte-aligned record layout
// {ino, off, namelen, type} followed by the name and padding, and returns
// the number of bytes written. It returns 0 without writing anything if d
// would not fit in buf.
func PutDirent(buf []byte, d Dirent) (n int) {
	total := direntSize(d)
	if total > len(buf) {
		return 0
	}

	binary.LittleEndian.PutUint64(buf[0:8], d.Ino)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(d.Offset))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(d.Name)))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(d.Type))
	n = direntHeaderSize
	n += copy(buf[n:], d.Name)

	if pad := total - n; pad > 0 {
		var padding [direntAlignment]byte
		n += copy(buf[n:], padding[:pad])
	}

	return n
}
