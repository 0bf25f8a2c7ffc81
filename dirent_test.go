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

package vfs_test

import (
	"encoding/binary"
	"testing"

	vfs "github.com/coursekernel/vfskit"
)

func TestPutDirentLayout(t *testing.T) {
	d := vfs.Dirent{Ino: 42, Offset: 7, Type: vfs.DTReg, Name: "hello"}

	buf := make([]byte, 64)
	n := vfs.PutDirent(buf, d)
	if n == 0 {
		t.Fatalf("PutDirent returned 0")
	}
	if n%8 != 0 {
		t.Errorf("record length %d is not 8-byte aligned", n)
	}

	if got := binary.LittleEndian.Uint64(buf[0:8]); got != d.Ino {
		t.Errorf("ino = %d, want %d", got, d.Ino)
	}
	if got := int64(binary.LittleEndian.Uint64(buf[8:16])); got != d.Offset {
		t.Errorf("offset = %d, want %d", got, d.Offset)
	}
	if got := binary.LittleEndian.Uint32(buf[16:20]); got != uint32(len(d.Name)) {
		t.Errorf("namelen = %d, want %d", got, len(d.Name))
	}
	if got := vfs.DirentType(binary.LittleEndian.Uint32(buf[20:24])); got != d.Type {
		t.Errorf("type = %v, want %v", got, d.Type)
	}
	if got := string(buf[24 : 24+len(d.Name)]); got != d.Name {
		t.Errorf("name = %q, want %q", got, d.Name)
	}
}

func TestPutDirentTooSmallReturnsZero(t *testing.T) {
	d := vfs.Dirent{Ino: 1, Name: "averylongname"}
	buf := make([]byte, 4)
	if n := vfs.PutDirent(buf, d); n != 0 {
		t.Errorf("PutDirent into undersized buffer returned %d, want 0", n)
	}
}
