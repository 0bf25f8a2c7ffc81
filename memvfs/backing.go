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

package memvfs

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/detailyang/go-fallocate"
	"github.com/jacobsa/timeutil"

	vfs "github.com/coursekernel/vfskit"
)

// preallocSize is the length passed to go-fallocate when a backed file is
// created. createBacking truncates the file back to zero right afterward,
// so no space stays reserved ahead of the file's length.
const preallocSize = 64 * 1024

// backingFile is the on-disk counterpart to a node's in-memory contents,
// used by a root built with NewBacked. Its own byte range is managed with
// os.File.ReadAt/WriteAt rather than a seek-then-read pair, so that
// concurrent readers and writers on the same node (serialized by the
// node's mu regardless) never disturb one another's position.
type backingFile struct {
	f *os.File
}

var backingSerial uint64

// createBacking creates a new, empty file under dir. It calls go-fallocate
// for preallocSize bytes (the one call site in this repository that
// exercises that dependency) and then truncates the file to zero length,
// which gives back the allocated space: the returned file is empty and
// holds no preallocated blocks.
func createBacking(dir string) (*backingFile, error) {
	serial := atomic.AddUint64(&backingSerial, 1)
	path := fmt.Sprintf("%s/node-%d", dir, serial)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, err
	}

	if err := fallocate.Fallocate(f, 0, preallocSize); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, err
	}

	return &backingFile{f: f}, nil
}

func (b *backingFile) readAt(p []byte, off int64) (int, error) {
	n, err := b.f.ReadAt(p, off)
	if err != nil && n > 0 {
		err = nil
	}
	return n, err
}

func (b *backingFile) writeAt(p []byte, off int64) (int, error) {
	return b.f.WriteAt(p, off)
}

func (b *backingFile) size() int64 {
	info, err := b.f.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

// NewBacked creates an in-memory-namespace filesystem whose regular files
// store their contents in dir on disk instead of in process memory.
// Directories, their entries, and all metadata still live purely in
// memory; only regular-file byte ranges are backed.
func NewBacked(clock timeutil.Clock, dir string) (vfs.Vnode, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	ops := memOps
	ops.Create = backedCreate(dir)
	ops.Mknod = backedMknod(dir)

	return newRoot(clock, &ops), nil
}

func backedCreate(dir string) func(context.Context, vfs.Vnode, string) (vfs.Vnode, error) {
	return func(ctx context.Context, parent vfs.Vnode, name string) (vfs.Vnode, error) {
		d := parent.(*node)
		d.mu.Lock()
		defer d.mu.Unlock()

		if d.findChild(name) >= 0 {
			return nil, vfs.EEXIST
		}

		backing, err := createBacking(dir)
		if err != nil {
			return nil, vfs.EIO
		}

		child := newNode(d.clock, allocIno(), vfs.ModeRegular, 0, d.ops)
		child.backing = backing
		d.addChild(name, child, vfs.DTReg)
		return child.Ref(), nil
	}
}

func backedMknod(dir string) func(context.Context, vfs.Vnode, string, vfs.FileMode, uint64) (vfs.Vnode, error) {
	return func(ctx context.Context, parent vfs.Vnode, name string, mode vfs.FileMode, dev uint64) (vfs.Vnode, error) {
		d := parent.(*node)
		d.mu.Lock()
		defer d.mu.Unlock()

		if d.findChild(name) >= 0 {
			return nil, vfs.EEXIST
		}

		child := newNode(d.clock, allocIno(), mode, dev, d.ops)
		if mode == vfs.ModeRegular {
			backing, err := createBacking(dir)
			if err != nil {
				return nil, vfs.EIO
			}
			child.backing = backing
		}
		d.addChild(name, child, direntType(mode))
		return child.Ref(), nil
	}
}
