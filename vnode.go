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

import "context"

// Vnode is a reference-counted handle to a filesystem object, supplied by a
// per-filesystem driver. Every successful acquisition of a Vnode (from
// lookup, dirNamev, openNamev, or an Ops callback) must be paired with
// exactly one Unref.
//
// Implementations must be safe for concurrent use: Ref/Unref in particular
// may be called from multiple goroutines racing to release the last
// reference they hold.
type Vnode interface {
	// Mode reports the vnode's type. It never changes over the vnode's
	// lifetime.
	Mode() FileMode

	// Len reports the current length in bytes, used by Lseek's
	// whence=SEEK_END case.
	Len() int64

	// Device reports the device id for character/block special vnodes.
	Device() uint64

	// Ops returns the operations table for this vnode. A nil field within
	// the table means that operation is not supported.
	Ops() *Ops

	// Ref acquires an additional reference and returns the vnode, so that
	// callers can write `dir = dir.Ref()` style code mirroring vref().
	Ref() Vnode

	// Unref releases one reference, the Go-native vput(). The last Unref
	// may free driver-side resources; callers must not use the vnode
	// afterward.
	Unref()
}

// Stat is the subset of file metadata this layer's stat(2) surfaces.
type Stat struct {
	Mode   FileMode
	Size   int64
	Device uint64
}

// Ops is the table of callbacks a driver supplies for a vnode. Any field
// left nil means the corresponding operation is unsupported on that vnode;
// callers must check before invoking one.
//
// Every callback that introduces a new vnode (Lookup, Create, Mkdir, Mknod)
// returns it with its refcount already incremented — ownership passes to
// the caller, per the contract in the package's design notes.
type Ops struct {
	Lookup func(ctx context.Context, dir Vnode, name string) (Vnode, error)
	Create func(ctx context.Context, dir Vnode, name string) (Vnode, error)
	Mkdir  func(ctx context.Context, dir Vnode, name string) (Vnode, error)
	Mknod  func(ctx context.Context, dir Vnode, name string, mode FileMode, dev uint64) (Vnode, error)
	Rmdir  func(ctx context.Context, dir Vnode, name string) error
	Unlink func(ctx context.Context, dir Vnode, name string) error
	Link   func(ctx context.Context, target Vnode, dir Vnode, name string) error

	Read    func(ctx context.Context, vn Vnode, off int64, buf []byte) (int, error)
	Write   func(ctx context.Context, vn Vnode, off int64, buf []byte) (int, error)
	Readdir func(ctx context.Context, vn Vnode, off int64, ent *Dirent) (int, error)
	Stat    func(ctx context.Context, vn Vnode, st *Stat) error
}
