// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package vfs

import "sync"

// OpenFlag is a bitfield over the flags passed to Open and carried by the
// OpenFile it produces. ORead/OWrite/OAppend double as both an Open
// argument and the resulting file's access mode; OCreat is interpreted only
// by Open/openNamev and never stored on the OpenFile.
type OpenFlag uint32

const (
	ORead OpenFlag = 1 << iota
	OWrite
	OAppend
	OCreat
)

// OpenFile is the { vnode, mode, f_pos } record the spec describes:
// refcounted, bound to one vnode and one access mode, with a mutable byte
// cursor shared by every fd that refers to it (via dup/dup2).
//
// OpenFile manages its own refcount rather than relying on an external
// cache, the way the teacher's memFile manages its own contents mutex: the
// "open file object cache" the narrow spec treats as external collapses,
// in Go, to an atomically-refcounted struct plus a constructor.
type OpenFile struct {
	vn    Vnode
	flags OpenFlag

	mu   sync.Mutex
	pos  int64 // GUARDED_BY(mu)
	refs int32 // GUARDED_BY(mu)
}

// newOpenFile constructs an OpenFile with one reference, taking ownership
// of the caller's reference on vn.
func newOpenFile(vn Vnode, flags OpenFlag) *OpenFile {
	return &OpenFile{vn: vn, flags: flags, refs: 1}
}

// Ref acquires an additional reference, the fget() of the spec.
func (f *OpenFile) Ref() *OpenFile {
	f.mu.Lock()
	f.refs++
	f.mu.Unlock()
	return f
}

// Unref releases one reference, the fput() of the spec. The last Unref
// releases the underlying vnode reference this OpenFile was holding.
func (f *OpenFile) Unref() {
	f.mu.Lock()
	f.refs--
	last := f.refs == 0
	f.mu.Unlock()
	if last {
		f.vn.Unref()
	}
}

func (f *OpenFile) Pos() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

func (f *OpenFile) setPos(p int64) {
	f.mu.Lock()
	f.pos = p
	f.mu.Unlock()
}

func (f *OpenFile) readable() bool  { return f.flags&ORead != 0 }
func (f *OpenFile) writable() bool  { return f.flags&OWrite != 0 }
func (f *OpenFile) appending() bool { return f.flags&OAppend != 0 }
