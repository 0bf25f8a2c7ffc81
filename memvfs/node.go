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

// Package memvfs is a reference vfs.Ops driver backed entirely by
// process memory. It exists to exercise the vfs package's syscall layer in
// tests and in cmd/vfsdemo, the way samples/memfs exercises a mounted
// FileSystem in the teacher repo.
package memvfs

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"

	vfs "github.com/coursekernel/vfskit"
)

// node is the common representation for every vnode this driver hands out:
// regular files, directories, and character/block special files.
//
// Unlike the teacher's inode, which is addressed by a fuseops.InodeID and
// looked up through the kernel's table, a node here IS the vfs.Vnode: the
// pointer identity of a *node is its handle, and a directory's entries hold
// *node pointers directly rather than numeric ids.
type node struct {
	/////////////////////////
	// Dependencies
	/////////////////////////

	clock timeutil.Clock

	/////////////////////////
	// Immutable state
	/////////////////////////

	ino    uint64
	mode   vfs.FileMode
	device uint64

	// ops is the operations table this node (and every node it spawns via
	// Create/Mkdir/Mknod) was built with. A plain in-memory root and a
	// backing-store root use distinct tables; see memvfs.go and backing.go.
	ops *vfs.Ops

	// parent is the directory node was created in, or node itself for the
	// root — set once at creation and never mutated afterward. Directories
	// don't store "." and ".." as real entries; opLookup and readDir
	// synthesize them from node and parent instead.
	parent *node

	// backing is non-nil for a regular file created under a backing-store
	// root: its content lives in this file on disk rather than in
	// contents. See backing.go.
	backing *backingFile

	/////////////////////////
	// Mutable state
	/////////////////////////

	mu syncutil.InvariantMutex

	// refs counts outstanding vfs.Vnode references. It is purely a
	// bookkeeping aid — a node is kept alive by ordinary Go reachability
	// (its directory's entries slice, or a caller's local variable), not by
	// this count reaching zero — but driving it negative indicates a
	// double-Unref in the layer above, so checkInvariants panics on that.
	refs int32 // GUARDED_BY(mu)

	mtime time.Time // GUARDED_BY(mu)

	// Regular files only.
	//
	// INVARIANT: if mode != ModeRegular, len(contents) == 0
	contents []byte // GUARDED_BY(mu)

	// Directories only.
	//
	// This slice can never be shortened, nor can its elements be moved,
	// because its indices double as the cookie Getdent exposes as
	// Dirent.Offset to a caller that might be reading the directory in a
	// loop while concurrently modifying it. Unused slots are reused on the
	// next addChild instead.
	//
	// INVARIANT: if mode != ModeDir, len(entries) == 0
	// INVARIANT: for each i, entries[i].name == "" || entries[i].child != nil
	entries []dirent // GUARDED_BY(mu)
}

type dirent struct {
	name  string
	child *node
	typ   vfs.DirentType
}

func newNode(clock timeutil.Clock, ino uint64, mode vfs.FileMode, device uint64, ops *vfs.Ops) *node {
	n := &node{
		clock:  clock,
		ino:    ino,
		mode:   mode,
		device: device,
		ops:    ops,
		refs:   1,
		mtime:  clock.Now(),
	}
	n.mu = syncutil.NewInvariantMutex(n.checkInvariants)
	return n
}

// checkInvariants is run by n.mu on every Lock/Unlock pair.
func (n *node) checkInvariants() {
	if n.refs < 0 {
		panic(fmt.Sprintf("node %d: negative refcount %d", n.ino, n.refs))
	}
	if n.mode != vfs.ModeRegular && len(n.contents) != 0 {
		panic(fmt.Sprintf("node %d: contents on a non-regular file", n.ino))
	}
	if n.mode != vfs.ModeDir && len(n.entries) != 0 {
		panic(fmt.Sprintf("node %d: entries on a non-directory", n.ino))
	}
	for i, e := range n.entries {
		if e.typ != vfs.DTUnknown && e.child == nil {
			panic(fmt.Sprintf("node %d: used entry %d with nil child", n.ino, i))
		}
	}
}

////////////////////////////////////////////////////////////////////////
// vfs.Vnode
////////////////////////////////////////////////////////////////////////

func (n *node) Mode() vfs.FileMode { return n.mode }

func (n *node) Device() uint64 { return n.device }

func (n *node) Len() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.mode == vfs.ModeDir {
		return int64(n.childCount())
	}
	if n.backing != nil {
		return n.backing.size()
	}
	return int64(len(n.contents))
}

func (n *node) Ops() *vfs.Ops {
	return n.ops
}

func (n *node) Ref() vfs.Vnode {
	n.mu.Lock()
	n.refs++
	n.mu.Unlock()
	return n
}

func (n *node) Unref() {
	n.mu.Lock()
	n.refs--
	n.mu.Unlock()
}

////////////////////////////////////////////////////////////////////////
// Directory entries
////////////////////////////////////////////////////////////////////////

// childCount returns the number of in-use entries.
//
// LOCKS_REQUIRED(n.mu)
func (n *node) childCount() (count int) {
	for _, e := range n.entries {
		if e.typ != vfs.DTUnknown {
			count++
		}
	}
	return
}

// empty reports whether the directory has any entries. "." and ".." are
// synthesized by readDir/opLookup from n and n.parent and never occupy a
// real slot, so a plain entry count suffices.
//
// LOCKS_REQUIRED(n.mu)
func (n *node) empty() bool {
	return n.childCount() == 0
}

// findChild returns the index of name's entry, or -1 if none exists.
//
// LOCKS_REQUIRED(n.mu)
func (n *node) findChild(name string) int {
	for i, e := range n.entries {
		if e.typ != vfs.DTUnknown && e.name == name {
			return i
		}
	}
	return -1
}

// addChild installs a new entry for child, reusing a vacated slot if one
// exists so that Getdent offsets already handed out to other callers keep
// meaning what they meant.
//
// LOCKS_REQUIRED(n.mu)
func (n *node) addChild(name string, child *node, typ vfs.DirentType) {
	n.mtime = n.clock.Now()

	e := dirent{name: name, child: child, typ: typ}
	for i := range n.entries {
		if n.entries[i].typ == vfs.DTUnknown {
			n.entries[i] = e
			return
		}
	}
	n.entries = append(n.entries, e)
}

// removeChild vacates name's entry. It panics if no such entry exists;
// callers are expected to have just found it with findChild.
//
// LOCKS_REQUIRED(n.mu)
func (n *node) removeChild(name string) {
	n.mtime = n.clock.Now()

	i := n.findChild(name)
	if i < 0 {
		panic(fmt.Sprintf("removeChild: no such child %q", name))
	}
	n.entries[i] = dirent{}
}

////////////////////////////////////////////////////////////////////////
// File contents
////////////////////////////////////////////////////////////////////////

// readAt copies from contents[off:] into p, the way inode.ReadAt does in
// the teacher's memfs, returning the number of bytes copied. A node with a
// backing file delegates to it instead of to contents.
//
// LOCKS_REQUIRED(n.mu)
func (n *node) readAt(p []byte, off int64) (int, error) {
	if n.backing != nil {
		return n.backing.readAt(p, off)
	}
	if off > int64(len(n.contents)) {
		return 0, nil
	}
	return copy(p, n.contents[off:]), nil
}

// writeAt copies p into contents at off, extending contents with zero
// bytes first if necessary. A node with a backing file delegates to it
// instead of to contents.
//
// LOCKS_REQUIRED(n.mu)
func (n *node) writeAt(p []byte, off int64) (int, error) {
	n.mtime = n.clock.Now()

	if n.backing != nil {
		return n.backing.writeAt(p, off)
	}

	newLen := int(off) + len(p)
	if len(n.contents) < newLen {
		n.contents = append(n.contents, make([]byte, newLen-len(n.contents))...)
	}
	return copy(n.contents[off:], p), nil
}

// readDir serves one Readdir step starting at cookie off, writing the next
// entry into *ent and returning how far the cookie advanced (ent.Offset -
// off, which skips any vacated slots), or returning 0 at end of directory.
// Cookies 0 and 1 are the synthetic "." and ".." entries every directory
// carries via n and n.parent; cookies 2.. index into entries.
//
// LOCKS_REQUIRED(n.mu)
func (n *node) readDir(off int64, ent *vfs.Dirent) int {
	if off == 0 {
		*ent = vfs.Dirent{Ino: n.ino, Offset: 1, Type: vfs.DTDir, Name: "."}
		return 1
	}
	if off == 1 {
		*ent = vfs.Dirent{Ino: n.parent.ino, Offset: 2, Type: vfs.DTDir, Name: ".."}
		return 1
	}

	for i := int(off - 2); i < len(n.entries); i++ {
		e := n.entries[i]
		if e.typ == vfs.DTUnknown {
			continue
		}
		*ent = vfs.Dirent{
			Ino:    e.child.ino,
			Offset: int64(i + 3),
			Type:   e.typ,
			Name:   e.name,
		}
		return int(ent.Offset - off)
	}
	return 0
}

var nextIno uint64 = 1

func allocIno() uint64 {
	return atomic.AddUint64(&nextIno, 1)
}

func direntType(mode vfs.FileMode) vfs.DirentType {
	switch mode {
	case vfs.ModeDir:
		return vfs.DTDir
	case vfs.ModeChar:
		return vfs.DTChr
	case vfs.ModeBlock:
		return vfs.DTBlk
	default:
		return vfs.DTReg
	}
}
