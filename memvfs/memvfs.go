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

	"github.com/jacobsa/timeutil"

	vfs "github.com/coursekernel/vfskit"
)

// New creates an empty in-memory filesystem and returns its root vnode,
// ready to be passed to vfs.New. clock is used to stamp modification
// times on directory entries; pass timeutil.RealClock() outside of tests.
func New(clock timeutil.Clock) vfs.Vnode {
	return newRoot(clock, &memOps)
}

func newRoot(clock timeutil.Clock, ops *vfs.Ops) *node {
	root := newNode(clock, allocIno(), vfs.ModeDir, 0, ops)
	root.parent = root
	return root
}

// memOps is shared by every node of a pure in-memory root: the callbacks
// close over nothing but their arguments, so one table serves the whole
// driver the way a stateless method set would. A backing-store root uses
// the distinct table built in backing.go instead.
var memOps = vfs.Ops{
	Lookup: opLookup,
	Create: opCreate,
	Mkdir:  opMkdir,
	Mknod:  opMknod,
	Rmdir:  opRmdir,
	Unlink: opUnlink,
	Link:   opLink,

	Read:    opRead,
	Write:   opWrite,
	Readdir: opReaddir,
	Stat:    opStat,
}

func opLookup(ctx context.Context, dir vfs.Vnode, name string) (vfs.Vnode, error) {
	d := dir.(*node)

	// "." and ".." never live in d.entries; every directory resolves them
	// through its parent pointer instead, the way readDir synthesizes them
	// for enumeration.
	if name == "." {
		return d.Ref(), nil
	}
	if name == ".." {
		return d.parent.Ref(), nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.findChild(name)
	if i < 0 {
		return nil, vfs.ENOENT
	}
	return d.entries[i].child.Ref(), nil
}

func opCreate(ctx context.Context, dir vfs.Vnode, name string) (vfs.Vnode, error) {
	d := dir.(*node)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.findChild(name) >= 0 {
		return nil, vfs.EEXIST
	}

	child := newNode(d.clock, allocIno(), vfs.ModeRegular, 0, d.ops)
	d.addChild(name, child, vfs.DTReg)
	return child.Ref(), nil
}

func opMkdir(ctx context.Context, dir vfs.Vnode, name string) (vfs.Vnode, error) {
	d := dir.(*node)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.findChild(name) >= 0 {
		return nil, vfs.EEXIST
	}

	child := newNode(d.clock, allocIno(), vfs.ModeDir, 0, d.ops)
	child.parent = d
	d.addChild(name, child, vfs.DTDir)
	return child.Ref(), nil
}

func opMknod(ctx context.Context, dir vfs.Vnode, name string, mode vfs.FileMode, dev uint64) (vfs.Vnode, error) {
	d := dir.(*node)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.findChild(name) >= 0 {
		return nil, vfs.EEXIST
	}

	child := newNode(d.clock, allocIno(), mode, dev, d.ops)
	d.addChild(name, child, direntType(mode))
	return child.Ref(), nil
}

func opRmdir(ctx context.Context, dir vfs.Vnode, name string) error {
	d := dir.(*node)
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.findChild(name)
	if i < 0 {
		return vfs.ENOENT
	}
	target := d.entries[i].child
	if target.mode != vfs.ModeDir {
		return vfs.ENOTDIR
	}

	target.mu.Lock()
	isEmpty := target.empty()
	target.mu.Unlock()
	if !isEmpty {
		return vfs.ENOTEMPTY
	}

	d.removeChild(name)
	return nil
}

func opUnlink(ctx context.Context, dir vfs.Vnode, name string) error {
	d := dir.(*node)
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.findChild(name) < 0 {
		return vfs.ENOENT
	}
	d.removeChild(name)
	return nil
}

func opLink(ctx context.Context, target vfs.Vnode, dir vfs.Vnode, name string) error {
	t := target.(*node)
	d := dir.(*node)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.findChild(name) >= 0 {
		return vfs.EEXIST
	}
	d.addChild(name, t, direntType(t.mode))
	return nil
}

func opRead(ctx context.Context, vn vfs.Vnode, off int64, buf []byte) (int, error) {
	n := vn.(*node)
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.readAt(buf, off)
}

func opWrite(ctx context.Context, vn vfs.Vnode, off int64, buf []byte) (int, error) {
	n := vn.(*node)
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.writeAt(buf, off)
}

func opReaddir(ctx context.Context, vn vfs.Vnode, off int64, ent *vfs.Dirent) (int, error) {
	n := vn.(*node)
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.readDir(off, ent), nil
}

func opStat(ctx context.Context, vn vfs.Vnode, st *vfs.Stat) error {
	n := vn.(*node)
	st.Mode = n.Mode()
	st.Size = n.Len()
	st.Device = n.Device()
	return nil
}
