// Copyright 1998 mcc, jal. Adapted 2015-2024.
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

import (
	"context"
	"sync"
)

// Whence values for Lseek.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// VFS holds the state shared by every process mounted under it: the root
// vnode and the namespace lock serializing directory mutations. It is the
// analogue of the teacher's Connection: one instance shared across
// concurrently-running callers.
type VFS struct {
	root   Vnode
	nsLock sync.Mutex
}

// New mounts root as the VFS root, acquiring its own reference to it.
// Call Close to release that reference once no Process is using the VFS.
func New(root Vnode) *VFS {
	return &VFS{root: root.Ref()}
}

// Root returns the VFS root vnode without transferring a reference.
func (v *VFS) Root() Vnode {
	return v.root
}

// Close releases the VFS's reference to its root vnode.
func (v *VFS) Close() {
	v.root.Unref()
}

// Process is a single process's view of the VFS: a file descriptor table
// and a current working directory. Its methods are the syscall surface.
type Process struct {
	vfs *VFS

	cwdMu sync.Mutex
	cwd   Vnode // GUARDED_BY(cwdMu)

	fds *fdTable
}

// NewProcess creates a process whose cwd is the VFS root, the way a boot
// process inherits the root vnode before any chdir.
func NewProcess(v *VFS) *Process {
	return &Process{vfs: v, cwd: v.root.Ref(), fds: newFDTable()}
}

// Exit tears the process down: releases cwd and every still-open fd. A
// process must not be used after Exit.
func (p *Process) Exit() {
	p.cwdMu.Lock()
	cwd := p.cwd
	p.cwd = nil
	p.cwdMu.Unlock()
	if cwd != nil {
		cwd.Unref()
	}

	for fd := 0; fd < NFiles; fd++ {
		if f := p.fds.clear(fd); f != nil {
			f.Unref()
		}
	}
}

func (p *Process) getCwd() Vnode {
	p.cwdMu.Lock()
	defer p.cwdMu.Unlock()
	return p.cwd
}

// withFile resolves fd to its OpenFile under the table lock, acquiring an
// extra reference so the file cannot be closed out from under the caller
// mid-call, the way fget() protects a concurrent do_close(). It returns
// EBADF if fd is out of range or the slot is empty.
func (p *Process) withFile(fd int) (*OpenFile, error) {
	if !validFD(fd) {
		return nil, EBADF
	}
	p.fds.mu.Lock()
	defer p.fds.mu.Unlock()
	f := p.fds.slots[fd]
	if f == nil {
		return nil, EBADF
	}
	return f.Ref(), nil
}

////////////////////////////////////////////////////////////////////////
// Open / Close
////////////////////////////////////////////////////////////////////////

// Open resolves path to a vnode (optionally creating it, if flags&OCreat is
// set) and installs a new OpenFile at the first free fd.
//
// Errors: EINVAL (empty path), ENAMETOOLONG, EMFILE (table full), plus
// whatever dirNamev/openNamev/the driver's Create report.
func (p *Process) Open(ctx context.Context, path string, flags OpenFlag) (int, error) {
	dbg("Open ENTER path=%q flags=%x", path, flags)

	if len(path) == 0 {
		return -1, EINVAL
	}
	if len(path) > PathMax {
		return -1, ENAMETOOLONG
	}

	cwd := p.getCwd()
	vn, err := p.vfs.openNamev(ctx, path, flags, cwd)
	if err != nil {
		return -1, err
	}

	of := newOpenFile(vn, flags&(ORead|OWrite|OAppend))
	fd := p.fds.install(of)
	if fd < 0 {
		of.Unref()
		return -1, EMFILE
	}

	dbg("Open EXIT fd=%d", fd)
	return fd, nil
}

// Close drops fd's slot and releases the one reference the slot itself
// held on the OpenFile. Any other reference (from a concurrent dup, or
// from a withFile call in flight) keeps the object alive until it too
// releases.
func (p *Process) Close(fd int) error {
	dbg("Close ENTER fd=%d", fd)

	if !validFD(fd) {
		return EBADF
	}
	f := p.fds.clear(fd)
	if f == nil {
		return EBADF
	}
	f.Unref()

	dbg("Close EXIT")
	return nil
}

////////////////////////////////////////////////////////////////////////
// Read / Write / Lseek / Getdent
////////////////////////////////////////////////////////////////////////

// Read reads up to len(buf) bytes from fd at its current position,
// advancing f_pos by the number of bytes actually read.
func (p *Process) Read(ctx context.Context, fd int, buf []byte) (int, error) {
	dbg("Read ENTER fd=%d n=%d", fd, len(buf))

	f, err := p.withFile(fd)
	if err != nil {
		return 0, err
	}
	defer f.Unref()

	if !f.readable() {
		return 0, EBADF
	}
	if f.vn.Mode().IsDir() {
		return 0, EISDIR
	}

	ops := f.vn.Ops()
	if ops == nil || ops.Read == nil {
		return 0, EBADF
	}

	n, rerr := ops.Read(ctx, f.vn, f.Pos(), buf)
	if rerr != nil {
		return 0, toErrno(rerr)
	}
	f.setPos(f.Pos() + int64(n))

	dbg("Read EXIT n=%d", n)
	return n, nil
}

// Write writes len(buf) bytes to fd at its current position (or at the
// file's length first, if fd was opened with OAppend), advancing f_pos by
// the number of bytes actually written.
func (p *Process) Write(ctx context.Context, fd int, buf []byte) (int, error) {
	dbg("Write ENTER fd=%d n=%d", fd, len(buf))

	f, err := p.withFile(fd)
	if err != nil {
		return 0, err
	}
	defer f.Unref()

	if !f.writable() {
		return 0, EBADF
	}

	if f.appending() {
		if _, serr := p.seekFile(f, 0, SeekEnd); serr != nil {
			return 0, serr
		}
	}

	ops := f.vn.Ops()
	if ops == nil || ops.Write == nil {
		return 0, EBADF
	}

	n, werr := ops.Write(ctx, f.vn, f.Pos(), buf)
	if werr != nil {
		return 0, toErrno(werr)
	}
	f.setPos(f.Pos() + int64(n))

	dbg("Write EXIT n=%d", n)
	return n, nil
}

// Lseek repositions fd's f_pos according to whence, rejecting any result
// that would be negative.
func (p *Process) Lseek(fd int, offset int64, whence int) (int64, error) {
	dbg("Lseek ENTER fd=%d off=%d whence=%d", fd, offset, whence)

	if whence != SeekSet && whence != SeekCur && whence != SeekEnd {
		return 0, EINVAL
	}

	f, err := p.withFile(fd)
	if err != nil {
		return 0, err
	}
	defer f.Unref()

	return p.seekFile(f, offset, whence)
}

// seekFile is Lseek's body factored out so Write's APPEND handling can
// reuse it without re-resolving the fd.
func (p *Process) seekFile(f *OpenFile, offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case SeekSet:
		newPos = offset
	case SeekCur:
		newPos = f.Pos() + offset
	case SeekEnd:
		newPos = f.vn.Len() + offset
	}
	if newPos < 0 {
		return 0, EINVAL
	}
	f.setPos(newPos)
	return newPos, nil
}

// Getdent reads one directory entry from fd into ent, advancing f_pos by
// the number of bytes the driver consumed. It returns 0 (with ent
// unmodified) at the end of the directory, or on progress the size of the
// record PutDirent would write for ent.
func (p *Process) Getdent(ctx context.Context, fd int, ent *Dirent) (int, error) {
	dbg("Getdent ENTER fd=%d", fd)

	f, err := p.withFile(fd)
	if err != nil {
		return 0, err
	}
	defer f.Unref()

	if !f.vn.Mode().IsDir() {
		return 0, ENOTDIR
	}

	ops := f.vn.Ops()
	if ops == nil || ops.Readdir == nil {
		return 0, ENOTDIR
	}

	consumed, rerr := ops.Readdir(ctx, f.vn, f.Pos(), ent)
	if rerr != nil {
		return 0, toErrno(rerr)
	}
	if consumed == 0 {
		dbg("Getdent EXIT eof")
		return 0, nil
	}
	f.setPos(f.Pos() + int64(consumed))

	dbg("Getdent EXIT ok")
	return direntSize(*ent), nil
}

////////////////////////////////////////////////////////////////////////
// Dup / Dup2
////////////////////////////////////////////////////////////////////////

// Dup allocates a new fd pointing at the same OpenFile as fd, acquiring a
// new reference to it.
func (p *Process) Dup(fd int) (int, error) {
	dbg("Dup ENTER fd=%d", fd)

	f := p.fds.get(fd)
	if f == nil {
		return -1, EBADF
	}

	newFD := p.fds.install(f.Ref())
	if newFD < 0 {
		f.Unref()
		return -1, EMFILE
	}

	dbg("Dup EXIT newfd=%d", newFD)
	return newFD, nil
}

// Dup2 makes nfd refer to the same OpenFile as ofd, closing whatever nfd
// previously held. dup2(fd, fd) is a no-op that returns fd.
func (p *Process) Dup2(ofd, nfd int) (int, error) {
	dbg("Dup2 ENTER ofd=%d nfd=%d", ofd, nfd)

	f := p.fds.get(ofd)
	if f == nil {
		return -1, EBADF
	}
	if !validFD(nfd) {
		return -1, EBADF
	}
	if nfd == ofd {
		return nfd, nil
	}

	prev := p.fds.installAt(nfd, f.Ref())
	if prev != nil {
		prev.Unref()
	}

	dbg("Dup2 EXIT")
	return nfd, nil
}

////////////////////////////////////////////////////////////////////////
// Path-based namespace operations
////////////////////////////////////////////////////////////////////////

// pathPreamble runs the checks common to every path-based syscall: path
// must be non-empty and within PathMax, dirNamev must resolve it, the
// basename must be within NameMax, and the parent must be a directory.
func (p *Process) pathPreamble(ctx context.Context, path string) (parent Vnode, name string, err error) {
	if len(path) == 0 {
		return nil, "", EINVAL
	}
	if len(path) > PathMax {
		return nil, "", ENAMETOOLONG
	}

	parent, name, err = p.vfs.dirNamev(ctx, path, p.getCwd())
	if err != nil {
		return nil, "", err
	}
	if len(name) > NameMax {
		parent.Unref()
		return nil, "", ENAMETOOLONG
	}
	if !parent.Mode().IsDir() {
		parent.Unref()
		return nil, "", ENOTDIR
	}

	return parent, name, nil
}

// Mknod creates a character or block special file at path.
func (p *Process) Mknod(ctx context.Context, path string, mode FileMode, dev uint64) error {
	dbg("Mknod ENTER path=%q mode=%v", path, mode)

	if mode != ModeChar && mode != ModeBlock {
		return EINVAL
	}

	parent, name, err := p.pathPreamble(ctx, path)
	if err != nil {
		return err
	}
	defer parent.Unref()

	p.vfs.nsLock.Lock()
	defer p.vfs.nsLock.Unlock()

	if existing, lerr := lookup(ctx, parent, name); lerr == nil {
		existing.Unref()
		return EEXIST
	}

	ops := parent.Ops()
	if ops == nil || ops.Mknod == nil {
		return ENOTDIR
	}
	vn, merr := ops.Mknod(ctx, parent, name, mode, dev)
	if merr != nil {
		return toErrno(merr)
	}
	vn.Unref() // mknod(2) returns no fd; the caller never wanted this reference.

	dbg("Mknod EXIT")
	return nil
}

// Mkdir creates a new, empty directory at path.
func (p *Process) Mkdir(ctx context.Context, path string) error {
	dbg("Mkdir ENTER path=%q", path)

	parent, name, err := p.pathPreamble(ctx, path)
	if err != nil {
		return err
	}
	defer parent.Unref()

	p.vfs.nsLock.Lock()
	defer p.vfs.nsLock.Unlock()

	if existing, lerr := lookup(ctx, parent, name); lerr == nil {
		existing.Unref()
		return EEXIST
	}

	ops := parent.Ops()
	if ops == nil || ops.Mkdir == nil {
		return ENOTDIR
	}
	vn, merr := ops.Mkdir(ctx, parent, name)
	if merr != nil {
		return toErrno(merr)
	}
	vn.Unref()

	dbg("Mkdir EXIT")
	return nil
}

// Rmdir removes the empty directory at path. The driver is responsible for
// checking that the target exists and is empty.
func (p *Process) Rmdir(ctx context.Context, path string) error {
	dbg("Rmdir ENTER path=%q", path)

	parent, name, err := p.pathPreamble(ctx, path)
	if err != nil {
		return err
	}
	defer parent.Unref()

	if name == "." {
		return EINVAL
	}
	if name == ".." {
		return ENOTEMPTY
	}

	ops := parent.Ops()
	if ops == nil || ops.Rmdir == nil {
		return ENOTDIR
	}

	p.vfs.nsLock.Lock()
	defer p.vfs.nsLock.Unlock()

	if err := ops.Rmdir(ctx, parent, name); err != nil {
		return toErrno(err)
	}

	dbg("Rmdir EXIT")
	return nil
}

// Unlink removes the non-directory entry at path.
func (p *Process) Unlink(ctx context.Context, path string) error {
	dbg("Unlink ENTER path=%q", path)

	parent, name, err := p.pathPreamble(ctx, path)
	if err != nil {
		return err
	}
	defer parent.Unref()

	target, lerr := lookup(ctx, parent, name)
	if lerr != nil {
		return lerr
	}
	defer target.Unref()

	if target.Mode().IsDir() {
		return EPERM
	}

	ops := parent.Ops()
	if ops == nil || ops.Unlink == nil {
		return ENOTDIR
	}

	p.vfs.nsLock.Lock()
	defer p.vfs.nsLock.Unlock()

	if err := ops.Unlink(ctx, parent, name); err != nil {
		return toErrno(err)
	}

	dbg("Unlink EXIT")
	return nil
}

// Link creates a new name "to" for the existing file "from".
func (p *Process) Link(ctx context.Context, from, to string) error {
	dbg("Link ENTER from=%q to=%q", from, to)

	if len(from) == 0 || len(to) == 0 {
		return EINVAL
	}
	if len(from) > PathMax || len(to) > PathMax {
		return ENAMETOOLONG
	}

	cwd := p.getCwd()
	fromVn, ferr := p.vfs.openNamev(ctx, from, 0, cwd)
	if ferr != nil {
		return ferr
	}
	defer fromVn.Unref()

	toParent, name, terr := p.vfs.dirNamev(ctx, to, cwd)
	if terr != nil {
		return terr
	}
	defer toParent.Unref()

	p.vfs.nsLock.Lock()
	defer p.vfs.nsLock.Unlock()

	if existing, lerr := lookup(ctx, toParent, name); lerr == nil {
		existing.Unref()
		return EEXIST
	}

	ops := toParent.Ops()
	if ops == nil || ops.Link == nil {
		return ENOTDIR
	}

	if err := ops.Link(ctx, fromVn, toParent, name); err != nil {
		return toErrno(err)
	}

	dbg("Link EXIT")
	return nil
}

// Rename links newname to oldname and then removes oldname. This is not
// atomic: a crash between the two steps can leave both names bound to the
// same file.
func (p *Process) Rename(ctx context.Context, oldname, newname string) error {
	dbg("Rename ENTER old=%q new=%q", oldname, newname)

	if err := p.Link(ctx, oldname, newname); err != nil {
		return err
	}

	cwd := p.getCwd()
	parent, name, err := p.vfs.dirNamev(ctx, oldname, cwd)
	if err != nil {
		return err
	}
	defer parent.Unref()

	target, lerr := lookup(ctx, parent, name)
	if lerr != nil {
		return lerr
	}
	isDir := target.Mode().IsDir()
	target.Unref()

	if isDir {
		return p.Rmdir(ctx, oldname)
	}
	return p.Unlink(ctx, oldname)
}

// Chdir makes path the process's current working directory.
func (p *Process) Chdir(ctx context.Context, path string) error {
	dbg("Chdir ENTER path=%q", path)

	if len(path) == 0 {
		return EINVAL
	}
	if len(path) > PathMax {
		return ENAMETOOLONG
	}

	cwd := p.getCwd()
	vn, err := p.vfs.openNamev(ctx, path, 0, cwd)
	if err != nil {
		return err
	}
	if !vn.Mode().IsDir() {
		vn.Unref()
		return ENOTDIR
	}

	p.cwdMu.Lock()
	old := p.cwd
	p.cwd = vn
	p.cwdMu.Unlock()
	old.Unref()

	dbg("Chdir EXIT")
	return nil
}

// Stat resolves path to its target vnode and fills in buf.
func (p *Process) Stat(ctx context.Context, path string, buf *Stat) error {
	dbg("Stat ENTER path=%q", path)

	parent, name, err := p.pathPreamble(ctx, path)
	if err != nil {
		return err
	}
	defer parent.Unref()

	target, lerr := lookup(ctx, parent, name)
	if lerr != nil {
		return lerr
	}
	defer target.Unref()

	ops := parent.Ops()
	if ops == nil || ops.Stat == nil {
		return ENOTDIR
	}

	if err := ops.Stat(ctx, target, buf); err != nil {
		return toErrno(err)
	}

	dbg("Stat EXIT")
	return nil
}
