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
	"strings"
)

// NameMax is the maximum length of a single path component.
const NameMax = 256

// PathMax is the maximum length of a full path.
const PathMax = 1024

// lookup resolves a single path component name within dir.
//
// Preconditions, checked in order: dir must be a directory (ENOTDIR); name
// must be no longer than NameMax (ENAMETOOLONG); "" and "." both alias dir
// itself, returning an additional reference to it; otherwise dir must have
// a Lookup operation (ENOTDIR) and the call is delegated to it.
//
// On success the returned vnode's refcount has already been incremented;
// ownership belongs to the caller.
func lookup(ctx context.Context, dir Vnode, name string) (Vnode, error) {
	dbg("lookup ENTER name=%q", name)

	if !dir.Mode().IsDir() {
		dbg("lookup ERROR ENOTDIR")
		return nil, ENOTDIR
	}
	if len(name) > NameMax {
		dbg("lookup ERROR ENAMETOOLONG")
		return nil, ENAMETOOLONG
	}
	if len(name) == 0 || name == "." {
		return dir.Ref(), nil
	}

	ops := dir.Ops()
	if ops == nil || ops.Lookup == nil {
		dbg("lookup ERROR ENOTDIR (no lookup op)")
		return nil, ENOTDIR
	}

	result, err := ops.Lookup(ctx, dir, name)
	if err != nil {
		return nil, toErrno(err)
	}

	dbg("lookup EXIT ok")
	return result, nil
}

// dirNamev resolves pathname down to its parent directory, returning that
// directory (refcounted, owned by the caller) plus the final, unresolved
// path component (the basename).
//
// base supplies the starting directory used when pathname does not begin
// with "/"; callers pass the process's cwd. A leading "/" always starts
// resolution at v.root regardless of base.
func (v *VFS) dirNamev(ctx context.Context, pathname string, base Vnode) (dir Vnode, basename string, err error) {
	dbg("dirNamev ENTER path=%q", pathname)

	if len(pathname) == 0 {
		return nil, "", EINVAL
	}
	if len(pathname) > PathMax {
		return nil, "", ENAMETOOLONG
	}

	var cur Vnode
	if pathname[0] == '/' {
		cur = v.root.Ref()
		pathname = pathname[1:]
	} else {
		cur = base.Ref()
	}

	for {
		slash := strings.IndexByte(pathname, '/')
		if slash < 0 {
			// Final component: not looked up, returned as the basename.
			return cur, pathname, nil
		}

		seg := pathname[:slash]
		if len(seg) > NameMax {
			cur.Unref()
			return nil, "", ENAMETOOLONG
		}

		next, lerr := lookup(ctx, cur, seg)
		cur.Unref()
		if lerr != nil {
			return nil, "", lerr
		}
		cur = next

		if !cur.Mode().IsDir() {
			cur.Unref()
			return nil, "", ENOTDIR
		}

		pathname = pathname[slash+1:]
	}
}

// openNamev resolves pathname to an existing vnode, creating a new regular
// file at that location if it does not exist and flags&OCreat is set.
//
// The caller owns the returned reference.
func (v *VFS) openNamev(ctx context.Context, pathname string, flags OpenFlag, base Vnode) (Vnode, error) {
	dbg("openNamev ENTER path=%q flags=%x", pathname, flags)

	parent, name, err := v.dirNamev(ctx, pathname, base)
	if err != nil {
		return nil, err
	}
	if !parent.Mode().IsDir() {
		parent.Unref()
		dbg("openNamev ERROR ENOTDIR")
		return nil, ENOTDIR
	}

	v.nsLock.Lock()
	defer v.nsLock.Unlock()

	result, lerr := lookup(ctx, parent, name)
	if lerr != nil {
		if lerr != ENOENT || flags&OCreat == 0 {
			parent.Unref()
			return nil, lerr
		}

		ops := parent.Ops()
		if ops == nil || ops.Create == nil {
			parent.Unref()
			return nil, ENOTDIR
		}
		created, cerr := ops.Create(ctx, parent, name)
		parent.Unref()
		if cerr != nil {
			return nil, toErrno(cerr)
		}
		dbg("openNamev EXIT created")
		return created, nil
	}

	parent.Unref()
	dbg("openNamev EXIT found")
	return result, nil
}
