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

// Command vfsdemo wires the memvfs reference driver into a vfs.VFS and
// runs a short scripted sequence of syscalls against it, the way
// samples/mount_memfs wires samples/memfs into a mounted FUSE connection.
// There is no kernel to mount against here, so the program simply drives
// the syscall surface directly and reports what it did.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/jacobsa/timeutil"

	vfs "github.com/coursekernel/vfskit"
	"github.com/coursekernel/vfskit/memvfs"
)

var fBacking = flag.String(
	"backing",
	"",
	"If set, back regular files with real files under this directory "+
		"instead of process memory.")

func main() {
	flag.Parse()

	clock := timeutil.RealClock()

	var root vfs.Vnode
	if *fBacking != "" {
		var err error
		root, err = memvfs.NewBacked(clock, *fBacking)
		if err != nil {
			log.Fatalf("memvfs.NewBacked: %v", err)
		}
	} else {
		root = memvfs.New(clock)
	}

	v := vfs.New(root)
	defer v.Close()

	p := vfs.NewProcess(v)
	defer p.Exit()

	ctx := context.Background()
	run(ctx, p)
}

// run drives the end-to-end scenarios described in this repository's
// design notes: create-then-stat, mkdir/getdent, dup2 aliasing, the
// unlink/rmdir edge cases, and the lseek bounds check.
func run(ctx context.Context, p *vfs.Process) {
	fd, err := p.Open(ctx, "/x", vfs.OCreat|vfs.OWrite)
	if err != nil {
		log.Fatalf("open /x: %v", err)
	}
	var st vfs.Stat
	if err := p.Stat(ctx, "/x", &st); err != nil {
		log.Fatalf("stat /x: %v", err)
	}
	log.Printf("stat /x: mode=%v size=%d", st.Mode, st.Size)
	p.Close(fd)

	if err := p.Mkdir(ctx, "/d"); err != nil {
		log.Fatalf("mkdir /d: %v", err)
	}
	ffd, err := p.Open(ctx, "/d/f", vfs.OCreat|vfs.OWrite)
	if err != nil {
		log.Fatalf("open /d/f: %v", err)
	}
	p.Close(ffd)

	dfd, err := p.Open(ctx, "/d", vfs.ORead)
	if err != nil {
		log.Fatalf("open /d: %v", err)
	}
	for {
		var ent vfs.Dirent
		n, err := p.Getdent(ctx, dfd, &ent)
		if err != nil {
			log.Fatalf("getdent: %v", err)
		}
		if n == 0 {
			break
		}
		log.Printf("dirent: %s (ino=%d type=%d)", ent.Name, ent.Ino, ent.Type)
	}
	p.Close(dfd)

	afd, err := p.Open(ctx, "/x", vfs.ORead)
	if err != nil {
		log.Fatalf("open /x: %v", err)
	}
	bfd, err := p.Open(ctx, "/d/f", vfs.ORead)
	if err != nil {
		log.Fatalf("open /d/f: %v", err)
	}
	if _, err := p.Dup2(afd, bfd); err != nil {
		log.Fatalf("dup2: %v", err)
	}
	log.Printf("dup2(%d, %d) ok, slot %d now aliases /x", afd, bfd, bfd)
	p.Close(afd)
	p.Close(bfd)

	if err := p.Unlink(ctx, "/d"); err == nil {
		log.Fatalf("unlink /d: expected EPERM, got nil")
	} else {
		log.Printf("unlink /d: %v (expected EPERM)", err)
	}

	if err := p.Rmdir(ctx, "/d/."); err == nil {
		log.Fatalf("rmdir /d/.: expected EINVAL, got nil")
	} else {
		log.Printf("rmdir /d/.: %v (expected EINVAL)", err)
	}
	if err := p.Rmdir(ctx, "/d/.."); err == nil {
		log.Fatalf("rmdir /d/..: expected ENOTEMPTY, got nil")
	} else {
		log.Printf("rmdir /d/..: %v (expected ENOTEMPTY)", err)
	}

	cfd, err := p.Open(ctx, "/x", vfs.ORead)
	if err != nil {
		log.Fatalf("open /x: %v", err)
	}
	if _, err := p.Lseek(cfd, -1, vfs.SeekSet); err == nil {
		log.Fatalf("lseek -1: expected EINVAL, got nil")
	} else {
		log.Printf("lseek -1: %v (expected EINVAL)", err)
	}
	p.Close(cfd)

	log.Printf("done")
}
