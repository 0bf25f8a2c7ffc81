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

package memvfs_test

import (
	"context"
	"testing"

	"github.com/jacobsa/timeutil"
	"github.com/kylelemons/godebug/pretty"

	vfs "github.com/coursekernel/vfskit"
	"github.com/coursekernel/vfskit/memvfs"
)

func newProcess() *vfs.Process {
	root := memvfs.New(timeutil.RealClock())
	v := vfs.New(root)
	return vfs.NewProcess(v)
}

func TestCreateReadWrite(t *testing.T) {
	ctx := context.Background()
	p := newProcess()

	fd, err := p.Open(ctx, "/greeting", vfs.OCreat|vfs.OWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := []byte("hello, world")
	n, err := p.Write(ctx, fd, want)
	if err != nil || n != len(want) {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	if err := p.Close(fd); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fd, err = p.Open(ctx, "/greeting", vfs.ORead)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer p.Close(fd)

	got := make([]byte, len(want))
	n, err = p.Read(ctx, fd, got)
	if err != nil || n != len(want) {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	if diff := pretty.Compare(string(want), string(got)); diff != "" {
		t.Errorf("contents mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenWithoutCreateENOENT(t *testing.T) {
	ctx := context.Background()
	p := newProcess()

	if _, err := p.Open(ctx, "/missing", vfs.ORead); err != vfs.ENOENT {
		t.Fatalf("Open: got %v, want ENOENT", err)
	}
}

func TestMkdirAndGetdent(t *testing.T) {
	ctx := context.Background()
	p := newProcess()

	if err := p.Mkdir(ctx, "/sub"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	names := []string{"a", "b", "c"}
	for _, name := range names {
		fd, err := p.Open(ctx, "/sub/"+name, vfs.OCreat|vfs.OWrite)
		if err != nil {
			t.Fatalf("Open(%q): %v", name, err)
		}
		p.Close(fd)
	}

	fd, err := p.Open(ctx, "/sub", vfs.ORead)
	if err != nil {
		t.Fatalf("Open dir: %v", err)
	}
	defer p.Close(fd)

	seen := map[string]bool{}
	for {
		var ent vfs.Dirent
		n, err := p.Getdent(ctx, fd, &ent)
		if err != nil {
			t.Fatalf("Getdent: %v", err)
		}
		if n == 0 {
			break
		}
		seen[ent.Name] = true
	}

	for _, name := range names {
		if !seen[name] {
			t.Errorf("missing entry %q in readdir results", name)
		}
	}
}

func TestRmdirRequiresEmpty(t *testing.T) {
	ctx := context.Background()
	p := newProcess()

	if err := p.Mkdir(ctx, "/sub"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	fd, err := p.Open(ctx, "/sub/file", vfs.OCreat|vfs.OWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p.Close(fd)

	if err := p.Rmdir(ctx, "/sub"); err != vfs.ENOTEMPTY {
		t.Fatalf("Rmdir non-empty: got %v, want ENOTEMPTY", err)
	}

	if err := p.Unlink(ctx, "/sub/file"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if err := p.Rmdir(ctx, "/sub"); err != nil {
		t.Fatalf("Rmdir empty: %v", err)
	}
}

func TestLinkAndUnlink(t *testing.T) {
	ctx := context.Background()
	p := newProcess()

	fd, err := p.Open(ctx, "/a", vfs.OCreat|vfs.OWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p.Write(ctx, fd, []byte("xyz"))
	p.Close(fd)

	if err := p.Link(ctx, "/a", "/b"); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := p.Unlink(ctx, "/a"); err != nil {
		t.Fatalf("Unlink /a: %v", err)
	}

	fd, err = p.Open(ctx, "/b", vfs.ORead)
	if err != nil {
		t.Fatalf("Open /b after unlinking /a: %v", err)
	}
	defer p.Close(fd)

	got := make([]byte, 3)
	if n, err := p.Read(ctx, fd, got); err != nil || n != 3 {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	if string(got) != "xyz" {
		t.Errorf("got %q, want %q", got, "xyz")
	}
}

func TestChdirRelativePaths(t *testing.T) {
	ctx := context.Background()
	p := newProcess()

	if err := p.Mkdir(ctx, "/sub"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := p.Chdir(ctx, "/sub"); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	fd, err := p.Open(ctx, "rel", vfs.OCreat|vfs.OWrite)
	if err != nil {
		t.Fatalf("Open relative: %v", err)
	}
	p.Close(fd)

	if _, err := p.Open(ctx, "/sub/rel", vfs.ORead); err != nil {
		t.Fatalf("relative create did not land in /sub: %v", err)
	}
}

func TestDupSharesPosition(t *testing.T) {
	ctx := context.Background()
	p := newProcess()

	fd, err := p.Open(ctx, "/f", vfs.OCreat|vfs.OWrite|vfs.ORead)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p.Write(ctx, fd, []byte("0123456789"))
	if _, err := p.Lseek(fd, 0, vfs.SeekSet); err != nil {
		t.Fatalf("Lseek: %v", err)
	}

	dupFd, err := p.Dup(fd)
	if err != nil {
		t.Fatalf("Dup: %v", err)
	}

	buf := make([]byte, 5)
	if _, err := p.Read(ctx, fd, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}

	buf2 := make([]byte, 5)
	n, err := p.Read(ctx, dupFd, buf2)
	if err != nil {
		t.Fatalf("Read via dup: %v", err)
	}
	if string(buf2[:n]) != "56789" {
		t.Errorf("dup did not share f_pos: got %q", buf2[:n])
	}
}
