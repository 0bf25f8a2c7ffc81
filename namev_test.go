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

package vfs_test

import (
	"context"
	"strings"
	"testing"

	vfs "github.com/coursekernel/vfskit"
)

func TestOpenRejectsOverlongPath(t *testing.T) {
	ctx := context.Background()
	p := newProcess(t)

	long := "/" + strings.Repeat("a", vfs.PathMax+1)
	if _, err := p.Open(ctx, long, vfs.ORead); err != vfs.ENAMETOOLONG {
		t.Fatalf("Open(overlong path) = %v, want ENAMETOOLONG", err)
	}
}

func TestOpenRejectsOverlongComponent(t *testing.T) {
	ctx := context.Background()
	p := newProcess(t)

	path := "/" + strings.Repeat("a", vfs.NameMax+1)
	if _, err := p.Open(ctx, path, vfs.OCreat|vfs.OWrite); err != vfs.ENAMETOOLONG {
		t.Fatalf("Open(overlong component) = %v, want ENAMETOOLONG", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	ctx := context.Background()
	p := newProcess(t)

	if _, err := p.Open(ctx, "", vfs.ORead); err != vfs.EINVAL {
		t.Fatalf("Open(\"\") = %v, want EINVAL", err)
	}
}

// Dot identity: looking a path component up as "." must return the same
// directory it started from, not a fresh resolution.
func TestDotResolvesToSameDirectory(t *testing.T) {
	ctx := context.Background()
	p := newProcess(t)

	if err := p.Mkdir(ctx, "/d"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	var direct, viaDot vfs.Stat
	if err := p.Stat(ctx, "/d", &direct); err != nil {
		t.Fatalf("Stat(/d): %v", err)
	}
	if err := p.Stat(ctx, "/d/.", &viaDot); err != nil {
		t.Fatalf("Stat(/d/.): %v", err)
	}
	if direct != viaDot {
		t.Errorf("Stat(/d) = %+v, Stat(/d/.) = %+v; want equal", direct, viaDot)
	}
}

func TestComponentNotADirectoryIsRejected(t *testing.T) {
	ctx := context.Background()
	p := newProcess(t)

	fd, err := p.Open(ctx, "/f", vfs.OCreat|vfs.OWrite)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p.Close(fd)

	if _, err := p.Open(ctx, "/f/g", vfs.OCreat|vfs.OWrite); err != vfs.ENOTDIR {
		t.Fatalf("Open(/f/g) = %v, want ENOTDIR", err)
	}
}
