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

// Package vfs implements the path-resolution and syscall-dispatch core of a
// small teaching kernel's virtual file system layer.
//
// The primary elements of interest are:
//
//  *  Vnode and Ops, which define the interface a per-filesystem driver must
//     implement to be mounted under a VFS.
//
//  *  VFS, which owns the root vnode and the namespace lock shared by every
//     process.
//
//  *  Process, which owns a file descriptor table and a current working
//     directory and exposes the syscall surface (Read, Write, Open, Mkdir,
//     Stat, ...) that drives a driver through Ops.
//
// The package github.com/coursekernel/vfskit/memvfs provides a reference,
// in-memory driver implementing Ops, suitable for tests and for the
// cmd/vfsdemo program.
package vfs
