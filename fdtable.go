// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package vfs

import "sync"

// NFiles is the fixed size of a process's file descriptor table.
const NFiles = 256

// fdTable is the per-process array of open-file slots. Slot assignment
// (open/close/dup/dup2 deciding which OpenFile a fd names) is guarded by a
// single mutex; the spec only requires that the *same* slot never be
// mutated by two concurrent syscalls, but guarding the whole array is
// simpler and cheap at this size, and avoids corrupting the array itself
// under concurrent dup2s onto distinct slots.
type fdTable struct {
	mu    sync.Mutex
	slots [NFiles]*OpenFile
}

func newFDTable() *fdTable {
	return &fdTable{}
}

// validFD reports whether fd is in the table's addressable range.
func validFD(fd int) bool {
	return fd >= 0 && fd < NFiles
}

// get returns the file installed at fd, or nil if fd is out of range or the
// slot is empty. It does not acquire a reference; callers that need to use
// the file past the table lock must Ref it themselves while holding the
// table's invariants (in practice: fetch then immediately Ref under the
// same critical section via withFile).
func (t *fdTable) get(fd int) *OpenFile {
	if !validFD(fd) {
		return nil
	}
	t.mu.Lock()
	f := t.slots[fd]
	t.mu.Unlock()
	return f
}

// install places file at the first empty slot and returns that fd, or -1
// (not zero: fd 0 is a valid descriptor) if the table is full.
func (t *fdTable) install(file *OpenFile) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for fd := range t.slots {
		if t.slots[fd] == nil {
			t.slots[fd] = file
			return fd
		}
	}
	return -1
}

// installAt places file at the given fd unconditionally, returning whatever
// was there before (nil if the slot was empty).
func (t *fdTable) installAt(fd int, file *OpenFile) *OpenFile {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.slots[fd]
	t.slots[fd] = file
	return prev
}

// clear empties the given slot and returns what was installed there, or nil
// if it was already empty.
func (t *fdTable) clear(fd int) *OpenFile {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.slots[fd]
	t.slots[fd] = nil
	return prev
}
