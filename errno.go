// Copyright 2015 Google Inc. All Rights Reserved.
// Author: jacobsa@google.com (Aaron Jacobs)

package vfs

import (
	"syscall"
)

// Errno is a VFS-level error, one of the POSIX error numbers this layer is
// specified to return. It wraps syscall.Errno rather than inventing a new
// error space, so that driver authors can compare against the same
// constants the standard library already exposes.
type Errno syscall.Errno

func (e Errno) Error() string {
	return syscall.Errno(e).Error()
}

// Negate returns the negated integer this layer's syscalls use on the wire:
// nonnegative on success, a negated error code on failure.
func (e Errno) Negate() int {
	return -int(e)
}

// Errors this layer is specified to return. These may be treated specially
// by callers that need to distinguish resolution errors from semantic ones.
const (
	EBADF        = Errno(syscall.EBADF)
	EINVAL       = Errno(syscall.EINVAL)
	EISDIR       = Errno(syscall.EISDIR)
	ENOTDIR      = Errno(syscall.ENOTDIR)
	ENOENT       = Errno(syscall.ENOENT)
	EEXIST       = Errno(syscall.EEXIST)
	ENAMETOOLONG = Errno(syscall.ENAMETOOLONG)
	EMFILE       = Errno(syscall.EMFILE)
	ENOTEMPTY    = Errno(syscall.ENOTEMPTY)
	EPERM        = Errno(syscall.EPERM)
	ERANGE       = Errno(syscall.ERANGE)
	EIO          = Errno(syscall.EIO)
)

// toErrno extracts the Errno a driver's returned error represents. Drivers
// are expected to return an Errno or a syscall.Errno directly; anything else
// is reported as EIO, since this layer never invents new error categories.
func toErrno(err error) Errno {
	if err == nil {
		return 0
	}
	if e, ok := err.(Errno); ok {
		return e
	}
	if e, ok := err.(syscall.Errno); ok {
		return Errno(e)
	}
	return Errno(syscall.EIO)
}
