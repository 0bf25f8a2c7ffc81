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

package vfs

// FileMode encodes the type of a vnode. Unlike os.FileMode this layer has
// no permission bits to carry: the spec's non-goals exclude permission
// checks, so a vnode's mode is purely its type.
type FileMode uint32

const (
	ModeRegular FileMode = iota
	ModeDir
	ModeChar
	ModeBlock
)

func (m FileMode) String() string {
	switch m {
	case ModeRegular:
		return "regular"
	case ModeDir:
		return "directory"
	case ModeChar:
		return "char-device"
	case ModeBlock:
		return "block-device"
	}
	return "unknown"
}

func (m FileMode) IsDir() bool     { return m == ModeDir }
func (m FileMode) IsRegular() bool { return m == ModeRegular }
func (m FileMode) IsChar() bool    { return m == ModeChar }
func (m FileMode) IsBlock() bool   { return m == ModeBlock }
func (m FileMode) IsDevice() bool  { return m == ModeChar || m == ModeBlock }
