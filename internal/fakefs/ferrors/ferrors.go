// Copyright 2024 Google LLC
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

// Package ferrors names the error kinds of spec.md §7 as flat
// syscall.Errno sentinels, the same shape the teacher's legacy fs.go
// returned (fuse.ENOENT, fuse.EEXIST, ...), so callers can compare
// with errors.Is instead of inspecting strings.
package ferrors

import (
	"golang.org/x/sys/unix"
)

var (
	// ErrNotExist is "Absent path" in spec.md §7: a shadow lookup
	// returned no row.
	ErrNotExist = unix.ENOENT

	// ErrInvalid is "Wrong file type" in spec.md §7, e.g. readlink on
	// a non-link, or an invalid mount (bad basename / missing magic).
	ErrInvalid = unix.EINVAL

	// ErrExist is returned when a create-style operation targets a
	// path that already has a shadow row.
	ErrExist = unix.EEXIST

	// ErrNotDir / ErrIsDir guard the directory-shaped operations
	// (mkdir/rmdir) against being pointed at the wrong type.
	ErrNotDir = unix.ENOTDIR
	ErrIsDir  = unix.EISDIR

	// ErrNotEmpty guards rmdir against a non-empty directory.
	ErrNotEmpty = unix.ENOTEMPTY

	// ErrNotSupported names ENOTSUP. No operation in this module
	// returns it: ops.Attr carries exactly one kind per call, so a
	// combined size + non-size setattr request cannot be expressed.
	ErrNotSupported = unix.ENOTSUP
)
