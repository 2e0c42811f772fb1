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

// Package realfs is the host-filesystem pass-through collaborator
// spec.md §1 declares out of scope ("realfs ... whose identical-
// signature operations are invoked for data I/O"). This package
// supplies the interface OpSemantics programs against plus one
// concrete implementation, UnixRealFS, built directly on
// golang.org/x/sys/unix so the module is runnable on a real Unix
// host. Path translation from guest to host paths, fd-table
// management, and errno mapping remain out of scope: every RealFS
// method takes an already-resolved host path.
package realfs

import (
	"os"

	"golang.org/x/sys/unix"
)

// WalkFunc is invoked once per host object found under root during
// fakefs_rebuild (spec.md §4.4 step 6). path is host-absolute.
type WalkFunc func(path string, info os.FileInfo) error

// RealFS is the host-FS collaborator every OpSemantics method calls
// into for the data half of its work.
type RealFS interface {
	Open(path string, flags int, mode uint32) (fd int, err error)
	Close(fd int) error
	Link(oldpath, newpath string) error
	Unlink(path string) error
	Rmdir(path string) error
	Rename(oldpath, newpath string) error
	Mkdir(path string, mode uint32) error
	Mknod(path string, mode uint32, dev uint64) error
	Symlink(target, linkpath string) error
	Readlink(path string) (string, error)
	Stat(path string, follow bool) (unix.Stat_t, error)
	Fstat(fd int) (unix.Stat_t, error)
	Write(fd int, b []byte) (int, error)
	Truncate(path string, size int64) error
	Ftruncate(fd int, size int64) error
	Flock(fd int, how int) error
	Statfs(path string) (unix.Statfs_t, error)
	Utime(path string, atimeSec, mtimeSec int64) error
	Walk(root string, fn WalkFunc) error
}

// UnixRealFS is the default RealFS, a direct wrapper over
// golang.org/x/sys/unix host syscalls.
type UnixRealFS struct{}

var _ RealFS = UnixRealFS{}

func (UnixRealFS) Open(path string, flags int, mode uint32) (int, error) {
	return unix.Open(path, flags, mode)
}

func (UnixRealFS) Close(fd int) error {
	return unix.Close(fd)
}

func (UnixRealFS) Link(oldpath, newpath string) error {
	return unix.Link(oldpath, newpath)
}

func (UnixRealFS) Unlink(path string) error {
	return unix.Unlink(path)
}

func (UnixRealFS) Rmdir(path string) error {
	return unix.Rmdir(path)
}

func (UnixRealFS) Rename(oldpath, newpath string) error {
	return unix.Rename(oldpath, newpath)
}

func (UnixRealFS) Mkdir(path string, mode uint32) error {
	return unix.Mkdir(path, mode)
}

// Mknod creates a host node of exactly the type in mode. The host may
// refuse genuine device nodes, so OpSemantics' mknod handler
// (spec.md §4.3) rewrites block/char requests to S_IFREG before
// calling this.
func (UnixRealFS) Mknod(path string, mode uint32, dev uint64) error {
	return unix.Mknod(path, mode, int(dev))
}

func (UnixRealFS) Symlink(target, linkpath string) error {
	// Per spec.md §4.3, fakefs never asks the host to create a real
	// symlink: it creates a regular file at linkpath and writes
	// target's bytes as its contents, so a host that mangles broken
	// symlinks never sees one.
	fd, err := unix.Open(linkpath, unix.O_CREAT|unix.O_WRONLY|unix.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	if _, err = unix.Write(fd, []byte(target)); err != nil {
		unix.Unlink(linkpath)
		return err
	}
	return nil
}

func (UnixRealFS) Readlink(path string) (string, error) {
	buf := make([]byte, 4096)
	n, err := unix.Readlink(path, buf)
	if err == nil {
		return string(buf[:n]), nil
	}
	// The host object backing a fakefs symlink is a regular file, not
	// a real link, so Readlink normally fails with EINVAL; fall back
	// to reading its contents (spec.md §4.3 readlink row).
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return "", err
	}
	return string(data), nil
}

func (UnixRealFS) Stat(path string, follow bool) (unix.Stat_t, error) {
	var st unix.Stat_t
	var err error
	if follow {
		err = unix.Stat(path, &st)
	} else {
		err = unix.Lstat(path, &st)
	}
	return st, err
}

func (UnixRealFS) Fstat(fd int) (unix.Stat_t, error) {
	var st unix.Stat_t
	err := unix.Fstat(fd, &st)
	return st, err
}

func (UnixRealFS) Write(fd int, b []byte) (int, error) {
	return unix.Write(fd, b)
}

func (UnixRealFS) Truncate(path string, size int64) error {
	return unix.Truncate(path, size)
}

func (UnixRealFS) Ftruncate(fd int, size int64) error {
	return unix.Ftruncate(fd, size)
}

func (UnixRealFS) Flock(fd int, how int) error {
	return unix.Flock(fd, how)
}

func (UnixRealFS) Statfs(path string) (unix.Statfs_t, error) {
	var st unix.Statfs_t
	err := unix.Statfs(path, &st)
	return st, err
}

func (UnixRealFS) Utime(path string, atimeSec, mtimeSec int64) error {
	return unix.Utimes(path, []unix.Timeval{
		{Sec: atimeSec},
		{Sec: mtimeSec},
	})
}

func (UnixRealFS) Walk(root string, fn WalkFunc) error {
	return walkDir(root, fn)
}
