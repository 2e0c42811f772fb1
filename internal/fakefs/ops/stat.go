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

package ops

import (
	"context"
	"database/sql"

	"golang.org/x/sys/unix"

	"github.com/ariagecheney/ish/internal/fakefs/ferrors"
)

// overlayStat rewrites the host-FS result's inode/mode/uid/gid/rdev
// fields with the shadow values, leaving size/times/nlink/blocks as
// the host reported them (spec.md §4.3 stat/fstat rows).
func overlayStat(st *unix.Stat_t, inode uint64, mode, uid, gid, rdev uint32) {
	st.Ino = inode
	st.Mode = mode
	st.Uid = uid
	st.Gid = gid
	st.Rdev = uint64(rdev)
}

// Stat implements spec.md §4.3's stat row: the shadow is authoritative
// for existence; a host object with no shadow row surfaces ENOENT.
func (f *FS) Stat(ctx context.Context, path []byte, follow bool) (unix.Stat_t, error) {
	var out unix.Stat_t
	err := f.withTxn(ctx, "stat", func(ctx context.Context, tx *sql.Tx) error {
		st, err := f.Mount.FS.Stat(f.hostPath(path), follow)
		if err != nil {
			return err
		}
		inode, shadow, ok, err := f.Mount.Store.ReadStatByPath(ctx, tx, path)
		if err != nil {
			return err
		}
		if !ok {
			return ferrors.ErrNotExist
		}
		overlayStat(&st, inode, shadow.Mode, shadow.Uid, shadow.Gid, shadow.Rdev)
		out = st
		return nil
	})
	return out, err
}

// Fstat implements spec.md §4.3's fstat row: the handle's captured
// fake_inode is authoritative, independent of the path it was opened
// through.
func (f *FS) Fstat(ctx context.Context, h *Handle) (unix.Stat_t, error) {
	var out unix.Stat_t
	err := f.withTxn(ctx, "fstat", func(ctx context.Context, tx *sql.Tx) error {
		st, err := f.Mount.FS.Fstat(h.Fd)
		if err != nil {
			return err
		}
		shadow, err := f.Mount.Store.ReadStatByInode(ctx, tx, h.Inode)
		if err != nil {
			return err
		}
		overlayStat(&st, h.Inode, shadow.Mode, shadow.Uid, shadow.Gid, shadow.Rdev)
		out = st
		return nil
	})
	return out, err
}
