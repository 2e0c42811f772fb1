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
	"github.com/ariagecheney/ish/internal/fakefs/meta"
)

// Open implements spec.md §4.3's open row. The host file is always
// opened world-read-write (0666); guest-visible permissions live
// entirely in the shadow row. A host file present with no shadow row
// is treated as nonexistent: the metadata is the source of truth for
// existence in the guest (spec.md §4.3.2).
func (f *FS) Open(ctx context.Context, path []byte, flags int, mode, euid, egid uint32) (*Handle, error) {
	var h Handle
	err := f.withTxn(ctx, "open", func(ctx context.Context, tx *sql.Tx) error {
		fd, err := f.Mount.FS.Open(f.hostPath(path), flags, 0666)
		if err != nil {
			return err
		}

		inode, err := f.Mount.Store.GetInode(ctx, tx, path)
		if err != nil {
			f.Mount.FS.Close(fd)
			return err
		}

		if inode == 0 {
			if flags&unix.O_CREAT == 0 {
				f.Mount.FS.Close(fd)
				return ferrors.ErrNotExist
			}
			st := synthesize(mode|meta.TypeReg, euid, egid, 0)
			inode, err = f.Mount.Store.CreatePath(ctx, tx, path, st)
			if err != nil {
				f.Mount.FS.Close(fd)
				return err
			}
		}

		if inode == 0 {
			f.Mount.FS.Close(fd)
			return ferrors.ErrNotExist
		}

		h = Handle{Fd: fd, Inode: inode}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}
