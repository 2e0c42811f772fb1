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

	"github.com/ariagecheney/ish/internal/fakefs/meta"
)

// Mknod implements spec.md §4.3's mknod row. The shadow stores the
// guest-requested type bits and rdev even when the host could not be
// asked to create a genuine device node: for block/char requests this
// handler replaces the type bits with S_IFREG before calling
// RealFS.Mknod, but the shadow remembers what the guest actually
// asked for.
func (f *FS) Mknod(ctx context.Context, path []byte, mode uint32, dev uint64, euid, egid uint32) error {
	return f.withTxn(ctx, "mknod", func(ctx context.Context, tx *sql.Tx) error {
		hostMode := mode
		if t := mode & meta.TypeMask; t == meta.TypeBlk || t == meta.TypeChr {
			hostMode = (mode &^ meta.TypeMask) | meta.TypeReg
		}
		if err := f.Mount.FS.Mknod(f.hostPath(path), hostMode, dev); err != nil {
			return err
		}

		var rdev uint32
		st := synthesize(mode, euid, egid, 0)
		if st.IsBlockOrChar() {
			rdev = uint32(dev)
		}
		st.Rdev = rdev
		_, err := f.Mount.Store.CreatePath(ctx, tx, path, st)
		return err
	})
}
