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
)

// Unlink implements spec.md §4.3's unlink row: the stats row is left
// orphaned until the next mount's sweep (spec.md §3 invariant 2).
func (f *FS) Unlink(ctx context.Context, path []byte) error {
	return f.withTxn(ctx, "unlink", func(ctx context.Context, tx *sql.Tx) error {
		if err := f.Mount.FS.Unlink(f.hostPath(path)); err != nil {
			return err
		}
		return f.Mount.Store.UnlinkPath(ctx, tx, path)
	})
}

// Rmdir implements spec.md §4.3's rmdir row, which shares unlink's
// metadata-side semantics.
func (f *FS) Rmdir(ctx context.Context, path []byte) error {
	return f.withTxn(ctx, "rmdir", func(ctx context.Context, tx *sql.Tx) error {
		if err := f.Mount.FS.Rmdir(f.hostPath(path)); err != nil {
			return err
		}
		return f.Mount.Store.UnlinkPath(ctx, tx, path)
	})
}
