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

// Rename implements spec.md §4.3's rename row: host-FS rename, then
// path_rename on success.
func (f *FS) Rename(ctx context.Context, src, dst []byte) error {
	return f.withTxn(ctx, "rename", func(ctx context.Context, tx *sql.Tx) error {
		if err := f.Mount.FS.Rename(f.hostPath(src), f.hostPath(dst)); err != nil {
			return err
		}
		return f.Mount.Store.RenamePath(ctx, tx, src, dst)
	})
}
