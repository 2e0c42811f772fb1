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

// Mkdir implements spec.md §4.3's mkdir row: the host directory is
// always created with permissive bits (0777); the guest-visible mode
// lives in the shadow.
func (f *FS) Mkdir(ctx context.Context, path []byte, mode, euid, egid uint32) error {
	return f.withTxn(ctx, "mkdir", func(ctx context.Context, tx *sql.Tx) error {
		if err := f.Mount.FS.Mkdir(f.hostPath(path), 0777); err != nil {
			return err
		}
		st := synthesize(mode|meta.TypeDir, euid, egid, 0)
		_, err := f.Mount.Store.CreatePath(ctx, tx, path, st)
		return err
	})
}
