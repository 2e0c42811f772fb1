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

// Symlink implements spec.md §4.3's symlink row: fakefs never creates
// a real host symlink (RealFS.Symlink writes target's bytes as the
// contents of a regular file), so a host that mangles broken symlinks
// never sees one.
func (f *FS) Symlink(ctx context.Context, target, link []byte, euid, egid uint32) error {
	return f.withTxn(ctx, "symlink", func(ctx context.Context, tx *sql.Tx) error {
		hostLink := f.hostPath(link)
		if err := f.Mount.FS.Symlink(string(target), hostLink); err != nil {
			return err
		}
		st := synthesize(meta.TypeLnk|0777, euid, egid, 0)
		_, err := f.Mount.Store.CreatePath(ctx, tx, link, st)
		if err != nil {
			f.Mount.FS.Unlink(hostLink)
			return err
		}
		return nil
	})
}
