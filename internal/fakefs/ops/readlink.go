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

	"github.com/ariagecheney/ish/internal/fakefs/ferrors"
	"github.com/ariagecheney/ish/internal/fakefs/meta"
)

// Readlink implements spec.md §4.3's readlink row: the shadow guards
// the call, not just the host read — path must exist and its shadow
// mode must be S_IFLNK, or the call fails before the host is touched.
func (f *FS) Readlink(ctx context.Context, path []byte) (string, error) {
	var target string
	err := f.withTxn(ctx, "readlink", func(ctx context.Context, tx *sql.Tx) error {
		_, shadow, ok, err := f.Mount.Store.ReadStatByPath(ctx, tx, path)
		if err != nil {
			return err
		}
		if !ok {
			return ferrors.ErrNotExist
		}
		if shadow.Mode&meta.TypeMask != meta.TypeLnk {
			return ferrors.ErrInvalid
		}
		target, err = f.Mount.FS.Readlink(f.hostPath(path))
		return err
	})
	return target, err
}
