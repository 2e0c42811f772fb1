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

package mount

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ariagecheney/ish/internal/fakefs/meta"
	"github.com/ariagecheney/ish/internal/fakefs/tx"
)

// rebuild implements fakefs_rebuild (spec.md §4.4 step 6): the host
// tree under DataRoot is walked and reconciled against the paths/
// stats relations. Host objects with no shadow row get one
// synthesized from their host stat; shadow rows whose host object has
// vanished are unlinked, leaving their stats row for the orphan
// sweep that follows in the same mount. Guest paths already shadowed
// are left untouched: rebuild repairs loss of the shadow store, it
// does not re-derive ownership or permissions for entries it already
// knows about.
func (m *Mount) rebuild(ctx context.Context, txn *tx.Txn) error {
	existing, err := m.Store.AllPaths(ctx, txn.SQL())
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))

	walkErr := m.FS.Walk(m.DataRoot, func(hostPath string, info os.FileInfo) error {
		guestPath, err := m.guestPath(hostPath)
		if err != nil {
			return err
		}
		seen[guestPath] = true

		if _, ok := existing[guestPath]; ok {
			return nil
		}

		st := m.synthesizeStat(info)
		_, err = m.Store.CreatePath(ctx, txn.SQL(), []byte(guestPath), st)
		return err
	})
	if walkErr != nil {
		return walkErr
	}

	for path := range existing {
		if seen[path] {
			continue
		}
		if err := m.Store.UnlinkPath(ctx, txn.SQL(), []byte(path)); err != nil {
			return err
		}
	}
	return nil
}

// guestPath turns an absolute host path under DataRoot into the
// byte-exact guest path it shadows: "/" for the root itself, a
// forward-slash-joined relative path otherwise.
func (m *Mount) guestPath(hostPath string) (string, error) {
	rel, err := filepath.Rel(m.DataRoot, hostPath)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "/", nil
	}
	return "/" + filepath.ToSlash(rel), nil
}

// synthesizeStat derives an Ishstat for a host object rebuild found
// with no shadow row, using the mount's configured default ownership
// and the host's own type/permission bits (spec.md §4.4 step 6, §9
// "Supplemented" rebuild semantics).
func (m *Mount) synthesizeStat(info os.FileInfo) meta.Ishstat {
	mode := uint32(info.Mode().Perm())
	switch {
	case info.IsDir():
		mode |= meta.TypeDir
	case info.Mode()&os.ModeSymlink != 0:
		mode |= meta.TypeLnk
	default:
		mode |= meta.TypeReg
	}
	return meta.Ishstat{
		Mode: mode,
		Uid:  m.DefaultUid,
		Gid:  m.DefaultGid,
	}
}
