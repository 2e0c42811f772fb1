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

package meta

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ariagecheney/ish/internal/fakefs/tx"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "meta.db")
	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func withTx(t *testing.T, c *tx.Coordinator, fn func(tx *sql.Tx)) {
	t.Helper()
	txn, err := c.Begin(context.Background())
	require.NoError(t, err)
	fn(txn.SQL())
	require.NoError(t, txn.Commit())
}

func TestCreatePathAndReadBack(t *testing.T) {
	s := openTestStore(t)
	c := tx.New(s.DB())
	ctx := context.Background()

	var inode uint64
	withTx(t, c, func(stx *sql.Tx) {
		var err error
		inode, err = s.CreatePath(ctx, stx, []byte("/foo"), Ishstat{Mode: TypeReg | 0644, Uid: 1, Gid: 2})
		require.NoError(t, err)
		require.NotZero(t, inode)
	})

	withTx(t, c, func(stx *sql.Tx) {
		gotInode, st, ok, err := s.ReadStatByPath(ctx, stx, []byte("/foo"))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, inode, gotInode)
		require.Equal(t, uint32(TypeReg|0644), st.Mode)
		require.Equal(t, uint32(1), st.Uid)
	})
}

func TestReadStatByPath_Absent(t *testing.T) {
	s := openTestStore(t)
	c := tx.New(s.DB())
	withTx(t, c, func(stx *sql.Tx) {
		_, _, ok, err := s.ReadStatByPath(context.Background(), stx, []byte("/nope"))
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestUnlinkLeavesOrphanedStat(t *testing.T) {
	s := openTestStore(t)
	c := tx.New(s.DB())
	ctx := context.Background()

	var inode uint64
	withTx(t, c, func(stx *sql.Tx) {
		var err error
		inode, err = s.CreatePath(ctx, stx, []byte("/foo"), Ishstat{Mode: TypeReg | 0644})
		require.NoError(t, err)
	})

	withTx(t, c, func(stx *sql.Tx) {
		require.NoError(t, s.UnlinkPath(ctx, stx, []byte("/foo")))
	})

	withTx(t, c, func(stx *sql.Tx) {
		n, err := s.CountOrphans(ctx, stx)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		st, err := s.ReadStatByInode(ctx, stx, inode)
		require.NoError(t, err)
		require.Equal(t, uint32(TypeReg|0644), st.Mode)
	})
}

func TestSweepOrphansRemovesThem(t *testing.T) {
	s := openTestStore(t)
	c := tx.New(s.DB())
	ctx := context.Background()

	withTx(t, c, func(stx *sql.Tx) {
		_, err := s.CreatePath(ctx, stx, []byte("/foo"), Ishstat{Mode: TypeReg})
		require.NoError(t, err)
	})
	withTx(t, c, func(stx *sql.Tx) {
		require.NoError(t, s.UnlinkPath(ctx, stx, []byte("/foo")))
	})

	withTx(t, c, func(stx *sql.Tx) {
		n, err := s.SweepOrphans(ctx, stx)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	})
	withTx(t, c, func(stx *sql.Tx) {
		n, err := s.CountOrphans(ctx, stx)
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})
}

func TestRenamePathReplacesDestination(t *testing.T) {
	s := openTestStore(t)
	c := tx.New(s.DB())
	ctx := context.Background()

	var srcInode uint64
	withTx(t, c, func(stx *sql.Tx) {
		var err error
		srcInode, err = s.CreatePath(ctx, stx, []byte("/src"), Ishstat{Mode: TypeReg})
		require.NoError(t, err)
		_, err = s.CreatePath(ctx, stx, []byte("/dst"), Ishstat{Mode: TypeReg})
		require.NoError(t, err)
	})

	withTx(t, c, func(stx *sql.Tx) {
		require.NoError(t, s.RenamePath(ctx, stx, []byte("/src"), []byte("/dst")))
	})

	withTx(t, c, func(stx *sql.Tx) {
		gotInode, _, ok, err := s.ReadStatByPath(ctx, stx, []byte("/dst"))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, srcInode, gotInode)

		_, _, ok, err = s.ReadStatByPath(ctx, stx, []byte("/src"))
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestLinkPathSharesInode(t *testing.T) {
	s := openTestStore(t)
	c := tx.New(s.DB())
	ctx := context.Background()

	var inode uint64
	withTx(t, c, func(stx *sql.Tx) {
		var err error
		inode, err = s.CreatePath(ctx, stx, []byte("/a"), Ishstat{Mode: TypeReg})
		require.NoError(t, err)
	})
	withTx(t, c, func(stx *sql.Tx) {
		require.NoError(t, s.LinkPath(ctx, stx, []byte("/a"), []byte("/b")))
	})
	withTx(t, c, func(stx *sql.Tx) {
		gotInode, err := s.GetInode(ctx, stx, []byte("/b"))
		require.NoError(t, err)
		require.Equal(t, inode, gotInode)
	})
}

func TestDBInodeRoundTrip(t *testing.T) {
	s := openTestStore(t)
	c := tx.New(s.DB())
	ctx := context.Background()

	withTx(t, c, func(stx *sql.Tx) {
		v, err := s.ReadDBInode(ctx, stx)
		require.NoError(t, err)
		require.Zero(t, v)
		require.NoError(t, s.WriteDBInode(ctx, stx, 42))
	})
	withTx(t, c, func(stx *sql.Tx) {
		v, err := s.ReadDBInode(ctx, stx)
		require.NoError(t, err)
		require.EqualValues(t, 42, v)
	})
}

func TestReadStatByInode_MissingIsFatal(t *testing.T) {
	s := openTestStore(t)
	c := tx.New(s.DB())
	ctx := context.Background()

	var fatalCalled bool
	origHook := FatalHook
	FatalHook = func(format string, args ...any) { fatalCalled = true }
	t.Cleanup(func() { FatalHook = origHook })

	withTx(t, c, func(stx *sql.Tx) {
		_, err := s.ReadStatByInode(ctx, stx, 9999)
		require.Error(t, err)
	})
	require.True(t, fatalCalled)
}

func TestAllPaths(t *testing.T) {
	s := openTestStore(t)
	c := tx.New(s.DB())
	ctx := context.Background()

	withTx(t, c, func(stx *sql.Tx) {
		_, err := s.CreatePath(ctx, stx, []byte("/a"), Ishstat{Mode: TypeReg})
		require.NoError(t, err)
		_, err = s.CreatePath(ctx, stx, []byte("/b"), Ishstat{Mode: TypeDir})
		require.NoError(t, err)
	})

	withTx(t, c, func(stx *sql.Tx) {
		all, err := s.AllPaths(ctx, stx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		require.Contains(t, all, "/a")
		require.Contains(t, all, "/b")
	})
}
