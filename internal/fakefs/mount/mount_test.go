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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ariagecheney/ish/internal/clock"
	"github.com/ariagecheney/ish/internal/fakefs/realfs"
)

func newTestMount(t *testing.T) *Mount {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")

	m, err := Mount(context.Background(), Options{
		DataDir:    dataDir,
		FS:         realfs.UnixRealFS{},
		Clock:      clock.RealClock{},
		DefaultUid: 1000,
		DefaultGid: 1000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { m.Unmount() })
	return m
}

func TestMount_UnmountClosesStore(t *testing.T) {
	m := newTestMount(t)
	require.NoError(t, m.Unmount())
	_, err := m.Store.DB().Begin()
	require.Error(t, err)
}

func TestMount_RejectsWrongBasename(t *testing.T) {
	root := t.TempDir()
	_, err := Mount(context.Background(), Options{
		DataDir: filepath.Join(root, "notdata"),
		FS:      realfs.UnixRealFS{},
		Clock:   clock.RealClock{},
	})
	require.Error(t, err)
}

func TestMount_CreatesFreshMetaDB(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")

	m, err := Mount(context.Background(), Options{
		DataDir: dataDir,
		FS:      realfs.UnixRealFS{},
		Clock:   clock.RealClock{},
	})
	require.NoError(t, err)
	defer m.Unmount()

	_, statErr := os.Stat(filepath.Join(root, "meta.db"))
	require.NoError(t, statErr)
	_, statErr = os.Stat(dataDir)
	require.NoError(t, statErr)
}

func TestMount_DetectsRelocationAndRebuilds(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")

	m1, err := Mount(context.Background(), Options{DataDir: dataDir, FS: realfs.UnixRealFS{}, Clock: clock.RealClock{}})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "untracked"), []byte("hi"), 0644))
	require.NoError(t, m1.Unmount())

	// Simulate relocation: move the tree to a new root and copy the
	// database file so it gets a new host inode (archived/re-extracted
	// scenario; a rename alone would keep the old inode).
	newRoot := t.TempDir()
	newDataDir := filepath.Join(newRoot, "data")
	require.NoError(t, os.Rename(dataDir, newDataDir))
	dbBytes, err := os.ReadFile(filepath.Join(root, "meta.db"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(newRoot, "meta.db"), dbBytes, 0644))

	m2, err := Mount(context.Background(), Options{DataDir: newDataDir, FS: realfs.UnixRealFS{}, Clock: clock.RealClock{}})
	require.NoError(t, err)
	defer m2.Unmount()

	txn, err := m2.Tx.Begin(context.Background())
	require.NoError(t, err)
	defer txn.Rollback()

	all, err := m2.Store.AllPaths(context.Background(), txn.SQL())
	require.NoError(t, err)
	require.Contains(t, all, "/untracked")
}
