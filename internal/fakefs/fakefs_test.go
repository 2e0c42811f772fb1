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

package fakefs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/stretchr/testify/require"

	"github.com/ariagecheney/ish/internal/clock"
	"github.com/ariagecheney/ish/internal/fakefs/ferrors"
	"github.com/ariagecheney/ish/internal/fakefs/meta"
	"github.com/ariagecheney/ish/internal/fakefs/mount"
	"github.com/ariagecheney/ish/internal/fakefs/ops"
	"github.com/ariagecheney/ish/internal/fakefs/realfs"
)

func makedev(major, minor uint32) uint64 {
	return uint64(major)<<8 | uint64(minor)
}

func openTestFS(t *testing.T, dataDir string) *FS {
	t.Helper()
	fs, err := Open(context.Background(), Options{
		DataDir:    dataDir,
		DefaultUid: 1000,
		DefaultGid: 1000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })
	return fs
}

// Scenario 1: fresh mount, mkdir, stat.
func TestScenario_MkdirThenStat(t *testing.T) {
	ctx := context.Background()
	dataDir := filepath.Join(t.TempDir(), "data")
	fs := openTestFS(t, dataDir)

	require.NoError(t, fs.Ops().Mkdir(ctx, []byte("/a"), 0700, 1000, 1000))

	st, err := fs.Ops().Stat(ctx, []byte("/a"), true)
	require.NoError(t, err)
	require.Equal(t, uint32(meta.TypeDir|0700), st.Mode)
	require.Equal(t, uint32(1000), st.Uid)
	require.Equal(t, uint32(1000), st.Gid)
}

// Scenario 2: mknod a character device; host object stays a regular file.
func TestScenario_MknodCharDevice(t *testing.T) {
	ctx := context.Background()
	dataDir := filepath.Join(t.TempDir(), "data")
	fs := openTestFS(t, dataDir)

	dev := makedev(1, 3)
	require.NoError(t, fs.Ops().Mkdir(ctx, []byte("/dev"), 0755, 0, 0))
	require.NoError(t, fs.Ops().Mknod(ctx, []byte("/dev/null"), meta.TypeChr|0666, dev, 0, 0))

	st, err := fs.Ops().Stat(ctx, []byte("/dev/null"), true)
	require.NoError(t, err)
	require.Equal(t, uint32(meta.TypeChr|0666), st.Mode)
	require.EqualValues(t, dev, st.Rdev)

	hostInfo, err := os.Lstat(filepath.Join(dataDir, "dev", "null"))
	require.NoError(t, err)
	require.True(t, hostInfo.Mode().IsRegular())
}

// Scenario 3: symlink, readlink, stat type bits.
func TestScenario_SymlinkReadlink(t *testing.T) {
	ctx := context.Background()
	dataDir := filepath.Join(t.TempDir(), "data")
	fs := openTestFS(t, dataDir)

	require.NoError(t, fs.Ops().Symlink(ctx, []byte("/target"), []byte("/l"), 1000, 1000))

	target, err := fs.Ops().Readlink(ctx, []byte("/l"))
	require.NoError(t, err)
	require.Equal(t, "/target", target)

	st, err := fs.Ops().Stat(ctx, []byte("/l"), false)
	require.NoError(t, err)
	require.Equal(t, uint32(meta.TypeLnk), st.Mode&meta.TypeMask)
}

// Scenario 4: open+setattr(uid)+fstat via the same fd.
func TestScenario_OpenSetattrFstat(t *testing.T) {
	ctx := context.Background()
	dataDir := filepath.Join(t.TempDir(), "data")
	fs := openTestFS(t, dataDir)

	h, err := fs.Ops().Open(ctx, []byte("/x"), unix.O_CREAT|unix.O_RDWR, 0600, 0, 0)
	require.NoError(t, err)
	defer fs.Ops().Close(ctx, h)

	require.NoError(t, fs.Ops().Setattr(ctx, []byte("/x"), ops.Attr{Kind: ops.AttrUid, Value: 42}))

	st, err := fs.Ops().Fstat(ctx, h)
	require.NoError(t, err)
	require.Equal(t, uint32(42), st.Uid)
}

// Scenario 5: link, unlink, stat carries the shadow through to the
// survivor; the removed path is ENOENT.
func TestScenario_LinkUnlinkSurvivorKeepsAttrs(t *testing.T) {
	ctx := context.Background()
	dataDir := filepath.Join(t.TempDir(), "data")
	fs := openTestFS(t, dataDir)

	h, err := fs.Ops().Open(ctx, []byte("/x"), unix.O_CREAT|unix.O_RDWR, 0600, 0, 0)
	require.NoError(t, err)
	require.NoError(t, fs.Ops().Setattr(ctx, []byte("/x"), ops.Attr{Kind: ops.AttrUid, Value: 42}))
	fs.Ops().Close(ctx, h)

	require.NoError(t, fs.Ops().Link(ctx, []byte("/x"), []byte("/y")))
	require.NoError(t, fs.Ops().Unlink(ctx, []byte("/x")))

	st, err := fs.Ops().Stat(ctx, []byte("/y"), true)
	require.NoError(t, err)
	require.Equal(t, uint32(42), st.Uid)

	_, err = fs.Ops().Stat(ctx, []byte("/x"), true)
	require.ErrorIs(t, err, ferrors.ErrNotExist)
}

// Scenario 6's crash-then-rebuild half: a host-FS mutation that
// committed without its metadata counterpart (simulated by mutating
// the host tree directly, bypassing ops) is repaired by the next
// mount's rebuild, restoring invariant 3 (every paths row names an
// existing host object and vice versa).
func TestRebuild_RepairsHostOnlyObjectAfterSimulatedCrash(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")

	fs := openTestFS(t, dataDir)
	require.NoError(t, fs.Ops().Mkdir(ctx, []byte("/d"), 0755, 1000, 1000))

	// Simulate a crash between the host-FS mutation and the metadata
	// commit: the host object exists but no shadow row was ever written.
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "d", "orphaned-host-file"), []byte("x"), 0644))
	require.NoError(t, fs.Close())

	// Force the relocation path so rebuild actually runs: move the tree
	// to a new root and copy the database file, which gives it a new
	// host inode (a rename alone would keep the old one).
	newRoot := t.TempDir()
	require.NoError(t, os.Rename(dataDir, filepath.Join(newRoot, "data")))
	dbBytes, err := os.ReadFile(filepath.Join(root, "meta.db"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(newRoot, "meta.db"), dbBytes, 0644))

	m, err := mount.Mount(ctx, mount.Options{
		DataDir:    filepath.Join(newRoot, "data"),
		FS:         realfs.UnixRealFS{},
		Clock:      clock.RealClock{},
		DefaultUid: 1000,
		DefaultGid: 1000,
	})
	require.NoError(t, err)
	defer m.Unmount()

	o := ops.New(m)
	st, err := o.Stat(ctx, []byte("/d/orphaned-host-file"), true)
	require.NoError(t, err)
	require.Equal(t, uint32(meta.TypeReg|0644), st.Mode&(meta.TypeMask|0777))
}
