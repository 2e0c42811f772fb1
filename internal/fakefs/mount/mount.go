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

// Package mount is the MountLifecycle of spec.md §4.4: it resolves
// and validates the metadata database, runs schema migrations,
// detects relocation via meta.db_inode, triggers fakefs_rebuild,
// sweeps orphaned stats, and prepares the statement cache.
package mount

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariagecheney/ish/internal/clock"
	"github.com/ariagecheney/ish/internal/fakefs/ferrors"
	"github.com/ariagecheney/ish/internal/fakefs/meta"
	"github.com/ariagecheney/ish/internal/fakefs/realfs"
	"github.com/ariagecheney/ish/internal/fakefs/tx"
	"github.com/ariagecheney/ish/internal/logger"
	"github.com/ariagecheney/ish/internal/metrics"
)

// sqliteMagic is the on-disk signature every valid meta.db must begin
// with (spec.md §4.4 step 2, §6).
const sqliteMagic = "SQLite format 3"

// Mount owns everything a live fakefs mount needs: the metadata
// store, the transaction coordinator wrapping it, the host-FS
// collaborator, and the root/data-dir paths (spec.md §3 "Ownership").
type Mount struct {
	Store *meta.Store
	Tx    *tx.Coordinator
	FS    realfs.RealFS
	Clock clock.Clock

	// DataRoot is the host path to the "data" subdirectory; every
	// guest path is joined onto it to produce the host path RealFS
	// operates on (translation proper is out of scope; this is the
	// one fixed prefix fakefs itself is responsible for).
	DataRoot string
	dbPath   string

	DefaultUid uint32
	DefaultGid uint32
}

// Options configures a Mount.
type Options struct {
	// DataDir must have basename "data" (spec.md §4.4 step 1).
	DataDir    string
	FS         realfs.RealFS
	Clock      clock.Clock
	DefaultUid uint32
	DefaultGid uint32
}

// Mount performs the nine steps of spec.md §4.4. meta.Open covers
// steps 3, 5 and 9 together, so the statement cache is prepared
// before the relocation check (steps 6-7) and the orphan sweep (step
// 8).
func Mount(ctx context.Context, opts Options) (*Mount, error) {
	if filepath.Base(opts.DataDir) != "data" {
		return nil, fmt.Errorf("mount: data directory must be named %q, got %q: %w", "data", opts.DataDir, ferrors.ErrInvalid)
	}
	dbPath := filepath.Join(filepath.Dir(opts.DataDir), "meta.db")

	if err := validateMagic(dbPath); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.DataDir, 0777); err != nil {
		return nil, fmt.Errorf("mount: host-FS mount of %s: %w", opts.DataDir, err)
	}

	store, err := meta.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	m := &Mount{
		Store:      store,
		Tx:         tx.New(store.DB()),
		FS:         opts.FS,
		Clock:      opts.Clock,
		DataRoot:   opts.DataDir,
		dbPath:     dbPath,
		DefaultUid: opts.DefaultUid,
		DefaultGid: opts.DefaultGid,
	}

	if err := m.reconcileRelocation(ctx); err != nil {
		store.Close()
		return nil, err
	}

	if err := m.sweepOrphans(ctx); err != nil {
		store.Close()
		return nil, err
	}

	return m, nil
}

// validateMagic implements spec.md §4.4 step 2. A not-yet-existing
// database is not a validation failure: sqlite creates it on first
// open, and it will carry the magic once anything is written to it.
func validateMagic(dbPath string) error {
	f, err := os.Open(dbPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mount: opening %s: %w", dbPath, err)
	}
	defer f.Close()

	buf := make([]byte, len(sqliteMagic))
	n, _ := f.Read(buf)
	if n < len(sqliteMagic) || !bytes.Equal(buf[:n], []byte(sqliteMagic)) {
		return fmt.Errorf("mount: %s does not carry the SQLite magic: %w", dbPath, ferrors.ErrInvalid)
	}
	return nil
}

// reconcileRelocation implements spec.md §4.4 steps 6-7: compare
// meta.db_inode to the database file's current host inode; if they
// differ the tree was relocated (archived/transmitted/re-extracted)
// and fakefs_rebuild must run before the new inode is recorded.
func (m *Mount) reconcileRelocation(ctx context.Context) error {
	hostInode, err := hostInodeOf(m.dbPath)
	if err != nil {
		return fmt.Errorf("mount: stat %s: %w", m.dbPath, err)
	}

	txn, err := m.Tx.Begin(ctx)
	if err != nil {
		return err
	}

	prev, err := m.Store.ReadDBInode(ctx, txn.SQL())
	if err != nil {
		txn.Rollback()
		return err
	}

	if prev != 0 && prev != hostInode {
		logger.Infof("mount: db_inode mismatch (had %d, host is %d); rebuilding", prev, hostInode)
		metrics.Rebuilds.Inc()
		if err := m.rebuild(ctx, txn); err != nil {
			txn.Rollback()
			return err
		}
	}

	if err := m.Store.WriteDBInode(ctx, txn.SQL(), hostInode); err != nil {
		txn.Rollback()
		return err
	}

	return txn.Commit()
}

func (m *Mount) sweepOrphans(ctx context.Context) error {
	txn, err := m.Tx.Begin(ctx)
	if err != nil {
		return err
	}
	n, err := m.Store.SweepOrphans(ctx, txn.SQL())
	if err != nil {
		txn.Rollback()
		return err
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	if n > 0 {
		logger.Infof("mount: swept %d orphaned stat rows", n)
	}
	metrics.OrphansSwept.Add(float64(n))
	return nil
}

// Unmount closes the database handle. Host-FS unmount is a no-op in
// this core (spec.md §4.4).
func (m *Mount) Unmount() error {
	return m.Store.Close()
}

// HostPath joins a byte-exact guest path onto the mount's data root.
// Path translation proper (., .., multi-slash canonicalization) is
// out of scope per spec.md §9 Open Question (i); callers are expected
// to have already canonicalized path the way cfg.ResolvedPath does
// for the data directory itself.
func (m *Mount) HostPath(path []byte) string {
	return filepath.Join(m.DataRoot, string(path))
}
