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

// Package ops is the OpSemantics of spec.md §4.3: the filesystem
// operations exported to the emulator, each composing one host-FS
// call with one or more MetaStore updates inside a single
// TxCoordinator envelope.
package ops

import (
	"context"
	"database/sql"

	"golang.org/x/sys/unix"

	"github.com/ariagecheney/ish/internal/fakefs/meta"
	"github.com/ariagecheney/ish/internal/fakefs/mount"
	"github.com/ariagecheney/ish/internal/logger"
	"github.com/ariagecheney/ish/internal/metrics"
)

// Handle binds an open file descriptor to the inode row captured at
// open time (spec.md §4.3.2): later fstat/fsetattr calls target that
// row even if the path is renamed or unlinked out from under it.
type Handle struct {
	Fd    int
	Inode uint64
}

// FS is the operation vtable bound to one live mount.
type FS struct {
	Mount *mount.Mount
}

// New builds an FS over an already-mounted Mount.
func New(m *mount.Mount) *FS {
	return &FS{Mount: m}
}

func (f *FS) hostPath(path []byte) string {
	return f.Mount.HostPath(path)
}

// withTxn runs fn inside one begin...commit/rollback envelope,
// instrumenting it per SPEC_FULL.md §4.5.4: an attempt counter and a
// TRACE entry line, a commit or rollback counter and a latency
// observation on exit, and an ERROR line on every rollback or fatal
// path. fn is given the *sql.Tx directly since every meta.Store
// method takes one.
func (f *FS) withTxn(ctx context.Context, op string, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	metrics.OpsAttempted.WithLabelValues(op).Inc()
	logger.Tracef("ops: %s: enter", op)
	start := f.Mount.Clock.Now()
	defer func() {
		metrics.OpLatencySeconds.WithLabelValues(op).Observe(f.Mount.Clock.Now().Sub(start).Seconds())
		logger.Tracef("ops: %s: exit: err=%v", op, err)
	}()

	txn, err := f.Mount.Tx.Begin(ctx)
	if err != nil {
		metrics.OpsRolledBack.WithLabelValues(op).Inc()
		logger.Errorf("ops: %s: begin: %v", op, err)
		return err
	}

	if err = fn(ctx, txn.SQL()); err != nil {
		txn.Rollback()
		metrics.OpsRolledBack.WithLabelValues(op).Inc()
		logger.Errorf("ops: %s: rolled back: %v", op, err)
		return err
	}

	if err = txn.Commit(); err != nil {
		metrics.OpsRolledBack.WithLabelValues(op).Inc()
		logger.Errorf("ops: %s: commit failed: %v", op, err)
		return err
	}
	metrics.OpsCommitted.WithLabelValues(op).Inc()
	return nil
}

// --- pass-through delegates (spec.md §6): no metadata transaction. ---

func (f *FS) Close(ctx context.Context, h *Handle) error {
	return f.Mount.FS.Close(h.Fd)
}

func (f *FS) Flock(ctx context.Context, h *Handle, how int) error {
	return f.Mount.FS.Flock(h.Fd, how)
}

func (f *FS) Statfs(ctx context.Context, path []byte) (unix.Statfs_t, error) {
	return f.Mount.FS.Statfs(f.hostPath(path))
}

// GetPath returns the host path a guest path resolves to, for callers
// that need it outside an operation envelope (e.g. mmap backing).
func (f *FS) GetPath(path []byte) string {
	return f.hostPath(path)
}

func (f *FS) Utime(ctx context.Context, path []byte, atimeSec, mtimeSec int64) error {
	return f.Mount.FS.Utime(f.hostPath(path), atimeSec, mtimeSec)
}

// synthesize builds the Ishstat a create-style operation writes into
// the stats table, per the table in spec.md §4.3.
func synthesize(mode, euid, egid, rdev uint32) meta.Ishstat {
	return meta.Ishstat{Mode: mode, Uid: euid, Gid: egid, Rdev: rdev}
}
