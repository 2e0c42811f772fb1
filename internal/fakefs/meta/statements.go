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
	"errors"
	"fmt"
)

// Every method below assumes it runs inside tx, a transaction started
// by tx.Coordinator.Begin (spec.md §4.1: "All operations assume they
// execute inside an active transaction"). They bind the Store's
// cached prepared statement to tx rather than re-preparing.

// GetInode implements path_get_inode: returns 0 when path is absent.
func (s *Store) GetInode(ctx context.Context, tx *sql.Tx, path []byte) (uint64, error) {
	var inode uint64
	err := tx.StmtContext(ctx, s.stmtGetInode).QueryRowContext(ctx, path).Scan(&inode)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		fatal("meta: path_get_inode: %v", err)
		return 0, err
	}
	return inode, nil
}

// ReadStatByPath implements path_read_stat: joins paths and stats.
// ok is false when path is absent (callers treat that as ENOENT).
func (s *Store) ReadStatByPath(ctx context.Context, tx *sql.Tx, path []byte) (inode uint64, st Ishstat, ok bool, err error) {
	var blob []byte
	row := tx.StmtContext(ctx, s.stmtReadByPath).QueryRowContext(ctx, path)
	err = row.Scan(&inode, &blob)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, Ishstat{}, false, nil
	case err != nil:
		fatal("meta: path_read_stat: %v", err)
		return 0, Ishstat{}, false, err
	}
	st, decErr := DecodeStat(blob)
	if decErr != nil {
		fatal("meta: path_read_stat: %v", decErr)
		return 0, Ishstat{}, false, decErr
	}
	return inode, st, true, nil
}

// ReadStatByInode implements inode_read_stat. Per invariant 1, an
// inode reachable by a live path must have a stats row; absence here
// is fatal, not ENOENT.
func (s *Store) ReadStatByInode(ctx context.Context, tx *sql.Tx, inode uint64) (Ishstat, error) {
	var blob []byte
	row := tx.StmtContext(ctx, s.stmtReadByInode).QueryRowContext(ctx, inode)
	err := row.Scan(&blob)
	if err != nil {
		fatal("meta: inode_read_stat(%d): missing stat row: %v", inode, err)
		return Ishstat{}, err
	}
	st, err := DecodeStat(blob)
	if err != nil {
		fatal("meta: inode_read_stat(%d): %v", inode, err)
		return Ishstat{}, err
	}
	return st, nil
}

// WriteStat implements inode_write_stat.
func (s *Store) WriteStat(ctx context.Context, tx *sql.Tx, inode uint64, st Ishstat) error {
	_, err := tx.StmtContext(ctx, s.stmtWriteStat).ExecContext(ctx, EncodeStat(st), inode)
	if err != nil {
		fatal("meta: inode_write_stat(%d): %v", inode, err)
		return err
	}
	return nil
}

// CreatePath implements path_create: inserts a stats row, then a
// paths row bound to the just-inserted row id, atomically within tx.
func (s *Store) CreatePath(ctx context.Context, tx *sql.Tx, path []byte, st Ishstat) (uint64, error) {
	res, err := tx.StmtContext(ctx, s.stmtInsertStat).ExecContext(ctx, EncodeStat(st))
	if err != nil {
		fatal("meta: path_create: insert stat: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		fatal("meta: path_create: last insert id: %v", err)
		return 0, err
	}
	if _, err := tx.StmtContext(ctx, s.stmtInsertPath).ExecContext(ctx, path, id); err != nil {
		fatal("meta: path_create: insert path: %v", err)
		return 0, err
	}
	return uint64(id), nil
}

// LinkPath implements path_link: reads src's inode, inserts (dst,
// inode). Fails fatally if src has no inode — the caller must have
// already confirmed src exists (spec.md §4.1).
func (s *Store) LinkPath(ctx context.Context, tx *sql.Tx, src, dst []byte) error {
	inode, err := s.GetInode(ctx, tx, src)
	if err != nil {
		return err
	}
	if inode == 0 {
		fatal("meta: path_link: src %q has no inode", src)
		return fmt.Errorf("meta: path_link: src has no inode")
	}
	if _, err := tx.StmtContext(ctx, s.stmtInsertPath).ExecContext(ctx, dst, inode); err != nil {
		fatal("meta: path_link: insert path: %v", err)
		return err
	}
	return nil
}

// UnlinkPath implements path_unlink: deletes the paths row only. The
// stats row is left orphaned until the next mount's sweep (spec.md
// §3 invariant 2, §4.1).
func (s *Store) UnlinkPath(ctx context.Context, tx *sql.Tx, path []byte) error {
	if _, err := tx.StmtContext(ctx, s.stmtDeletePath).ExecContext(ctx, path); err != nil {
		fatal("meta: path_unlink: %v", err)
		return err
	}
	return nil
}

// RenamePath implements path_rename: replace semantics. Any existing
// paths row at dst is displaced first (its inode, if now
// unreferenced, becomes orphaned — the sweep handles it), then src's
// path column is retargeted to dst by delete+insert under the same
// inode.
func (s *Store) RenamePath(ctx context.Context, tx *sql.Tx, src, dst []byte) error {
	inode, err := s.GetInode(ctx, tx, src)
	if err != nil {
		return err
	}
	if inode == 0 {
		fatal("meta: path_rename: src %q has no inode", src)
		return fmt.Errorf("meta: path_rename: src has no inode")
	}
	if _, err := tx.StmtContext(ctx, s.stmtDeletePath).ExecContext(ctx, dst); err != nil {
		fatal("meta: path_rename: displace dst: %v", err)
		return err
	}
	if _, err := tx.StmtContext(ctx, s.stmtDeletePath).ExecContext(ctx, src); err != nil {
		fatal("meta: path_rename: delete src: %v", err)
		return err
	}
	if _, err := tx.StmtContext(ctx, s.stmtInsertPath).ExecContext(ctx, dst, inode); err != nil {
		fatal("meta: path_rename: insert dst: %v", err)
		return err
	}
	return nil
}

// ReadDBInode and WriteDBInode implement the meta singleton accessors
// used by the mount lifecycle's relocation check (spec.md §4.4 steps
// 6-7).
func (s *Store) ReadDBInode(ctx context.Context, tx *sql.Tx) (uint64, error) {
	var v uint64
	err := tx.StmtContext(ctx, s.stmtReadDBInode).QueryRowContext(ctx).Scan(&v)
	if err != nil {
		fatal("meta: read db_inode: %v", err)
		return 0, err
	}
	return v, nil
}

func (s *Store) WriteDBInode(ctx context.Context, tx *sql.Tx, inode uint64) error {
	if _, err := tx.StmtContext(ctx, s.stmtWriteDBInode).ExecContext(ctx, inode); err != nil {
		fatal("meta: write db_inode: %v", err)
		return err
	}
	return nil
}

// CountOrphans is a read-only diagnostic (SPEC_FULL.md §3 addition):
// the number of stats rows no paths row references. The mount-time
// sweep does not call it; its log/metric count comes from
// SweepOrphans.
func (s *Store) CountOrphans(ctx context.Context, tx *sql.Tx) (int, error) {
	var n int
	if err := tx.StmtContext(ctx, s.stmtCountOrphans).QueryRowContext(ctx).Scan(&n); err != nil {
		fatal("meta: count orphans: %v", err)
		return 0, err
	}
	return n, nil
}

// SweepOrphans implements the mount-time orphan sweep of spec.md §4.4
// step 8: delete every stats row no paths row references.
func (s *Store) SweepOrphans(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.StmtContext(ctx, s.stmtSweepOrphans).ExecContext(ctx)
	if err != nil {
		fatal("meta: sweep orphans: %v", err)
		return 0, err
	}
	return res.RowsAffected()
}

// AllPaths lists every (path, inode) pair. Used only by
// fakefs_rebuild to find paths.rows whose host object vanished.
func (s *Store) AllPaths(ctx context.Context, tx *sql.Tx) (map[string]uint64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT path, inode FROM paths`)
	if err != nil {
		fatal("meta: list paths: %v", err)
		return nil, err
	}
	defer rows.Close()
	out := map[string]uint64{}
	for rows.Next() {
		var path []byte
		var inode uint64
		if err := rows.Scan(&path, &inode); err != nil {
			fatal("meta: scan path row: %v", err)
			return nil, err
		}
		out[string(path)] = inode
	}
	return out, rows.Err()
}
