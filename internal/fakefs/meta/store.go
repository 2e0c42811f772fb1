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

// Package meta is the MetaStore of spec.md §4.1: a thin,
// prepared-statement-driven wrapper over an embedded SQL database
// (modernc.org/sqlite — see DESIGN.md for why this driver), exposing
// typed operations on the paths/stats/meta relations. A Store owns
// exactly one *sql.DB and is safe for concurrent use only because its
// callers serialize access through tx.Coordinator (spec.md §4.2);
// Store itself does no locking.
package meta

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ariagecheney/ish/internal/logger"
)

// FatalHook is called on any store error outside the benign set
// (spec.md §7: "Corrupt metadata store" and "Missing inode row" are
// both fatal). Tests override it to assert the fatal path fires
// instead of killing the test binary.
var FatalHook = logger.Fatalf

func fatal(format string, args ...any) {
	FatalHook(format, args...)
}

// Store wraps the database handle for one mount plus its cached
// prepared statements (spec.md §4.1, §6).
type Store struct {
	db *sql.DB

	stmtGetInode    *sql.Stmt
	stmtReadByPath  *sql.Stmt
	stmtReadByInode *sql.Stmt
	stmtWriteStat   *sql.Stmt
	stmtInsertStat  *sql.Stmt
	stmtInsertPath  *sql.Stmt
	stmtDeletePath  *sql.Stmt
	stmtReadDBInode *sql.Stmt
	stmtWriteDBInode *sql.Stmt
	stmtCountOrphans *sql.Stmt
	stmtSweepOrphans *sql.Stmt
}

// Open opens (creating if absent) the sqlite database at dbPath,
// configures WAL journaling, runs fakefs_migrate, and prepares the
// per-mount statement cache (spec.md §4.4 steps 3, 5, 9).
func Open(ctx context.Context, dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("meta: open %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // one connection per mount: the mutex in tx.Coordinator serializes writers anyway.

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.ensureMetaRow(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prepare(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) prepare(ctx context.Context) error {
	type target struct {
		dst  **sql.Stmt
		text string
	}
	targets := []target{
		{&s.stmtGetInode, `SELECT inode FROM paths WHERE path = ?`},
		{&s.stmtReadByPath, `SELECT stats.inode, stats.stat FROM paths JOIN stats ON stats.inode = paths.inode WHERE paths.path = ?`},
		{&s.stmtReadByInode, `SELECT stat FROM stats WHERE inode = ?`},
		{&s.stmtWriteStat, `UPDATE stats SET stat = ? WHERE inode = ?`},
		{&s.stmtInsertStat, `INSERT INTO stats(stat) VALUES (?)`},
		{&s.stmtInsertPath, `INSERT INTO paths(path, inode) VALUES (?, ?)`},
		{&s.stmtDeletePath, `DELETE FROM paths WHERE path = ?`},
		{&s.stmtReadDBInode, `SELECT db_inode FROM meta LIMIT 1`},
		{&s.stmtWriteDBInode, `UPDATE meta SET db_inode = ?`},
		{&s.stmtCountOrphans, `SELECT COUNT(*) FROM stats WHERE inode NOT IN (SELECT inode FROM paths)`},
		{&s.stmtSweepOrphans, `DELETE FROM stats WHERE inode NOT IN (SELECT inode FROM paths)`},
	}
	for _, t := range targets {
		stmt, err := s.db.PrepareContext(ctx, t.text)
		if err != nil {
			return fmt.Errorf("meta: prepare %q: %w", t.text, err)
		}
		*t.dst = stmt
	}
	return nil
}

// Close releases the database handle. Prepared statements share its
// lifetime and are closed with it (spec.md §3 "Lifecycle").
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle to tx.Coordinator, which is the only
// caller allowed to start transactions against it.
func (s *Store) DB() *sql.DB {
	return s.db
}
