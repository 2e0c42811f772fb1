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
	"database/sql"
	"fmt"
)

// migration is one idempotent schema step, named the way the pack's
// own sqlite-backed metadata stores (BeadsLog, beads) order theirs:
// a flat slice of (name, func) run in order, tracked in a
// schema_migrations table so re-running fakefs_migrate is a no-op.
type migration struct {
	name string
	fn   func(*sql.Tx) error
}

var migrations = []migration{
	{"initial_schema", migrateInitialSchema},
}

func migrateInitialSchema(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS stats (
			inode INTEGER PRIMARY KEY AUTOINCREMENT,
			stat  BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS paths (
			path  BLOB PRIMARY KEY,
			inode INTEGER NOT NULL REFERENCES stats(inode)
		)`,
		`CREATE INDEX IF NOT EXISTS paths_inode_idx ON paths(inode)`,
		`CREATE TABLE IF NOT EXISTS meta (
			db_inode INTEGER
		)`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("meta: migration %q: %w", s, err)
		}
	}
	return nil
}

// migrate runs fakefs_migrate (spec.md §4.4 step 5) on every mount:
// each migration already recorded in schema_migrations is skipped, and
// each new one is applied and recorded in the same transaction.
func (s *Store) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("meta: begin migration: %w", err)
	}
	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (name TEXT PRIMARY KEY)`); err != nil {
		tx.Rollback()
		return fmt.Errorf("meta: migration tracking table: %w", err)
	}
	for _, m := range migrations {
		var exists int
		row := tx.QueryRow(`SELECT 1 FROM schema_migrations WHERE name = ?`, m.name)
		err := row.Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			tx.Rollback()
			return fmt.Errorf("meta: checking migration %q: %w", m.name, err)
		}
		if err := m.fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(name) VALUES (?)`, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("meta: recording migration %q: %w", m.name, err)
		}
	}
	return tx.Commit()
}

// ensureMetaRow guarantees the meta singleton row exists so
// ReadDBInode/WriteDBInode never have to distinguish "no row" from
// "row with db_inode = 0".
func (s *Store) ensureMetaRow() error {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM meta`).Scan(&n); err != nil {
		return fmt.Errorf("meta: counting meta rows: %w", err)
	}
	if n == 0 {
		if _, err := s.db.Exec(`INSERT INTO meta(db_inode) VALUES (0)`); err != nil {
			return fmt.Errorf("meta: seeding meta row: %w", err)
		}
	}
	return nil
}
