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

// Package tx is the TxCoordinator of spec.md §4.2: it binds the
// per-mount mutex to a database transaction so that host-FS mutations
// and metadata mutations made between Begin and Commit/Rollback are
// observed atomically, or not at all.
package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/ariagecheney/ish/internal/logger"
)

// Coordinator serializes every exported fakefs operation on a mount
// behind one non-reentrant mutex (spec.md §5). The mutex is acquired
// before BEGIN and released after COMMIT/ROLLBACK, so a host-FS call
// made between Begin and Commit/Rollback is covered by the same lock.
type Coordinator struct {
	db *sql.DB
	mu sync.Mutex
}

func New(db *sql.DB) *Coordinator {
	return &Coordinator{db: db}
}

// Txn is the live transaction handed to the caller between Begin and
// Commit/Rollback.
type Txn struct {
	c        *Coordinator
	tx       *sql.Tx
	released bool
}

// SQL exposes the underlying *sql.Tx to meta.Store's methods.
func (t *Txn) SQL() *sql.Tx { return t.tx }

// Begin acquires the mount mutex, then starts a store transaction
// (spec.md §4.2 rule 1). The mutex is held until Commit or Rollback.
func (c *Coordinator) Begin(ctx context.Context) (*Txn, error) {
	c.mu.Lock()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("tx: begin: %w", err)
	}
	return &Txn{c: c, tx: tx}, nil
}

// Commit finishes the transaction, then releases the mutex (spec.md
// §4.2 rule 2).
func (t *Txn) Commit() error {
	defer t.release()
	if err := t.tx.Commit(); err != nil {
		logger.Errorf("tx: commit: %v", err)
		return fmt.Errorf("tx: commit: %w", err)
	}
	return nil
}

// Rollback aborts the transaction, then releases the mutex (spec.md
// §4.2 rule 3). Rollback is idempotent-safe to call after a Commit
// attempt failed; sql.Tx.Rollback after a failed Commit is a no-op
// error we deliberately ignore here since the transaction is already
// gone either way.
func (t *Txn) Rollback() error {
	defer t.release()
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		logger.Errorf("tx: rollback: %v", err)
		return fmt.Errorf("tx: rollback: %w", err)
	}
	return nil
}

func (t *Txn) release() {
	if t.released {
		return
	}
	t.released = true
	t.c.mu.Unlock()
}
