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

package tx

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE counters (id INTEGER PRIMARY KEY, n INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO counters (id, n) VALUES (1, 0)`)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCommitPersists(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	txn, err := c.Begin(context.Background())
	require.NoError(t, err)
	_, err = txn.SQL().Exec(`UPDATE counters SET n = 1 WHERE id = 1`)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())

	var n int
	require.NoError(t, db.QueryRow(`SELECT n FROM counters WHERE id = 1`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestRollbackDiscards(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	txn, err := c.Begin(context.Background())
	require.NoError(t, err)
	_, err = txn.SQL().Exec(`UPDATE counters SET n = 99 WHERE id = 1`)
	require.NoError(t, err)
	require.NoError(t, txn.Rollback())

	var n int
	require.NoError(t, db.QueryRow(`SELECT n FROM counters WHERE id = 1`).Scan(&n))
	require.Equal(t, 0, n)
}

func TestBeginSerializesConcurrentCallers(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			txn, err := c.Begin(context.Background())
			require.NoError(t, err)
			time.Sleep(time.Millisecond)
			_, err = txn.SQL().Exec(`UPDATE counters SET n = n + 1 WHERE id = 1`)
			require.NoError(t, err)
			require.NoError(t, txn.Commit())
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, db.QueryRow(`SELECT n FROM counters WHERE id = 1`).Scan(&n))
	require.Equal(t, workers, n)
}

func TestBeginBlocksUntilPriorTxnReleases(t *testing.T) {
	db := openTestDB(t)
	c := New(db)

	txn, err := c.Begin(context.Background())
	require.NoError(t, err)

	unblocked := make(chan struct{})
	go func() {
		second, err := c.Begin(context.Background())
		require.NoError(t, err)
		close(unblocked)
		second.Rollback()
	}()

	select {
	case <-unblocked:
		t.Fatal("second Begin returned before the first txn released the mutex")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, txn.Rollback())

	select {
	case <-unblocked:
	case <-time.After(time.Second):
		t.Fatal("second Begin never unblocked after the first txn released the mutex")
	}
}
