/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"conduitroute/internal/bend"
	applog "conduitroute/internal/log"
	"conduitroute/internal/schedule"
	"conduitroute/internal/store"
	"conduitroute/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-project derived data under the project root.
	IndexDirName  = ".conduit"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 2
)

// language=SQL
// dialect=SQLite
const (
	sqlCreateCutLists = `CREATE TABLE IF NOT EXISTS cut_lists (
		run_id           TEXT PRIMARY KEY,
		trade_size       TEXT NOT NULL,
		material         TEXT NOT NULL,
		stick_count      INTEGER NOT NULL,
		total_cut_inches REAL NOT NULL,
		payload          TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);`
	sqlUpsertCutList = `INSERT INTO cut_lists(run_id, trade_size, material, stick_count, total_cut_inches, payload, updated_at)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(run_id) DO UPDATE SET
			trade_size=excluded.trade_size,
			material=excluded.material,
			stick_count=excluded.stick_count,
			total_cut_inches=excluded.total_cut_inches,
			payload=excluded.payload,
			updated_at=excluded.updated_at;`
	sqlSelectCutList  = `SELECT payload FROM cut_lists WHERE run_id=?;`
	sqlDeleteCutList  = `DELETE FROM cut_lists WHERE run_id=?;`
	sqlListCutLists   = `SELECT run_id, trade_size, material, stick_count, total_cut_inches, updated_at FROM cut_lists ORDER BY run_id;`
	sqlClearCutLists  = `DELETE FROM cut_lists;`
	sqlIndexTradeSize = `CREATE INDEX IF NOT EXISTS idx_cut_lists_trade_size ON cut_lists(trade_size);`
)

// IndexPath returns the full path to the project's embedded index database file.
func IndexPath(projectRoot string) string {
	return filepath.Join(projectRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-project SQLite index exists at .conduit/index.sqlite,
// opens the database, enables WAL mode, and ensures the meta/version tables exist.
// The returned *sql.DB is ready for use. Callers may close it when no longer needed.
func InitOrOpenIndex(projectRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", projectRoot),
	)
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	if err := os.MkdirAll(filepath.Join(projectRoot, IndexDirName), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create %s dir: %w", IndexDirName, err)
	}

	path := IndexPath(projectRoot)
	// SQLite URIs want forward slashes.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh DB starts at schema 1 and is migrated forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// never downgrade
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			if _, err := tx.ExecContext(ctx, sqlIndexTradeSize); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
		}
		cur = next
	}
	return nil
}

func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqlCreateCutLists); err != nil {
		return fmt.Errorf("ensure index schema: %w", err)
	}
	return nil
}

// CutListRow is the summary of one indexed cut list.
type CutListRow struct {
	RunID          string
	TradeSize      string
	Material       string
	StickCount     int
	TotalCutInches float64
	UpdatedAt      string
}

// PutCutList stores or replaces the cut list of cl.RunID.
func PutCutList(ctx context.Context, db *sql.DB, cl schedule.CutList) error {
	if cl.RunID == "" {
		return errors.New("cut list run id is required")
	}
	payload, err := json.Marshal(cl)
	if err != nil {
		return fmt.Errorf("marshal cut list: %w", err)
	}
	_, err = db.ExecContext(ctx, sqlUpsertCutList,
		cl.RunID, cl.TradeSize, string(cl.Material), len(cl.Sticks), cl.TotalCutInches,
		string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert cut list: %w", err)
	}
	return nil
}

// GetCutList loads the cut list of a run. found is false when none is stored.
func GetCutList(ctx context.Context, db *sql.DB, runID string) (cl schedule.CutList, found bool, err error) {
	var payload string
	err = db.QueryRowContext(ctx, sqlSelectCutList, runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.CutList{}, false, nil
	}
	if err != nil {
		return schedule.CutList{}, false, fmt.Errorf("select cut list: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &cl); err != nil {
		return schedule.CutList{}, false, fmt.Errorf("decode cut list: %w", err)
	}
	return cl, true, nil
}

// DeleteCutList removes the cut list of a run, if any.
func DeleteCutList(ctx context.Context, db *sql.DB, runID string) error {
	if _, err := db.ExecContext(ctx, sqlDeleteCutList, runID); err != nil {
		return fmt.Errorf("delete cut list: %w", err)
	}
	return nil
}

// ListCutLists returns summaries of all stored cut lists ordered by run id.
func ListCutLists(ctx context.Context, db *sql.DB) ([]CutListRow, error) {
	rows, err := db.QueryContext(ctx, sqlListCutLists)
	if err != nil {
		return nil, fmt.Errorf("list cut lists: %w", err)
	}
	defer rows.Close()
	var out []CutListRow
	for rows.Next() {
		var r CutListRow
		if err := rows.Scan(&r.RunID, &r.TradeSize, &r.Material, &r.StickCount, &r.TotalCutInches, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cut list: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds the index if needed.
// It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, projectRoot string, st *store.ModelStore, svc *bend.Service) (bool, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_check")
	path := IndexPath(projectRoot)
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		l.Warn("index unreadable, rebuilding", slog.Any("err", err))
		backupIndexFile(path)
		removeIndexFiles(path)
		if rbErr := RebuildIndex(ctx, projectRoot, st, svc); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM cut_lists LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	l.Warn("index failed integrity check, rebuilding", slog.String("check", chk))
	backupIndexFile(path)
	removeIndexFiles(path)
	if err := RebuildIndex(ctx, projectRoot, st, svc); err != nil {
		return false, err
	}
	return true, nil
}

// RebuildIndex recomputes every run's cut list into the index, replacing prior rows.
func RebuildIndex(ctx context.Context, projectRoot string, st *store.ModelStore, svc *bend.Service) error {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	lists := make([]schedule.CutList, 0, len(st.Runs()))
	for _, run := range st.Runs() {
		cl, err := schedule.BuildCutList(st, run.ID, svc)
		if err != nil {
			return err
		}
		lists = append(lists, cl)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqlClearCutLists); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear cut lists: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, sqlUpsertCutList)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	now := time.Now().UTC().Format(time.RFC3339)
	for _, cl := range lists {
		payload, err := json.Marshal(cl)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal cut list: %w", err)
		}
		if _, err := ins.ExecContext(ctx, cl.RunID, cl.TradeSize, string(cl.Material), len(cl.Sticks), cl.TotalCutInches, string(payload), now); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert cut list: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	applog.WithOperation(applog.WithComponent("storage"), "index_rebuild").Info("index rebuilt",
		slog.Int("runs", len(lists)))
	return nil
}

// backupIndexFile copies the current index file into a timestamped backup in .conduit/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

func removeIndexFiles(indexPath string) {
	for _, p := range []string{indexPath, indexPath + "-wal", indexPath + "-shm"} {
		_ = os.Remove(p)
	}
}
