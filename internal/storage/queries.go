package storage

import (
	"context"
	"database/sql"
)

// Sync states of a locally stored mood.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Mood is one row of the moods table.
type Mood struct {
	ID           int64
	Timestamp    string
	Mood         int64
	Note         string
	Version      int64
	SyncStatus   string
	SyncAttempts int64
	RemoteRef    string
	CreatedAt    string
}

type CreateMoodParams struct {
	Timestamp string
	Mood      int64
	Note      string
}

const createMood = `
INSERT INTO moods (timestamp, mood, note)
VALUES (?, ?, ?)
RETURNING id, timestamp, mood, note, version, sync_status, sync_attempts, remote_ref, created_at`

func (q *Queries) CreateMood(ctx context.Context, arg CreateMoodParams) (Mood, error) {
	row := q.db.QueryRowContext(ctx, createMood, arg.Timestamp, arg.Mood, arg.Note)
	return scanMood(row)
}

const getMood = `
SELECT id, timestamp, mood, note, version, sync_status, sync_attempts, remote_ref, created_at
FROM moods WHERE id = ?`

func (q *Queries) GetMood(ctx context.Context, id int64) (Mood, error) {
	return scanMood(q.db.QueryRowContext(ctx, getMood, id))
}

const listMoods = `SELECT timestamp, mood, note FROM moods ORDER BY id`

type ListMoodsRow struct {
	Timestamp string
	Mood      int64
	Note      string
}

func (q *Queries) ListMoods(ctx context.Context) ([]ListMoodsRow, error) {
	rows, err := q.db.QueryContext(ctx, listMoods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListMoodsRow
	for rows.Next() {
		var i ListMoodsRow
		if err := rows.Scan(&i.Timestamp, &i.Mood, &i.Note); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPendingSyncMoods = `
SELECT id, timestamp, version
FROM moods
WHERE sync_status IN ('pending', 'error') AND sync_attempts < ?
ORDER BY id
LIMIT ?`

type GetPendingSyncMoodsParams struct {
	MaxAttempts int64
	Limit       int64
}

type GetPendingSyncMoodsRow struct {
	ID        int64
	Timestamp string
	Version   int64
}

func (q *Queries) GetPendingSyncMoods(ctx context.Context, arg GetPendingSyncMoodsParams) ([]GetPendingSyncMoodsRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncMoods, arg.MaxAttempts, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetPendingSyncMoodsRow
	for rows.Next() {
		var i GetPendingSyncMoodsRow
		if err := rows.Scan(&i.ID, &i.Timestamp, &i.Version); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markMoodSynced = `
UPDATE moods
SET sync_status = 'synced', remote_ref = ?, synced_at = CURRENT_TIMESTAMP
WHERE id = ?`

func (q *Queries) MarkMoodSynced(ctx context.Context, id int64, remoteRef string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markMoodSynced, remoteRef, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markMoodSyncError = `
UPDATE moods
SET sync_status = 'error', sync_attempts = sync_attempts + 1
WHERE id = ?`

func (q *Queries) MarkMoodSyncError(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markMoodSyncError, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countBySyncStatus = `SELECT sync_status, COUNT(*) FROM moods GROUP BY sync_status`

func (q *Queries) CountBySyncStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, countBySyncStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int64{SyncPending: 0, SyncSynced: 0, SyncError: 0}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanMood(row *sql.Row) (Mood, error) {
	var i Mood
	err := row.Scan(
		&i.ID,
		&i.Timestamp,
		&i.Mood,
		&i.Note,
		&i.Version,
		&i.SyncStatus,
		&i.SyncAttempts,
		&i.RemoteRef,
		&i.CreatedAt,
	)
	return i, err
}
