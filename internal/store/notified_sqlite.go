package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const notifiedTable = "notified_jobs"

// insertChunk keeps each INSERT well under SQLite's bound-variable limit.
const insertChunk = 300

// SQLiteNotified keeps the notified identities in a SQLite table.
type SQLiteNotified struct {
	db *DB
}

func NewSQLiteNotified(db *DB) *SQLiteNotified {
	return &SQLiteNotified{db: db}
}

func (s *SQLiteNotified) Read(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("identity").From(notifiedTable).OrderBy("position").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read notified: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Write replaces the table contents in one transaction. Identities already
// present keep their original notified_at.
func (s *SQLiteNotified) Write(ctx context.Context, ids []string) error {
	tx, err := s.db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seenAt := map[string]string{}
	query, args, err := sq.Select("identity", "notified_at").From(notifiedTable).ToSql()
	if err != nil {
		return err
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("read notified_at: %w", err)
	}
	for rows.Next() {
		var id, at string
		if err := rows.Scan(&id, &at); err != nil {
			rows.Close()
			return err
		}
		seenAt[id] = at
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	query, args, err = sq.Delete(notifiedTable).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear notified: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for start := 0; start < len(ids); start += insertChunk {
		end := min(start+insertChunk, len(ids))

		ins := sq.Insert(notifiedTable).Columns("identity", "position", "notified_at")
		for i := start; i < end; i++ {
			at, ok := seenAt[ids[i]]
			if !ok {
				at = now
			}
			ins = ins.Values(ids[i], i, at)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert notified: %w", err)
		}
	}

	return tx.Commit()
}
