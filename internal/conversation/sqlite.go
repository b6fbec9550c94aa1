package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

var _ Log = (*SQLiteLog)(nil)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS chat_history (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    msg_id    TEXT NOT NULL,
    user_id   TEXT NOT NULL,
    message   TEXT NOT NULL,
    sender    TEXT NOT NULL,
    timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_history_user_ts ON chat_history (user_id, timestamp DESC);`

// SQLiteLog stores messages in a local SQLite file
type SQLiteLog struct {
	db *sql.DB
}

// NewSQLiteLog opens or creates the database at path
func NewSQLiteLog(ctx context.Context, path string) (*SQLiteLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

func (s *SQLiteLog) Insert(ctx context.Context, msg Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (msg_id, user_id, message, sender, timestamp) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.UserID, msg.Text, string(msg.Sender), msg.Timestamp.UnixNano(),
	)
	return err
}

func (s *SQLiteLog) Latest(ctx context.Context, userID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT msg_id, user_id, message, sender, timestamp
		 FROM chat_history
		 WHERE user_id = ?
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var (
			msg    Message
			sender string
			nanos  int64
		)
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Text, &sender, &nanos); err != nil {
			return nil, err
		}
		msg.Sender = Sender(sender)
		msg.Timestamp = time.Unix(0, nanos).UTC()
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (s *SQLiteLog) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chat_history WHERE user_id = ?`, userID)
	return err
}

func (s *SQLiteLog) Close(context.Context) error {
	return s.db.Close()
}
