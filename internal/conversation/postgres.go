package conversation

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Log = (*PostgresLog)(nil)

// PostgresLog stores messages in the chat_history table
type PostgresLog struct {
	pool    *pgxpool.Pool
	onClose func()
}

// NewPostgresLog uses an existing pool. onClose, if set, runs on Close.
func NewPostgresLog(pool *pgxpool.Pool, onClose func()) *PostgresLog {
	return &PostgresLog{pool: pool, onClose: onClose}
}

func (p *PostgresLog) Insert(ctx context.Context, msg Message) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO chat_history (msg_id, user_id, message, sender, timestamp)
		 VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.UserID, msg.Text, string(msg.Sender), msg.Timestamp,
	)
	return err
}

func (p *PostgresLog) Latest(ctx context.Context, userID string, limit int) ([]Message, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT msg_id, user_id, message, sender, timestamp
		 FROM chat_history
		 WHERE user_id = $1
		 ORDER BY timestamp DESC, id DESC
		 LIMIT $2`,
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
		)
		if err := rows.Scan(&msg.ID, &msg.UserID, &msg.Text, &sender, &msg.Timestamp); err != nil {
			return nil, err
		}
		msg.Sender = Sender(sender)
		msg.Timestamp = msg.Timestamp.UTC()
		out = append(out, msg)
	}
	return out, rows.Err()
}

func (p *PostgresLog) DeleteUser(ctx context.Context, userID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM chat_history WHERE user_id = $1`, userID)
	return err
}

func (p *PostgresLog) Close(context.Context) error {
	if p.onClose != nil {
		p.onClose()
	}
	return nil
}
