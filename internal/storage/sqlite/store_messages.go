package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	chatmodel "github.com/pixhy/voizchat/internal/model/chat"
	chatservice "github.com/pixhy/voizchat/internal/service/chat"
)

// InsertMessage stores a message under the channel's next sequence number
// and bumps the channel's last-activity timestamp. The sequence is assigned
// by a single INSERT...SELECT, which SQLite's writer lock linearizes, so
// concurrent posts to the same channel never produce duplicates or gaps.
func (s *Store) InsertMessage(ctx context.Context, channelID, senderID, body string, now int64) (chatmodel.Message, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return chatmodel.Message{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM channels WHERE channel_id = ?`, channelID).Scan(&exists); err != nil {
		return chatmodel.Message{}, fmt.Errorf("check channel: %w", err)
	}
	if exists == 0 {
		return chatmodel.Message{}, chatservice.ErrChannelNotFound
	}

	var member int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM channel_users WHERE channel_id = ? AND user_id = ?`,
		channelID, senderID).Scan(&member); err != nil {
		return chatmodel.Message{}, fmt.Errorf("check membership: %w", err)
	}
	if member == 0 {
		return chatmodel.Message{}, chatservice.ErrNotAMember
	}

	var seq int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO messages (channel_id, seq, sender_id, message, created_at)
		 SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ? FROM messages WHERE channel_id = ?
		 RETURNING seq`,
		channelID, senderID, body, now, channelID,
	).Scan(&seq)
	if err != nil {
		return chatmodel.Message{}, fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE channels SET last_update = ? WHERE channel_id = ?`, now, channelID); err != nil {
		return chatmodel.Message{}, fmt.Errorf("touch channel: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return chatmodel.Message{}, fmt.Errorf("commit tx: %w", err)
	}

	return chatmodel.Message{
		ChannelID: channelID,
		Seq:       seq,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: now,
	}, nil
}

// Messages returns up to limit messages with seq below before (0 means
// newest), newest first.
func (s *Store) Messages(ctx context.Context, channelID string, before int64, limit int) ([]chatmodel.Message, error) {
	query := `SELECT channel_id, seq, sender_id, message, created_at
	          FROM messages WHERE channel_id = ?`
	args := []any{channelID}
	if before > 0 {
		query += ` AND seq < ?`
		args = append(args, before)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]chatmodel.Message, 0, limit)
	for rows.Next() {
		var msg chatmodel.Message
		if err := rows.Scan(&msg.ChannelID, &msg.Seq, &msg.SenderID, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MarkRead advances the member's cursor to seq, never backwards.
func (s *Store) MarkRead(ctx context.Context, channelID, userID string, seq int64) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE channel_users SET cursor = MAX(cursor, ?) WHERE channel_id = ? AND user_id = ?`,
		seq, channelID, userID,
	)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return requireRow(res, chatservice.ErrNotAMember)
}

// UnreadCount counts messages beyond the member's cursor in one aggregate.
func (s *Store) UnreadCount(ctx context.Context, channelID, userID string) (int64, error) {
	var cursor int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT cursor FROM channel_users WHERE channel_id = ? AND user_id = ?`,
		channelID, userID,
	).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, chatservice.ErrNotAMember
	}
	if err != nil {
		return 0, fmt.Errorf("select cursor: %w", err)
	}

	var count int64
	err = s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM messages WHERE channel_id = ? AND seq > ?`,
		channelID, cursor,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
