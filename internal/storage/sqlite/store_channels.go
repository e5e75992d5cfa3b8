package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	chatmodel "github.com/pixhy/voizchat/internal/model/chat"
	"github.com/pixhy/voizchat/internal/model/user"
	chatservice "github.com/pixhy/voizchat/internal/service/chat"
)

// ChannelByID returns the channel with the given public id.
func (s *Store) ChannelByID(ctx context.Context, channelID string) (chatmodel.Channel, error) {
	return scanChannel(s.sqlDB.QueryRowContext(ctx,
		`SELECT id, channel_id, channel_type, last_update FROM channels WHERE channel_id = ?`, channelID))
}

// ResolveOrCreateDirectChannel finds or creates the single direct channel
// for the pair key. The unique index on pair_key makes the insert a no-op
// when another caller got there first; both callers read back the same row.
func (s *Store) ResolveOrCreateDirectChannel(ctx context.Context, candidate chatmodel.Channel, pairKey, userA, userB string) (chatmodel.Channel, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return chatmodel.Channel{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO channels (channel_id, channel_type, pair_key, last_update)
		 VALUES (?, ?, ?, ?) ON CONFLICT (pair_key) DO NOTHING`,
		candidate.ChannelID, string(candidate.Kind), pairKey, candidate.LastUpdate,
	)
	if err != nil {
		return chatmodel.Channel{}, fmt.Errorf("insert channel: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return chatmodel.Channel{}, fmt.Errorf("rows affected: %w", err)
	}
	if inserted > 0 {
		for _, memberID := range []string{userA, userB} {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO channel_users (channel_id, user_id, cursor) VALUES (?, ?, 0)`,
				candidate.ChannelID, memberID,
			); err != nil {
				return chatmodel.Channel{}, fmt.Errorf("insert membership: %w", err)
			}
		}
	}

	channel, err := scanChannel(tx.QueryRowContext(ctx,
		`SELECT id, channel_id, channel_type, last_update FROM channels WHERE pair_key = ?`, pairKey))
	if err != nil {
		return chatmodel.Channel{}, err
	}
	if err := tx.Commit(); err != nil {
		return chatmodel.Channel{}, fmt.Errorf("commit tx: %w", err)
	}
	return channel, nil
}

// IsMember reports channel membership.
func (s *Store) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	var count int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM channel_users WHERE channel_id = ? AND user_id = ?`,
		channelID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return count > 0, nil
}

// ChannelMemberIDs returns the member user ids of the channel.
func (s *Store) ChannelMemberIDs(ctx context.Context, channelID string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT user_id FROM channel_users WHERE channel_id = ?`, channelID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ChannelMemberInfos returns the public identities of the channel members.
func (s *Store) ChannelMemberInfos(ctx context.Context, channelID string) ([]user.Info, error) {
	return s.queryInfos(ctx,
		`SELECT u.userid, u.username
		 FROM channel_users cu
		 JOIN users u ON u.userid = cu.user_id
		 WHERE cu.channel_id = ?
		 ORDER BY u.username`,
		channelID)
}

// OpenChat adds the channel to the user's conversation list; reopening an
// already open chat is a no-op.
func (s *Store) OpenChat(ctx context.Context, userID, channelID string, now int64) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT OR IGNORE INTO opened_chats (user_id, channel_id, opened_at) VALUES (?, ?, ?)`,
		userID, channelID, now,
	)
	if err != nil {
		return fmt.Errorf("open chat: %w", err)
	}
	return nil
}

// CloseChat removes the channel from the user's conversation list.
func (s *Store) CloseChat(ctx context.Context, userID, channelID string) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM opened_chats WHERE user_id = ? AND channel_id = ?`,
		userID, channelID,
	)
	if err != nil {
		return fmt.Errorf("close chat: %w", err)
	}
	return requireRow(res, chatservice.ErrChatNotOpen)
}

// OpenedChannels returns the user's open conversations, most recently
// active first.
func (s *Store) OpenedChannels(ctx context.Context, userID string) ([]chatmodel.Channel, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT c.id, c.channel_id, c.channel_type, c.last_update
		 FROM opened_chats o
		 JOIN channels c ON c.channel_id = o.channel_id
		 WHERE o.user_id = ?
		 ORDER BY c.last_update DESC, c.id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query opened chats: %w", err)
	}
	defer rows.Close()

	var channels []chatmodel.Channel
	for rows.Next() {
		var channel chatmodel.Channel
		var kind string
		if err := rows.Scan(&channel.ID, &channel.ChannelID, &kind, &channel.LastUpdate); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channel.Kind = chatmodel.Kind(kind)
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

func scanChannel(row *sql.Row) (chatmodel.Channel, error) {
	var channel chatmodel.Channel
	var kind string
	err := row.Scan(&channel.ID, &channel.ChannelID, &kind, &channel.LastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return chatmodel.Channel{}, chatservice.ErrChannelNotFound
	}
	if err != nil {
		return chatmodel.Channel{}, fmt.Errorf("scan channel: %w", err)
	}
	channel.Kind = chatmodel.Kind(kind)
	return channel, nil
}

var _ chatservice.Store = (*Store)(nil)
