package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	friendmodel "github.com/pixhy/voizchat/internal/model/friend"
	"github.com/pixhy/voizchat/internal/model/user"
	friendservice "github.com/pixhy/voizchat/internal/service/friend"
)

// FriendEdge returns the edge for the unordered pair {a, b}.
func (s *Store) FriendEdge(ctx context.Context, a, b string) (friendmodel.Edge, error) {
	lo, hi := friendmodel.PairKey(a, b)
	edge := friendmodel.Edge{UserLo: lo, UserHi: hi}
	var pending int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT requester_id, pending, accepted_at FROM friend_list WHERE user_lo = ? AND user_hi = ?`,
		lo, hi,
	).Scan(&edge.RequesterID, &pending, &edge.AcceptedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return friendmodel.Edge{}, friendservice.ErrNotFound
	}
	if err != nil {
		return friendmodel.Edge{}, fmt.Errorf("select friend edge: %w", err)
	}
	edge.Pending = pending != 0
	return edge, nil
}

// CreateFriendEdge inserts a pending edge for the pair.
func (s *Store) CreateFriendEdge(ctx context.Context, edge friendmodel.Edge) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO friend_list (user_lo, user_hi, requester_id, pending, accepted_at) VALUES (?, ?, ?, 1, 0)`,
		edge.UserLo, edge.UserHi, edge.RequesterID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return friendservice.ErrDuplicateRequest
		}
		return fmt.Errorf("insert friend edge: %w", err)
	}
	return nil
}

// AcceptFriendEdge flips a pending edge to accepted. The WHERE clause pins
// the expected prior state so a concurrent transition loses cleanly.
func (s *Store) AcceptFriendEdge(ctx context.Context, lo, hi, requesterID string, acceptedAt int64) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE friend_list SET pending = 0, accepted_at = ?
		 WHERE user_lo = ? AND user_hi = ? AND pending = 1 AND requester_id = ?`,
		acceptedAt, lo, hi, requesterID,
	)
	if err != nil {
		return fmt.Errorf("accept friend edge: %w", err)
	}
	return requireRow(res, friendservice.ErrNotFound)
}

// DeleteFriendEdge removes the edge while its pending flag matches.
func (s *Store) DeleteFriendEdge(ctx context.Context, lo, hi string, pending bool) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM friend_list WHERE user_lo = ? AND user_hi = ? AND pending = ?`,
		lo, hi, boolToInt(pending),
	)
	if err != nil {
		return fmt.Errorf("delete friend edge: %w", err)
	}
	return requireRow(res, friendservice.ErrNotFound)
}

// Friends lists the accepted friends of the user.
func (s *Store) Friends(ctx context.Context, userID string) ([]user.Info, error) {
	return s.queryInfos(ctx,
		`SELECT u.userid, u.username
		 FROM friend_list f
		 JOIN users u ON u.userid = CASE WHEN f.user_lo = ? THEN f.user_hi ELSE f.user_lo END
		 WHERE (f.user_lo = ? OR f.user_hi = ?) AND f.pending = 0
		 ORDER BY u.username`,
		userID, userID, userID)
}

// IncomingRequests lists users who have a pending request towards userID.
func (s *Store) IncomingRequests(ctx context.Context, userID string) ([]user.Info, error) {
	return s.queryInfos(ctx,
		`SELECT u.userid, u.username
		 FROM friend_list f
		 JOIN users u ON u.userid = f.requester_id
		 WHERE (f.user_lo = ? OR f.user_hi = ?) AND f.pending = 1 AND f.requester_id <> ?
		 ORDER BY u.username`,
		userID, userID, userID)
}

// OutgoingRequests lists users userID has a pending request towards.
func (s *Store) OutgoingRequests(ctx context.Context, userID string) ([]user.Info, error) {
	return s.queryInfos(ctx,
		`SELECT u.userid, u.username
		 FROM friend_list f
		 JOIN users u ON u.userid = CASE WHEN f.user_lo = f.requester_id THEN f.user_hi ELSE f.user_lo END
		 WHERE f.requester_id = ? AND f.pending = 1
		 ORDER BY u.username`,
		userID)
}

func (s *Store) queryInfos(ctx context.Context, query string, args ...any) ([]user.Info, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query user infos: %w", err)
	}
	defer rows.Close()

	infos := make([]user.Info, 0, 8)
	for rows.Next() {
		var info user.Info
		if err := rows.Scan(&info.UserID, &info.Username); err != nil {
			return nil, fmt.Errorf("scan user info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func requireRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ friendservice.Store = (*Store)(nil)
