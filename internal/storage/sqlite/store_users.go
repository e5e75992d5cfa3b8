package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pixhy/voizchat/internal/model/user"
	userservice "github.com/pixhy/voizchat/internal/service/user"
)

// CreateUser inserts a new account with its verification code.
func (s *Store) CreateUser(ctx context.Context, account user.User, verificationCode string) (user.User, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (userid, email, username, passwordhash, verified, verification_code, created_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		account.UserID, account.Email, account.Username, account.PasswordHash,
		verificationCode, time.Now().UTC().Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, userservice.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return user.User{}, fmt.Errorf("user insert id: %w", err)
	}
	account.ID = id
	return account, nil
}

// UserByEmail returns the account registered under the address.
func (s *Store) UserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.scanUser(s.sqlDB.QueryRowContext(ctx,
		`SELECT id, userid, email, username, passwordhash, verified FROM users WHERE email = ?`, email))
}

// UserByUserID returns the account with the given public id.
func (s *Store) UserByUserID(ctx context.Context, userID string) (user.User, error) {
	return s.scanUser(s.sqlDB.QueryRowContext(ctx,
		`SELECT id, userid, email, username, passwordhash, verified FROM users WHERE userid = ?`, userID))
}

// UserInfo returns the public identity for a user id.
func (s *Store) UserInfo(ctx context.Context, userID string) (user.Info, error) {
	account, err := s.UserByUserID(ctx, userID)
	if err != nil {
		return user.Info{}, err
	}
	return account.Info(), nil
}

// ListUsers pages through registered users in registration order.
func (s *Store) ListUsers(ctx context.Context, offset, limit int) ([]user.Info, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT userid, username FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var infos []user.Info
	for rows.Next() {
		var info user.Info
		if err := rows.Scan(&info.UserID, &info.Username); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// VerifyUser consumes a verification code and marks the account verified.
func (s *Store) VerifyUser(ctx context.Context, code string) (user.User, error) {
	account, err := s.scanUser(s.sqlDB.QueryRowContext(ctx,
		`SELECT id, userid, email, username, passwordhash, verified
		 FROM users WHERE verification_code = ? AND verified = 0`, code))
	if errors.Is(err, userservice.ErrNotFound) {
		return user.User{}, userservice.ErrInvalidCode
	}
	if err != nil {
		return user.User{}, err
	}

	if _, err := s.sqlDB.ExecContext(ctx,
		`UPDATE users SET verified = 1, verification_code = NULL WHERE id = ?`, account.ID); err != nil {
		return user.User{}, fmt.Errorf("verify user: %w", err)
	}
	account.Verified = true
	return account, nil
}

func (s *Store) scanUser(row *sql.Row) (user.User, error) {
	var account user.User
	var verified int
	err := row.Scan(&account.ID, &account.UserID, &account.Email, &account.Username, &account.PasswordHash, &verified)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, userservice.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("scan user: %w", err)
	}
	account.Verified = verified != 0
	return account, nil
}

var _ userservice.Store = (*Store)(nil)
