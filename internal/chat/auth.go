package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/suPer8Hu/chat-history/internal/auth"
	"gorm.io/gorm"
)

// CreateAuthRecord stores login credentials for a user, creating the user row
// first when needed. Both writes share one transaction. A taken username or
// email yields ErrConstraintViolation.
func (s *Store) CreateAuthRecord(ctx context.Context, in NewAuthRecord) (AuthRecord, error) {
	if in.UserID == "" {
		return AuthRecord{}, ErrEmptyUserID
	}
	if in.Username == "" {
		return AuthRecord{}, errors.New("create auth record: username required")
	}
	role := in.Role
	if role == "" {
		role = AuthRoleUser
	}
	if !role.Valid() {
		return AuthRecord{}, fmt.Errorf("create auth record: role %q: %w", role, ErrInvalidRole)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return AuthRecord{}, fmt.Errorf("create auth record: %w", err)
	}

	now := s.stamp()
	rec := AuthRecord{
		UserID:       in.UserID,
		Username:     in.Username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
	}
	if in.Email != "" {
		email := in.Email
		rec.Email = &email
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertUserIfAbsent(tx, in.UserID, in.Username, now); err != nil {
			return err
		}
		return tx.Create(&rec).Error
	})
	if err != nil {
		return AuthRecord{}, wrapErr("create auth record", err)
	}
	return rec, nil
}

// GetAuthRecord looks up credentials by username.
func (s *Store) GetAuthRecord(ctx context.Context, username string) (AuthRecord, bool, error) {
	var rec AuthRecord
	if err := s.db.WithContext(ctx).Where("username = ?", username).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthRecord{}, false, nil
		}
		return AuthRecord{}, false, wrapErr("get auth record", err)
	}
	return rec, true, nil
}

// VerifyCredentials returns the auth record when username exists and password
// matches its hash.
func (s *Store) VerifyCredentials(ctx context.Context, username, password string) (AuthRecord, bool, error) {
	rec, ok, err := s.GetAuthRecord(ctx, username)
	if err != nil || !ok {
		return AuthRecord{}, false, err
	}
	if !auth.CheckPassword(password, rec.PasswordHash) {
		return AuthRecord{}, false, nil
	}
	return rec, true, nil
}

// UsernameExists is an advisory pre-check for registration; the unique
// constraint on user_auth.username is what actually enforces uniqueness.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&AuthRecord{}).
		Where("username = ?", username).
		Count(&n).Error; err != nil {
		return false, wrapErr("username exists", err)
	}
	return n > 0, nil
}
