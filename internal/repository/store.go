// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"huddle/internal/models"
	"huddle/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for a duplicate key.
const pgUniqueViolation = "23505"

// Store groups every repository over one gorm handle. A Store obtained inside
// Transaction is bound to that transaction.
type Store struct {
	db *gorm.DB

	Characters    CharacterRepository
	Posts         PostRepository
	Likes         LikeRepository
	Follows       FollowRepository
	Comments      CommentRepository
	Hashtags      HashtagRepository
	Tags          TagRepository
	Notifications NotificationRepository
	Polls         PollRepository
}

// NewStore wires the gorm implementations of every repository to db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Characters:    NewCharacterRepository(db),
		Posts:         NewPostRepository(db),
		Likes:         NewLikeRepository(db),
		Follows:       NewFollowRepository(db),
		Comments:      NewCommentRepository(db),
		Hashtags:      NewHashtagRepository(db),
		Tags:          NewTagRepository(db),
		Notifications: NewNotificationRepository(db),
		Polls:         NewPollRepository(db),
	}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to a single transaction. Calling
// Transaction on a transaction-bound Store opens a savepoint, so a failure in
// the nested fn rolls back only the nested writes.
//
// A Store without a database (hand-assembled in tests) runs fn directly.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// storageError logs err against the table and wraps it as a STORAGE_ERROR.
// AppErrors pass through untouched.
func storageError(ctx context.Context, log *observability.RepoLogger, err error, operation string) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	log.LogError(ctx, err, operation)
	return models.NewStorageError(err)
}
