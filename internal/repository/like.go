package repository

import (
	"context"
	"errors"

	"huddle/internal/models"
	"huddle/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	// Get returns the like, or nil when the character has not liked the post.
	Get(ctx context.Context, postID, characterID uint) (*models.Like, error)
	// Insert adds the like unless it already exists. It reports whether a row
	// was written; false means a concurrent writer got there first.
	Insert(ctx context.Context, postID, characterID uint) (bool, error)
	Delete(ctx context.Context, postID, characterID uint) (int64, error)
	Count(ctx context.Context, postID uint) (int64, error)
	LikedPostIDs(ctx context.Context, characterID uint, postIDs []uint) ([]uint, error)
}

type likeRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db, log: observability.NewRepoLogger("likes")}
}

func (r *likeRepository) Get(ctx context.Context, postID, characterID uint) (*models.Like, error) {
	var like models.Like
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND character_id = ?", postID, characterID).
		First(&like).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageError(ctx, r.log, err, "get")
	}
	return &like, nil
}

func (r *likeRepository) Insert(ctx context.Context, postID, characterID uint) (bool, error) {
	like := &models.Like{PostID: postID, CharacterID: characterID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, storageError(ctx, r.log, res.Error, "insert")
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) Delete(ctx context.Context, postID, characterID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND character_id = ?", postID, characterID).
		Delete(&models.Like{})
	if res.Error != nil {
		return 0, storageError(ctx, r.log, res.Error, "delete")
	}
	return res.RowsAffected, nil
}

func (r *likeRepository) Count(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, storageError(ctx, r.log, err, "count")
	}
	return count, nil
}

func (r *likeRepository) LikedPostIDs(ctx context.Context, characterID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return []uint{}, nil
	}
	var liked []uint
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("character_id = ? AND post_id IN ?", characterID, postIDs).
		Pluck("post_id", &liked).Error
	if err != nil {
		return nil, storageError(ctx, r.log, err, "liked_post_ids")
	}
	return liked, nil
}
