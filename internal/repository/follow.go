package repository

import (
	"context"
	"errors"

	"huddle/internal/models"
	"huddle/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	Get(ctx context.Context, followerID, followedID uint) (*models.Follow, error)
	Insert(ctx context.Context, followerID, followedID uint) (bool, error)
	Delete(ctx context.Context, followerID, followedID uint) (int64, error)
	IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error)
	CountFollowers(ctx context.Context, characterID uint) (int64, error)
	CountFollowing(ctx context.Context, characterID uint) (int64, error)
}

type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.NewRepoLogger("follows")}
}

func (r *followRepository) Get(ctx context.Context, followerID, followedID uint) (*models.Follow, error) {
	var follow models.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&follow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageError(ctx, r.log, err, "get")
	}
	return &follow, nil
}

func (r *followRepository) Insert(ctx context.Context, followerID, followedID uint) (bool, error) {
	follow := &models.Follow{FollowerID: followerID, FollowedID: followedID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(follow)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, storageError(ctx, r.log, res.Error, "insert")
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followedID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return 0, storageError(ctx, r.log, res.Error, "delete")
	}
	return res.RowsAffected, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, storageError(ctx, r.log, err, "is_following")
	}
	return count > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, characterID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("followed_id = ?", characterID).Count(&count).Error; err != nil {
		return 0, storageError(ctx, r.log, err, "count_followers")
	}
	return count, nil
}

func (r *followRepository) CountFollowing(ctx context.Context, characterID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", characterID).Count(&count).Error; err != nil {
		return 0, storageError(ctx, r.log, err, "count_following")
	}
	return count, nil
}
