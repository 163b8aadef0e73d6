package repository

import (
	"context"
	"errors"
	"time"

	"huddle/internal/models"
	"huddle/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HashtagRepository defines the interface for hashtag data operations
type HashtagRepository interface {
	// Upsert returns the hashtag with the given normalized name, creating it if needed.
	Upsert(ctx context.Context, name string) (*models.Hashtag, error)
	LinkPost(ctx context.Context, postID, hashtagID uint) error
	NamesForPost(ctx context.Context, postID uint) ([]string, error)
	// CountSince ranks hashtags by the number of posts created at or after
	// since that link them: count DESC, then name ASC.
	CountSince(ctx context.Context, since time.Time, limit int) ([]models.HashtagCount, error)
}

type hashtagRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewHashtagRepository creates a new hashtag repository
func NewHashtagRepository(db *gorm.DB) HashtagRepository {
	return &hashtagRepository{db: db, log: observability.NewRepoLogger("hashtags")}
}

func (r *hashtagRepository) Upsert(ctx context.Context, name string) (*models.Hashtag, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&models.Hashtag{Name: name}).Error; err != nil && !IsUniqueViolation(err) {
		return nil, storageError(ctx, r.log, err, "upsert")
	}

	var hashtag models.Hashtag
	if err := db.Where("name = ?", name).First(&hashtag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Hashtag", name)
		}
		return nil, storageError(ctx, r.log, err, "upsert")
	}
	return &hashtag, nil
}

func (r *hashtagRepository) LinkPost(ctx context.Context, postID, hashtagID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PostHashtag{PostID: postID, HashtagID: hashtagID}).Error
	if err != nil && !IsUniqueViolation(err) {
		return storageError(ctx, r.log, err, "link_post")
	}
	return nil
}

func (r *hashtagRepository) NamesForPost(ctx context.Context, postID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("hashtags").
		Joins("JOIN post_hashtags ON post_hashtags.hashtag_id = hashtags.id").
		Where("post_hashtags.post_id = ?", postID).
		Order("hashtags.name ASC").
		Pluck("hashtags.name", &names).Error
	if err != nil {
		return nil, storageError(ctx, r.log, err, "names_for_post")
	}
	return names, nil
}

func (r *hashtagRepository) CountSince(ctx context.Context, since time.Time, limit int) ([]models.HashtagCount, error) {
	var counts []models.HashtagCount
	err := r.db.WithContext(ctx).
		Table("post_hashtags").
		Select("hashtags.name AS name, COUNT(*) AS count").
		Joins("JOIN hashtags ON hashtags.id = post_hashtags.hashtag_id").
		Joins("JOIN posts ON posts.id = post_hashtags.post_id").
		Where("posts.created_at >= ?", since).
		Group("hashtags.name").
		Order("count DESC").
		Order("hashtags.name ASC").
		Limit(limit).
		Scan(&counts).Error
	if err != nil {
		return nil, storageError(ctx, r.log, err, "count_since")
	}
	return counts, nil
}

// TagRepository defines the interface for character tag data operations
type TagRepository interface {
	// Insert records the tag and reports whether it was new.
	Insert(ctx context.Context, postID, characterID uint) (bool, error)
	ListByPost(ctx context.Context, postID uint) ([]models.Tag, error)
}

type tagRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db, log: observability.NewRepoLogger("post_tags")}
}

func (r *tagRepository) Insert(ctx context.Context, postID, characterID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Tag{PostID: postID, CharacterID: characterID})
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, storageError(ctx, r.log, res.Error, "insert")
	}
	return res.RowsAffected > 0, nil
}

func (r *tagRepository) ListByPost(ctx context.Context, postID uint) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("id ASC").Find(&tags).Error; err != nil {
		return nil, storageError(ctx, r.log, err, "list_by_post")
	}
	return tags, nil
}
