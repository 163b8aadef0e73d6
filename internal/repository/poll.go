package repository

import (
	"context"
	"errors"

	"huddle/internal/models"
	"huddle/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PollRepository defines the interface for poll data operations
type PollRepository interface {
	CreateOptions(ctx context.Context, postID uint, texts []string) ([]models.PollOption, error)
	// Options returns the post's options in display order.
	Options(ctx context.Context, postID uint) ([]models.PollOption, error)
	OptionsForPosts(ctx context.Context, postIDs []uint) (map[uint][]models.PollOption, error)
	// RecordVote inserts the vote and reports whether it was written; false
	// means the voter already has a vote on this post.
	RecordVote(ctx context.Context, vote *models.PollVote) (bool, error)
	// GetVote returns the voter's vote on the post, or nil.
	GetVote(ctx context.Context, postID, characterID uint) (*models.PollVote, error)
	HasVoted(ctx context.Context, postID, characterID uint) (bool, error)
	IncrementOption(ctx context.Context, optionID uint) error
}

type pollRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPollRepository creates a new poll repository
func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db, log: observability.NewRepoLogger("poll_options")}
}

func (r *pollRepository) CreateOptions(ctx context.Context, postID uint, texts []string) ([]models.PollOption, error) {
	options := make([]models.PollOption, 0, len(texts))
	for i, text := range texts {
		options = append(options, models.PollOption{PostID: postID, Text: text, Position: i})
	}
	if len(options) == 0 {
		return options, nil
	}
	if err := r.db.WithContext(ctx).Create(&options).Error; err != nil {
		return nil, storageError(ctx, r.log, err, "create_options")
	}
	return options, nil
}

func (r *pollRepository) Options(ctx context.Context, postID uint) ([]models.PollOption, error) {
	var options []models.PollOption
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("position ASC").
		Order("id ASC").
		Find(&options).Error
	if err != nil {
		return nil, storageError(ctx, r.log, err, "options")
	}
	return options, nil
}

func (r *pollRepository) OptionsForPosts(ctx context.Context, postIDs []uint) (map[uint][]models.PollOption, error) {
	out := make(map[uint][]models.PollOption, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	var options []models.PollOption
	err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("post_id ASC").
		Order("position ASC").
		Order("id ASC").
		Find(&options).Error
	if err != nil {
		return nil, storageError(ctx, r.log, err, "options_for_posts")
	}
	for _, o := range options {
		out[o.PostID] = append(out[o.PostID], o)
	}
	return out, nil
}

func (r *pollRepository) RecordVote(ctx context.Context, vote *models.PollVote) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(vote)
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, storageError(ctx, r.log, res.Error, "record_vote")
	}
	return res.RowsAffected > 0, nil
}

func (r *pollRepository) GetVote(ctx context.Context, postID, characterID uint) (*models.PollVote, error) {
	var vote models.PollVote
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND character_id = ?", postID, characterID).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageError(ctx, r.log, err, "get_vote")
	}
	return &vote, nil
}

func (r *pollRepository) HasVoted(ctx context.Context, postID, characterID uint) (bool, error) {
	vote, err := r.GetVote(ctx, postID, characterID)
	if err != nil {
		return false, err
	}
	return vote != nil, nil
}

func (r *pollRepository) IncrementOption(ctx context.Context, optionID uint) error {
	res := r.db.WithContext(ctx).Model(&models.PollOption{}).
		Where("id = ?", optionID).
		UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1))
	if res.Error != nil {
		return storageError(ctx, r.log, res.Error, "increment_option")
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("PollOption", optionID)
	}
	return nil
}
