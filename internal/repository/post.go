package repository

import (
	"context"
	"errors"
	"strings"

	"huddle/internal/models"
	"huddle/internal/observability"

	"gorm.io/gorm"
)

// FeedQuery selects one page of posts visible to a viewer.
type FeedQuery struct {
	ViewerID     uint
	ViewerTeamID *uint
	Scope        models.FeedScope
	// Tag is the normalized hashtag name for ScopeHashtag.
	Tag    string
	Limit  int
	Offset int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	// GetVisible loads the post only when viewer may see it in a feed. A post
	// hidden from the viewer is reported as NOT_FOUND.
	GetVisible(ctx context.Context, id uint, viewer *models.Character) (*models.Post, error)
	// Delete removes the post and everything hanging off it in one transaction.
	Delete(ctx context.Context, id uint) error
	Feed(ctx context.Context, q FeedQuery) ([]models.FeedItem, error)
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return storageError(ctx, r.log, err, "create")
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, storageError(ctx, r.log, err, "get_by_id")
	}
	return &post, nil
}

func (r *postRepository) GetVisible(ctx context.Context, id uint, viewer *models.Character) (*models.Post, error) {
	db := r.db.WithContext(ctx).
		Select("posts.*").
		Joins("JOIN characters ON characters.id = posts.author_id").
		Preload("Author")
	db = r.applyVisibleToViewer(db, FeedQuery{ViewerID: viewer.ID, ViewerTeamID: viewer.TeamID})

	var post models.Post
	if err := db.Where("posts.id = ?", id).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, storageError(ctx, r.log, err, "get_visible")
	}
	return &post, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("target_type = ? AND target_id IN ?", models.TargetTypeComment, commentIDs).
				Delete(&models.Notification{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("target_type = ? AND target_id = ?", models.TargetTypePost, id).
			Delete(&models.Notification{}).Error; err != nil {
			return err
		}

		for _, model := range []interface{}{
			&models.Like{},
			&models.Comment{},
			&models.PostHashtag{},
			&models.Tag{},
			&models.PollVote{},
			&models.PollOption{},
		} {
			if err := tx.Where("post_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	if err != nil {
		return storageError(ctx, r.log, err, "delete")
	}
	return nil
}

// feedRow is the scan target of the feed query.
type feedRow struct {
	models.Post
	AuthorName    string
	LikesCount    int
	CommentsCount int
	IsLiked       bool
}

func (r *postRepository) Feed(ctx context.Context, q FeedQuery) ([]models.FeedItem, error) {
	if q.Scope == models.ScopeTeam && q.ViewerTeamID == nil {
		return []models.FeedItem{}, nil
	}

	db := r.applyFeedDetails(r.db.WithContext(ctx).Model(&models.Post{}), q.ViewerID).
		Joins("JOIN characters ON characters.id = posts.author_id")

	switch q.Scope {
	case models.ScopeFollowing:
		db = db.Where(followsAuthorClause, q.ViewerID)
		if q.ViewerTeamID != nil {
			db = db.Where("(posts.visibility IN ? OR (posts.visibility = ? AND characters.team_id = ?))",
				[]models.Visibility{models.VisibilityPublic, models.VisibilityFollowers},
				models.VisibilityTeam, *q.ViewerTeamID)
		} else {
			db = db.Where("posts.visibility IN ?",
				[]models.Visibility{models.VisibilityPublic, models.VisibilityFollowers})
		}
	case models.ScopeTeam:
		db = db.Where("characters.team_id = ? AND posts.visibility IN ?",
			*q.ViewerTeamID,
			[]models.Visibility{models.VisibilityPublic, models.VisibilityTeam})
	case models.ScopeHashtag:
		db = r.applyVisibleToViewer(db, q).
			Where(`EXISTS (SELECT 1 FROM post_hashtags
				JOIN hashtags ON hashtags.id = post_hashtags.hashtag_id
				WHERE post_hashtags.post_id = posts.id AND hashtags.name = ?)`, strings.ToLower(q.Tag))
	default:
		db = r.applyVisibleToViewer(db, q)
	}

	var rows []feedRow
	err := db.Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, storageError(ctx, r.log, err, "feed")
	}

	items := make([]models.FeedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, models.FeedItem{
			Post:          row.Post,
			AuthorName:    row.AuthorName,
			LikesCount:    row.LikesCount,
			CommentsCount: row.CommentsCount,
			IsLiked:       row.IsLiked,
		})
	}
	return items, nil
}

const followsAuthorClause = "EXISTS (SELECT 1 FROM follows WHERE follows.follower_id = ? AND follows.followed_id = posts.author_id)"

// applyVisibleToViewer restricts db to the posts the viewer may see at all.
func (r *postRepository) applyVisibleToViewer(db *gorm.DB, q FeedQuery) *gorm.DB {
	clause := "(posts.visibility = ? OR posts.author_id = ? OR (posts.visibility = ? AND " + followsAuthorClause + ")"
	args := []interface{}{models.VisibilityPublic, q.ViewerID, models.VisibilityFollowers, q.ViewerID}
	if q.ViewerTeamID != nil {
		clause += " OR (posts.visibility = ? AND characters.team_id = ?)"
		args = append(args, models.VisibilityTeam, *q.ViewerTeamID)
	}
	return db.Where(clause+")", args...)
}

func (r *postRepository) applyFeedDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	return db.Select("posts.*, characters.display_name AS author_name, "+
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count, "+
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.parent_comment_id IS NULL) AS comments_count, "+
		"EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.character_id = ?) AS is_liked", viewerID)
}
