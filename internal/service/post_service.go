package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"huddle/internal/annotate"
	"huddle/internal/events"
	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PostService creates and removes posts and comments, running annotation and
// the notifications they trigger.
type PostService struct {
	store         *repository.Store
	notifications *NotificationService
	publisher     ActivityPublisher
}

type CreatePostInput struct {
	AuthorID   uint              `validate:"required"`
	Content    string            `validate:"max=50000"`
	MediaURLs  []string          `validate:"max=10,dive,required,url"`
	Visibility models.Visibility `validate:"omitempty,oneof=public followers team"`
	PostType   string            `validate:"omitempty,oneof=text image video poll event"`
	// PollOptions are the choices of a poll post, in display order.
	PollOptions []string
	// TaggedCharacterIDs are tagged explicitly, in addition to @mentions.
	TaggedCharacterIDs []uint
}

type CreateCommentInput struct {
	PostID          uint   `validate:"required"`
	AuthorID        uint   `validate:"required"`
	Content         string `validate:"required,max=10000"`
	ParentCommentID *uint
}

func NewPostService(store *repository.Store, notifications *NotificationService, publisher ActivityPublisher) *PostService {
	return &PostService{
		store:         store,
		notifications: notifications,
		publisher:     publisher,
	}
}

// CreatePost stores the post with its hashtag links, tags and poll options in
// one transaction, then notifies every newly tagged or mentioned character.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost",
		attribute.Int64("author.id", int64(in.AuthorID)))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	if in.PostType == "" {
		in.PostType = models.PostTypeText
	}
	if err = validateInput(in); err != nil {
		return nil, err
	}
	var pollOptions []string
	if pollOptions, err = normalizePostShape(&in); err != nil {
		return nil, err
	}

	if _, err = s.store.Characters.GetByID(ctx, in.AuthorID); err != nil {
		return nil, err
	}
	observability.LogServiceCall(ctx, "PostService", "CreatePost", map[string]interface{}{
		"author_id": in.AuthorID,
		"post_type": in.PostType,
	})

	post := &models.Post{
		AuthorID:   in.AuthorID,
		Content:    in.Content,
		MediaURLs:  in.MediaURLs,
		Visibility: in.Visibility,
		PostType:   in.PostType,
	}
	var notes []*models.Notification
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Posts.Create(ctx, post); err != nil {
			return err
		}
		if err := linkHashtags(ctx, tx, post.ID, in.Content); err != nil {
			return err
		}
		if len(pollOptions) > 0 {
			if _, err := tx.Polls.CreateOptions(ctx, post.ID, pollOptions); err != nil {
				return err
			}
		}

		mentioned, err := resolveMentions(ctx, tx, in.Content)
		if err != nil {
			return err
		}
		for _, id := range mentioned {
			n, err := s.tagCharacter(ctx, tx, post, id, models.ActionMention)
			if err != nil {
				return err
			}
			notes = append(notes, n)
		}
		for _, id := range uniqueIDs(in.TaggedCharacterIDs) {
			if _, err := tx.Characters.GetByID(ctx, id); err != nil {
				return err
			}
			n, err := s.tagCharacter(ctx, tx, post, id, models.ActionTag)
			if err != nil {
				return err
			}
			notes = append(notes, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Announce(ctx, notes...)
	publishActivity(ctx, s.publisher, events.Activity{
		Kind:    events.KindPostCreated,
		ActorID: post.AuthorID,
		PostID:  post.ID,
	})

	var created *models.Post
	created, err = s.store.Posts.GetByID(ctx, post.ID)
	return created, err
}

// tagCharacter records the tag once per (post, character) and notifies the
// character the first time. Authors are never tagged on their own posts.
func (s *PostService) tagCharacter(ctx context.Context, tx *repository.Store, post *models.Post, characterID uint, action models.NotificationAction) (*models.Notification, error) {
	if characterID == post.AuthorID {
		return nil, nil
	}
	inserted, err := tx.Tags.Insert(ctx, post.ID, characterID)
	if err != nil || !inserted {
		return nil, err
	}
	return s.notifications.Dispatch(ctx, tx, NotifyInput{
		RecipientID: characterID,
		ActorID:     post.AuthorID,
		Action:      action,
		Target:      models.PostTarget{PostID: post.ID},
	}), nil
}

// normalizePostShape applies the per-type rules and returns the trimmed poll
// options.
func normalizePostShape(in *CreatePostInput) ([]string, error) {
	if !in.Visibility.Valid() {
		return nil, models.NewValidationError("invalid visibility")
	}
	switch in.PostType {
	case models.PostTypeText:
		if strings.TrimSpace(in.Content) == "" {
			return nil, models.NewValidationError("content is required for text posts")
		}
	case models.PostTypeImage, models.PostTypeVideo:
		if len(in.MediaURLs) == 0 {
			return nil, models.NewValidationError("media_urls is required for " + in.PostType + " posts")
		}
	case models.PostTypePoll:
		var opts []string
		for _, o := range in.PollOptions {
			o = strings.TrimSpace(o)
			if o == "" {
				continue
			}
			if utf8.RuneCountInString(o) > models.MaxPollOptionLength {
				return nil, models.NewValidationError("poll option cannot exceed 255 characters")
			}
			opts = append(opts, o)
		}
		if len(opts) < models.MinPollOptions {
			return nil, models.NewValidationError("poll must have at least two non-empty options")
		}
		if len(opts) > models.MaxPollOptions {
			return nil, models.NewValidationError("poll cannot have more than ten options")
		}
		return opts, nil
	case models.PostTypeEvent:
	default:
		return nil, models.NewValidationError("invalid post_type")
	}
	if len(in.PollOptions) > 0 {
		return nil, models.NewValidationError("poll_options is only allowed on poll posts")
	}
	return nil, nil
}

func linkHashtags(ctx context.Context, tx *repository.Store, postID uint, content string) error {
	for _, name := range annotate.Unique(annotate.ExtractHashtags(content)) {
		tag, err := tx.Hashtags.Upsert(ctx, name)
		if err != nil {
			return err
		}
		if err := tx.Hashtags.LinkPost(ctx, postID, tag.ID); err != nil {
			return err
		}
	}
	return nil
}

// resolveMentions returns the ids of the characters @mentioned in content,
// in order of first mention. Unknown names are dropped.
func resolveMentions(ctx context.Context, tx *repository.Store, content string) ([]uint, error) {
	var ids []uint
	for _, name := range annotate.Unique(annotate.ExtractMentions(content)) {
		character, err := tx.Characters.ResolveByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if character != nil {
			ids = append(ids, character.ID)
		}
	}
	return uniqueIDs(ids), nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// GetPost returns the post when viewerID could see it in a feed.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	return visiblePost(ctx, s.store, postID, viewerID)
}

// DeletePost removes the author's post and everything attached to it.
func (s *PostService) DeletePost(ctx context.Context, postID, characterID uint) error {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "DeletePost",
		attribute.Int64("post.id", int64(postID)),
		attribute.Int64("character.id", int64(characterID)))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var post *models.Post
	if post, err = visiblePost(ctx, s.store, postID, characterID); err != nil {
		return err
	}
	if post.AuthorID != characterID {
		err = models.NewInvalidRelationshipError("only the author can delete a post")
		return err
	}
	if err = s.store.Posts.Delete(ctx, postID); err != nil {
		return err
	}
	publishActivity(ctx, s.publisher, events.Activity{
		Kind:    events.KindPostDeleted,
		ActorID: characterID,
		PostID:  postID,
	})
	return nil
}

// CreateComment adds a comment or a one-level reply. The post author, the
// parent comment's author and every @mentioned character are notified once.
func (s *PostService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreateComment",
		attribute.Int64("post.id", int64(in.PostID)),
		attribute.Int64("author.id", int64(in.AuthorID)))
	var err error
	defer func() { observability.EndSpan(span, err) }()

	in.Content = strings.TrimSpace(in.Content)
	if err = validateInput(in); err != nil {
		return nil, err
	}
	var post *models.Post
	if post, err = visiblePost(ctx, s.store, in.PostID, in.AuthorID); err != nil {
		return nil, err
	}
	var parent *models.Comment
	if in.ParentCommentID != nil {
		if parent, err = s.store.Comments.GetByID(ctx, *in.ParentCommentID); err != nil {
			return nil, err
		}
		if parent.PostID != post.ID {
			err = models.NewInvalidRelationshipError("parent comment belongs to another post")
			return nil, err
		}
		if parent.ParentCommentID != nil {
			err = models.NewInvalidRelationshipError("replies cannot be nested")
			return nil, err
		}
	}

	comment := &models.Comment{
		PostID:          post.ID,
		AuthorID:        in.AuthorID,
		Content:         in.Content,
		ParentCommentID: in.ParentCommentID,
	}
	var notes []*models.Notification
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}

		notified := map[uint]struct{}{in.AuthorID: {}}
		notify := func(recipient uint, action models.NotificationAction, target models.NotificationTarget) {
			if _, done := notified[recipient]; done {
				return
			}
			notified[recipient] = struct{}{}
			notes = append(notes, s.notifications.Dispatch(ctx, tx, NotifyInput{
				RecipientID: recipient,
				ActorID:     in.AuthorID,
				Action:      action,
				Target:      target,
			}))
		}

		notify(post.AuthorID, models.ActionComment, models.PostTarget{PostID: post.ID})
		if parent != nil {
			notify(parent.AuthorID, models.ActionComment, models.CommentTarget{CommentID: comment.ID})
		}
		mentioned, err := resolveMentions(ctx, tx, in.Content)
		if err != nil {
			return err
		}
		for _, id := range mentioned {
			notify(id, models.ActionMention, models.CommentTarget{CommentID: comment.ID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Announce(ctx, notes...)
	publishActivity(ctx, s.publisher, events.Activity{
		Kind:        events.KindCommentCreated,
		ActorID:     in.AuthorID,
		RecipientID: post.AuthorID,
		PostID:      post.ID,
		CommentID:   comment.ID,
	})
	return comment, nil
}

// ListComments returns the top-level comments of a post viewerID can see,
// oldest first, each with its replies attached.
func (s *PostService) ListComments(ctx context.Context, postID, viewerID uint) ([]*models.Comment, error) {
	if _, err := visiblePost(ctx, s.store, postID, viewerID); err != nil {
		return nil, err
	}
	all, err := s.store.Comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*models.Comment, len(all))
	top := make([]*models.Comment, 0, len(all))
	for _, c := range all {
		if c.ParentCommentID == nil {
			byID[c.ID] = c
			top = append(top, c)
		}
	}
	for _, c := range all {
		if c.ParentCommentID == nil {
			continue
		}
		if parent, ok := byID[*c.ParentCommentID]; ok {
			parent.Replies = append(parent.Replies, c)
		}
	}
	return top, nil
}
