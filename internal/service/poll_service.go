package service

import (
	"context"

	"huddle/internal/events"
	"huddle/internal/models"
	"huddle/internal/observability"
	"huddle/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// PollService records votes on poll posts and aggregates their results.
type PollService struct {
	store     *repository.Store
	publisher ActivityPublisher
}

func NewPollService(store *repository.Store, publisher ActivityPublisher) *PollService {
	return &PollService{store: store, publisher: publisher}
}

// Vote records characterID's single vote on the poll post. A second vote is
// rejected with ALREADY_VOTED, also when it loses a race to the first.
func (s *PollService) Vote(ctx context.Context, postID, characterID, optionID uint) (*models.PollResults, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PollService", "Vote",
		attribute.Int64("post.id", int64(postID)),
		attribute.Int64("character.id", int64(characterID)),
		attribute.Int64("option.id", int64(optionID)))
	var err error
	defer func() {
		observability.PollVotes.WithLabelValues(voteResult(err)).Inc()
		observability.EndSpan(span, err)
	}()

	if _, err = s.pollPost(ctx, postID, characterID); err != nil {
		return nil, err
	}
	var options []models.PollOption
	if options, err = s.store.Polls.Options(ctx, postID); err != nil {
		return nil, err
	}
	if !containsOption(options, optionID) {
		err = models.NewNotFoundError("PollOption", optionID)
		return nil, err
	}

	var voted bool
	if voted, err = s.store.Polls.HasVoted(ctx, postID, characterID); err != nil {
		return nil, err
	}
	if voted {
		err = models.NewAlreadyVotedError(postID, characterID)
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		recorded, err := tx.Polls.RecordVote(ctx, &models.PollVote{
			PostID:       postID,
			CharacterID:  characterID,
			PollOptionID: optionID,
		})
		if err != nil {
			return err
		}
		if !recorded {
			return models.NewAlreadyVotedError(postID, characterID)
		}
		return tx.Polls.IncrementOption(ctx, optionID)
	})
	if err != nil {
		return nil, err
	}

	publishActivity(ctx, s.publisher, events.Activity{
		Kind:    events.KindPollVoted,
		ActorID: characterID,
		PostID:  postID,
	})

	var results *models.PollResults
	results, err = s.Results(ctx, postID, characterID)
	return results, err
}

// Results recomputes the percentages of a poll viewerID can see and reports
// the viewer's own choice in VotedFor.
func (s *PollService) Results(ctx context.Context, postID, viewerID uint) (*models.PollResults, error) {
	if _, err := s.pollPost(ctx, postID, viewerID); err != nil {
		return nil, err
	}
	options, err := s.store.Polls.Options(ctx, postID)
	if err != nil {
		return nil, err
	}
	results := models.NewPollResults(postID, options)
	vote, err := s.store.Polls.GetVote(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	if vote != nil {
		results.VotedFor = &vote.PollOptionID
	}
	return results, nil
}

func (s *PollService) pollPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := visiblePost(ctx, s.store, postID, viewerID)
	if err != nil {
		return nil, err
	}
	if post.PostType != models.PostTypePoll {
		return nil, models.NewInvalidStateError("post is not a poll")
	}
	return post, nil
}

func containsOption(options []models.PollOption, id uint) bool {
	for _, o := range options {
		if o.ID == id {
			return true
		}
	}
	return false
}

func voteResult(err error) string {
	if err == nil {
		return "recorded"
	}
	switch models.ErrorCode(err) {
	case models.CodeAlreadyVoted:
		return "already_voted"
	case models.CodeNotFound, models.CodeInvalidState:
		return "rejected"
	default:
		return "error"
	}
}
