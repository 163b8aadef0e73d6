package service

import (
	"context"

	"huddle/internal/models"
	"huddle/internal/repository"
)

// visiblePost loads the viewer and then the post the viewer is acting on. A
// post outside the viewer's feed is NOT_FOUND, the same as a missing one, so
// likes, comments and votes cannot reach past the visibility tiers.
func visiblePost(ctx context.Context, store *repository.Store, postID, viewerID uint) (*models.Post, error) {
	viewer, err := store.Characters.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return store.Posts.GetVisible(ctx, postID, viewer)
}
