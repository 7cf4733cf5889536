package service

import (
	"context"

	"virtuefeed/internal/models"
	"virtuefeed/internal/repository"
)

type ReactionService struct {
	reactionRepo repository.ReactionRepository
	postRepo     repository.PostRepository
}

// ReactionState answers whether a user has reacted to a post.
type ReactionState struct {
	HasReacted bool             `json:"hasReacted"`
	Reaction   *models.Reaction `json:"reaction"`
}

// UpsertResult echoes the type the client sent next to the one stored.
type UpsertResult struct {
	ClickedType string           `json:"clickedType"`
	StoredType  string           `json:"storedType"`
	Reaction    *models.Reaction `json:"reaction"`
}

// ToggleResult is the reaction state after a toggle.
type ToggleResult struct {
	PostID        string `json:"postId"`
	Reacted       bool   `json:"reacted"`
	ReactionCount int64  `json:"reactionCount"`
}

func NewReactionService(reactionRepo repository.ReactionRepository, postRepo repository.PostRepository) *ReactionService {
	return &ReactionService{
		reactionRepo: reactionRepo,
		postRepo:     postRepo,
	}
}

// GetReaction does not check that the post exists; an unknown post simply
// has no reaction from userID.
func (s *ReactionService) GetReaction(ctx context.Context, postID, userID string) (*ReactionState, error) {
	reaction, err := s.reactionRepo.Get(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return &ReactionState{HasReacted: reaction != nil, Reaction: reaction}, nil
}

// UpsertReaction accepts "UP" or "DOWN" and always stores "UP".
func (s *ReactionService) UpsertReaction(ctx context.Context, postID, userID, clickedType string) (*UpsertResult, error) {
	if !models.IsValidReactionType(clickedType) {
		return nil, models.NewValidationError(`type must be "UP" or "DOWN"`)
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	reaction, err := s.reactionRepo.Upsert(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return &UpsertResult{
		ClickedType: clickedType,
		StoredType:  models.ReactionUp,
		Reaction:    reaction,
	}, nil
}

// RemoveReaction succeeds whether or not a reaction existed.
func (s *ReactionService) RemoveReaction(ctx context.Context, postID, userID string) error {
	_, err := s.reactionRepo.Remove(ctx, postID, userID)
	return err
}

func (s *ReactionService) ToggleReaction(ctx context.Context, postID, userID string) (*ToggleResult, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	reacted, count, err := s.reactionRepo.Toggle(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return &ToggleResult{PostID: postID, Reacted: reacted, ReactionCount: count}, nil
}

func (s *ReactionService) requirePost(ctx context.Context, postID string) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("Post")
	}
	return nil
}
