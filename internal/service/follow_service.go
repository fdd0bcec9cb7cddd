package service

import (
	"context"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
)

// FollowService manages follow edges owned by the acting user.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// Follow makes followerID follow targetID.
func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint) error {
	if followerID == targetID {
		return models.NewValidationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.followRepo.Follow(ctx, followerID, targetID); err != nil {
		return err
	}
	observability.RecordEvent("follow")
	return nil
}

// Unfollow removes followerID's edge to targetID.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.followRepo.Unfollow(ctx, followerID, targetID); err != nil {
		return err
	}
	observability.RecordEvent("unfollow")
	return nil
}

// Following returns the users userID follows.
func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followRepo.Following(ctx, userID)
}

// Followers returns the users following userID.
func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followRepo.Followers(ctx, userID)
}
