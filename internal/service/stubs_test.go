package service

import (
	"context"
	"testing"

	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
)

type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByIDFreshFn  func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	searchFn        func(context.Context, string, int) ([]models.User, error)
	statsFn         func(context.Context, uint) (*models.UserStats, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDFresh(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFreshFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Search(ctx context.Context, q string, limit int) ([]models.User, error) {
	return s.searchFn(ctx, q, limit)
}
func (s *userRepoStub) Stats(ctx context.Context, id uint) (*models.UserStats, error) {
	return s.statsFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByIDFreshFn:  func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:        func(context.Context, *models.User) error { return nil },
		updateFn:        func(context.Context, *models.User) error { return nil },
		searchFn:        func(context.Context, string, int) ([]models.User, error) { return nil, nil },
		statsFn:         func(context.Context, uint) (*models.UserStats, error) { return &models.UserStats{}, nil },
	}
}

type messageRepoStub struct {
	createFn     func(context.Context, *models.Message) error
	getByIDFn    func(context.Context, uint) (*models.Message, error)
	deleteFn     func(context.Context, uint) error
	listByUserFn func(context.Context, uint, int) ([]models.Message, error)
	timelineFn   func(context.Context, []uint, int) ([]models.Message, error)
}

func (s *messageRepoStub) Create(ctx context.Context, msg *models.Message) error {
	return s.createFn(ctx, msg)
}
func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	return s.getByIDFn(ctx, id)
}
func (s *messageRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *messageRepoStub) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.listByUserFn(ctx, userID, limit)
}
func (s *messageRepoStub) Timeline(ctx context.Context, ids []uint, limit int) ([]models.Message, error) {
	return s.timelineFn(ctx, ids, limit)
}

func noopMessageRepo() *messageRepoStub {
	return &messageRepoStub{
		createFn:     func(context.Context, *models.Message) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Message, error) { return &models.Message{ID: id}, nil },
		deleteFn:     func(context.Context, uint) error { return nil },
		listByUserFn: func(context.Context, uint, int) ([]models.Message, error) { return nil, nil },
		timelineFn:   func(context.Context, []uint, int) ([]models.Message, error) { return nil, nil },
	}
}

type likeRepoStub struct {
	likeFn          func(context.Context, uint, uint) error
	unlikeFn        func(context.Context, uint, uint) error
	isLikedFn       func(context.Context, uint, uint) (bool, error)
	likedAmongFn    func(context.Context, uint, []uint) (map[uint]bool, error)
	likedMessagesFn func(context.Context, uint, int) ([]models.Message, error)
}

func (s *likeRepoStub) Like(ctx context.Context, userID, messageID uint) error {
	return s.likeFn(ctx, userID, messageID)
}
func (s *likeRepoStub) Unlike(ctx context.Context, userID, messageID uint) error {
	return s.unlikeFn(ctx, userID, messageID)
}
func (s *likeRepoStub) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, messageID)
}
func (s *likeRepoStub) LikedAmong(ctx context.Context, userID uint, ids []uint) (map[uint]bool, error) {
	return s.likedAmongFn(ctx, userID, ids)
}
func (s *likeRepoStub) LikedMessages(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.likedMessagesFn(ctx, userID, limit)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		likeFn:          func(context.Context, uint, uint) error { return nil },
		unlikeFn:        func(context.Context, uint, uint) error { return nil },
		isLikedFn:       func(context.Context, uint, uint) (bool, error) { return false, nil },
		likedAmongFn:    func(context.Context, uint, []uint) (map[uint]bool, error) { return map[uint]bool{}, nil },
		likedMessagesFn: func(context.Context, uint, int) ([]models.Message, error) { return nil, nil },
	}
}

type followRepoStub struct {
	followFn       func(context.Context, uint, uint) error
	unfollowFn     func(context.Context, uint, uint) error
	isFollowingFn  func(context.Context, uint, uint) (bool, error)
	followingFn    func(context.Context, uint) ([]models.User, error)
	followersFn    func(context.Context, uint) ([]models.User, error)
	followingIDsFn func(context.Context, uint) ([]uint, error)
}

func (s *followRepoStub) Follow(ctx context.Context, followerID, followedID uint) error {
	return s.followFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Unfollow(ctx context.Context, followerID, followedID uint) error {
	return s.unfollowFn(ctx, followerID, followedID)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followingFn(ctx, userID)
}
func (s *followRepoStub) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followersFn(ctx, userID)
}
func (s *followRepoStub) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.followingIDsFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		followFn:       func(context.Context, uint, uint) error { return nil },
		unfollowFn:     func(context.Context, uint, uint) error { return nil },
		isFollowingFn:  func(context.Context, uint, uint) (bool, error) { return false, nil },
		followingFn:    func(context.Context, uint) ([]models.User, error) { return nil, nil },
		followersFn:    func(context.Context, uint) ([]models.User, error) { return nil, nil },
		followingIDsFn: func(context.Context, uint) ([]uint, error) { return nil, nil },
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Error(t, err)
	assert.Equal(t, code, models.ErrorCode(err), "unexpected error: %v", err)
}

func userNotFound(_ context.Context, id uint) (*models.User, error) {
	return nil, models.NewNotFoundError("User", id)
}
