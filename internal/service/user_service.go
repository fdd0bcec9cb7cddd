package service

import (
	"context"
	"errors"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// MsgWrongPassword is returned when a profile or password change carries the wrong current password.
const MsgWrongPassword = "Wrong password, please try again."

// UserService covers signup, login, profile reads and profile edits.
type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	hashCost   int
}

// SignupInput carries a validated signup form.
type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

// UpdateProfileInput carries a validated profile edit. Password is the current password.
type UpdateProfileInput struct {
	UserID         uint
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
	Password       string
}

// Profile is a user plus the live counts shown on their page.
type Profile struct {
	User  *models.User
	Stats *models.UserStats
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *UserService {
	return &UserService{userRepo: userRepo, followRepo: followRepo, hashCost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.hashCost = cost
	return s
}

// Signup hashes the password and creates the user with default images.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (user *models.User, err error) {
	ctx, finish := observability.StartSpan(ctx, "UserService", "Signup")
	defer func() { finish(err) }()

	hashed, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
		ImageURL: in.ImageURL,
	}
	user.ApplyImageDefaults()

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	observability.RecordEvent("signup")
	return user, nil
}

// Authenticate returns the user when username and password match.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !checkPassword(user.Password, password) {
		return nil, models.NewUnauthorizedError("Invalid credentials.")
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// SearchUsers lists users whose username contains query; an empty query lists everyone.
func (s *UserService) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	return s.userRepo.Search(ctx, query, 0)
}

// GetProfile returns the user with counts computed from the current rows.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.userRepo.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Stats: stats}, nil
}

// FollowingSet returns the ids viewerID follows, for rendering follow buttons.
func (s *UserService) FollowingSet(ctx context.Context, viewerID uint) (map[uint]bool, error) {
	ids, err := s.followRepo.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// UpdateProfile saves the edit when the current password is correct.
// Blank image fields fall back to the defaults.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByIDFresh(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !checkPassword(user.Password, in.Password) {
		return nil, models.NewValidationError(MsgWrongPassword)
	}

	user.Username = in.Username
	user.Email = in.Email
	user.ImageURL = in.ImageURL
	user.HeaderImageURL = in.HeaderImageURL
	user.Bio = in.Bio
	user.Location = in.Location
	user.ApplyImageDefaults()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password when oldPassword is correct.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByIDFresh(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPassword(user.Password, oldPassword) {
		return models.NewValidationError(MsgWrongPassword)
	}

	hashed, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return s.userRepo.Update(ctx, user)
}

// MsgPasswordTooLong is returned for passwords bcrypt cannot hash.
const MsgPasswordTooLong = "Password cannot be longer than 72 bytes."

func (s *UserService) hashPassword(password string) ([]byte, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, models.NewValidationError(MsgPasswordTooLong)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return hashed, nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
