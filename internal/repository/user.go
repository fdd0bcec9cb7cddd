package repository

import (
	"context"
	"errors"
	"strings"

	"warbler/internal/cache"
	"warbler/internal/models"
	"warbler/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDFresh(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	Stats(ctx context.Context, id uint) (*models.UserStats, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID returns the user through the Redis cache. The cached copy never
// carries the password hash; use GetByIDFresh when credentials are checked.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		defer observability.TrackQuery("select", "users")()
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDFresh(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no user has that username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has that email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", "users")()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(user).Select(
		"Username", "Email", "Password", "ImageURL", "HeaderImageURL", "Bio", "Location", "UpdatedAt",
	).Updates(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

// Search lists users ordered by id. A non-empty query filters by a
// case-insensitive username substring.
func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	defer observability.TrackQuery("select", "users")()

	tx := r.db.WithContext(ctx).Order("id").Limit(clampLimit(limit, 100, 500))
	if q := strings.TrimSpace(query); q != "" {
		tx = tx.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(q)+"%")
	}

	var users []models.User
	if err := tx.Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Stats counts the rows behind a profile. Nothing here is cached so the
// numbers always match the tables.
func (r *userRepository) Stats(ctx context.Context, id uint) (*models.UserStats, error) {
	defer observability.TrackQuery("count", "profile")()

	db := r.db.WithContext(ctx)
	var stats models.UserStats

	if err := db.Model(&models.Message{}).Where("user_id = ?", id).Count(&stats.Messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).Where("user_following_id = ?", id).Count(&stats.Following).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).Where("user_being_followed_id = ?", id).Count(&stats.Followers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := db.Model(&models.Like{}).Where("user_id = ?", id).Count(&stats.Likes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}
