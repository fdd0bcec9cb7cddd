package repository

import (
	"context"

	"warbler/internal/models"
	"warbler/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines persistence operations for like edges.
type LikeRepository interface {
	Like(ctx context.Context, userID, messageID uint) error
	Unlike(ctx context.Context, userID, messageID uint) error
	IsLiked(ctx context.Context, userID, messageID uint) (bool, error)
	LikedAmong(ctx context.Context, userID uint, messageIDs []uint) (map[uint]bool, error)
	LikedMessages(ctx context.Context, userID uint, limit int) ([]models.Message, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Like inserts the edge; liking twice is a no-op.
func (r *likeRepository) Like(ctx context.Context, userID, messageID uint) error {
	defer observability.TrackQuery("insert", "likes")()
	like := models.Like{UserID: userID, MessageID: messageID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Unlike removes the edge; removing a missing edge is a no-op.
func (r *likeRepository) Unlike(ctx context.Context, userID, messageID uint) error {
	defer observability.TrackQuery("delete", "likes")()
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&models.Like{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *likeRepository) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// LikedAmong reports which of messageIDs userID has liked.
func (r *likeRepository) LikedAmong(ctx context.Context, userID uint, messageIDs []uint) (map[uint]bool, error) {
	liked := make(map[uint]bool, len(messageIDs))
	if len(messageIDs) == 0 {
		return liked, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND message_id IN ?", userID, messageIDs).
		Pluck("message_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// LikedMessages returns the messages userID has liked, most recently liked first.
func (r *likeRepository) LikedMessages(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("likes.id DESC").
		Limit(clampLimit(limit, 100, 500)).
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}
