package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
)

// TimelineSize is how many messages the home page shows.
const TimelineSize = 100

const listTimeout = 5 * time.Second

// MessageService covers posting, reading, deleting and liking messages.
type MessageService struct {
	messageRepo repository.MessageRepository
	likeRepo    repository.LikeRepository
	followRepo  repository.FollowRepository
	gate        *Gate
}

// NewMessageService returns a new MessageService.
func NewMessageService(
	messageRepo repository.MessageRepository,
	likeRepo repository.LikeRepository,
	followRepo repository.FollowRepository,
	gate *Gate,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		likeRepo:    likeRepo,
		followRepo:  followRepo,
		gate:        gate,
	}
}

// CreateMessage posts text as authorID.
func (s *MessageService) CreateMessage(ctx context.Context, authorID uint, text string) (msg *models.Message, err error) {
	ctx, finish := observability.StartSpan(ctx, "MessageService", "CreateMessage")
	defer func() { finish(err) }()

	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("Message text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, models.NewValidationError("Message cannot be longer than 140 characters")
	}

	msg = &models.Message{Text: text, UserID: authorID}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	observability.RecordEvent("message_created")
	return msg, nil
}

// GetMessage returns the message with Liked set for viewerID (0 for anonymous viewers).
func (s *MessageService) GetMessage(ctx context.Context, id, viewerID uint) (*models.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewerID != 0 {
		liked, err := s.likeRepo.IsLiked(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
		msg.Liked = liked
	}
	return msg, nil
}

// DeleteMessage removes the message if actor owns it.
func (s *MessageService) DeleteMessage(ctx context.Context, actor *models.User, id uint) error {
	msg, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gate.RequireOwner(actor, msg.UserID, "delete_message"); err != nil {
		return err
	}
	if err := s.messageRepo.Delete(ctx, id); err != nil {
		return err
	}
	observability.RecordEvent("message_deleted")
	return nil
}

// Timeline returns the newest messages by userID and everyone they follow.
func (s *MessageService) Timeline(ctx context.Context, userID uint) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	ids, err := s.followRepo.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids = append(ids, userID)

	msgs, err := s.messageRepo.Timeline(ctx, ids, TimelineSize)
	if err != nil {
		return nil, err
	}
	return s.markLiked(ctx, userID, msgs)
}

// UserMessages returns authorID's messages as seen by viewerID.
func (s *MessageService) UserMessages(ctx context.Context, authorID, viewerID uint) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	msgs, err := s.messageRepo.ListByUser(ctx, authorID, TimelineSize)
	if err != nil {
		return nil, err
	}
	return s.markLiked(ctx, viewerID, msgs)
}

// LikedMessages returns the messages userID has liked, as seen by viewerID.
func (s *MessageService) LikedMessages(ctx context.Context, userID, viewerID uint) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	msgs, err := s.likeRepo.LikedMessages(ctx, userID, TimelineSize)
	if err != nil {
		return nil, err
	}
	return s.markLiked(ctx, viewerID, msgs)
}

// Like adds the like edge for userID. The message must exist.
func (s *MessageService) Like(ctx context.Context, userID, messageID uint) error {
	if _, err := s.messageRepo.GetByID(ctx, messageID); err != nil {
		return err
	}
	if err := s.likeRepo.Like(ctx, userID, messageID); err != nil {
		return err
	}
	observability.RecordEvent("like")
	return nil
}

// Unlike removes the like edge for userID. The message must exist.
func (s *MessageService) Unlike(ctx context.Context, userID, messageID uint) error {
	if _, err := s.messageRepo.GetByID(ctx, messageID); err != nil {
		return err
	}
	if err := s.likeRepo.Unlike(ctx, userID, messageID); err != nil {
		return err
	}
	observability.RecordEvent("unlike")
	return nil
}

// markLiked sets Liked on msgs for viewerID; anonymous viewers (0) see no likes.
func (s *MessageService) markLiked(ctx context.Context, viewerID uint, msgs []models.Message) ([]models.Message, error) {
	if viewerID == 0 || len(msgs) == 0 {
		return msgs, nil
	}

	ids := make([]uint, len(msgs))
	for i := range msgs {
		ids[i] = msgs[i].ID
	}
	liked, err := s.likeRepo.LikedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		msgs[i].Liked = liked[msgs[i].ID]
	}
	return msgs, nil
}
