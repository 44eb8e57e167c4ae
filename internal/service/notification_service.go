package service

import (
	"context"
	"errors"

	"aimarket/internal/models"
	"aimarket/internal/repository"

	"gorm.io/gorm"
)

type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

type CreateNotificationInput struct {
	UserID  uint
	Type    string
	Title   string
	Content string
	Link    string
}

type ListNotificationsInput struct {
	UserID uint
	IsRead *bool
	Type   string
	Query  models.PageQuery
}

func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("userId is required")
	}
	if in.Title == "" || in.Content == "" {
		return nil, models.NewValidationError("title and content are required")
	}
	notificationType := in.Type
	if notificationType == "" {
		notificationType = models.NotificationTypeSystem
	}

	notification := &models.Notification{
		UserID:  in.UserID,
		Type:    notificationType,
		Title:   in.Title,
		Content: in.Content,
		Link:    in.Link,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// Notify is the fire-and-forget variant used by other services; delivery
// failures are returned so callers can log them but they never abort the
// triggering operation.
func (s *NotificationService) Notify(ctx context.Context, userID uint, notificationType, title, content, link string) error {
	_, err := s.Create(ctx, CreateNotificationInput{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Content: content,
		Link:    link,
	})
	return err
}

// NotifyMany fans one message out to a set of users in a single insert.
func (s *NotificationService) NotifyMany(ctx context.Context, userIDs []uint, notificationType, title, content, link string) error {
	notifications := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		notifications = append(notifications, models.Notification{
			UserID:  id,
			Type:    notificationType,
			Title:   title,
			Content: content,
			Link:    link,
		})
	}
	return s.notificationRepo.CreateBatch(ctx, notifications)
}

func (s *NotificationService) List(ctx context.Context, in ListNotificationsInput) (models.PaginatedResult[*models.Notification], error) {
	in.Query.Normalize()
	items, total, err := s.notificationRepo.ListByUser(ctx, in.UserID, in.IsRead, in.Type, in.Query)
	if err != nil {
		return models.PaginatedResult[*models.Notification]{}, err
	}
	return models.NewPaginatedResult(items, total, in.Query), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, userID)
}

// Get returns the notification only when it belongs to the caller.
func (s *NotificationService) Get(ctx context.Context, id, userID uint) (*models.Notification, error) {
	notification, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("通知", id)
		}
		return nil, err
	}
	if notification.UserID != userID {
		return nil, models.NewNotFoundError("通知", id)
	}
	return notification, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) (*models.Notification, error) {
	affected, err := s.notificationRepo.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, models.NewNotFoundError("通知", id)
	}
	return s.notificationRepo.GetByID(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id, userID uint) error {
	affected, err := s.notificationRepo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.NewNotFoundError("通知", id)
	}
	return nil
}
