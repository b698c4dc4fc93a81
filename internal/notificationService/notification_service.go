package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campus-auction/internal/auctionerrors"
	"campus-auction/internal/models"
	"campus-auction/internal/push"
	"campus-auction/internal/repository"
	"campus-auction/utils"
)

// Event is a domain happening that one user should hear about.
type Event struct {
	Type      models.NotificationType
	Recipient string
	Message   string
	AuctionID string
}

// Service turns domain events into durable notification records plus a
// best-effort live push, and serves the recipient-facing queries.
type Service struct {
	store   repository.NotificationStore
	channel push.Channel
	now     func() time.Time
}

// NewService creates a Service. A nil channel disables live delivery.
func NewService(store repository.NotificationStore, channel push.Channel) *Service {
	if channel == nil {
		channel = push.NoopChannel{}
	}
	return &Service{
		store:   store,
		channel: channel,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch persists the notification, then attempts live delivery. The
// durable record is the source of truth: a push failure is logged and
// swallowed, never propagated, and never rolls the record back.
func (s *Service) Dispatch(ctx context.Context, event Event) error {
	if event.Recipient == "" || event.Type == "" {
		return fmt.Errorf("service: %w - missing recipient or type", auctionerrors.ErrInvalidInput)
	}

	n := models.Notification{
		NotificationID: utils.GenerateID(),
		Recipient:      event.Recipient,
		Type:           event.Type,
		Message:        event.Message,
		AuctionID:      event.AuctionID,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("service: failed to persist %s notification for user %s: %w", event.Type, event.Recipient, err)
	}

	payload, err := json.Marshal(n)
	if err != nil {
		utils.Error("Dispatch: payload marshal failed", map[string]any{
			"recipient": event.Recipient,
			"type":      string(event.Type),
			"error":     err.Error(),
		})
		return nil
	}
	if err := s.channel.PushToUser(ctx, event.Recipient, payload); err != nil {
		utils.Warn("Dispatch: live push failed, durable record kept", map[string]any{
			"recipient": event.Recipient,
			"type":      string(event.Type),
			"error":     fmt.Errorf("%w: %v", auctionerrors.ErrNotificationDelivery, err).Error(),
		})
	}
	return nil
}

// ListResult is one page of notifications plus the counters the client
// renders alongside them.
type ListResult struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int                   `json:"total"`
	UnreadCount   int                   `json:"unread_count"`
}

// List returns a page of the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, filter repository.NotificationFilter) (ListResult, error) {
	if userID == "" {
		return ListResult{}, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}

	notifications, total, err := s.store.ListNotifications(ctx, userID, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("service: failed to list notifications for user %s: %w", userID, err)
	}
	unread, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return ListResult{}, fmt.Errorf("service: failed to count unread for user %s: %w", userID, err)
	}

	if notifications == nil {
		notifications = []models.Notification{}
	}
	return ListResult{Notifications: notifications, Total: total, UnreadCount: unread}, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) (models.Notification, error) {
	if userID == "" || notificationID == "" {
		return models.Notification{}, fmt.Errorf("service: %w - missing user or notification ID", auctionerrors.ErrInvalidInput)
	}

	n, err := s.store.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return models.Notification{}, fmt.Errorf("service: failed to mark notification %s read: %w", notificationID, err)
	}
	return n, nil
}

// MarkAllRead marks all of the user's notifications as read and returns the
// number updated.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}

	updated, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service: failed to mark all read for user %s: %w", userID, err)
	}
	return updated, nil
}

// UnreadCount returns how many of the user's notifications are unread.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidInput)
	}

	count, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service: failed to count unread for user %s: %w", userID, err)
	}
	return count, nil
}

// Delete removes one of the user's notifications.
func (s *Service) Delete(ctx context.Context, userID, notificationID string) error {
	if userID == "" || notificationID == "" {
		return fmt.Errorf("service: %w - missing user or notification ID", auctionerrors.ErrInvalidInput)
	}

	if err := s.store.DeleteNotification(ctx, userID, notificationID); err != nil {
		return fmt.Errorf("service: failed to delete notification %s: %w", notificationID, err)
	}
	return nil
}
