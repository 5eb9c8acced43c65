package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories/postgres"
)

var (
	// ErrNotificationPersist means the durable record could not be written.
	// It is surfaced to the triggering write-path caller, distinct from that
	// caller's own mutation outcome, and must not roll it back.
	ErrNotificationPersist = errors.New("notification persist failed")

	ErrNotificationNotFound = errors.New("notification not found")

	ErrInvalidNotificationKind = errors.New("invalid notification kind")
)

// NotificationRepository is the persistence contract the producer consumes.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID uint) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID uint) error
}

// UserFinder resolves the sender shown in a pushed notification.
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// NotificationEmitter pushes a persisted record to the recipient's room.
type NotificationEmitter interface {
	Emit(recipientID uint, payload models.NotificationResponse) int
}

// NotificationService is the producer invoked by write-path handlers after
// their own mutation committed, plus the read path behind the REST endpoints.
type NotificationService struct {
	repo           NotificationRepository
	users          UserFinder
	emitter        NotificationEmitter
	persistTimeout time.Duration
}

func NewNotificationService(repo NotificationRepository, users UserFinder, emitter NotificationEmitter, persistTimeout time.Duration) *NotificationService {
	return &NotificationService{
		repo:           repo,
		users:          users,
		emitter:        emitter,
		persistTimeout: persistTimeout,
	}
}

// Notify persists a notification record and pushes it to the recipient's
// room. Self-notification is suppressed entirely. Persistence failures
// propagate; push failures are logged and swallowed, since the record is
// already durable and retrievable on next poll.
func (s *NotificationService) Notify(ctx context.Context, kind models.NotificationKind, content string, recipientID, senderID uint, link string) error {
	if senderID == recipientID {
		slog.Debug("Self-notification suppressed", "userID", senderID, "kind", kind)
		return nil
	}
	if !kind.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidNotificationKind, kind)
	}

	n := &models.Notification{
		Kind:        kind,
		Content:     content,
		Read:        false,
		SenderID:    senderID,
		RecipientID: recipientID,
	}
	if link != "" {
		n.Link = &link
	}

	pctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()
	if err := s.repo.Create(pctx, n); err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationPersist, err)
	}

	payload := n.ToResponse()
	if sender, err := s.users.FindByID(ctx, senderID); err == nil {
		payload.Sender.Username = sender.Username
	} else {
		slog.Warn("Sender lookup failed for notification push", "senderID", senderID, "error", err)
	}

	if s.emitter == nil {
		slog.Warn("Notification channel unavailable, push skipped", "notificationID", n.ID)
		return nil
	}
	delivered := s.emitter.Emit(recipientID, payload)
	slog.Debug("Notification pushed", "notificationID", n.ID, "recipientID", recipientID, "delivered", delivered)
	return nil
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID uint) ([]models.NotificationResponse, error) {
	notifications, err := s.repo.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, notifications[i].ToResponse())
	}
	return responses, nil
}

// MarkRead flips the read flag on one of the recipient's notifications.
// Idempotent: a second call on the same id succeeds again.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uint) error {
	if err := s.repo.MarkRead(ctx, id, recipientID); err != nil {
		if errors.Is(err, postgres.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
