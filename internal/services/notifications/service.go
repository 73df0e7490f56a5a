package notifications

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
	pgrepo "github.com/onojaonoja2/ekonex/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("notification not found")
)

type Store interface {
	Create(ctx context.Context, userID int64, kind, message string) (pgrepo.NotificationRecord, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]pgrepo.NotificationRecord, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Notify writes a notification without failing the caller. Payment
// settlement and other critical flows must not be blocked by a broken
// notification insert.
func (s *Service) Notify(ctx context.Context, userID int64, kind enums.NotificationType, message string) {
	if userID <= 0 || message == "" {
		return
	}

	if _, err := s.store.Create(ctx, userID, string(kind), message); err != nil {
		s.logger.Warn("notification write failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, userID int64, limit int) ([]pgrepo.NotificationRecord, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}

	records, err := s.store.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return records, nil
}

func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	if id <= 0 || userID <= 0 {
		return ErrValidation
	}

	if err := s.store.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, pgrepo.ErrNotificationNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrValidation
	}

	if err := s.store.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}
