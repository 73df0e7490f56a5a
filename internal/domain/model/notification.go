package model

import (
	"time"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
)

type Notification struct {
	ID        int64                  `json:"id"`
	UserID    int64                  `json:"user_id"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Type      enums.NotificationType `json:"type"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}
