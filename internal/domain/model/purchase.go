package model

import (
	"time"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
)

// Purchase is one payment attempt against the gateway. Reference is the
// gateway-issued checkout reference and the idempotency key for settlement.
type Purchase struct {
	ID        int64                `json:"id"`
	UserID    int64                `json:"user_id"`
	CourseID  int64                `json:"course_id"`
	Reference string               `json:"reference"`
	Amount    int64                `json:"amount"`
	Status    enums.PurchaseStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}
