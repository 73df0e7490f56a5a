package model

import (
	"time"

	"github.com/onojaonoja2/ekonex/internal/domain/enums"
)

type User struct {
	ID        int64            `json:"id"`
	Email     string           `json:"email"`
	FullName  string           `json:"full_name"`
	Role      enums.Role       `json:"role"`
	Status    enums.UserStatus `json:"status"`
	Website   string           `json:"website,omitempty"`
	AvatarKey string           `json:"avatar_key,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
