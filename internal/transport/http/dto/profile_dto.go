package dto

import "time"

type ProfileUpdateRequest struct {
	FullName  string `json:"full_name"`
	Website   string `json:"website,omitempty"`
	AvatarKey string `json:"avatar_key,omitempty"`
}

type ProfileResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	Website   string    `json:"website,omitempty"`
	AvatarKey string    `json:"avatar_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AdminUserListResponse struct {
	Users []ProfileResponse `json:"users"`
}

type AdminRoleRequest struct {
	Role string `json:"role"`
}

type AdminCreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}
