package auth

import "time"

// SessionRecord is a live refresh session as stored in redis.
type SessionRecord struct {
	SID       string
	UserID    int64
	Role      string
	ExpiresAt time.Time
}

// AccessClaims is the verified payload of an access token.
type AccessClaims struct {
	UserID    int64
	SID       string
	Role      string
	ExpiresAt time.Time
}

// Account is the public view of the authenticated user.
type Account struct {
	ID       int64
	Email    string
	FullName string
	Role     string
}

// AuthResult is returned by Register, Login and Refresh.
type AuthResult struct {
	AccessToken   string
	RefreshToken  string
	AccessExpires time.Time
	Account       Account
}
