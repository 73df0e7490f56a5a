package enums

type Role string

const (
	RoleStudent     Role = "student"
	RoleInstructor  Role = "instructor"
	RoleSubAdmin    Role = "sub_admin"
	RoleSystemAdmin Role = "system_admin"
)

func (r Role) IsAdmin() bool {
	return r == RoleSubAdmin || r == RoleSystemAdmin
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)
