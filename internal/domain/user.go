package domain

import "time"

// UserStatus represents lifecycle states for a portal account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is a portal account. ManagerID points at the gestor owning the user's team.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	ManagerID    *string
	Timezone     string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TeamManagerID returns the id of the gestor whose team config governs the user.
// A gestor without a manager of their own falls under their own team config.
func (u *User) TeamManagerID() (string, bool) {
	if u == nil {
		return "", false
	}
	if u.ManagerID != nil && *u.ManagerID != "" {
		return *u.ManagerID, true
	}
	if u.Role == RoleGestor {
		return u.ID, true
	}
	return "", false
}

// IsManagedBy reports whether managerID is the user's direct gestor.
func (u *User) IsManagedBy(managerID string) bool {
	return u != nil && u.ManagerID != nil && *u.ManagerID == managerID
}
