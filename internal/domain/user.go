package domain

import "time"

// Role is the access level attached to a user account.
type Role string

const (
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
)

// User is the persisted account record.
type User struct {
	ID           string
	Name         string
	Age          *int
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserChanges lists the fields a profile update may touch. Nil means unchanged.
type UserChanges struct {
	Name         *string
	Age          *int
	Email        *string
	PasswordHash *string
}

// Empty reports whether no field is set.
func (c UserChanges) Empty() bool {
	return c.Name == nil && c.Age == nil && c.Email == nil && c.PasswordHash == nil
}
