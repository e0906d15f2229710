package domain

import "time"

type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleStandard      Role = "standard"
)

// RoleAssignment grants a user a role beyond the standard one. At most one
// administrator row exists per user; absence means standard.
type RoleAssignment struct {
	UserID    string
	Role      Role
	CreatedAt time.Time
}
