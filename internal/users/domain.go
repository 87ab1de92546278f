package users

import "time"

// User represents a user account. Role holds either a built-in role
// identifier or a custom role name; authorization interprets it.
type User struct {
	ID        int64
	Email     string
	Name      string
	Role      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
