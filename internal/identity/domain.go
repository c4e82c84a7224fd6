package identity

import "time"

// Account represents a user account able to authenticate.
type Account struct {
	ID           int64
	Name         string
	Email        string
	FullName     string
	Roles        []string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
