package model

import (
	"strings"
	"time"

	"cairo-metro-ticketing/internal/domain"

	"github.com/google/uuid"
)

const MaxFailedLoginAttempts = 5

// User is a registered rider or operator.
type User struct {
	ID                  string
	Username            string
	FirstName           string
	LastName            string
	Phone               string
	Email               string
	PasswordHash        string
	IsAdmin             bool
	IsActive            bool
	FailedLoginAttempts int
	IsLocked            bool
	LastLoginAt         *time.Time
	RegisteredAt        time.Time
}

func NewUser(id, username, firstName, lastName, phone, email, passwordHash string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	username = strings.TrimSpace(username)
	if username == "" || phone == "" || passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           id,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		RegisteredAt: time.Now(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }

// RecordFailedLogin bumps the counter and locks the account at the threshold.
func (u *User) RecordFailedLogin() {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= MaxFailedLoginAttempts {
		u.IsLocked = true
	}
}

func (u *User) RecordLogin(at time.Time) {
	u.FailedLoginAttempts = 0
	u.LastLoginAt = &at
}
