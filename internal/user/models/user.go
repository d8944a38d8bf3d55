// Package models holds user records that live inside a tenant schema.
package models

import (
	"strings"
	"time"

	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	strs "tenantgate/pkg/platform/strings"
)

// RoleAdmin is granted to the administrator created with an organization.
const RoleAdmin = "admin"

// User is a tenant-scoped account. Tenant membership is implied by the
// schema the record is stored in.
type User struct {
	ID           id.UserID
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// NewUser builds a user from an already hashed password.
func NewUser(userID id.UserID, username, email, passwordHash string, roles []string, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username, email and password are required")
	}
	return &User{
		ID:           userID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        strs.DedupeAndTrim(roles),
		CreatedAt:    now,
	}, nil
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
