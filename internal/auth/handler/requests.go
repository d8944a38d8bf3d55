package handler

import (
	"strings"

	dErrors "tenantgate/pkg/domain-errors"
	strs "tenantgate/pkg/platform/strings"
	"tenantgate/pkg/validation"
)

const (
	msgRefreshRequired  = "Refresh token is required"
	msgTokenRequired    = "Token is required"
	msgRegisterRequired = "Username, password and email are required"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

func (r *LoginRequest) Validate() error {
	return validation.Validate(r)
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"notblank"`
}

func (r *RefreshRequest) DecodeFailureMessage() string { return msgRefreshRequired }

func (r *RefreshRequest) Validate() error {
	if validation.Validate(r) != nil {
		return dErrors.New(dErrors.CodeBadRequest, msgRefreshRequired)
	}
	return nil
}

// LogoutRequest shares the refresh body shape.
type LogoutRequest = RefreshRequest

type VerifyRequest struct {
	Token string `json:"token" validate:"notblank"`
}

func (r *VerifyRequest) DecodeFailureMessage() string { return msgTokenRequired }

func (r *VerifyRequest) Validate() error {
	if validation.Validate(r) != nil {
		return dErrors.New(dErrors.CodeBadRequest, msgTokenRequired)
	}
	return nil
}

type RegisterRequest struct {
	Username string `json:"username" validate:"notblank"`
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

func (r *RegisterRequest) Normalize() {
	strs.TrimInPlace(&r.Username, &r.Email)
}

// Validate reports missing fields with one message, then checks their shape.
func (r *RegisterRequest) Validate() error {
	if r.Username == "" || r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeBadRequest, msgRegisterRequired)
	}
	return validation.Validate(&registerShape{Username: r.Username, Email: r.Email})
}

type registerShape struct {
	Username string `validate:"max=150,username"`
	Email    string `validate:"max=254,email"`
}
