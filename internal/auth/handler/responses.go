package handler

import (
	"tenantgate/internal/auth/service"
	"tenantgate/internal/user/models"
	"tenantgate/pkg/requestcontext"
)

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	OrgID    string `json:"org_id"`
}

type LoginResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    UserResponse `json:"user"`
}

// RefreshResponse echoes the presented refresh token when rotation is off.
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type LogoutResponse struct {
	Message string `json:"message"`
}

type VerifyResponse struct {
	Valid    bool     `json:"valid"`
	UserID   string   `json:"user_id,omitempty"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	OrgID    string   `json:"org_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	OrgID    string `json:"org_id"`
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
}

func toUserResponse(u *models.User, tenant requestcontext.Tenant) UserResponse {
	return UserResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
		OrgID:    orgID(tenant),
	}
}

func toLoginResponse(res *service.Result, tenant requestcontext.Tenant) LoginResponse {
	return LoginResponse{
		Access:  res.Pair.Access,
		Refresh: res.Pair.Refresh,
		User:    toUserResponse(res.User, tenant),
	}
}

func toVerifyResponse(v *service.Verification) VerifyResponse {
	roles := v.User.Roles
	if roles == nil {
		roles = []string{}
	}
	return VerifyResponse{
		Valid:    true,
		UserID:   v.User.ID.String(),
		Username: v.User.Username,
		Email:    v.User.Email,
		OrgID:    v.Claims.OrgID,
		Roles:    roles,
	}
}

func toRegisterResponse(res *service.Result, tenant requestcontext.Tenant) RegisterResponse {
	return RegisterResponse{
		UserID:   res.User.ID.String(),
		Username: res.User.Username,
		Email:    res.User.Email,
		OrgID:    orgID(tenant),
		Access:   res.Pair.Access,
		Refresh:  res.Pair.Refresh,
	}
}

func orgID(t requestcontext.Tenant) string {
	if !t.Resolved() {
		return ""
	}
	return t.ID.String()
}
