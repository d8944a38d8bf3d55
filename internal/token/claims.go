package token

import (
	"github.com/golang-jwt/jwt/v5"

	id "tenantgate/pkg/domain"
)

// Type distinguishes access and refresh tokens.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims is the payload of both token kinds. Refresh tokens populate only
// the registered claims and TokenType.
type Claims struct {
	jwt.RegisteredClaims
	TokenType Type     `json:"token_type"`
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	OrgID     string   `json:"org_id,omitempty"`
	OrgName   string   `json:"org_name,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

// UserID parses the subject.
func (c *Claims) UserID() (id.UserID, error) {
	return id.ParseUserID(c.Subject)
}

// TenantRef is the tenant a user belongs to.
type TenantRef struct {
	ID   id.TenantID
	Name string
}

// UserSnapshot is a freshly loaded view of the user that access-token
// claims are built from. Tenant and Roles are optional.
type UserSnapshot struct {
	UserID   id.UserID
	Username string
	Email    string
	Tenant   *TenantRef
	Roles    []string
}

func (u UserSnapshot) apply(c *Claims) {
	c.Username = u.Username
	c.Email = u.Email
	if u.Tenant != nil && !u.Tenant.ID.IsNil() {
		c.OrgID = u.Tenant.ID.String()
		c.OrgName = u.Tenant.Name
	}
	if len(u.Roles) > 0 {
		c.Roles = append([]string(nil), u.Roles...)
	}
}
