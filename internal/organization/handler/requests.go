package handler

import (
	"strings"

	"tenantgate/internal/organization/service"
)

// CreateOrganizationRequest is the body of POST /api/organizations/create/.
// Field validation happens in the service so its order is fixed in one place.
type CreateOrganizationRequest struct {
	Name       string        `json:"name"`
	SchemaName string        `json:"schema_name"`
	Admin      *AdminRequest `json:"admin,omitempty"`
}

type AdminRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *CreateOrganizationRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.SchemaName = strings.TrimSpace(r.SchemaName)
	if r.Admin != nil {
		r.Admin.Username = strings.TrimSpace(r.Admin.Username)
		r.Admin.Email = strings.TrimSpace(r.Admin.Email)
	}
}

func (r *CreateOrganizationRequest) toCommand() service.CreateCommand {
	cmd := service.CreateCommand{Name: r.Name, SchemaName: r.SchemaName}
	if r.Admin != nil {
		cmd.Admin = service.AdminCommand{
			Username: r.Admin.Username,
			Email:    r.Admin.Email,
			Password: r.Admin.Password,
		}
	}
	return cmd
}
