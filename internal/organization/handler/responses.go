package handler

import "tenantgate/internal/organization/service"

type OrganizationResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SchemaName string `json:"schema_name"`
}

type AdminUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	OrgID    string `json:"org_id"`
}

// CreateOrganizationResponse omits admin_user when no admin was created.
type CreateOrganizationResponse struct {
	Organization OrganizationResponse `json:"organization"`
	AdminUser    *AdminUserResponse   `json:"admin_user,omitempty"`
}

func toResponse(res *service.Result) CreateOrganizationResponse {
	org := res.Organization
	resp := CreateOrganizationResponse{
		Organization: OrganizationResponse{
			ID:         org.ID.String(),
			Name:       org.Name,
			SchemaName: org.SchemaName,
		},
	}
	if res.Admin != nil {
		resp.AdminUser = &AdminUserResponse{
			ID:       res.Admin.ID.String(),
			Username: res.Admin.Username,
			Email:    res.Admin.Email,
			OrgID:    org.ID.String(),
		}
	}
	return resp
}
