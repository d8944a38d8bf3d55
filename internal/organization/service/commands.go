package service

import (
	tenant "tenantgate/internal/tenant/models"
	"tenantgate/internal/user/models"
)

type CreateCommand struct {
	Name       string
	SchemaName string
	Admin      AdminCommand
}

// AdminCommand holds optional administrator credentials.
type AdminCommand struct {
	Username string
	Email    string
	Password string
}

// Complete reports whether every admin field is present. Partial
// credentials are ignored rather than rejected.
func (a AdminCommand) Complete() bool {
	return a.Username != "" && a.Email != "" && a.Password != ""
}

type Result struct {
	Organization *tenant.Tenant
	Admin        *models.User
}
