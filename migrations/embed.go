// Package migrations embeds SQL migration files for use in tests and tooling.
package migrations

import (
	"embed"
	"strings"
)

//go:embed *.sql
var FS embed.FS

// tenantTemplate creates the tables every tenant schema starts with.
//
//go:embed tenant/template.sql
var tenantTemplate string

// TenantTemplate renders the per-tenant DDL for an already quoted schema identifier.
func TenantTemplate(quotedSchema string) string {
	return strings.ReplaceAll(tenantTemplate, "{{schema}}", quotedSchema)
}
