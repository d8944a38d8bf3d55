package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
)

const (
	// MaxNameLength bounds organization display names.
	MaxNameLength = 200
	// MaxSchemaNameLength is the PostgreSQL identifier limit.
	MaxSchemaNameLength = 63

	// PublicSchema is the shared namespace holding tenant records.
	PublicSchema = "public"

	reservedPrefix = "pg_"
)

var schemaNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// reservedSchemas cannot be claimed by a tenant.
var reservedSchemas = map[string]struct{}{
	"public":             {},
	"pg_catalog":         {},
	"information_schema": {},
	"pg_toast":           {},
	"pg_temp":            {},
}

// Tenant is an organization and the isolated schema its data lives in.
type Tenant struct {
	ID         id.TenantID `json:"id"`
	Name       string      `json:"name"`
	SchemaName string      `json:"schema_name"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewTenant validates name and schemaName and returns a new tenant.
func NewTenant(tenantID id.TenantID, name, schemaName string, now time.Time) (*Tenant, error) {
	if err := Validate(name, schemaName); err != nil {
		return nil, err
	}
	return &Tenant{
		ID:         tenantID,
		Name:       name,
		SchemaName: schemaName,
		CreatedAt:  now,
	}, nil
}

// Validate applies the organization rules in order: both fields present,
// schema name format, then reserved names. Schema names are case-sensitive;
// uppercase input is rejected rather than folded.
func Validate(name, schemaName string) error {
	if strings.TrimSpace(name) == "" || schemaName == "" {
		return dErrors.New(dErrors.CodeValidation, "Both 'name' and 'schema_name' are required.")
	}
	if len(name) > MaxNameLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("name must be %d characters or less.", MaxNameLength))
	}
	return ValidateSchemaName(schemaName)
}

// ValidateSchemaName checks format and reserved names.
func ValidateSchemaName(schemaName string) error {
	if !schemaNamePattern.MatchString(schemaName) {
		return dErrors.New(dErrors.CodeValidation, "schema_name must be lowercase, alphanumeric, and underscores only.")
	}
	if IsReservedSchema(schemaName) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("schema_name '%s' is reserved and cannot be used.", schemaName))
	}
	if len(schemaName) > MaxSchemaNameLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("schema_name must be %d characters or less.", MaxSchemaNameLength))
	}
	return nil
}

// IsReservedSchema reports whether schemaName belongs to the database itself.
func IsReservedSchema(schemaName string) bool {
	if _, ok := reservedSchemas[schemaName]; ok {
		return true
	}
	return strings.HasPrefix(schemaName, reservedPrefix)
}
