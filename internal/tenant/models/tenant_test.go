package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
)

type TenantModelSuite struct {
	suite.Suite
}

func TestTenantModelSuite(t *testing.T) {
	suite.Run(t, new(TenantModelSuite))
}

func (s *TenantModelSuite) TestValidateOrder() {
	cases := []struct {
		name, schema, want string
	}{
		{"", "acme", "Both 'name' and 'schema_name' are required."},
		{"Acme", "", "Both 'name' and 'schema_name' are required."},
		// Required fields are checked before the format.
		{"", "BAD NAME", "Both 'name' and 'schema_name' are required."},
		{"Acme", "PUBLIC", "schema_name must be lowercase, alphanumeric, and underscores only."},
		{"Acme", "acme-1", "schema_name must be lowercase, alphanumeric, and underscores only."},
		{"Acme", "public", "schema_name 'public' is reserved and cannot be used."},
		{"Acme", "information_schema", "schema_name 'information_schema' is reserved and cannot be used."},
		{"Acme", "pg_custom", "schema_name 'pg_custom' is reserved and cannot be used."},
	}
	for _, tc := range cases {
		err := Validate(tc.name, tc.schema)
		s.Require().Error(err, tc.schema)
		var domainErr *dErrors.Error
		s.Require().True(errors.As(err, &domainErr))
		s.Equal(dErrors.CodeValidation, domainErr.Code)
		s.Equal(tc.want, domainErr.Message, "%q/%q", tc.name, tc.schema)
	}
}

func (s *TenantModelSuite) TestValidateAccepts() {
	for _, schema := range []string{"acme_1", "a", "tenant_2026", "_private"} {
		s.NoError(Validate("Acme", schema), schema)
	}
}

func (s *TenantModelSuite) TestLengthLimits() {
	s.Error(Validate(strings.Repeat("n", MaxNameLength+1), "acme"))
	s.Error(Validate("Acme", strings.Repeat("a", MaxSchemaNameLength+1)))
	s.NoError(Validate("Acme", strings.Repeat("a", MaxSchemaNameLength)))
}

func (s *TenantModelSuite) TestNewTenant() {
	now := time.Now()
	tenantID := id.NewTenantID()

	t, err := NewTenant(tenantID, "Acme", "acme_1", now)
	s.Require().NoError(err)
	s.Equal(tenantID, t.ID)
	s.Equal("acme_1", t.SchemaName)
	s.Equal(now, t.CreatedAt)

	_, err = NewTenant(tenantID, "Acme", "Acme", now)
	s.Error(err)
}
