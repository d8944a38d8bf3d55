package testutil

import (
	"time"

	"github.com/google/uuid"

	tenantmodels "tenantgate/internal/tenant/models"
	usermodels "tenantgate/internal/user/models"
	id "tenantgate/pkg/domain"
)

// TestIDs provides convenient pre-generated IDs for tests.
// Use these for deterministic test data.
var TestIDs = struct {
	UserID1   id.UserID
	UserID2   id.UserID
	TenantID1 id.TenantID
	TenantID2 id.TenantID
}{
	UserID1:   id.UserID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	UserID2:   id.UserID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
	TenantID1: id.TenantID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
	TenantID2: id.TenantID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000002")),
}

// UserBuilder provides a fluent interface for building test users.
type UserBuilder struct {
	user *usermodels.User
}

// NewUserBuilder creates a builder with sensible defaults. The password
// hash is a placeholder; set a real one with WithPasswordHash when the
// test checks credentials.
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		user: &usermodels.User{
			ID:           id.NewUserID(),
			Username:     "alice",
			Email:        "alice@acme.test",
			PasswordHash: "not-a-real-hash",
			CreatedAt:    time.Now(),
		},
	}
}

func (b *UserBuilder) WithID(userID id.UserID) *UserBuilder {
	b.user.ID = userID
	return b
}

func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.user.Username = username
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

func (b *UserBuilder) WithPasswordHash(hash string) *UserBuilder {
	b.user.PasswordHash = hash
	return b
}

func (b *UserBuilder) WithRoles(roles ...string) *UserBuilder {
	b.user.Roles = roles
	return b
}

func (b *UserBuilder) Build() *usermodels.User {
	return b.user
}

// TenantBuilder provides a fluent interface for building test tenants.
type TenantBuilder struct {
	tenant *tenantmodels.Tenant
}

func NewTenantBuilder() *TenantBuilder {
	return &TenantBuilder{
		tenant: &tenantmodels.Tenant{
			ID:         id.NewTenantID(),
			Name:       "Acme",
			SchemaName: "acme",
			CreatedAt:  time.Now(),
		},
	}
}

func (b *TenantBuilder) WithID(tenantID id.TenantID) *TenantBuilder {
	b.tenant.ID = tenantID
	return b
}

func (b *TenantBuilder) WithName(name string) *TenantBuilder {
	b.tenant.Name = name
	return b
}

func (b *TenantBuilder) WithSchema(schemaName string) *TenantBuilder {
	b.tenant.SchemaName = schemaName
	return b
}

func (b *TenantBuilder) Build() *tenantmodels.Tenant {
	return b.tenant
}
