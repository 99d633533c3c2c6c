package mappers

import (
	"github.com/retailhub/retailhub/internal/domain/identity"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	"github.com/retailhub/retailhub/internal/shared/authorization"
)

// IdentityMapper converts user rows into caller identities.
type IdentityMapper interface {
	ToDomain(model *models.UserModel) *identity.Identity
}

type IdentityMapperImpl struct{}

func NewIdentityMapper() IdentityMapper {
	return &IdentityMapperImpl{}
}

// ToDomain expects model.Tenant to be preloaded when TenantID is set.
func (m *IdentityMapperImpl) ToDomain(model *models.UserModel) *identity.Identity {
	if model == nil {
		return nil
	}

	ident := &identity.Identity{
		ID:            model.ID,
		Email:         model.Email,
		Role:          authorization.ParseUserRole(model.Role),
		TenantID:      model.TenantID,
		DefaultShopID: model.DefaultShopID,
	}
	if model.Tenant != nil {
		ident.TenantStatus = identity.TenantStatus(model.Tenant.Status)
	}
	return ident
}
