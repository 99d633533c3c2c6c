package mappers

import (
	"gorm.io/datatypes"

	"github.com/retailhub/retailhub/internal/domain/feature"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
)

type FeatureFlagMapper interface {
	ToDomain(model *models.FeatureFlagModel) *feature.Flag
	ToModel(flag *feature.Flag) *models.FeatureFlagModel
}

type FeatureFlagMapperImpl struct{}

func NewFeatureFlagMapper() FeatureFlagMapper {
	return &FeatureFlagMapperImpl{}
}

func (m *FeatureFlagMapperImpl) ToDomain(model *models.FeatureFlagModel) *feature.Flag {
	if model == nil {
		return nil
	}
	return &feature.Flag{
		Key:             model.Key,
		Enabled:         model.Enabled,
		Plans:           []string(model.Plans),
		TenantOverrides: model.TenantOverrides.Data(),
	}
}

func (m *FeatureFlagMapperImpl) ToModel(flag *feature.Flag) *models.FeatureFlagModel {
	if flag == nil {
		return nil
	}
	return &models.FeatureFlagModel{
		Key:             flag.Key,
		Enabled:         flag.Enabled,
		Plans:           datatypes.NewJSONSlice(flag.Plans),
		TenantOverrides: datatypes.NewJSONType(flag.TenantOverrides),
	}
}
