// Package migration brings the database schema up to date.
package migration

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

// Strategy applies schema changes.
type Strategy interface {
	Migrate(db *gorm.DB) error
	Name() string
}

// Manager runs one Strategy.
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks gorm AutoMigrate for development and sqlite, and the
// versioned goose scripts otherwise.
func NewManager(environment, driver string, log logger.Interface) *Manager {
	var strategy Strategy
	switch {
	case driver == "sqlite", strings.EqualFold(environment, constants.EnvDevelopment):
		strategy = NewGormAutoMigrateStrategy(log)
	default:
		strategy = NewGooseStrategy(log)
	}
	return NewManagerWithStrategy(strategy, log)
}

func NewManagerWithStrategy(strategy Strategy, log logger.Interface) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   log.Named("migration"),
	}
}

func (m *Manager) Migrate(db *gorm.DB) error {
	m.logger.Infow("starting database migration", "strategy", m.strategy.Name())

	if err := m.strategy.Migrate(db); err != nil {
		m.logger.Errorw("migration failed", "strategy", m.strategy.Name(), "error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.Name(), err)
	}

	m.logger.Infow("database migration completed successfully", "strategy", m.strategy.Name())
	return nil
}

func (m *Manager) Strategy() Strategy {
	return m.strategy
}

// GormAutoMigrateStrategy derives the schema from the persistence models.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy(log logger.Interface) *GormAutoMigrateStrategy {
	return &GormAutoMigrateStrategy{logger: log}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB) error {
	all := models.All()
	s.logger.Infow("running gorm auto migrate", "models_count", len(all))
	if err := db.AutoMigrate(all...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *GormAutoMigrateStrategy) Name() string {
	return "gorm_auto_migrate"
}
