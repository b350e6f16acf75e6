package storage

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/CompilationErrror/library-auth/internal/platform/errors"
)

// Migration is one versioned schema change.
type Migration interface {
	Version() string
	Description() string
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// MigrationRecord tracks applied migrations.
type MigrationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Version   string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// MigrationManager applies pending migrations in order, each in its own
// transaction.
type MigrationManager struct {
	db         *gorm.DB
	migrations []Migration
}

func NewMigrationManager(db *gorm.DB) *MigrationManager {
	return &MigrationManager{
		db:         db,
		migrations: []Migration{},
	}
}

func (m *MigrationManager) AddMigration(migration Migration) {
	m.migrations = append(m.migrations, migration)
}

// RunMigrations executes every migration not yet recorded as applied.
func (m *MigrationManager) RunMigrations() error {
	if err := m.db.AutoMigrate(&MigrationRecord{}); err != nil {
		return errors.Wrap(errors.KindStorage, "migration.create_table", "failed to create migration table", err)
	}

	var appliedVersions []string
	if err := m.db.Model(&MigrationRecord{}).Pluck("version", &appliedVersions).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "migration.get_applied", "failed to get applied migrations", err)
	}

	appliedMap := make(map[string]bool)
	for _, version := range appliedVersions {
		appliedMap[version] = true
	}

	for _, migration := range m.migrations {
		if appliedMap[migration.Version()] {
			continue
		}

		tx := m.db.Begin()
		if tx.Error != nil {
			return errors.Wrap(errors.KindStorage, "migration.begin_tx", "failed to begin transaction", tx.Error)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return errors.Wrap(errors.KindStorage, "migration.up",
				fmt.Sprintf("failed to run migration %s", migration.Version()), err)
		}

		record := &MigrationRecord{
			Version:   migration.Version(),
			Name:      migration.Description(),
			AppliedAt: time.Now(),
		}
		if err := tx.Create(record).Error; err != nil {
			tx.Rollback()
			return errors.Wrap(errors.KindStorage, "migration.record", "failed to record migration", err)
		}

		if err := tx.Commit().Error; err != nil {
			return errors.Wrap(errors.KindStorage, "migration.commit", "failed to commit migration", err)
		}
	}

	return nil
}

// Migrate applies the default schema to the database.
func Migrate(db *gorm.DB) error {
	manager := NewMigrationManager(db)
	for _, migration := range DefaultMigrations() {
		manager.AddMigration(migration)
	}
	return manager.RunMigrations()
}

// DefaultMigrations lists the schema changes in apply order.
func DefaultMigrations() []Migration {
	return []Migration{
		createUsersTable{},
		createRefreshTokensTable{},
	}
}

type createUsersTable struct{}

func (createUsersTable) Version() string     { return "20250901_001" }
func (createUsersTable) Description() string { return "create users table" }
func (createUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}
func (createUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&User{})
}

type createRefreshTokensTable struct{}

func (createRefreshTokensTable) Version() string     { return "20250901_002" }
func (createRefreshTokensTable) Description() string { return "create refresh tokens table" }
func (createRefreshTokensTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&RefreshToken{})
}
func (createRefreshTokensTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&RefreshToken{})
}
