package storage

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CompilationErrror/library-auth/internal/platform/errors"
)

// Open connects to the sqlite database backing credentials and, when the
// relational token store driver is selected, refresh tokens.
func Open(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, errors.New(errors.KindConfig, "storage.open", "database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.open", "failed to open database", err)
	}
	return db, nil
}
