package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func sqliteMemory() gorm.Dialector {
	return sqlite.Open(":memory:")
}

// OpenTestDB opens a migrated in-memory sqlite database pinned to one
// connection, so every query sees the same database.
func OpenTestDB() (*gorm.DB, error) {
	db, err := Open(sqliteMemory())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
