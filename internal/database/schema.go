package database

import (
	"fmt"
	"log/slog"

	"arena/internal/config"
	"arena/internal/middleware"
	"arena/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Debate{},
		&models.Participation{},
		&models.Argument{},
		&models.ArgumentVote{},
		&models.DebateResult{},
	}
}

// Migrate runs GORM AutoMigrate over PersistentModels.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// ApplySchema migrates outside production. Production schemas are managed out of band.
func ApplySchema(db *gorm.DB, cfg *config.Config) error {
	if cfg.IsProduction() {
		middleware.Logger.Info("Skipping AutoMigrate in production", slog.String("env", cfg.Env))
		return nil
	}
	middleware.Logger.Info("Running GORM AutoMigrate", slog.String("env", cfg.Env))
	return Migrate(db)
}

// Clear deletes every row from the schema-managed tables, children first.
func Clear(db *gorm.DB) error {
	all := PersistentModels()
	session := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := session.Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	return nil
}
