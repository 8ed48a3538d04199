package database

import (
	"strings"

	"github.com/arnold/charity-quests-api/internal/config"
	"github.com/arnold/charity-quests-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to PostgreSQL if url starts with postgres, otherwise SQLite.
func Open(url string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector

	if strings.HasPrefix(url, "postgres") {
		dialector = postgres.Open(url)
	} else {
		dialector = sqlite.Open(url)
	}

	level := logger.Warn
	if debug {
		level = logger.Info
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		// quests and achievements reference each other
		DisableForeignKeyConstraintWhenMigrating: true,
	})
}

func Connect(cfg *config.Config) (*gorm.DB, error) {
	return Open(cfg.DatabaseURL, cfg.LogLevel == "debug")
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.City{},
		&models.OrganizationType{},
		&models.Category{},
		&models.Quest{},
		&models.QuestCategory{},
		&models.Achievement{},
		&models.UserQuest{},
		&models.UserAchievement{},
		&models.ExperienceCredit{},
		&models.Activity{},
	)
}
