package database

import (
	"fmt"
	"log"

	"runsight_backend/internal/config"
	"runsight_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// shouldAutoMigrate debug 模式每次启动都迁移；release 模式只在 --migrate / --migrate-only 时迁移
func shouldAutoMigrate(cfg *config.Config) bool {
	return cfg.ForceMigrate || cfg.Server.Mode != "release"
}

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if !shouldAutoMigrate(cfg) {
		return db, nil
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.DailyRecord{},
		&model.Activity{},
		&model.SleepSummary{},
		&model.SyncState{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}
