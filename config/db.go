package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sisterhood-backend/models/community"
	"sisterhood-backend/models/counseling"
	"sisterhood-backend/models/stories"
	"sisterhood-backend/models/users"
)

// activeSlotIndex - на один слот допускается только одна неотменённая запись
const activeSlotIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_slot ON bookings (slot_id) WHERE status <> 'cancelled'`

// InitDB открывает подключение к Postgres
func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// Migrate создаёт таблицы в порядке зависимостей
func Migrate(db *gorm.DB) error {
	models := []interface{}{
		&users.User{},
		&users.GoogleUser{},
		&counseling.CounselorProfile{},
		&counseling.AvailabilitySlot{},
		&counseling.Booking{},
		&counseling.Feedback{},
		&stories.Post{},
		&stories.Like{},
		&stories.Comment{},
		&stories.Story{},
		&stories.StoryView{},
		&stories.Notification{},
		&community.Group{},
		&community.GroupMember{},
		&community.Discussion{},
		&community.DiscussionLike{},
		&community.DiscussionComment{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(activeSlotIndex).Error; err != nil {
		return fmt.Errorf("create active slot index: %w", err)
	}
	return nil
}
