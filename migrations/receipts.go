package migrations

import (
	"log/slog"

	"votechain-client/database"

	"gorm.io/gorm"
)

const receiptsIndex = "idx_receipts_poll_created"

// Migrate 建立回执存档表
func Migrate(db *gorm.DB, logger *slog.Logger) error {
	m := db.Migrator()
	created := !m.HasTable(&database.Receipt{})

	if err := db.AutoMigrate(&database.Receipt{}); err != nil {
		return err
	}

	// 早期版本的表没有复合索引
	if !m.HasIndex(&database.Receipt{}, receiptsIndex) {
		logger.Info("migration: creating receipts index", "index", receiptsIndex)
		if err := m.CreateIndex(&database.Receipt{}, receiptsIndex); err != nil {
			return err
		}
	}

	if created {
		logger.Info("migration: receipts table created")
	}
	return nil
}
