package database

import "time"

// Receipt 回执存档表
type Receipt struct {
	ID         uint   `gorm:"primaryKey"`
	PollID     string `gorm:"size:64;not null;index:idx_receipts_poll_created,priority:1"`
	PollTitle  string `gorm:"size:255"`
	Token      string `gorm:"type:text;not null"`
	Valid      *bool  `gorm:"default:null"`
	VerifiedAt *time.Time
	CreatedAt  time.Time `gorm:"index:idx_receipts_poll_created,priority:2"`
}

// TableName 表名
func (Receipt) TableName() string {
	return "receipts"
}
