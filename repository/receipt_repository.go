package repository

import (
	"context"
	"errors"
	"time"

	"votechain-client/database"
	"votechain-client/model"

	"gorm.io/gorm"
)

// ErrReceiptNotFound 存档中没有该回执
var ErrReceiptNotFound = errors.New("receipt not found")

// ReceiptRepository 回执存档访问接口
type ReceiptRepository interface {
	Save(ctx context.Context, r *model.ArchivedReceipt) error
	List(ctx context.Context, limit int) ([]model.ArchivedReceipt, error)
	ListByPoll(ctx context.Context, pollID string) ([]model.ArchivedReceipt, error)
	MarkVerified(ctx context.Context, pollID, token string, valid bool, at time.Time) error
}

// GormReceiptRepository gorm 实现
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository 创建回执仓库
func NewReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// Save 保存回执，写入后回填ID与创建时间
func (r *GormReceiptRepository) Save(ctx context.Context, rec *model.ArchivedReceipt) error {
	row := database.Receipt{
		PollID:    rec.PollID,
		PollTitle: rec.PollTitle,
		Token:     rec.Receipt,
		CreatedAt: rec.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	rec.ID = row.ID
	rec.CreatedAt = row.CreatedAt
	return nil
}

// List 最近的回执，按时间倒序；limit<=0 表示不限
func (r *GormReceiptRepository) List(ctx context.Context, limit int) ([]model.ArchivedReceipt, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []database.Receipt
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

// ListByPoll 某个投票的全部回执
func (r *GormReceiptRepository) ListByPoll(ctx context.Context, pollID string) ([]model.ArchivedReceipt, error) {
	var rows []database.Receipt
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", pollID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModels(rows), nil
}

// MarkVerified 记录校验结果
func (r *GormReceiptRepository) MarkVerified(ctx context.Context, pollID, token string, valid bool, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&database.Receipt{}).
		Where("poll_id = ? AND token = ?", pollID, token).
		Updates(map[string]interface{}{"valid": valid, "verified_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

func toModels(rows []database.Receipt) []model.ArchivedReceipt {
	out := make([]model.ArchivedReceipt, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.ArchivedReceipt{
			ID:         row.ID,
			PollID:     row.PollID,
			PollTitle:  row.PollTitle,
			Receipt:    row.Token,
			Valid:      row.Valid,
			VerifiedAt: row.VerifiedAt,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out
}
