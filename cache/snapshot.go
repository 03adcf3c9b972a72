package cache

import (
	"context"
	"encoding/json"
	"time"

	"votechain-client/model"

	"github.com/pkg/errors"
)

const (
	pollsKey = "votechain:snapshot:polls"
	statsKey = "votechain:snapshot:stats"
)

// Backend 键值存储
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Snapshot 最近一次成功刷新的投票列表与统计，用于启动时预热
type Snapshot struct {
	backend Backend
	ttl     time.Duration
}

// NewSnapshot 创建快照缓存，ttl 为0表示不过期
func NewSnapshot(backend Backend, ttl time.Duration) *Snapshot {
	return &Snapshot{backend: backend, ttl: ttl}
}

// SavePolls 保存投票列表
func (s *Snapshot) SavePolls(ctx context.Context, polls []model.Poll) error {
	return s.save(ctx, pollsKey, polls)
}

// LoadPolls 读取投票列表，不存在时返回 ErrKeyNotFound
func (s *Snapshot) LoadPolls(ctx context.Context) ([]model.Poll, error) {
	var polls []model.Poll
	if err := s.load(ctx, pollsKey, &polls); err != nil {
		return nil, err
	}
	return polls, nil
}

// SaveStats 保存统计快照
func (s *Snapshot) SaveStats(ctx context.Context, stats model.ChainStats) error {
	return s.save(ctx, statsKey, stats)
}

// LoadStats 读取统计快照，不存在时返回 ErrKeyNotFound
func (s *Snapshot) LoadStats(ctx context.Context) (model.ChainStats, error) {
	var stats model.ChainStats
	if err := s.load(ctx, statsKey, &stats); err != nil {
		return model.ChainStats{}, err
	}
	return stats, nil
}

// Clear 删除全部快照
func (s *Snapshot) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, pollsKey); err != nil {
		return err
	}
	return s.backend.Delete(ctx, statsKey)
}

// Close 关闭后端连接
func (s *Snapshot) Close() error {
	return s.backend.Close()
}

func (s *Snapshot) save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return s.backend.Set(ctx, key, string(data), s.ttl)
}

func (s *Snapshot) load(ctx context.Context, key string, v interface{}) error {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return errors.Wrapf(err, "decode %s", key)
	}
	return nil
}
