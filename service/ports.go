package service

import (
	"context"
	"time"

	"votechain-client/model"
	"votechain-client/state"
)

// VotingService 远程投票服务，*client.Client 实现了该接口
type VotingService interface {
	ListActivePolls(ctx context.Context) ([]model.Poll, error)
	GetPoll(ctx context.Context, id string) (*model.Poll, error)
	ChainStats(ctx context.Context) (model.ChainStats, error)
	CreatePoll(ctx context.Context, req model.CreatePollRequest) (string, error)
	SubmitVote(ctx context.Context, req model.VoteRequest) (string, error)
	VerifyReceipt(ctx context.Context, req model.VerifyRequest) (*model.VerifyResult, error)
}

// Publisher 接收每次状态变更后的快照，在控制器锁内调用，不能阻塞
type Publisher interface {
	Publish(app state.App)
}

// PublisherFunc 函数适配器
type PublisherFunc func(app state.App)

func (f PublisherFunc) Publish(app state.App) { f(app) }

// SnapshotCache 投票列表与统计的预热缓存
type SnapshotCache interface {
	SavePolls(ctx context.Context, polls []model.Poll) error
	LoadPolls(ctx context.Context) ([]model.Poll, error)
	SaveStats(ctx context.Context, stats model.ChainStats) error
	LoadStats(ctx context.Context) (model.ChainStats, error)
}

// ReceiptArchive 本地回执存档
type ReceiptArchive interface {
	Save(ctx context.Context, r *model.ArchivedReceipt) error
	List(ctx context.Context, limit int) ([]model.ArchivedReceipt, error)
	ListByPoll(ctx context.Context, pollID string) ([]model.ArchivedReceipt, error)
	MarkVerified(ctx context.Context, pollID, token string, valid bool, at time.Time) error
}
