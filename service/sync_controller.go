package service

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"votechain-client/cache"
	"votechain-client/metrics"
	"votechain-client/model"
	"votechain-client/repository"
	"votechain-client/state"

	"github.com/pkg/errors"
)

// 刷新指标中的存储名
const (
	storePolls = "polls"
	storeStats = "stats"
)

// Option 同步控制器可选项
type Option func(*SyncController)

// WithLogger 设置日志
func WithLogger(l *slog.Logger) Option {
	return func(c *SyncController) { c.logger = l }
}

// WithRecorder 记录刷新指标
func WithRecorder(r *metrics.Recorder) Option {
	return func(c *SyncController) { c.recorder = r }
}

// WithSnapshotCache 启动时用缓存预热，刷新成功后回写
func WithSnapshotCache(sc SnapshotCache) Option {
	return func(c *SyncController) { c.cache = sc }
}

// WithReceiptArchive 投票成功后存档回执
func WithReceiptArchive(a ReceiptArchive) Option {
	return func(c *SyncController) { c.archive = a }
}

// WithPublisher 订阅状态变更
func WithPublisher(p Publisher) Option {
	return func(c *SyncController) { c.publishers = append(c.publishers, p) }
}

// WithPublicBaseURL 服务返回的相对分享链接按该地址补全
func WithPublicBaseURL(base string) Option {
	return func(c *SyncController) { c.publicBaseURL = base }
}

// SyncController 唯一与投票服务通信的组件，持有全部客户端状态
type SyncController struct {
	svc           VotingService
	logger        *slog.Logger
	recorder      *metrics.Recorder
	cache         SnapshotCache
	archive       ReceiptArchive
	publishers    []Publisher
	publicBaseURL string

	mu  sync.Mutex
	app state.App

	initialized atomic.Bool
	pollsSeq    atomic.Uint64
	statsSeq    atomic.Uint64

	// 快照缓存写入按序号串行，较早的结果不覆盖较晚的
	saveMu     sync.Mutex
	pollsSaved uint64
	statsSaved uint64
}

// New 创建同步控制器
func New(svc VotingService, opts ...Option) *SyncController {
	c := &SyncController{
		svc:    svc,
		logger: slog.Default(),
		app:    state.NewApp(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize 启动时调用一次：先用缓存预热，再并发刷新投票列表与统计
//
// 两个刷新互不依赖，任何一个失败都不影响另一个，返回合并后的错误。
func (c *SyncController) Initialize(ctx context.Context) error {
	if !c.initialized.CompareAndSwap(false, true) {
		return ErrAlreadyInitialized
	}
	c.seed(ctx)

	var wg sync.WaitGroup
	var pollsErr, statsErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		pollsErr = c.RefreshActivePolls(ctx)
	}()
	go func() {
		defer wg.Done()
		statsErr = c.RefreshStats(ctx)
	}()
	wg.Wait()

	if err := joinErrors(pollsErr, statsErr); err != nil {
		c.logger.Warn("initial load incomplete", "error", err)
		return err
	}
	c.logger.Info("initial load complete")
	return nil
}

// RefreshActivePolls 拉取活跃投票并整体替换；失败时保留原有列表
func (c *SyncController) RefreshActivePolls(ctx context.Context) error {
	seq := c.pollsSeq.Add(1)
	polls, err := c.svc.ListActivePolls(ctx)
	if err != nil {
		c.logger.Warn("refresh active polls failed", "seq", seq, "error", err)
		return errors.Wrap(err, "refresh active polls")
	}

	applied := c.commitFresh(state.ReplacePolls{Seq: seq, Polls: polls})
	c.recorder.ObserveRefresh(storePolls, applied)
	if !applied {
		c.logger.Debug("discarded stale poll list", "seq", seq)
		return nil
	}
	c.savePolls(ctx, seq, polls)
	return nil
}

// RefreshStats 拉取账本统计并整体替换；失败时保留原有快照
func (c *SyncController) RefreshStats(ctx context.Context) error {
	seq := c.statsSeq.Add(1)
	stats, err := c.svc.ChainStats(ctx)
	if err != nil {
		c.logger.Warn("refresh chain stats failed", "seq", seq, "error", err)
		return errors.Wrap(err, "refresh chain stats")
	}

	applied := c.commitFresh(state.ReplaceStats{Seq: seq, Stats: stats})
	c.recorder.ObserveRefresh(storeStats, applied)
	if !applied {
		c.logger.Debug("discarded stale chain stats", "seq", seq)
		return nil
	}
	c.saveStats(ctx, seq, stats)
	return nil
}

// SubmitPollCreation 提交当前草稿，成功后重置草稿并刷新投票列表，返回分享链接
func (c *SyncController) SubmitPollCreation(ctx context.Context) (string, error) {
	c.mu.Lock()
	draft := c.app.Draft
	c.mu.Unlock()

	if err := draft.Validate(); err != nil {
		return "", err
	}

	pollURL, err := c.svc.CreatePoll(ctx, draft.Request())
	if err != nil {
		return "", errors.Wrap(err, "create poll")
	}
	c.logger.Info("poll created", "title", draft.Title, "poll_url", pollURL)

	c.commit(state.ResetDraft{})
	c.refreshAfterWrite(ctx)
	return c.shareURL(pollURL), nil
}

// SubmitVote 用当前投票人标识投票，成功后记录回执并刷新投票列表
func (c *SyncController) SubmitVote(ctx context.Context, pollID, choice string) (string, error) {
	c.mu.Lock()
	session := c.app.Session
	poll, _ := c.app.Store.Poll(pollID)
	c.mu.Unlock()

	if !session.CanVote() {
		return "", ErrMissingVoterIdentifier
	}

	receipt, err := c.svc.SubmitVote(ctx, model.VoteRequest{
		PollID:          pollID,
		VoterIdentifier: session.VoterIdentifier,
		VoteChoice:      choice,
	})
	if err != nil {
		return "", errors.Wrap(err, "submit vote")
	}
	c.logger.Info("vote submitted", "poll_id", pollID)

	c.commit(state.RecordReceipt{Token: receipt})
	c.archiveReceipt(ctx, pollID, poll.Title, receipt)
	c.refreshAfterWrite(ctx)
	return receipt, nil
}

// VerifyReceipt 向服务核对回执，结果写回存档
func (c *SyncController) VerifyReceipt(ctx context.Context, pollID, receipt string) (*model.VerifyResult, error) {
	res, err := c.svc.VerifyReceipt(ctx, model.VerifyRequest{Receipt: receipt, PollID: pollID})
	if err != nil {
		return nil, errors.Wrap(err, "verify receipt")
	}
	if c.archive != nil {
		err := c.archive.MarkVerified(ctx, pollID, receipt, res.Valid, time.Now())
		if err != nil && !errors.Is(err, repository.ErrReceiptNotFound) {
			c.logger.Warn("record verification failed", "poll_id", pollID, "error", err)
		}
	}
	return res, nil
}

// FetchPoll 单个投票详情，已结束的投票带有计票结果；不改变本地状态
func (c *SyncController) FetchPoll(ctx context.Context, id string) (*model.Poll, error) {
	poll, err := c.svc.GetPoll(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "fetch poll")
	}
	return poll, nil
}

// Receipts 本地存档的回执，未配置存档时为空
func (c *SyncController) Receipts(ctx context.Context, limit int) ([]model.ArchivedReceipt, error) {
	if c.archive == nil {
		return []model.ArchivedReceipt{}, nil
	}
	receipts, err := c.archive.List(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list receipts")
	}
	return receipts, nil
}

// PollReceipts 某个投票的本地存档回执
func (c *SyncController) PollReceipts(ctx context.Context, pollID string) ([]model.ArchivedReceipt, error) {
	if c.archive == nil {
		return []model.ArchivedReceipt{}, nil
	}
	receipts, err := c.archive.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, errors.Wrap(err, "list poll receipts")
	}
	return receipts, nil
}

// Dispatch 应用一个本地动作（草稿与会话编辑）
func (c *SyncController) Dispatch(action state.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := state.Check(c.app, action); err != nil {
		return err
	}
	c.app = state.Reduce(c.app, action)
	c.publishLocked()
	return nil
}

// Snapshot 当前状态的深拷贝
func (c *SyncController) Snapshot() state.App {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.app.Clone()
}

type freshAction interface {
	state.Action
	Stale(state.App) bool
}

func (c *SyncController) commit(action state.Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.app = state.Reduce(c.app, action)
	c.publishLocked()
}

// commitFresh 只应用未过期的刷新结果
func (c *SyncController) commitFresh(action freshAction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if action.Stale(c.app) {
		return false
	}
	c.app = state.Reduce(c.app, action)
	c.publishLocked()
	return true
}

func (c *SyncController) publishLocked() {
	if len(c.publishers) == 0 {
		return
	}
	snap := c.app.Clone()
	for _, p := range c.publishers {
		p.Publish(snap)
	}
}

func (c *SyncController) seed(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if polls, err := c.cache.LoadPolls(ctx); err == nil {
		c.commitFresh(state.ReplacePolls{Seq: state.SeedSeq, Polls: polls})
		c.logger.Debug("seeded poll list from snapshot", "count", len(polls))
	} else if !errors.Is(err, cache.ErrKeyNotFound) {
		c.logger.Warn("load poll snapshot failed", "error", err)
	}
	if stats, err := c.cache.LoadStats(ctx); err == nil {
		c.commitFresh(state.ReplaceStats{Seq: state.SeedSeq, Stats: stats})
	} else if !errors.Is(err, cache.ErrKeyNotFound) {
		c.logger.Warn("load stats snapshot failed", "error", err)
	}
}

// savePolls 回写投票列表快照；已写入更晚序号时跳过
func (c *SyncController) savePolls(ctx context.Context, seq uint64, polls []model.Poll) {
	if c.cache == nil {
		return
	}
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if seq < c.pollsSaved {
		c.logger.Debug("skipped stale poll snapshot", "seq", seq)
		return
	}
	c.pollsSaved = seq
	if err := c.cache.SavePolls(ctx, polls); err != nil {
		c.logger.Warn("save poll snapshot failed", "error", err)
	}
}

func (c *SyncController) saveStats(ctx context.Context, seq uint64, stats model.ChainStats) {
	if c.cache == nil {
		return
	}
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if seq < c.statsSaved {
		c.logger.Debug("skipped stale stats snapshot", "seq", seq)
		return
	}
	c.statsSaved = seq
	if err := c.cache.SaveStats(ctx, stats); err != nil {
		c.logger.Warn("save stats snapshot failed", "error", err)
	}
}

// refreshAfterWrite 写操作成功后的重新拉取，失败只记日志
func (c *SyncController) refreshAfterWrite(ctx context.Context) {
	if err := c.RefreshActivePolls(ctx); err != nil {
		c.logger.Warn("refresh after write failed", "error", err)
	}
}

func (c *SyncController) archiveReceipt(ctx context.Context, pollID, title, receipt string) {
	if c.archive == nil {
		return
	}
	rec := &model.ArchivedReceipt{PollID: pollID, PollTitle: title, Receipt: receipt}
	if err := c.archive.Save(ctx, rec); err != nil {
		c.logger.Warn("archive receipt failed", "poll_id", pollID, "error", err)
	}
}

func (c *SyncController) shareURL(pollURL string) string {
	if c.publicBaseURL == "" || pollURL == "" {
		return pollURL
	}
	base, err := url.Parse(c.publicBaseURL)
	if err != nil {
		return pollURL
	}
	ref, err := url.Parse(pollURL)
	if err != nil {
		return pollURL
	}
	return base.ResolveReference(ref).String()
}
