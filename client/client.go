package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"votechain-client/metrics"
	"votechain-client/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// 服务端接口名，同时用作指标标签
const (
	EndpointListPolls  = "list_polls"
	EndpointGetPoll    = "get_poll"
	EndpointStats      = "chain_stats"
	EndpointCreatePoll = "create_poll"
	EndpointVote       = "vote"
	EndpointVerify     = "verify_receipt"
)

// RequestIDHeader 每个请求携带的追踪ID
const RequestIDHeader = "X-Request-ID"

const maxResponseBytes = 4 << 20

// Config 投票服务客户端配置
type Config struct {
	BaseURL string
	// Timeout 为0时不设置超时，沿用传输层默认行为
	Timeout time.Duration
	// RateLimit 每秒请求数，0表示不限流
	RateLimit float64
	Burst     int
}

// Option 客户端可选项
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRecorder 记录请求指标
func WithRecorder(r *metrics.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithLogger 设置日志
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client 投票服务 HTTP/JSON 客户端
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	limiter  *rate.Limiter
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// New 创建客户端
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse voting service url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("voting service url %q must be absolute", cfg.BaseURL)
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListActivePolls GET /api/polls?active=true
func (c *Client) ListActivePolls(ctx context.Context) ([]model.Poll, error) {
	var resp model.PollsResponse
	query := url.Values{"active": []string{"true"}}
	if err := c.do(ctx, EndpointListPolls, http.MethodGet, "/api/polls", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Polls, nil
}

// GetPoll GET /api/polls/{id}
func (c *Client) GetPoll(ctx context.Context, id string) (*model.Poll, error) {
	var resp model.PollResponse
	if err := c.do(ctx, EndpointGetPoll, http.MethodGet, "/api/polls/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Poll == nil {
		return nil, &TransportError{Op: EndpointGetPoll, Err: errors.Wrap(ErrMalformedResponse, "missing poll")}
	}
	return resp.Poll, nil
}

// ChainStats GET /api/blockchain/stats
func (c *Client) ChainStats(ctx context.Context) (model.ChainStats, error) {
	var resp model.StatsResponse
	if err := c.do(ctx, EndpointStats, http.MethodGet, "/api/blockchain/stats", nil, nil, &resp); err != nil {
		return model.ChainStats{}, err
	}
	if resp.Stats == nil {
		return model.ChainStats{}, &TransportError{Op: EndpointStats, Err: errors.Wrap(ErrMalformedResponse, "missing stats")}
	}
	return *resp.Stats, nil
}

// CreatePoll POST /api/polls，返回分享链接
func (c *Client) CreatePoll(ctx context.Context, req model.CreatePollRequest) (string, error) {
	var resp model.CreatePollResponse
	if err := c.do(ctx, EndpointCreatePoll, http.MethodPost, "/api/polls", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.PollURL, nil
}

// SubmitVote POST /api/vote，返回不透明的回执
func (c *Client) SubmitVote(ctx context.Context, req model.VoteRequest) (string, error) {
	var resp model.VoteResponse
	if err := c.do(ctx, EndpointVote, http.MethodPost, "/api/vote", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Receipt, nil
}

// VerifyReceipt POST /api/verify
func (c *Client) VerifyReceipt(ctx context.Context, req model.VerifyRequest) (*model.VerifyResult, error) {
	var resp model.VerifyResult
	if err := c.do(ctx, EndpointVerify, http.MethodPost, "/api/verify", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do 发送请求并解析响应；success 为 false 时返回 ServiceError
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, body, out interface{}) error {
	start := time.Now()
	outcome := metrics.OutcomeTransport
	defer func() {
		c.recorder.ObserveRequest(endpoint, outcome, time.Since(start))
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Op: endpoint, Err: errors.Wrap(err, "rate limit wait")}
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "%s: encode request", endpoint)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return errors.Wrapf(err, "%s: build request", endpoint)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := c.logger.With("endpoint", endpoint, "request_id", requestID)
	logger.Debug("voting service request", "method", method, "url", u.String())

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("voting service unreachable", "error", err)
		return &TransportError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: endpoint, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "read response")}
	}

	var env model.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warn("voting service returned malformed body", "status", resp.StatusCode, "error", err)
		return &TransportError{Op: endpoint, StatusCode: resp.StatusCode, Err: errors.Wrap(ErrMalformedResponse, err.Error())}
	}
	if !env.Success {
		outcome = metrics.OutcomeRejected
		logger.Info("voting service rejected request", "status", resp.StatusCode, "message", env.Error)
		return &ServiceError{Op: endpoint, StatusCode: resp.StatusCode, Message: env.Error}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: endpoint, StatusCode: resp.StatusCode, Err: errors.Wrap(ErrMalformedResponse, err.Error())}
	}

	outcome = metrics.OutcomeSuccess
	logger.Debug("voting service response", "status", resp.StatusCode, "elapsed", time.Since(start))
	return nil
}
