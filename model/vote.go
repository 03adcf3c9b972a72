package model

// CreatePollRequest 创建投票请求
type CreatePollRequest struct {
	Title         string   `json:"title"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	DurationHours int      `json:"duration_hours"`
	Language      Language `json:"language"`
}

// VoteRequest 提交投票请求
type VoteRequest struct {
	PollID          string `json:"poll_id"`
	VoterIdentifier string `json:"voter_identifier"`
	VoteChoice      string `json:"vote_choice"`
}

// VerifyRequest 回执校验请求
type VerifyRequest struct {
	Receipt string `json:"receipt"`
	PollID  string `json:"poll_id"`
}

// Envelope 服务端响应的公共字段
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// PollsResponse GET /api/polls 响应
type PollsResponse struct {
	Envelope
	Polls []Poll `json:"polls"`
}

// PollResponse GET /api/polls/{id} 响应
type PollResponse struct {
	Envelope
	Poll *Poll `json:"poll"`
}

// StatsResponse GET /api/blockchain/stats 响应
type StatsResponse struct {
	Envelope
	Stats *ChainStats `json:"stats"`
}

// CreatePollResponse POST /api/polls 响应
type CreatePollResponse struct {
	Envelope
	PollURL string `json:"poll_url,omitempty"`
	Poll    *Poll  `json:"poll,omitempty"`
}

// VoteResponse POST /api/vote 响应
type VoteResponse struct {
	Envelope
	Receipt  string `json:"receipt,omitempty"`
	VoteHash string `json:"vote_hash,omitempty"`
}

// VerifyResult POST /api/verify 响应
type VerifyResult struct {
	Envelope
	Valid bool `json:"valid"`
}
