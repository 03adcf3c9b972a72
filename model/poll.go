package model

import (
	"encoding/json"
	"math"
	"time"
)

// Language 投票语言标签
type Language string

const (
	LanguageArabic  Language = "ar" // 阿拉伯语
	LanguageFrench  Language = "fr" // 法语
	LanguageEnglish Language = "en" // 英语
)

// Valid 判断是否为服务支持的语言
func (l Language) Valid() bool {
	switch l {
	case LanguageArabic, LanguageFrench, LanguageEnglish:
		return true
	}
	return false
}

// PollStatus 投票状态，由服务端维护
type PollStatus string

const (
	PollStatusActive   PollStatus = "active"   // 进行中
	PollStatusCounting PollStatus = "counting" // 计票中
	PollStatusClosed   PollStatus = "closed"   // 已结束
)

// Poll 服务端投票模型，客户端只读
type Poll struct {
	ID            string           `json:"poll_id"`
	Title         string           `json:"title"`
	Question      string           `json:"question"`
	Options       []string         `json:"options"`
	Language      Language         `json:"language"`
	ClosesAt      UnixTime         `json:"closes_at"`
	VoteCount     int64            `json:"vote_count,omitempty"`
	Creator       string           `json:"creator,omitempty"`
	Status        PollStatus       `json:"status,omitempty"`
	CreatedAt     UnixTime         `json:"created_at,omitempty"`
	DurationHours int              `json:"duration_hours,omitempty"`
	Results       map[string]int64 `json:"results,omitempty"`
}

// ChainStats 服务端账本统计快照
type ChainStats struct {
	TotalPolls      int64  `json:"total_polls"`
	TotalVotes      int64  `json:"total_votes"`
	TotalBlocks     int64  `json:"total_blocks"`
	IsValid         bool   `json:"is_valid"`
	LatestBlockHash string `json:"latest_block_hash,omitempty"`
}

// UnixTime 以Unix秒（可带小数）编码的时间
type UnixTime struct {
	time.Time
}

// NewUnixTime 包装时间值
func NewUnixTime(t time.Time) UnixTime {
	return UnixTime{Time: t}
}

// MarshalJSON 输出为Unix秒
func (t UnixTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(t.UnixNano()) / float64(time.Second))
}

// UnmarshalJSON 解析Unix秒，null 保持零值
func (t *UnixTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return err
	}
	whole, frac := math.Modf(secs)
	t.Time = time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
	return nil
}
