package state

import (
	"slices"

	"votechain-client/model"
)

// SeedSeq 缓存预热使用的序号，只在存储从未填充时生效
const SeedSeq uint64 = 0

// Store 活跃投票列表与账本统计的客户端缓存
//
// 两部分各自维护已应用的请求序号，序号不大于已应用序号的响应会被丢弃，
// 因此晚发出的请求结果不会被早发出但晚到达的响应覆盖。
type Store struct {
	Polls       []model.Poll      `json:"polls"`
	Stats       *model.ChainStats `json:"stats"`
	PollsLoaded bool              `json:"polls_loaded"`

	pollsSeq uint64
	statsSeq uint64
}

// ReplacePolls 整体替换投票列表，返回是否被应用
func (s Store) ReplacePolls(seq uint64, polls []model.Poll) (Store, bool) {
	if !s.acceptPolls(seq) {
		return s, false
	}
	if polls == nil {
		polls = []model.Poll{}
	}
	s.Polls = slices.Clone(polls)
	s.PollsLoaded = true
	s.pollsSeq = seq
	return s, true
}

// ReplaceStats 整体替换统计快照，返回是否被应用
func (s Store) ReplaceStats(seq uint64, stats model.ChainStats) (Store, bool) {
	if !s.acceptStats(seq) {
		return s, false
	}
	s.Stats = &stats
	s.statsSeq = seq
	return s, true
}

// PollsSeq 最近一次应用的投票列表请求序号
func (s Store) PollsSeq() uint64 {
	return s.pollsSeq
}

// StatsSeq 最近一次应用的统计请求序号
func (s Store) StatsSeq() uint64 {
	return s.statsSeq
}

// Poll 按ID查找已缓存的投票
func (s Store) Poll(id string) (model.Poll, bool) {
	i := slices.IndexFunc(s.Polls, func(p model.Poll) bool { return p.ID == id })
	if i < 0 {
		return model.Poll{}, false
	}
	return s.Polls[i], true
}

func (s Store) acceptPolls(seq uint64) bool {
	if seq == SeedSeq {
		return !s.PollsLoaded
	}
	return seq > s.pollsSeq
}

func (s Store) acceptStats(seq uint64) bool {
	if seq == SeedSeq {
		return s.Stats == nil
	}
	return seq > s.statsSeq
}

// clone 深拷贝，快照对外暴露时使用
func (s Store) clone() Store {
	out := s
	if s.Polls != nil {
		out.Polls = make([]model.Poll, len(s.Polls))
		for i, p := range s.Polls {
			p.Options = slices.Clone(p.Options)
			if p.Results != nil {
				results := make(map[string]int64, len(p.Results))
				for k, v := range p.Results {
					results[k] = v
				}
				p.Results = results
			}
			out.Polls[i] = p
		}
	}
	if s.Stats != nil {
		stats := *s.Stats
		out.Stats = &stats
	}
	return out
}
