package state

import (
	"fmt"
	"slices"

	"votechain-client/model"
)

// App 客户端应用状态，由同步控制器唯一持有
type App struct {
	Draft   Draft   `json:"draft"`
	Session Session `json:"session"`
	Store   Store   `json:"store"`
}

// NewApp 启动时的初始状态
func NewApp() App {
	return App{Draft: NewDraft()}
}

// Clone 深拷贝，调用方可以随意修改返回值
func (a App) Clone() App {
	out := a
	out.Draft.Options = slices.Clone(a.Draft.Options)
	out.Store = a.Store.clone()
	return out
}

// Action 一次状态转换
type Action interface {
	Apply(App) App
}

// Checker 可以在应用前校验自身的动作，用于接收不可信输入的边界
type Checker interface {
	Check(App) error
}

// Reduce 纯函数：旧状态 + 动作 = 新状态
func Reduce(a App, action Action) App {
	return action.Apply(a)
}

// Check 校验动作是否可以作用于当前状态
func Check(a App, action Action) error {
	if c, ok := action.(Checker); ok {
		return c.Check(a)
	}
	return nil
}

// AddOption 追加选项
type AddOption struct{}

func (AddOption) Apply(a App) App {
	a.Draft = a.Draft.AddOption()
	return a
}

// UpdateOption 修改选项
type UpdateOption struct {
	Index int
	Value string
}

func (u UpdateOption) Apply(a App) App {
	a.Draft = a.Draft.UpdateOption(u.Index, u.Value)
	return a
}

func (u UpdateOption) Check(a App) error {
	return checkIndex(a.Draft, u.Index)
}

// RemoveOption 删除选项
type RemoveOption struct {
	Index int
}

func (r RemoveOption) Apply(a App) App {
	a.Draft = a.Draft.RemoveOption(r.Index)
	return a
}

func (r RemoveOption) Check(a App) error {
	return checkIndex(a.Draft, r.Index)
}

// ResetDraft 重置草稿
type ResetDraft struct{}

func (ResetDraft) Apply(a App) App {
	a.Draft = a.Draft.Reset()
	return a
}

// SetTitle 修改草稿标题
type SetTitle struct{ Title string }

func (s SetTitle) Apply(a App) App {
	a.Draft = a.Draft.SetTitle(s.Title)
	return a
}

// SetQuestion 修改草稿问题
type SetQuestion struct{ Question string }

func (s SetQuestion) Apply(a App) App {
	a.Draft = a.Draft.SetQuestion(s.Question)
	return a
}

// SetDurationHours 修改草稿时长
type SetDurationHours struct{ Hours int }

func (s SetDurationHours) Apply(a App) App {
	a.Draft = a.Draft.SetDurationHours(s.Hours)
	return a
}

// SetLanguage 修改草稿语言
type SetLanguage struct{ Language model.Language }

func (s SetLanguage) Apply(a App) App {
	a.Draft = a.Draft.SetLanguage(s.Language)
	return a
}

// SetVoterIdentifier 修改投票人标识
type SetVoterIdentifier struct{ Value string }

func (s SetVoterIdentifier) Apply(a App) App {
	a.Session = a.Session.SetVoterIdentifier(s.Value)
	return a
}

// RecordReceipt 记录回执
type RecordReceipt struct{ Token string }

func (r RecordReceipt) Apply(a App) App {
	a.Session = a.Session.RecordReceipt(r.Token)
	return a
}

// ClearReceipt 清除回执
type ClearReceipt struct{}

func (ClearReceipt) Apply(a App) App {
	a.Session = a.Session.ClearReceipt()
	return a
}

// ReplacePolls 用一次刷新结果替换投票列表，过期的序号被忽略
type ReplacePolls struct {
	Seq   uint64
	Polls []model.Poll
}

func (r ReplacePolls) Apply(a App) App {
	a.Store, _ = a.Store.ReplacePolls(r.Seq, r.Polls)
	return a
}

// Stale 序号不比已应用的新，应用后状态不变
func (r ReplacePolls) Stale(a App) bool {
	return !a.Store.acceptPolls(r.Seq)
}

// ReplaceStats 用一次刷新结果替换统计快照，过期的序号被忽略
type ReplaceStats struct {
	Seq   uint64
	Stats model.ChainStats
}

func (r ReplaceStats) Apply(a App) App {
	a.Store, _ = a.Store.ReplaceStats(r.Seq, r.Stats)
	return a
}

func (r ReplaceStats) Stale(a App) bool {
	return !a.Store.acceptStats(r.Seq)
}

func checkIndex(d Draft, index int) error {
	if !d.HasOption(index) {
		return fmt.Errorf("%w: %d", ErrOptionIndexOutOfRange, index)
	}
	return nil
}
