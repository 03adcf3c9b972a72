package state

import (
	"fmt"
	"slices"

	"votechain-client/model"
)

const (
	// MinOptions 投票最少选项数
	MinOptions = 2
	// MaxOptions 投票最多选项数
	MaxOptions = 10

	// MinDurationHours 最短投票时长（小时）
	MinDurationHours = 1
	// MaxDurationHours 最长投票时长（小时），即30天
	MaxDurationHours = 720
	// DefaultDurationHours 草稿默认时长
	DefaultDurationHours = 24

	// DefaultLanguage 草稿默认语言
	DefaultLanguage = model.LanguageArabic
)

// Draft 创建投票的草稿表单
//
// Draft 是值类型，所有变更方法都返回新的 Draft，不修改接收者。
// 任何变更之后都满足 MinOptions <= len(Options) <= MaxOptions。
type Draft struct {
	Title         string         `json:"title"`
	Question      string         `json:"question"`
	Options       []string       `json:"options"`
	DurationHours int            `json:"duration_hours"`
	Language      model.Language `json:"language"`
}

// NewDraft 返回初始草稿：两个空选项
func NewDraft() Draft {
	return Draft{
		Options:       make([]string, MinOptions),
		DurationHours: DefaultDurationHours,
		Language:      DefaultLanguage,
	}
}

// AddOption 追加一个空选项，已达上限时不变
func (d Draft) AddOption() Draft {
	if len(d.Options) >= MaxOptions {
		return d
	}
	d.Options = append(slices.Clip(d.Options), "")
	return d
}

// UpdateOption 替换指定位置的选项。越界属于调用方错误，会 panic。
func (d Draft) UpdateOption(index int, value string) Draft {
	d.mustHaveOption(index)
	options := slices.Clone(d.Options)
	options[index] = value
	d.Options = options
	return d
}

// RemoveOption 删除指定位置的选项，只剩两个选项时不变。越界会 panic。
func (d Draft) RemoveOption(index int) Draft {
	if len(d.Options) <= MinOptions {
		return d
	}
	d.mustHaveOption(index)
	d.Options = slices.Delete(slices.Clone(d.Options), index, index+1)
	return d
}

// Reset 恢复为初始草稿
func (d Draft) Reset() Draft {
	return NewDraft()
}

// SetTitle 修改标题
func (d Draft) SetTitle(title string) Draft {
	d.Title = title
	return d
}

// SetQuestion 修改问题
func (d Draft) SetQuestion(question string) Draft {
	d.Question = question
	return d
}

// SetDurationHours 修改时长，范围在提交时校验
func (d Draft) SetDurationHours(hours int) Draft {
	d.DurationHours = hours
	return d
}

// SetLanguage 修改语言标签，原样透传给服务端
func (d Draft) SetLanguage(lang model.Language) Draft {
	d.Language = lang
	return d
}

// HasOption 判断下标是否在当前选项范围内
func (d Draft) HasOption(index int) bool {
	return index >= 0 && index < len(d.Options)
}

// Validate 提交前的本地校验
func (d Draft) Validate() error {
	if d.DurationHours < MinDurationHours || d.DurationHours > MaxDurationHours {
		return fmt.Errorf("%w: %d", ErrDurationOutOfRange, d.DurationHours)
	}
	return nil
}

// Request 生成创建投票请求
func (d Draft) Request() model.CreatePollRequest {
	return model.CreatePollRequest{
		Title:         d.Title,
		Question:      d.Question,
		Options:       slices.Clone(d.Options),
		DurationHours: d.DurationHours,
		Language:      d.Language,
	}
}

// Equal 比较两个草稿
func (d Draft) Equal(other Draft) bool {
	return d.Title == other.Title &&
		d.Question == other.Question &&
		d.DurationHours == other.DurationHours &&
		d.Language == other.Language &&
		slices.Equal(d.Options, other.Options)
}

func (d Draft) mustHaveOption(index int) {
	if !d.HasOption(index) {
		panic(fmt.Sprintf("state: option index %d out of range [0,%d)", index, len(d.Options)))
	}
}
