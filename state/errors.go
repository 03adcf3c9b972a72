package state

import "errors"

var (
	// ErrDurationOutOfRange 时长不在 [1,720] 小时内
	ErrDurationOutOfRange = errors.New("duration must be between 1 and 720 hours")

	// ErrOptionIndexOutOfRange 选项下标越界
	ErrOptionIndexOutOfRange = errors.New("option index out of range")
)
