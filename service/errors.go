package service

import (
	"errors"

	"votechain-client/client"
	"votechain-client/state"
)

var (
	// 本地校验错误，不会发出请求
	ErrMissingVoterIdentifier = errors.New("missing voter identifier")
	ErrAlreadyInitialized     = errors.New("sync controller already initialized")
)

// 展示给用户的固定文案
const (
	MsgMissingVoterIdentifier = "Please enter your email or phone number"
	MsgDurationOutOfRange     = "Duration must be between 1 and 720 hours"
	MsgOptionOutOfRange       = "That option no longer exists"
	MsgTransport              = "Could not reach the voting service. Please try again."
	MsgServiceRejected        = "The voting service rejected the request"
	MsgInternal               = "Something went wrong"
)

// ErrorKind 错误分类，决定展示方式与 HTTP 状态码
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindLocal
	KindTransport
	KindService
	KindInternal
)

// Classify 对操作返回的错误分类
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingVoterIdentifier),
		errors.Is(err, ErrAlreadyInitialized),
		errors.Is(err, state.ErrDurationOutOfRange),
		errors.Is(err, state.ErrOptionIndexOutOfRange):
		return KindLocal
	case client.IsTransport(err):
		return KindTransport
	}
	if _, ok := client.AsService(err); ok {
		return KindService
	}
	return KindInternal
}

// UserMessage 用户可见的错误信息；服务端错误原样返回
func UserMessage(err error) string {
	switch Classify(err) {
	case KindNone:
		return ""
	case KindLocal:
		switch {
		case errors.Is(err, ErrMissingVoterIdentifier):
			return MsgMissingVoterIdentifier
		case errors.Is(err, state.ErrDurationOutOfRange):
			return MsgDurationOutOfRange
		case errors.Is(err, state.ErrOptionIndexOutOfRange):
			return MsgOptionOutOfRange
		}
		return err.Error()
	case KindTransport:
		return MsgTransport
	case KindService:
		se, _ := client.AsService(err)
		if se.Message == "" {
			return MsgServiceRejected
		}
		return se.Message
	default:
		return MsgInternal
	}
}

func joinErrors(errs ...error) error {
	return errors.Join(errs...)
}
