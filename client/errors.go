package client

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse 响应无法解析或缺少必要字段
var ErrMalformedResponse = errors.New("malformed response")

// TransportError 网络不可达、超时或响应格式错误
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError 服务端返回 success:false
type ServiceError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: voting service rejected the request (status %d)", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsTransport 判断是否为传输层错误
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsService 提取服务端错误
func AsService(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
