package cache

import "errors"

var (
	// ErrRedisNotAvailable Redis不可用错误
	ErrRedisNotAvailable = errors.New("redis not available")

	// ErrKeyNotFound 键不存在错误
	ErrKeyNotFound = errors.New("key not found")
)
