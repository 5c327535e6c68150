package queue

import "errors"

var (
	// ErrOperationCancelled 表示等待出队时上下文被取消或超时
	ErrOperationCancelled = errors.New("operation cancelled")
)
