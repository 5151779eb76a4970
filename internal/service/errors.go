package service

import (
	"errors"
	"fmt"
)

// 错误类型
var (
	ErrUpstream   = errors.New("upstream error")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// Error 带操作上下文的错误
// errors.Is 同时匹配 Kind 和底层错误
type Error struct {
	Op   string // 如 "popular", "details", "submitReview"
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func wrapError(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}
