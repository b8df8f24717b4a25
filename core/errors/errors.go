package errors

import (
	"errors"
	"fmt"
)

// AppError 应用业务错误
type AppError struct {
	Code    ErrCode // 业务错误码
	Message string  // 错误消息
	Cause   error   // 底层错误
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Is / errors.As 链式匹配
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New 创建新的业务错误
func New(code ErrCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf 创建新的业务错误（格式化消息）
func Newf(code ErrCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap 包装底层错误为业务错误
func Wrap(code ErrCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsAppError 判断是否为业务错误
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 获取业务错误，如果不是则返回nil
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsCode 判断错误链上是否存在指定错误码的业务错误
func IsCode(err error, code ErrCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// IsCritical 判断错误是否不可重试（参数错误、未授权、资源不存在等）
func IsCritical(err error) bool {
	appErr := GetAppError(err)
	if appErr == nil {
		return false
	}
	switch appErr.Code {
	case ErrInvalidParameter, ErrUnauthorized, ErrNotFound, ErrKBNotFound, ErrSessionNotFound:
		return true
	}
	return false
}
