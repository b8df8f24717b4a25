package common

import (
	"context"
	"runtime/debug"

	"github.com/gogf/gf/v2/frame/g"
)

// RecoverPanic 通用 panic 恢复函数，在 defer 中调用，
// 捕获并记录 panic 信息和完整堆栈
func RecoverPanic(ctx context.Context, taskName string) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		g.Log().Criticalf(ctx,
			"[PANIC RECOVERED] Task: %s\nError: %v\nStack Trace:\n%s",
			taskName, r, string(stack))
	}
}

// SafeGo 启动自动捕获 panic 的 goroutine，
// 避免后台任务崩溃拖垮进程
func SafeGo(ctx context.Context, taskName string, fn func()) {
	go func() {
		defer RecoverPanic(ctx, taskName)
		fn()
	}()
}
