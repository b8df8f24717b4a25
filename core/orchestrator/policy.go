package orchestrator

import (
	"context"
	"time"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/knowbase-ai/knowbase/core/config"
	"github.com/knowbase-ai/knowbase/core/errors"
)

// withRetry 按重试策略执行 fn。
// 参数错误、未授权、知识库不存在这类错误不会因重试恢复，直接返回。
func withRetry(ctx context.Context, policy config.RetryPolicy, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= policy.Attempts; attempt++ {
		if attempt > 0 {
			g.Log().Warningf(ctx, "%s failed, retrying (%d/%d): %v", op, attempt, policy.Attempts, lastErr)
			select {
			case <-ctx.Done():
				return errors.Wrap(errors.ErrTimeout, op+" cancelled", ctx.Err())
			case <-time.After(policy.Interval):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.IsCritical(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return errors.Wrap(errors.ErrTimeout, op+" deadline exceeded", ctx.Err())
		}
	}
	return lastErr
}
