package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxRetries は既定の再試行回数です。
	// 求人サイトへのアクセスは固定のスリープ以外の待機戦略を持たないため、既定では再試行しません。
	DefaultMaxRetries = 0

	InitialBackoffInterval = 500 * time.Millisecond
	MaxBackoffInterval     = 5 * time.Second
)

// Operation はリトライ可能な処理を表す関数です。成功時は nil を返します。
type Operation func() error

// ShouldRetryFunc はエラーを受け取り、そのエラーがリトライ可能かどうかを判定する関数です。
type ShouldRetryFunc func(error) bool

// Config はリトライ動作を設定するための構造体です。
// MaxRetries が 0 の場合、操作は一度だけ実行されます。
type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig は既定の設定を返します。
func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: InitialBackoffInterval,
		MaxInterval:     MaxBackoffInterval,
	}
}

// newBackOffPolicy は Config から指数バックオフのポリシーを生成します。
func newBackOffPolicy(ctx context.Context, cfg Config) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}
	// 経過時間による打ち切りは行わず、回数とコンテキストのみで制御する
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, cfg.MaxRetries), ctx)
}

// Do は指数バックオフとエラー判定関数を使用して操作を実行します。
// shouldRetryFn が false を返したエラーは即座に呼び出し元へ返されます。
func Do(ctx context.Context, cfg Config, operationName string, op Operation, shouldRetryFn ShouldRetryFunc) error {
	var lastErr error
	attempts := 0

	retryableOp := func() error {
		attempts++
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return err
		}
		if shouldRetryFn != nil && shouldRetryFn(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(retryableOp, newBackOffPolicy(ctx, cfg))
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%sに失敗しました: コンテキストタイムアウト/キャンセル: %w", operationName, ctxErr)
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return fmt.Errorf("%sに失敗しました: %w", operationName, permanent.Err)
	}

	if attempts > 1 {
		return fmt.Errorf("%sに失敗しました (試行回数: %d回): %w", operationName, attempts, lastErr)
	}
	return fmt.Errorf("%sに失敗しました: %w", operationName, lastErr)
}
