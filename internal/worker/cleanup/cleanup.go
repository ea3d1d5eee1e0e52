// Package cleanup は期限切れトークンの自動削除ジョブを提供する。
// 有効期限を過ぎたアクセストークンとリフレッシュトークンを
// 定期バッチで削除する。認証処理では期限切れトークンを拒否するため、
// このジョブは行数を抑えるためのハウスキーピングとして動作する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// TokenCleanupJob は期限切れトークンの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type TokenCleanupJob struct {
	db     Executor
	logger *slog.Logger
	// GraceHours は期限切れ後もトークン行を残す猶予時間（デフォルト: 24）。
	// リフレッシュ直後の競合や調査のために即時削除は避ける。
	GraceHours int
}

// NewTokenCleanupJob は新しいTokenCleanupJobを生成する。
// デフォルトの猶予時間は24時間。
func NewTokenCleanupJob(db Executor, logger *slog.Logger) *TokenCleanupJob {
	return &TokenCleanupJob{
		db:         db,
		logger:     logger,
		GraceHours: 24,
	}
}

// Run は有効期限を猶予時間以上過ぎたトークンを削除する。
// access_tokensとrefresh_tokensの両方が対象。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *TokenCleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	grace := fmt.Sprintf("%d hours", j.GraceHours)

	var total int64
	for _, table := range []string{"access_tokens", "refresh_tokens"} {
		query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at < now() - $1::interval`, table)
		result, err := j.db.ExecContext(ctx, query, grace)
		if err != nil {
			j.logger.Error("トークンクリーンアップジョブの実行に失敗しました",
				slog.String("table", table),
				slog.String("error", err.Error()),
				slog.Int("grace_hours", j.GraceHours),
			)
			return fmt.Errorf("トークンクリーンアップの実行に失敗 (%s): %w", table, err)
		}

		deleted, err := result.RowsAffected()
		if err != nil {
			j.logger.Error("削除件数の取得に失敗しました",
				slog.String("table", table),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("削除件数の取得に失敗 (%s): %w", table, err)
		}
		total += deleted
	}

	duration := time.Since(start)
	j.logger.Info("トークンクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", total),
		slog.Int("grace_hours", j.GraceHours),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
