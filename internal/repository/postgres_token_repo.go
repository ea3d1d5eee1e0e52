package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/teamit/internal/model"
)

// PostgresTokenRepo はPostgreSQLを使用したトークンリポジトリ。
// アクセストークンとリフレッシュトークンを別テーブルで管理する。
type PostgresTokenRepo struct {
	db *sql.DB
}

// NewPostgresTokenRepo はPostgresTokenRepoを生成する。
func NewPostgresTokenRepo(db *sql.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

// CreateAccess はアクセストークンを作成する。
func (r *PostgresTokenRepo) CreateAccess(ctx context.Context, token *model.AccessToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_tokens (id, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		token.ID, token.UserID, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("アクセストークンの作成に失敗しました: %w", err)
	}
	return nil
}

// FindAccessByID は指定IDのアクセストークンを取得する。
// 期限切れまたは不在の場合はnilを返す。
func (r *PostgresTokenRepo) FindAccessByID(ctx context.Context, id string) (*model.AccessToken, error) {
	token := &model.AccessToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at
		 FROM access_tokens
		 WHERE id = $1 AND expires_at > NOW()`,
		id,
	).Scan(&token.ID, &token.UserID, &token.ExpiresAt, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの取得に失敗しました: %w", err)
	}
	return token, nil
}

// CreateRefresh はリフレッシュトークンを作成する。
func (r *PostgresTokenRepo) CreateRefresh(ctx context.Context, token *model.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`,
		token.ID, token.UserID, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("リフレッシュトークンの作成に失敗しました: %w", err)
	}
	return nil
}

// FindRefreshByID は指定IDのリフレッシュトークンを取得する。
// 期限切れまたは不在の場合はnilを返す。
func (r *PostgresTokenRepo) FindRefreshByID(ctx context.Context, id string) (*model.RefreshToken, error) {
	token := &model.RefreshToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, created_at
		 FROM refresh_tokens
		 WHERE id = $1 AND expires_at > NOW()`,
		id,
	).Scan(&token.ID, &token.UserID, &token.ExpiresAt, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リフレッシュトークンの取得に失敗しました: %w", err)
	}
	return token, nil
}

// DeleteRefreshByID は指定IDのリフレッシュトークンを削除する。
func (r *PostgresTokenRepo) DeleteRefreshByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("リフレッシュトークンの削除に失敗しました: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全トークンを削除する。
func (r *PostgresTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE user_id = $1`, userID,
	); err != nil {
		return fmt.Errorf("アクセストークンの削除に失敗しました: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE user_id = $1`, userID,
	); err != nil {
		return fmt.Errorf("リフレッシュトークンの削除に失敗しました: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れトークンを削除し、削除件数を返す。
// クリーンアップワーカーから定期的に呼ばれる。
func (r *PostgresTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var total int64

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE expires_at <= NOW()`,
	)
	if err != nil {
		return 0, fmt.Errorf("期限切れアクセストークンの削除に失敗しました: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil {
		total += n
	}

	result, err = r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at <= NOW()`,
	)
	if err != nil {
		return 0, fmt.Errorf("期限切れリフレッシュトークンの削除に失敗しました: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil {
		total += n
	}

	return total, nil
}

// compile-time interface check
var _ TokenRepository = (*PostgresTokenRepo)(nil)
