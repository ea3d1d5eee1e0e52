package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/teamit/internal/model"
)

// PostgresScrapRepo はPostgreSQLを使用したスクラップリポジトリ。
// (user_id, post_id) のUNIQUE制約で同一投稿の二重スクラップを防ぐ。
type PostgresScrapRepo struct {
	db *sql.DB
}

// NewPostgresScrapRepo はPostgresScrapRepoを生成する。
func NewPostgresScrapRepo(db *sql.DB) *PostgresScrapRepo {
	return &PostgresScrapRepo{db: db}
}

const scrapColumns = `id, user_id, post_id, title, author, content, category, posted_at, views, scraped_at`

// FindByUserAndPost はユーザーIDと投稿IDでスクラップを検索する。
// 見つからない場合はnilを返す。
func (r *PostgresScrapRepo) FindByUserAndPost(ctx context.Context, userID, postID string) (*model.Scrap, error) {
	scrap := &model.Scrap{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+scrapColumns+`
		 FROM scraps
		 WHERE user_id = $1 AND post_id = $2`,
		userID, postID,
	).Scan(
		&scrap.ID, &scrap.UserID, &scrap.PostID, &scrap.Title, &scrap.Author,
		&scrap.Content, &scrap.Category, &scrap.PostedAt, &scrap.Views, &scrap.ScrapedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("スクラップの取得に失敗しました: %w", err)
	}
	return scrap, nil
}

// ListByUser はユーザーのスクラップ一覧をscraped_at降順で返す。
func (r *PostgresScrapRepo) ListByUser(ctx context.Context, userID string) ([]model.Scrap, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scrapColumns+`
		 FROM scraps
		 WHERE user_id = $1
		 ORDER BY scraped_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("スクラップ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var scraps []model.Scrap
	for rows.Next() {
		var scrap model.Scrap
		if err := rows.Scan(
			&scrap.ID, &scrap.UserID, &scrap.PostID, &scrap.Title, &scrap.Author,
			&scrap.Content, &scrap.Category, &scrap.PostedAt, &scrap.Views, &scrap.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("スクラップのスキャンに失敗しました: %w", err)
		}
		scraps = append(scraps, scrap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("スクラップ一覧の読み取りに失敗しました: %w", err)
	}
	return scraps, nil
}

// Create はスクラップを作成する。
func (r *PostgresScrapRepo) Create(ctx context.Context, scrap *model.Scrap) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scraps (id, user_id, post_id, title, author, content, category, posted_at, views, scraped_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		scrap.ID, scrap.UserID, scrap.PostID, scrap.Title, scrap.Author,
		scrap.Content, string(scrap.Category), scrap.PostedAt, scrap.Views, scrap.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("スクラップの作成に失敗しました: %w", err)
	}
	return nil
}

// DeleteByUserAndPost は指定ユーザー・投稿のスクラップを削除する。
func (r *PostgresScrapRepo) DeleteByUserAndPost(ctx context.Context, userID, postID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM scraps WHERE user_id = $1 AND post_id = $2`,
		userID, postID,
	)
	if err != nil {
		return fmt.Errorf("スクラップの削除に失敗しました: %w", err)
	}
	return nil
}

// DeleteByUserID はユーザーの全スクラップを削除する。
func (r *PostgresScrapRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM scraps WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("スクラップの全削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ScrapRepository = (*PostgresScrapRepo)(nil)
