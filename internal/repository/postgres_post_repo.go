package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/teamit/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した掲示板投稿リポジトリ。
// 一覧クエリは投稿者名をusersテーブルからJOINで取得する。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// postColumns は投稿取得クエリの共通SELECT句。
const postColumns = `p.id, p.category, p.title, p.content, p.author_id, u.name, p.views, p.created_at, p.updated_at`

// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	post := &model.Post{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts p JOIN users u ON u.id = p.author_id
		 WHERE p.id = $1`,
		id,
	).Scan(
		&post.ID, &post.Category, &post.Title, &post.Content,
		&post.AuthorID, &post.AuthorName, &post.Views,
		&post.CreatedAt, &post.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	return post, nil
}

// List はカテゴリでフィルタした投稿一覧をcreated_at降順で返す。
// categoryが空の場合は全カテゴリを対象とする。総件数も返す。
func (r *PostgresPostRepo) List(ctx context.Context, category model.PostCategory, offset, limit int) ([]model.Post, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM posts`
	listQuery := `SELECT ` + postColumns + `
	 FROM posts p JOIN users u ON u.id = p.author_id`

	args := []any{}
	if category != "" {
		countQuery += ` WHERE category = $1`
		listQuery += ` WHERE p.category = $1`
		args = append(args, string(category))
	}

	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("投稿件数の取得に失敗しました: %w", err)
	}

	listQuery += fmt.Sprintf(` ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ListByAuthor は指定ユーザーが作成した投稿一覧をcreated_at降順で返す。
func (r *PostgresPostRepo) ListByAuthor(ctx context.Context, authorID string) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts p JOIN users u ON u.id = p.author_id
		 WHERE p.author_id = $1
		 ORDER BY p.created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("自分の投稿一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// Create は投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, category, title, content, author_id, views, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		post.ID, string(post.Category), post.Title, post.Content,
		post.AuthorID, post.Views, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は投稿のタイトル・本文・カテゴリを更新する。
func (r *PostgresPostRepo) Update(ctx context.Context, post *model.Post) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts
		 SET category = $2, title = $3, content = $4, updated_at = $5
		 WHERE id = $1`,
		post.ID, string(post.Category), post.Title, post.Content, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("投稿が存在しません: %s", post.ID)
	}
	return nil
}

// DeleteByID は指定IDの投稿を削除する。関連コメント・スクラップはCASCADE削除される。
func (r *PostgresPostRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	return nil
}

// IncrementViews は投稿の閲覧数を1増やす。
func (r *PostgresPostRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET views = views + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("閲覧数の更新に失敗しました: %w", err)
	}
	return nil
}

// scanPosts は投稿クエリの結果行をスキャンする。
func scanPosts(rows *sql.Rows) ([]model.Post, error) {
	var posts []model.Post
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(
			&post.ID, &post.Category, &post.Title, &post.Content,
			&post.AuthorID, &post.AuthorName, &post.Views,
			&post.CreatedAt, &post.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("投稿のスキャンに失敗しました: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿一覧の読み取りに失敗しました: %w", err)
	}
	return posts, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
