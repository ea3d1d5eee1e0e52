package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/teamit/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
// 掲示板投稿とプロジェクトのコメントを同一テーブルで管理する。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

const commentColumns = `c.id, c.target, c.target_id, c.parent_id, c.author_id, u.name, c.content, c.created_at, c.updated_at`

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	comment := &model.Comment{}
	var parentID sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+`
		 FROM comments c JOIN users u ON u.id = c.author_id
		 WHERE c.id = $1`,
		id,
	).Scan(
		&comment.ID, &comment.Target, &comment.TargetID, &parentID,
		&comment.AuthorID, &comment.AuthorName, &comment.Content,
		&comment.CreatedAt, &comment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}

	if parentID.Valid {
		comment.ParentID = &parentID.String
	}
	return comment, nil
}

// ListByTarget は指定対象のコメントをcreated_at昇順のフラットなリストで返す。
func (r *PostgresCommentRepo) ListByTarget(ctx context.Context, target model.CommentTarget, targetID string) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+commentColumns+`
		 FROM comments c JOIN users u ON u.id = c.author_id
		 WHERE c.target = $1 AND c.target_id = $2
		 ORDER BY c.created_at ASC`,
		string(target), targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var comment model.Comment
		var parentID sql.NullString
		if err := rows.Scan(
			&comment.ID, &comment.Target, &comment.TargetID, &parentID,
			&comment.AuthorID, &comment.AuthorName, &comment.Content,
			&comment.CreatedAt, &comment.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("コメントのスキャンに失敗しました: %w", err)
		}
		if parentID.Valid {
			comment.ParentID = &parentID.String
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("コメント一覧の読み取りに失敗しました: %w", err)
	}
	return comments, nil
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	var parentID sql.NullString
	if comment.ParentID != nil {
		parentID = sql.NullString{String: *comment.ParentID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, target, target_id, parent_id, author_id, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		comment.ID, string(comment.Target), comment.TargetID, parentID,
		comment.AuthorID, comment.Content, comment.CreatedAt, comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateContent はコメント本文を更新する。
func (r *PostgresCommentRepo) UpdateContent(ctx context.Context, id, content string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`,
		id, content, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("コメントの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("コメントが存在しません: %s", id)
	}
	return nil
}

// DeleteByID は指定IDのコメントを削除する。
// ルートコメントの削除では、そのルートに付く返信もCASCADE削除される。
func (r *PostgresCommentRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM comments WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
