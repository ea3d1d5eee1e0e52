package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/teamit/internal/model"
)

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

// FindByProjectAndUser はプロジェクトIDとユーザーIDで応募を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByProjectAndUser(ctx context.Context, projectID, userID string) (*model.Application, error) {
	app := &model.Application{}
	var position, message sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, user_id, position, message, created_at
		 FROM applications
		 WHERE project_id = $1 AND user_id = $2`,
		projectID, userID,
	).Scan(&app.ID, &app.ProjectID, &app.UserID, &position, &message, &app.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}

	app.Position = position.String
	app.Message = message.String
	return app, nil
}

// Create は応募を作成する。
func (r *PostgresApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, project_id, user_id, position, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		app.ID, app.ProjectID, app.UserID,
		nullIfEmpty(app.Position), nullIfEmpty(app.Message), app.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("応募の作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
