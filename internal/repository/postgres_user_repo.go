package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/teamit/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findBy(ctx, "id", id)
}

// FindByLoginID はログインIDでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByLoginID(ctx context.Context, loginID string) (*model.User, error) {
	return r.findBy(ctx, "login_id", loginID)
}

func (r *PostgresUserRepo) findBy(ctx context.Context, column, value string) (*model.User, error) {
	user := &model.User{}
	var birth, position, portfolioURL sql.NullString

	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(
			`SELECT id, login_id, password_hash, name, email, birth, position,
			        tech_stacks, portfolio_url, created_at, updated_at
			 FROM users WHERE %s = $1`, column),
		value,
	).Scan(
		&user.ID, &user.LoginID, &user.PasswordHash, &user.Name, &user.Email,
		&birth, &position, pq.Array(&user.TechStacks), &portfolioURL,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	user.Birth = birth.String
	user.Position = position.String
	user.PortfolioURL = portfolioURL.String

	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, login_id, password_hash, name, email, birth, position,
		                    tech_stacks, portfolio_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.ID, user.LoginID, user.PasswordHash, user.Name, user.Email,
		nullIfEmpty(user.Birth), nullIfEmpty(user.Position),
		pq.Array(user.TechStacks), nullIfEmpty(user.PortfolioURL),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateProfile はユーザーのプロフィール情報を更新する。
func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET name = $2, position = $3, tech_stacks = $4, portfolio_url = $5, updated_at = $6
		 WHERE id = $1`,
		user.ID, user.Name, nullIfEmpty(user.Position),
		pq.Array(user.TechStacks), nullIfEmpty(user.PortfolioURL), user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ユーザーが存在しません: %s", user.ID)
	}
	return nil
}

// nullIfEmpty は空文字列をNULLとして保存するための変換。
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
