// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/teamit/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByLoginID はログインIDでユーザーを検索する。見つからない場合はnilを返す。
	FindByLoginID(ctx context.Context, loginID string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はユーザーのプロフィール情報を更新する。
	UpdateProfile(ctx context.Context, user *model.User) error
}

// TokenRepository はアクセス・リフレッシュトークンの永続化インターフェース。
type TokenRepository interface {
	// CreateAccess はアクセストークンを作成する。
	CreateAccess(ctx context.Context, token *model.AccessToken) error
	// FindAccessByID は指定IDのアクセストークンを取得する。
	// 期限切れまたは不在の場合はnilを返す。
	FindAccessByID(ctx context.Context, id string) (*model.AccessToken, error)
	// CreateRefresh はリフレッシュトークンを作成する。
	CreateRefresh(ctx context.Context, token *model.RefreshToken) error
	// FindRefreshByID は指定IDのリフレッシュトークンを取得する。
	// 期限切れまたは不在の場合はnilを返す。
	FindRefreshByID(ctx context.Context, id string) (*model.RefreshToken, error)
	// DeleteRefreshByID は指定IDのリフレッシュトークンを削除する。
	DeleteRefreshByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全トークンを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// PostRepository は掲示板投稿の永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの投稿を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Post, error)

	// List はカテゴリでフィルタした投稿一覧をcreated_at降順で返す。
	// categoryが空の場合は全カテゴリを対象とする。
	// offset/limitページネーションを使用し、総件数も返す。
	List(ctx context.Context, category model.PostCategory, offset, limit int) ([]model.Post, int, error)

	// ListByAuthor は指定ユーザーが作成した投稿一覧をcreated_at降順で返す。
	ListByAuthor(ctx context.Context, authorID string) ([]model.Post, error)

	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// Update は投稿のタイトル・本文・カテゴリを更新する。
	Update(ctx context.Context, post *model.Post) error

	// DeleteByID は指定IDの投稿を削除する。関連コメント・スクラップはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// IncrementViews は投稿の閲覧数を1増やす。
	IncrementViews(ctx context.Context, id string) error
}

// CommentRepository はコメントの永続化インターフェース。
// 掲示板投稿とプロジェクトの両方のコメントを対象とする。
type CommentRepository interface {
	// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Comment, error)

	// ListByTarget は指定対象のコメントをcreated_at昇順のフラットなリストで返す。
	// ツリー構築は呼び出し側（comment.BuildTree）が行う。
	ListByTarget(ctx context.Context, target model.CommentTarget, targetID string) ([]model.Comment, error)

	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// UpdateContent はコメント本文を更新する。
	UpdateContent(ctx context.Context, id, content string) error

	// DeleteByID は指定IDのコメントを削除する。
	// ルートコメントの削除では、そのルートに付く返信もCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// ProjectRepository はプロジェクトの永続化インターフェース。
type ProjectRepository interface {
	// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Project, error)

	// ListAll は全プロジェクトをcreated_at降順で返す。
	// フィルタ・検索・ページネーションはメモリ上でsearch.Engineが行う。
	ListAll(ctx context.Context) ([]model.Project, error)

	// Create はプロジェクトを作成する。
	Create(ctx context.Context, project *model.Project) error

	// ListMembers はプロジェクトの参加メンバー一覧をjoined_at昇順で返す。
	ListMembers(ctx context.Context, projectID string) ([]model.ProjectMember, error)

	// ListMilestones はプロジェクトのマイルストーン一覧をdue_date昇順で返す。
	ListMilestones(ctx context.Context, projectID string) ([]model.Milestone, error)

	// IncrementViews はプロジェクトの閲覧数を1増やす。
	IncrementViews(ctx context.Context, id string) error

	// CloseExpired は募集締切日を過ぎた募集中プロジェクトをclosedへ遷移させ、
	// 遷移した件数を返す。冪等。
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}

// ApplicationRepository はプロジェクト応募の永続化インターフェース。
type ApplicationRepository interface {
	// FindByProjectAndUser はプロジェクトIDとユーザーIDで応募を検索する。
	// 見つからない場合はnilを返す。
	FindByProjectAndUser(ctx context.Context, projectID, userID string) (*model.Application, error)

	// Create は応募を作成する。
	Create(ctx context.Context, app *model.Application) error
}

// ScrapRepository はスクラップ（投稿ブックマーク）の永続化インターフェース。
// 同一ユーザー・同一投稿のスクラップは高々1件（UNIQUE制約で保証）。
type ScrapRepository interface {
	// FindByUserAndPost はユーザーIDと投稿IDでスクラップを検索する。
	// 見つからない場合はnilを返す。
	FindByUserAndPost(ctx context.Context, userID, postID string) (*model.Scrap, error)

	// ListByUser はユーザーのスクラップ一覧をscraped_at降順で返す。
	ListByUser(ctx context.Context, userID string) ([]model.Scrap, error)

	// Create はスクラップを作成する。
	Create(ctx context.Context, scrap *model.Scrap) error

	// DeleteByUserAndPost は指定ユーザー・投稿のスクラップを削除する。
	DeleteByUserAndPost(ctx context.Context, userID, postID string) error

	// DeleteByUserID はユーザーの全スクラップを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
