// Package board は掲示板投稿の管理機能を提供する。
package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/teamit/internal/model"
	"github.com/hitoshi/teamit/internal/repository"
	"github.com/hitoshi/teamit/internal/security"
)

// defaultPageSize は掲示板一覧の1ページあたりの件数。
const defaultPageSize = 10

// maxTitleLength はタイトルの最大文字数。
const maxTitleLength = 100

// Service は掲示板投稿のCRUDと「自分の投稿」一覧を提供するサービス層。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(postRepo repository.PostRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
	}
}

// ListResult は投稿一覧の1ページ分。
type ListResult struct {
	Posts      []model.Post
	Total      int
	Page       int
	TotalPages int
}

// List はカテゴリで絞った投稿一覧を新着順で返す。
// categoryが空の場合は全カテゴリを対象とする。
// ページは [1, 総ページ数] へクランプされる。
func (s *Service) List(ctx context.Context, category model.PostCategory, page int) (*ListResult, error) {
	if category != "" && !validCategory(category) {
		return nil, model.NewValidationFailedError(fmt.Sprintf("不明なカテゴリです: %s", category))
	}

	if page < 1 {
		page = 1
	}

	posts, total, err := s.postRepo.List(ctx, category, (page-1)*defaultPageSize, defaultPageSize)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}

	totalPages := (total + defaultPageSize - 1) / defaultPageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
		posts, _, err = s.postRepo.List(ctx, category, (page-1)*defaultPageSize, defaultPageSize)
		if err != nil {
			return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
		}
	}

	return &ListResult{
		Posts:      posts,
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}, nil
}

// Get は投稿の詳細を返し、閲覧数を1増やす。
func (s *Service) Get(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	if err := s.postRepo.IncrementViews(ctx, post.ID); err != nil {
		return nil, fmt.Errorf("閲覧数の更新に失敗しました: %w", err)
	}
	post.Views++

	return post, nil
}

// Create は投稿を作成する。本文はサニタイズされる。
func (s *Service) Create(ctx context.Context, authorID, authorName string, category model.PostCategory, title, content string) (*model.Post, error) {
	if err := validatePost(category, title, content); err != nil {
		return nil, err
	}

	now := time.Now()
	post := &model.Post{
		ID:         uuid.New().String(),
		Category:   category,
		Title:      strings.TrimSpace(title),
		Content:    s.sanitizer.Sanitize(content),
		AuthorID:   authorID,
		AuthorName: authorName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return post, nil
}

// Update は投稿のタイトル・本文・カテゴリを更新する。作成者のみ実行できる。
func (s *Service) Update(ctx context.Context, postID, userID string, category model.PostCategory, title, content string) (*model.Post, error) {
	post, err := s.findOwned(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if err := validatePost(category, title, content); err != nil {
		return nil, err
	}

	post.Category = category
	post.Title = strings.TrimSpace(title)
	post.Content = s.sanitizer.Sanitize(content)
	post.UpdatedAt = time.Now()

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}
	return post, nil
}

// Delete は投稿を削除する。作成者のみ実行できる。
// 関連するコメント・スクラップもまとめて削除される。
func (s *Service) Delete(ctx context.Context, postID, userID string) error {
	post, err := s.findOwned(ctx, postID, userID)
	if err != nil {
		return err
	}

	if err := s.postRepo.DeleteByID(ctx, post.ID); err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	return nil
}

// ListMyPosts はユーザーが作成した投稿一覧を新着順で返す。
func (s *Service) ListMyPosts(ctx context.Context, userID string) ([]model.Post, error) {
	posts, err := s.postRepo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("自分の投稿一覧の取得に失敗しました: %w", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return posts, nil
}

// findOwned は投稿を取得し、作成者がuserIDであることを確認する。
func (s *Service) findOwned(ctx context.Context, postID, userID string) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}
	if post.AuthorID != userID {
		return nil, model.NewNotAuthorError()
	}
	return post, nil
}

// validatePost は投稿フィールドの入力検証を行う。
func validatePost(category model.PostCategory, title, content string) error {
	if !validCategory(category) {
		return model.NewValidationFailedError(fmt.Sprintf("不明なカテゴリです: %s", category))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return model.NewValidationFailedError("タイトルが空です")
	}
	if len([]rune(title)) > maxTitleLength {
		return model.NewValidationFailedError(fmt.Sprintf("タイトルは%d文字以内で入力してください", maxTitleLength))
	}
	if strings.TrimSpace(content) == "" {
		return model.NewValidationFailedError("本文が空です")
	}
	return nil
}

// validCategory はカテゴリが定義済みかを返す。
func validCategory(category model.PostCategory) bool {
	switch category {
	case model.PostCategoryFree, model.PostCategoryQuestion, model.PostCategoryShare:
		return true
	}
	return false
}
