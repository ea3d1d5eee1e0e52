package scrap

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/teamit/internal/model"
	"github.com/hitoshi/teamit/internal/repository"
)

// Service はスクラップの追加・解除・一覧・全削除を提供するサービス層。
//
// すべての変更操作はリポジトリへの書き込み後にキャッシュを
// 再構築してから戻る。変更とキャッシュ更新が常に一体で行われるため、
// 呼び出し側から見てキャッシュが古い瞬間は存在しない。
type Service struct {
	scrapRepo repository.ScrapRepository
	postRepo  repository.PostRepository
	cache     *Cache
}

// NewService はServiceを生成する。
func NewService(scrapRepo repository.ScrapRepository, postRepo repository.PostRepository, cache *Cache) *Service {
	return &Service{
		scrapRepo: scrapRepo,
		postRepo:  postRepo,
		cache:     cache,
	}
}

// Add は投稿をスクラップする。スクラップ時点の投稿スナップショットを保存する。
// 同一投稿の二重スクラップはエラーになる。
func (s *Service) Add(ctx context.Context, userID, postID string) (*model.Scrap, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewPostNotFoundError(postID)
	}

	existing, err := s.scrapRepo.FindByUserAndPost(ctx, userID, postID)
	if err != nil {
		return nil, fmt.Errorf("スクラップの確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewAlreadyScrappedError()
	}

	scrap := &model.Scrap{
		ID:        uuid.New().String(),
		UserID:    userID,
		PostID:    post.ID,
		Title:     post.Title,
		Author:    post.AuthorName,
		Content:   post.Content,
		Category:  post.Category,
		PostedAt:  post.CreatedAt,
		Views:     post.Views,
		ScrapedAt: time.Now(),
	}

	if err := s.scrapRepo.Create(ctx, scrap); err != nil {
		return nil, fmt.Errorf("スクラップの作成に失敗しました: %w", err)
	}

	if err := s.rebuildCache(ctx, userID); err != nil {
		return nil, err
	}
	return scrap, nil
}

// Remove は投稿のスクラップを解除する。スクラップされていない投稿はエラーになる。
func (s *Service) Remove(ctx context.Context, userID, postID string) error {
	existing, err := s.scrapRepo.FindByUserAndPost(ctx, userID, postID)
	if err != nil {
		return fmt.Errorf("スクラップの確認に失敗しました: %w", err)
	}
	if existing == nil {
		return model.NewScrapNotFoundError(postID)
	}

	if err := s.scrapRepo.DeleteByUserAndPost(ctx, userID, postID); err != nil {
		return fmt.Errorf("スクラップの解除に失敗しました: %w", err)
	}

	return s.rebuildCache(ctx, userID)
}

// List はユーザーのスクラップ一覧をスクラップ日時の降順で返す。
// 取得結果でキャッシュも更新される。
func (s *Service) List(ctx context.Context, userID string) ([]model.Scrap, error) {
	scraps, err := s.scrapRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("スクラップ一覧の取得に失敗しました: %w", err)
	}

	postIDs := make([]string, len(scraps))
	for i, sc := range scraps {
		postIDs[i] = sc.PostID
	}
	s.cache.Replace(userID, postIDs)

	return scraps, nil
}

// ClearAll はユーザーの全スクラップを削除する。
func (s *Service) ClearAll(ctx context.Context, userID string) error {
	if err := s.scrapRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("スクラップの全削除に失敗しました: %w", err)
	}
	s.cache.Replace(userID, nil)
	return nil
}

// IsScraped は投稿がスクラップ済みかを返す。
// キャッシュ未構築の場合はリポジトリから再構築して判定する。
func (s *Service) IsScraped(ctx context.Context, userID, postID string) (bool, error) {
	if scraped, cached := s.cache.Contains(userID, postID); cached {
		return scraped, nil
	}

	if err := s.rebuildCache(ctx, userID); err != nil {
		return false, err
	}
	scraped, _ := s.cache.Contains(userID, postID)
	return scraped, nil
}

// rebuildCache はリポジトリの現在の状態でキャッシュを置き換える。
func (s *Service) rebuildCache(ctx context.Context, userID string) error {
	scraps, err := s.scrapRepo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("スクラップキャッシュの再構築に失敗しました: %w", err)
	}

	postIDs := make([]string, len(scraps))
	for i, sc := range scraps {
		postIDs[i] = sc.PostID
	}
	s.cache.Replace(userID, postIDs)
	return nil
}
