package comment

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

// Service はコメントのCRUDとツリー取得のサービス層。
// 掲示板コメントとプロジェクトコメントを同一のロジックで扱う。
type Service struct {
	commentRepo repository.CommentRepository
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(commentRepo repository.CommentRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		commentRepo: commentRepo,
		sanitizer:   sanitizer,
	}
}

// ListThreads は指定対象のコメントを2階層ツリーで返す。
func (s *Service) ListThreads(ctx context.Context, target model.CommentTarget, targetID string) ([]Thread, error) {
	comments, err := s.commentRepo.ListByTarget(ctx, target, targetID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return BuildTree(comments), nil
}

// Create はコメントを作成する。本文はサニタイズされる。
// parentIDが指定された場合、親が返信であればその親のルートIDへ付け替える
// （返信の入れ子は1段のみ）。親が存在しない場合はエラーを返す。
func (s *Service) Create(
	ctx context.Context,
	target model.CommentTarget,
	targetID string,
	parentID *string,
	authorID, authorName, content string,
) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, model.NewValidationFailedError("コメント本文が空です")
	}

	rootID := parentID
	if parentID != nil {
		parent, err := s.commentRepo.FindByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("親コメントの取得に失敗しました: %w", err)
		}
		if parent == nil || parent.Target != target || parent.TargetID != targetID {
			return nil, model.NewCommentNotFoundError(*parentID)
		}
		// 返信への返信はルートコメント直下へ付け替える
		if parent.ParentID != nil {
			rootID = parent.ParentID
		}
	}

	now := time.Now()
	c := &model.Comment{
		ID:         uuid.New().String(),
		Target:     target,
		TargetID:   targetID,
		ParentID:   rootID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Content:    s.sanitizer.Sanitize(content),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}
	return c, nil
}

// Update はコメント本文を更新する。作成者のみ実行できる。
func (s *Service) Update(ctx context.Context, commentID, userID, content string) error {
	c, err := s.findOwned(ctx, commentID, userID)
	if err != nil {
		return err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return model.NewValidationFailedError("コメント本文が空です")
	}

	if err := s.commentRepo.UpdateContent(ctx, c.ID, s.sanitizer.Sanitize(content)); err != nil {
		return fmt.Errorf("コメントの更新に失敗しました: %w", err)
	}
	return nil
}

// Delete はコメントを削除する。作成者のみ実行できる。
// ルートコメントの削除では返信もまとめて削除される。
func (s *Service) Delete(ctx context.Context, commentID, userID string) error {
	c, err := s.findOwned(ctx, commentID, userID)
	if err != nil {
		return err
	}

	if err := s.commentRepo.DeleteByID(ctx, c.ID); err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	return nil
}

// findOwned はコメントを取得し、作成者がuserIDであることを確認する。
func (s *Service) findOwned(ctx context.Context, commentID, userID string) (*model.Comment, error) {
	c, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCommentNotFoundError(commentID)
	}
	if c.AuthorID != userID {
		return nil, model.NewNotAuthorError()
	}
	return c, nil
}
