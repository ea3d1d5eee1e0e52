// Package profile はマイページのプロフィール管理を提供する。
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/teamit/internal/model"
	"github.com/hitoshi/teamit/internal/repository"
	"github.com/hitoshi/teamit/internal/security"
)

// Service はプロフィールの取得・更新とポートフォリオプレビューを提供するサービス層。
type Service struct {
	userRepo  repository.UserRepository
	ssrfGuard security.SSRFGuardService
	preview   LinkPreviewService
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, ssrfGuard security.SSRFGuardService, preview LinkPreviewService) *Service {
	return &Service{
		userRepo:  userRepo,
		ssrfGuard: ssrfGuard,
		preview:   preview,
	}
}

// Get はユーザーのプロフィールを返す。
func (s *Service) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateInput はプロフィール更新の入力。
type UpdateInput struct {
	Name         string
	Position     string
	TechStacks   []string
	PortfolioURL string
}

// Update はプロフィールを更新する。
// ポートフォリオURLは形式とSSRF安全性を検証してから保存する。
func (s *Service) Update(ctx context.Context, userID string, input UpdateInput) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.NewValidationFailedError("名前が空です")
	}

	portfolioURL := strings.TrimSpace(input.PortfolioURL)
	if portfolioURL != "" {
		if err := s.ssrfGuard.ValidateURL(portfolioURL); err != nil {
			return nil, model.NewInvalidURLError(err.Error())
		}
	}

	user.Name = name
	user.Position = strings.TrimSpace(input.Position)
	user.TechStacks = input.TechStacks
	user.PortfolioURL = portfolioURL
	user.UpdatedAt = time.Now()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	return user, nil
}

// PortfolioPreview はポートフォリオURLのリンクプレビューを返す。
// URL未登録の場合はnilを返す。取得失敗時はURLのみのプレビューになる。
func (s *Service) PortfolioPreview(ctx context.Context, userID string) (*LinkPreview, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PortfolioURL == "" {
		return nil, nil
	}
	return s.preview.Fetch(ctx, user.PortfolioURL), nil
}
