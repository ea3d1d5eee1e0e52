// Package auth は会員登録・ログイン・トークン管理を提供する。
//
// 認証はベアラートークン方式で、短命のアクセストークンと
// 長命のリフレッシュトークンの2種類を発行する。いずれも
// 暗号的に安全な乱数から生成した不透明トークンで、DBで管理する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/teamit/internal/model"
	"github.com/hitoshi/teamit/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	AccessTokenTTL  time.Duration // アクセストークン有効期間
	RefreshTokenTTL time.Duration // リフレッシュトークン有効期間
}

// TokenPair はログイン・リフレッシュで発行されるトークンの組。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // アクセストークンの有効期限
}

// loginIDPattern はログインIDの許容形式（英数字とアンダースコア、4〜20文字）。
var loginIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{4,20}$`)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, config ServiceConfig) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		config:    config,
	}
}

// SignupInput は会員登録の入力。
type SignupInput struct {
	LoginID  string
	Password string
	Name     string
	Email    string
	Birth    string // YYYY-MM-DD形式
}

// Signup は新規ユーザーを登録する。ログインIDの重複はエラーになる。
// パスワードはbcryptでハッシュ化して保存する。
func (s *Service) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	if err := validateSignup(input); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByLoginID(ctx, input.LoginID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateLoginIDError(input.LoginID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		LoginID:      input.LoginID,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		Birth:        input.Birth,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("new user signed up",
		slog.String("user_id", user.ID),
		slog.String("login_id", user.LoginID),
	)
	return user, nil
}

// Login はログインIDとパスワードを検証し、トークンの組を発行する。
// 認証情報の不一致はユーザー不在・パスワード誤りを区別せず同一エラーを返す。
func (s *Service) Login(ctx context.Context, loginID, password string) (*model.User, *TokenPair, error) {
	user, err := s.userRepo.FindByLoginID(ctx, loginID)
	if err != nil {
		return nil, nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	pair, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user, pair, nil
}

// Refresh はリフレッシュトークンを検証し、新しいトークンの組を発行する。
// 使用済みリフレッシュトークンは破棄される（ローテーション）。
func (s *Service) Refresh(ctx context.Context, refreshTokenID string) (*TokenPair, error) {
	token, err := s.tokenRepo.FindRefreshByID(ctx, refreshTokenID)
	if err != nil {
		return nil, fmt.Errorf("リフレッシュトークンの取得に失敗しました: %w", err)
	}
	if token == nil {
		return nil, model.NewInvalidTokenError()
	}

	if err := s.tokenRepo.DeleteRefreshByID(ctx, token.ID); err != nil {
		return nil, fmt.Errorf("リフレッシュトークンの破棄に失敗しました: %w", err)
	}

	return s.issueTokens(ctx, token.UserID)
}

// Logout はユーザーの全トークンを破棄する。
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.tokenRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("トークンの破棄に失敗しました: %w", err)
	}

	slog.Info("user logged out", slog.String("user_id", userID))
	return nil
}

// Authenticate はアクセストークンを検証し、対応するユーザーIDを返す。
// 期限切れ・不在のトークンはエラーになる。
func (s *Service) Authenticate(ctx context.Context, accessTokenID string) (string, error) {
	if accessTokenID == "" {
		return "", model.NewUnauthorizedError()
	}

	token, err := s.tokenRepo.FindAccessByID(ctx, accessTokenID)
	if err != nil {
		return "", fmt.Errorf("アクセストークンの取得に失敗しました: %w", err)
	}
	if token == nil {
		return "", model.NewInvalidTokenError()
	}

	return token.UserID, nil
}

// issueTokens はアクセス・リフレッシュトークンの組を発行し永続化する。
func (s *Service) issueTokens(ctx context.Context, userID string) (*TokenPair, error) {
	accessID, err := generateTokenID()
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの生成に失敗しました: %w", err)
	}
	refreshID, err := generateTokenID()
	if err != nil {
		return nil, fmt.Errorf("リフレッシュトークンの生成に失敗しました: %w", err)
	}

	now := time.Now()
	accessExpiry := now.Add(s.config.AccessTokenTTL)

	if err := s.tokenRepo.CreateAccess(ctx, &model.AccessToken{
		ID:        accessID,
		UserID:    userID,
		ExpiresAt: accessExpiry,
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("アクセストークンの保存に失敗しました: %w", err)
	}

	if err := s.tokenRepo.CreateRefresh(ctx, &model.RefreshToken{
		ID:        refreshID,
		UserID:    userID,
		ExpiresAt: now.Add(s.config.RefreshTokenTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("リフレッシュトークンの保存に失敗しました: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessID,
		RefreshToken: refreshID,
		ExpiresAt:    accessExpiry,
	}, nil
}

// validateSignup は会員登録の入力検証を行う。
func validateSignup(input SignupInput) error {
	if !loginIDPattern.MatchString(input.LoginID) {
		return model.NewValidationFailedError("IDは英数字とアンダースコアで4〜20文字にしてください")
	}
	if len(input.Password) < minPasswordLength {
		return model.NewValidationFailedError(fmt.Sprintf("パスワードは%d文字以上にしてください", minPasswordLength))
	}
	if strings.TrimSpace(input.Name) == "" {
		return model.NewValidationFailedError("名前が空です")
	}
	if input.Birth != "" {
		if _, err := time.Parse("2006-01-02", input.Birth); err != nil {
			return model.NewValidationFailedError("生年月日はYYYY-MM-DD形式で入力してください")
		}
	}
	return nil
}
