package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/teamit/internal/model"
)

// mockUserRepo はUserRepositoryのテスト用モック。
type mockUserRepo struct {
	findByIDFn      func(ctx context.Context, id string) (*model.User, error)
	findByLoginIDFn func(ctx context.Context, loginID string) (*model.User, error)
	createFn        func(ctx context.Context, user *model.User) error
	updateProfileFn func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByLoginID(ctx context.Context, loginID string) (*model.User, error) {
	if m.findByLoginIDFn != nil {
		return m.findByLoginIDFn(ctx, loginID)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, user)
	}
	return nil
}

// fakeTokenRepo はTokenRepositoryのインメモリ実装。
// トークンローテーションの一連の流れを検証するため状態を持つ。
type fakeTokenRepo struct {
	access  map[string]model.AccessToken
	refresh map[string]model.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		access:  make(map[string]model.AccessToken),
		refresh: make(map[string]model.RefreshToken),
	}
}

func (f *fakeTokenRepo) CreateAccess(ctx context.Context, token *model.AccessToken) error {
	f.access[token.ID] = *token
	return nil
}

func (f *fakeTokenRepo) FindAccessByID(ctx context.Context, id string) (*model.AccessToken, error) {
	t, ok := f.access[id]
	if !ok || t.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeTokenRepo) CreateRefresh(ctx context.Context, token *model.RefreshToken) error {
	f.refresh[token.ID] = *token
	return nil
}

func (f *fakeTokenRepo) FindRefreshByID(ctx context.Context, id string) (*model.RefreshToken, error) {
	t, ok := f.refresh[id]
	if !ok || t.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeTokenRepo) DeleteRefreshByID(ctx context.Context, id string) error {
	delete(f.refresh, id)
	return nil
}

func (f *fakeTokenRepo) DeleteByUserID(ctx context.Context, userID string) error {
	for id, t := range f.access {
		if t.UserID == userID {
			delete(f.access, id)
		}
	}
	for id, t := range f.refresh {
		if t.UserID == userID {
			delete(f.refresh, id)
		}
	}
	return nil
}

func testConfig() ServiceConfig {
	return ServiceConfig{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 14 * 24 * time.Hour,
	}
}

func validSignup() SignupInput {
	return SignupInput{
		LoginID:  "tanaka_01",
		Password: "secret-password",
		Name:     "田中",
		Email:    "tanaka@example.com",
		Birth:    "2000-04-01",
	}
}

// 会員登録でパスワードがbcryptハッシュとして保存されることを検証する。
func TestService_Signup(t *testing.T) {
	var created *model.User
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			created = u
			return nil
		},
	}
	svc := NewService(userRepo, newFakeTokenRepo(), testConfig())

	user, err := svc.Signup(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected user to be created")
	}
	if user.PasswordHash == "secret-password" || user.PasswordHash == "" {
		t.Error("expected password to be stored as bcrypt hash")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-password")); err != nil {
		t.Errorf("expected hash to verify against original password: %v", err)
	}
}

// ログインIDの重複登録がエラーになることを検証する。
func TestService_Signup_DuplicateLoginID(t *testing.T) {
	userRepo := &mockUserRepo{
		findByLoginIDFn: func(ctx context.Context, loginID string) (*model.User, error) {
			return &model.User{ID: "existing"}, nil
		},
	}
	svc := NewService(userRepo, newFakeTokenRepo(), testConfig())

	_, err := svc.Signup(context.Background(), validSignup())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateLoginID {
		t.Errorf("expected duplicate login ID error, got %v", err)
	}
}

// 不正な登録入力がバリデーションエラーになることを検証する。
func TestService_Signup_Validation(t *testing.T) {
	svc := NewService(&mockUserRepo{}, newFakeTokenRepo(), testConfig())

	tests := []struct {
		name   string
		modify func(*SignupInput)
	}{
		{"短すぎるID", func(in *SignupInput) { in.LoginID = "ab" }},
		{"記号入りID", func(in *SignupInput) { in.LoginID = "tanaka@01" }},
		{"短すぎるパスワード", func(in *SignupInput) { in.Password = "short" }},
		{"空の名前", func(in *SignupInput) { in.Name = "  " }},
		{"不正な生年月日", func(in *SignupInput) { in.Birth = "2000/04/01" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validSignup()
			tt.modify(&input)

			_, err := svc.Signup(context.Background(), input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

// ログイン成功でトークンの組が発行され、アクセストークンで認証できることを検証する。
func TestService_Login(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.DefaultCost)
	userRepo := &mockUserRepo{
		findByLoginIDFn: func(ctx context.Context, loginID string) (*model.User, error) {
			return &model.User{ID: "user-1", LoginID: loginID, PasswordHash: string(hash)}, nil
		},
	}
	svc := NewService(userRepo, newFakeTokenRepo(), testConfig())

	user, pair, err := svc.Login(context.Background(), "tanaka_01", "secret-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("expected user-1, got %s", user.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.AccessToken == pair.RefreshToken {
		t.Errorf("expected distinct non-empty tokens, got %+v", pair)
	}

	userID, err := svc.Authenticate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("expected authenticated user-1, got %s", userID)
	}
}

// パスワード誤り・ユーザー不在がともに同一の認証エラーになることを検証する。
func TestService_Login_InvalidCredentials(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.DefaultCost)
	userRepo := &mockUserRepo{
		findByLoginIDFn: func(ctx context.Context, loginID string) (*model.User, error) {
			if loginID == "tanaka_01" {
				return &model.User{ID: "user-1", PasswordHash: string(hash)}, nil
			}
			return nil, nil
		},
	}
	svc := NewService(userRepo, newFakeTokenRepo(), testConfig())

	for _, tt := range []struct{ loginID, password string }{
		{"tanaka_01", "wrong-password"},
		{"unknown_user", "secret-password"},
	} {
		_, _, err := svc.Login(context.Background(), tt.loginID, tt.password)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
			t.Errorf("Login(%s): expected invalid credentials error, got %v", tt.loginID, err)
		}
	}
}

// リフレッシュで新しいトークンの組が発行され、
// 使用済みリフレッシュトークンが無効化されることを検証する（ローテーション）。
func TestService_Refresh_RotatesToken(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.DefaultCost)
	userRepo := &mockUserRepo{
		findByLoginIDFn: func(ctx context.Context, loginID string) (*model.User, error) {
			return &model.User{ID: "user-1", PasswordHash: string(hash)}, nil
		},
	}
	svc := NewService(userRepo, newFakeTokenRepo(), testConfig())

	_, pair, err := svc.Login(context.Background(), "tanaka_01", "secret-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newPair, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newPair.RefreshToken == pair.RefreshToken {
		t.Error("expected a new refresh token after rotation")
	}

	// 使用済みリフレッシュトークンは再利用できない
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidToken {
		t.Errorf("expected invalid token error for reused refresh token, got %v", err)
	}
}

// 不正なリフレッシュトークンがエラーになることを検証する。
func TestService_Refresh_InvalidToken(t *testing.T) {
	svc := NewService(&mockUserRepo{}, newFakeTokenRepo(), testConfig())

	_, err := svc.Refresh(context.Background(), "bogus-token")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidToken {
		t.Errorf("expected invalid token error, got %v", err)
	}
}

// ログアウト後にアクセストークンが無効になることを検証する。
func TestService_Logout_RevokesTokens(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.DefaultCost)
	userRepo := &mockUserRepo{
		findByLoginIDFn: func(ctx context.Context, loginID string) (*model.User, error) {
			return &model.User{ID: "user-1", PasswordHash: string(hash)}, nil
		},
	}
	svc := NewService(userRepo, newFakeTokenRepo(), testConfig())

	_, pair, err := svc.Login(context.Background(), "tanaka_01", "secret-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Logout(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Authenticate(context.Background(), pair.AccessToken)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidToken {
		t.Errorf("expected invalid token error after logout, got %v", err)
	}
}

// 空のアクセストークンでの認証が未認証エラーになることを検証する。
func TestService_Authenticate_Empty(t *testing.T) {
	svc := NewService(&mockUserRepo{}, newFakeTokenRepo(), testConfig())

	_, err := svc.Authenticate(context.Background(), "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Errorf("expected unauthorized error, got %v", err)
	}
}
