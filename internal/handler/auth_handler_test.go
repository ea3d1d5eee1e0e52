package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/teamit/internal/auth"
	"github.com/hitoshi/teamit/internal/model"
)

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	signupFunc  func(ctx context.Context, input auth.SignupInput) (*model.User, error)
	loginFunc   func(ctx context.Context, loginID, password string) (*model.User, *auth.TokenPair, error)
	refreshFunc func(ctx context.Context, refreshTokenID string) (*auth.TokenPair, error)
	logoutFunc  func(ctx context.Context, userID string) error
}

func (m *mockAuthService) Signup(ctx context.Context, input auth.SignupInput) (*model.User, error) {
	return m.signupFunc(ctx, input)
}

func (m *mockAuthService) Login(ctx context.Context, loginID, password string) (*model.User, *auth.TokenPair, error) {
	return m.loginFunc(ctx, loginID, password)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshTokenID string) (*auth.TokenPair, error) {
	return m.refreshFunc(ctx, refreshTokenID)
}

func (m *mockAuthService) Logout(ctx context.Context, userID string) error {
	return m.logoutFunc(ctx, userID)
}

// TestAuthHandler_Signup_Success は新規登録で201とユーザー情報が返ることを検証する。
func TestAuthHandler_Signup_Success(t *testing.T) {
	svc := &mockAuthService{
		signupFunc: func(ctx context.Context, input auth.SignupInput) (*model.User, error) {
			if input.LoginID != "yamada_dev" {
				t.Errorf("loginID = %q, want yamada_dev", input.LoginID)
			}
			return &model.User{
				ID:      "user-1",
				LoginID: input.LoginID,
				Name:    input.Name,
				Email:   input.Email,
			}, nil
		},
	}
	h := NewAuthHandler(svc, nopCollector{})

	body := `{"loginId":"yamada_dev","password":"secret-pass","name":"山田","email":"yamada@example.com","birth":"1998-04-01"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp userResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "user-1" || resp.LoginID != "yamada_dev" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

// TestAuthHandler_Signup_DuplicateLoginID はログインID重複で409が返ることを検証する。
func TestAuthHandler_Signup_DuplicateLoginID(t *testing.T) {
	svc := &mockAuthService{
		signupFunc: func(ctx context.Context, input auth.SignupInput) (*model.User, error) {
			return nil, model.NewDuplicateLoginIDError(input.LoginID)
		},
	}
	h := NewAuthHandler(svc, nopCollector{})

	body := `{"loginId":"taken","password":"secret-pass","name":"n","email":"e@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}

	var resp apiErrorResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Code != model.ErrCodeDuplicateLoginID {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeDuplicateLoginID)
	}
}

// TestAuthHandler_Signup_InvalidBody は不正なJSONで400が返ることを検証する。
func TestAuthHandler_Signup_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nopCollector{})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", strings.NewReader("{invalid"))
	w := httptest.NewRecorder()

	h.Signup(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestAuthHandler_Login_Success はログイン成功でユーザーとトークンが返ることを検証する。
func TestAuthHandler_Login_Success(t *testing.T) {
	expiresAt := time.Now().Add(15 * time.Minute)
	svc := &mockAuthService{
		loginFunc: func(ctx context.Context, loginID, password string) (*model.User, *auth.TokenPair, error) {
			return &model.User{ID: "user-1", LoginID: loginID, Name: "山田"},
				&auth.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresAt: expiresAt},
				nil
		},
	}
	h := NewAuthHandler(svc, nopCollector{})

	body := `{"loginId":"yamada_dev","password":"secret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp loginResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.User.ID != "user-1" {
		t.Errorf("user.id = %q, want user-1", resp.User.ID)
	}
	if resp.Token.AccessToken != "access-1" || resp.Token.RefreshToken != "refresh-1" {
		t.Errorf("unexpected token response: %+v", resp.Token)
	}
}

// TestAuthHandler_Login_InvalidCredentials は認証失敗で401が返ることを検証する。
func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{
		loginFunc: func(ctx context.Context, loginID, password string) (*model.User, *auth.TokenPair, error) {
			return nil, nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc, nopCollector{})

	body := `{"loginId":"yamada_dev","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestAuthHandler_Refresh_RotatesToken はリフレッシュで新しいトークンペアが返ることを検証する。
func TestAuthHandler_Refresh_RotatesToken(t *testing.T) {
	svc := &mockAuthService{
		refreshFunc: func(ctx context.Context, refreshTokenID string) (*auth.TokenPair, error) {
			if refreshTokenID != "refresh-old" {
				t.Errorf("refreshTokenID = %q, want refresh-old", refreshTokenID)
			}
			return &auth.TokenPair{AccessToken: "access-new", RefreshToken: "refresh-new"}, nil
		},
	}
	h := NewAuthHandler(svc, nopCollector{})

	body := `{"refreshToken":"refresh-old"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Refresh(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp tokenResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.AccessToken != "access-new" || resp.RefreshToken != "refresh-new" {
		t.Errorf("unexpected token response: %+v", resp)
	}
}

// TestAuthHandler_Refresh_InvalidToken は無効なリフレッシュトークンで401が返ることを検証する。
func TestAuthHandler_Refresh_InvalidToken(t *testing.T) {
	svc := &mockAuthService{
		refreshFunc: func(ctx context.Context, refreshTokenID string) (*auth.TokenPair, error) {
			return nil, model.NewInvalidTokenError()
		},
	}
	h := NewAuthHandler(svc, nopCollector{})

	body := `{"refreshToken":"stolen"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Refresh(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestAuthHandler_Logout_RevokesTokens はログアウトで204が返ることを検証する。
func TestAuthHandler_Logout_RevokesTokens(t *testing.T) {
	var loggedOut string
	svc := &mockAuthService{
		logoutFunc: func(ctx context.Context, userID string) error {
			loggedOut = userID
			return nil
		},
	}
	h := NewAuthHandler(svc, nopCollector{})

	req := authedRequest(http.MethodPost, "/v1/auth/logout", "user-1", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if loggedOut != "user-1" {
		t.Errorf("logged out user = %q, want user-1", loggedOut)
	}
}

// TestAuthHandler_Logout_Unauthenticated は未認証で401が返ることを検証する。
func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, nopCollector{})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
