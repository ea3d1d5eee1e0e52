package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamit/internal/model"
	"github.com/hitoshi/teamit/internal/profile"
)

// mockProfileService はProfileServiceInterfaceのモック実装。
type mockProfileService struct {
	getFunc     func(ctx context.Context, userID string) (*model.User, error)
	updateFunc  func(ctx context.Context, userID string, input profile.UpdateInput) (*model.User, error)
	previewFunc func(ctx context.Context, userID string) (*profile.LinkPreview, error)
}

func (m *mockProfileService) Get(ctx context.Context, userID string) (*model.User, error) {
	return m.getFunc(ctx, userID)
}

func (m *mockProfileService) Update(ctx context.Context, userID string, input profile.UpdateInput) (*model.User, error) {
	return m.updateFunc(ctx, userID, input)
}

func (m *mockProfileService) PortfolioPreview(ctx context.Context, userID string) (*profile.LinkPreview, error) {
	return m.previewFunc(ctx, userID)
}

func newUserTestRouter(h *UserHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/users/me", h.Me)
	r.Put("/v1/users/me", h.UpdateMe)
	r.Get("/v1/users/me/portfolio-preview", h.PortfolioPreview)
	return r
}

// TestUserHandler_Me はプロフィール取得でパスワードを含まない情報が返ることを検証する。
func TestUserHandler_Me(t *testing.T) {
	svc := &mockProfileService{
		getFunc: func(ctx context.Context, userID string) (*model.User, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			return &model.User{
				ID:           "user-1",
				LoginID:      "tanaka",
				PasswordHash: "secret-hash",
				Name:         "田中",
				Email:        "tanaka@example.com",
				Position:     "バックエンド",
				TechStacks:   []string{"Go", "PostgreSQL"},
				PortfolioURL: "https://example.com/tanaka",
			}, nil
		},
	}
	router := newUserTestRouter(NewUserHandler(svc))

	req := authedRequest(http.MethodGet, "/v1/users/me", "user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp userResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "user-1" || resp.Name != "田中" || resp.Position != "バックエンド" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if strings.Contains(w.Body.String(), "secret-hash") {
		t.Error("response must not contain password hash")
	}
}

// TestUserHandler_Me_UserNotFound はユーザー未検出で404が返ることを検証する。
func TestUserHandler_Me_UserNotFound(t *testing.T) {
	svc := &mockProfileService{
		getFunc: func(ctx context.Context, userID string) (*model.User, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	router := newUserTestRouter(NewUserHandler(svc))

	req := authedRequest(http.MethodGet, "/v1/users/me", "ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// TestUserHandler_UpdateMe は更新入力がサービスへそのまま渡ることを検証する。
func TestUserHandler_UpdateMe(t *testing.T) {
	var gotInput profile.UpdateInput
	svc := &mockProfileService{
		updateFunc: func(ctx context.Context, userID string, input profile.UpdateInput) (*model.User, error) {
			gotInput = input
			return &model.User{
				ID:           userID,
				Name:         input.Name,
				Position:     input.Position,
				TechStacks:   input.TechStacks,
				PortfolioURL: input.PortfolioURL,
			}, nil
		},
	}
	router := newUserTestRouter(NewUserHandler(svc))

	body := `{"name":"田中太郎","position":"フルスタック","techStacks":["Go","React"],"portfolioUrl":"https://example.com/new"}`
	req := authedRequest(http.MethodPut, "/v1/users/me", "user-1", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	want := profile.UpdateInput{
		Name:         "田中太郎",
		Position:     "フルスタック",
		TechStacks:   []string{"Go", "React"},
		PortfolioURL: "https://example.com/new",
	}
	if !reflect.DeepEqual(gotInput, want) {
		t.Errorf("input = %+v, want %+v", gotInput, want)
	}

	var resp userResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Name != "田中太郎" {
		t.Errorf("name = %q, want 田中太郎", resp.Name)
	}
}

// TestUserHandler_UpdateMe_InvalidBody は不正なボディで400が返ることを検証する。
func TestUserHandler_UpdateMe_InvalidBody(t *testing.T) {
	router := newUserTestRouter(NewUserHandler(&mockProfileService{}))

	req := authedRequest(http.MethodPut, "/v1/users/me", "user-1", strings.NewReader("{invalid"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestUserHandler_UpdateMe_UnsafeURL は危険なポートフォリオURLで400が返ることを検証する。
func TestUserHandler_UpdateMe_UnsafeURL(t *testing.T) {
	svc := &mockProfileService{
		updateFunc: func(ctx context.Context, userID string, input profile.UpdateInput) (*model.User, error) {
			return nil, model.NewInvalidURLError("スキームが不正です")
		},
	}
	router := newUserTestRouter(NewUserHandler(svc))

	body := `{"portfolioUrl":"javascript:alert(1)"}`
	req := authedRequest(http.MethodPut, "/v1/users/me", "user-1", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestUserHandler_PortfolioPreview はリンクプレビューが返ることを検証する。
func TestUserHandler_PortfolioPreview(t *testing.T) {
	svc := &mockProfileService{
		previewFunc: func(ctx context.Context, userID string) (*profile.LinkPreview, error) {
			return &profile.LinkPreview{
				URL:        "https://example.com/tanaka",
				Title:      "田中のポートフォリオ",
				FaviconURL: "https://example.com/favicon.ico",
			}, nil
		},
	}
	router := newUserTestRouter(NewUserHandler(svc))

	req := authedRequest(http.MethodGet, "/v1/users/me/portfolio-preview", "user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp linkPreviewResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.URL != "https://example.com/tanaka" || resp.Title != "田中のポートフォリオ" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

// TestUserHandler_PortfolioPreview_NoURL はURL未設定時に204が返ることを検証する。
func TestUserHandler_PortfolioPreview_NoURL(t *testing.T) {
	svc := &mockProfileService{
		previewFunc: func(ctx context.Context, userID string) (*profile.LinkPreview, error) {
			return nil, nil
		},
	}
	router := newUserTestRouter(NewUserHandler(svc))

	req := authedRequest(http.MethodGet, "/v1/users/me/portfolio-preview", "user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

// TestUserHandler_PortfolioPreview_Blocked は内部ネットワーク宛URLで403が返ることを検証する。
func TestUserHandler_PortfolioPreview_Blocked(t *testing.T) {
	svc := &mockProfileService{
		previewFunc: func(ctx context.Context, userID string) (*profile.LinkPreview, error) {
			return nil, model.NewSSRFBlockedError()
		},
	}
	router := newUserTestRouter(NewUserHandler(svc))

	req := authedRequest(http.MethodGet, "/v1/users/me/portfolio-preview", "user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}
