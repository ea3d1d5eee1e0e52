package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/teamit/internal/auth"
	"github.com/hitoshi/teamit/internal/metrics"
	"github.com/hitoshi/teamit/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Signup は新規ユーザーを登録する。
	Signup(ctx context.Context, input auth.SignupInput) (*model.User, error)
	// Login はログインIDとパスワードを検証しトークンペアを発行する。
	Login(ctx context.Context, loginID, password string) (*model.User, *auth.TokenPair, error)
	// Refresh はリフレッシュトークンを回転させ新しいトークンペアを発行する。
	Refresh(ctx context.Context, refreshTokenID string) (*auth.TokenPair, error)
	// Logout はユーザーの全トークンを失効させる。
	Logout(ctx context.Context, userID string) error
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	collector metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, collector metrics.MetricsCollector) *AuthHandler {
	return &AuthHandler{service: service, collector: collector}
}

// --- リクエスト・レスポンス型 ---

type signupRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Birth    string `json:"birth"`
}

type loginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID           string   `json:"id"`
	LoginID      string   `json:"loginId"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Birth        string   `json:"birth,omitempty"`
	Position     string   `json:"position,omitempty"`
	TechStacks   []string `json:"techStacks"`
	PortfolioURL string   `json:"portfolioUrl,omitempty"`
}

type tokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type loginResponse struct {
	User  userResponse  `json:"user"`
	Token tokenResponse `json:"token"`
}

// toUserResponse はドメインのUserをレスポンス型に変換する。
// パスワードハッシュは含めない。
func toUserResponse(u *model.User) userResponse {
	techStacks := u.TechStacks
	if techStacks == nil {
		techStacks = []string{}
	}
	return userResponse{
		ID:           u.ID,
		LoginID:      u.LoginID,
		Name:         u.Name,
		Email:        u.Email,
		Birth:        u.Birth,
		Position:     u.Position,
		TechStacks:   techStacks,
		PortfolioURL: u.PortfolioURL,
	}
}

// toTokenResponse はトークンペアをレスポンス型に変換する。
func toTokenResponse(pair *auth.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}
}

// Signup は新規ユーザー登録を処理する。
// POST /v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, err := h.service.Signup(r.Context(), auth.SignupInput{
		LoginID:  req.LoginID,
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
		Birth:    req.Birth,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordSignup()
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login はログインを処理する。
// POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, pair, err := h.service.Login(r.Context(), req.LoginID, req.Password)
	if err != nil {
		h.collector.RecordLogin(false)
		handleServiceError(w, err)
		return
	}

	h.collector.RecordLogin(true)
	writeJSON(w, http.StatusOK, loginResponse{
		User:  toUserResponse(user),
		Token: toTokenResponse(pair),
	})
}

// Refresh はトークンの再発行を処理する。
// POST /v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTokenResponse(pair))
}

// Logout はログアウトを処理する。発行済みトークンをすべて失効させる。
// POST /v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
