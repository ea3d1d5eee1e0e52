package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/teamit/internal/model"
	"github.com/hitoshi/teamit/internal/profile"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// Get はユーザープロフィールを返す。
	Get(ctx context.Context, userID string) (*model.User, error)
	// Update はプロフィールを更新する。ポートフォリオURLは安全性を検証する。
	Update(ctx context.Context, userID string, input profile.UpdateInput) (*model.User, error)
	// PortfolioPreview はポートフォリオURLのリンクプレビューを返す。
	PortfolioPreview(ctx context.Context, userID string) (*profile.LinkPreview, error)
}

// UserHandler はユーザープロフィールのHTTPハンドラー。
type UserHandler struct {
	service ProfileServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service ProfileServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

type profileUpdateRequest struct {
	Name         string   `json:"name"`
	Position     string   `json:"position"`
	TechStacks   []string `json:"techStacks"`
	PortfolioURL string   `json:"portfolioUrl"`
}

type linkPreviewResponse struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	FaviconURL string `json:"faviconUrl,omitempty"`
}

// Me は自分のプロフィールを取得する。
// GET /v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateMe は自分のプロフィールを更新する。
// PUT /v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, err := h.service.Update(r.Context(), userID, profile.UpdateInput{
		Name:         req.Name,
		Position:     req.Position,
		TechStacks:   req.TechStacks,
		PortfolioURL: req.PortfolioURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// PortfolioPreview はポートフォリオURLのリンクプレビューを取得する。
// URL未設定の場合は204を返す。
// GET /v1/users/me/portfolio-preview
func (h *UserHandler) PortfolioPreview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	preview, err := h.service.PortfolioPreview(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if preview == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, linkPreviewResponse{
		URL:        preview.URL,
		Title:      preview.Title,
		FaviconURL: preview.FaviconURL,
	})
}
