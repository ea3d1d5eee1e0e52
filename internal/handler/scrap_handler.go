package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamit/internal/metrics"
	"github.com/hitoshi/teamit/internal/model"
)

// ScrapServiceInterface はスクラップハンドラーが必要とするサービスインターフェース。
type ScrapServiceInterface interface {
	// Add は投稿をスクラップ帳へ追加する。重複はエラーになる。
	Add(ctx context.Context, userID, postID string) (*model.Scrap, error)
	// Remove は投稿をスクラップ帳から外す。
	Remove(ctx context.Context, userID, postID string) error
	// List はユーザーのスクラップ一覧を新しい順で返す。
	List(ctx context.Context, userID string) ([]model.Scrap, error)
	// ClearAll はユーザーの全スクラップを削除する。
	ClearAll(ctx context.Context, userID string) error
	// IsScraped は投稿がスクラップ済みかを返す。
	IsScraped(ctx context.Context, userID, postID string) (bool, error)
}

// ScrapHandler はスクラップ帳のHTTPハンドラー。
type ScrapHandler struct {
	service   ScrapServiceInterface
	collector metrics.MetricsCollector
}

// NewScrapHandler はScrapHandlerを生成する。
func NewScrapHandler(service ScrapServiceInterface, collector metrics.MetricsCollector) *ScrapHandler {
	return &ScrapHandler{service: service, collector: collector}
}

// --- レスポンス型 ---

type scrapResponse struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	PostedAt  time.Time `json:"postedAt"`
	Views     int       `json:"views"`
	ScrapedAt time.Time `json:"scrapedAt"`
}

// toScrapResponse はドメインのScrapをレスポンス型に変換する。
func toScrapResponse(s model.Scrap) scrapResponse {
	return scrapResponse{
		ID:        s.ID,
		PostID:    s.PostID,
		Title:     s.Title,
		Author:    s.Author,
		Content:   s.Content,
		Category:  string(s.Category),
		PostedAt:  s.PostedAt,
		Views:     s.Views,
		ScrapedAt: s.ScrapedAt,
	}
}

// Add は投稿をスクラップする。
// POST /v1/board/{id}/scrap
func (h *ScrapHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")

	scrap, err := h.service.Add(r.Context(), userID, postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordScrapAction("add")
	writeJSON(w, http.StatusCreated, toScrapResponse(*scrap))
}

// Remove は投稿のスクラップを解除する。
// DELETE /v1/board/{id}/scrap
func (h *ScrapHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")

	if err := h.service.Remove(r.Context(), userID, postID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordScrapAction("remove")
	w.WriteHeader(http.StatusNoContent)
}

// Status は投稿のスクラップ状態を取得する。
// GET /v1/board/{id}/scrap
func (h *ScrapHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")

	scraped, err := h.service.IsScraped(r.Context(), userID, postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"scraped": scraped})
}

// List はスクラップ一覧を取得する。
// GET /v1/board/scrap
func (h *ScrapHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	scraps, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]scrapResponse, len(scraps))
	for i, s := range scraps {
		results[i] = toScrapResponse(s)
	}

	writeJSON(w, http.StatusOK, map[string]any{"scraps": results})
}

// ClearAll は全スクラップを削除する。
// DELETE /v1/board/scrap
func (h *ScrapHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearAll(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordScrapAction("clear")
	w.WriteHeader(http.StatusNoContent)
}
