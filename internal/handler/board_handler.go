package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamit/internal/board"
	"github.com/hitoshi/teamit/internal/model"
)

// BoardServiceInterface は掲示板ハンドラーが必要とするサービスインターフェース。
type BoardServiceInterface interface {
	// List はカテゴリで絞った投稿一覧をページネーション付きで返す。
	List(ctx context.Context, category model.PostCategory, page int) (*board.ListResult, error)
	// Get は投稿詳細を返し、閲覧数を加算する。
	Get(ctx context.Context, postID string) (*model.Post, error)
	// Create は新規投稿を作成する。
	Create(ctx context.Context, authorID, authorName string, category model.PostCategory, title, content string) (*model.Post, error)
	// Update は投稿者本人による投稿更新を行う。
	Update(ctx context.Context, postID, userID string, category model.PostCategory, title, content string) (*model.Post, error)
	// Delete は投稿者本人による投稿削除を行う。
	Delete(ctx context.Context, postID, userID string) error
	// ListMyPosts はユーザー自身の投稿一覧を返す。
	ListMyPosts(ctx context.Context, userID string) ([]model.Post, error)
}

// UserNameResolver はユーザーIDから表示名を解決するインターフェース。
type UserNameResolver interface {
	ResolveName(ctx context.Context, userID string) (string, error)
}

// BoardHandler は掲示板のHTTPハンドラー。
type BoardHandler struct {
	service  BoardServiceInterface
	resolver UserNameResolver
}

// NewBoardHandler はBoardHandlerを生成する。
func NewBoardHandler(service BoardServiceInterface, resolver UserNameResolver) *BoardHandler {
	return &BoardHandler{service: service, resolver: resolver}
}

// --- リクエスト・レスポンス型 ---

type postRequest struct {
	Category string `json:"category"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

type postResponse struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Views      int       `json:"views"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type postListResponse struct {
	Posts      []postResponse `json:"posts"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

// toPostResponse はドメインのPostをレスポンス型に変換する。
func toPostResponse(p model.Post) postResponse {
	return postResponse{
		ID:         p.ID,
		Category:   string(p.Category),
		Title:      p.Title,
		Content:    p.Content,
		AuthorID:   p.AuthorID,
		AuthorName: p.AuthorName,
		Views:      p.Views,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toPostResponses(posts []model.Post) []postResponse {
	results := make([]postResponse, len(posts))
	for i, p := range posts {
		results[i] = toPostResponse(p)
	}
	return results
}

// List は掲示板の投稿一覧を取得する。
// GET /v1/board?category=free|question|share&page=N
func (h *BoardHandler) List(w http.ResponseWriter, r *http.Request) {
	category := model.PostCategory(r.URL.Query().Get("category"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	result, err := h.service.List(r.Context(), category, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, postListResponse{
		Posts:      toPostResponses(result.Posts),
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	})
}

// Get は投稿詳細を取得する。閲覧数を加算する。
// GET /v1/board/{id}
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")

	post, err := h.service.Get(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if post == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(postID))
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(*post))
}

// Create は新規投稿を作成する。
// POST /v1/board
func (h *BoardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	authorName, err := h.resolver.ResolveName(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	post, err := h.service.Create(r.Context(), userID, authorName, model.PostCategory(req.Category), req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(*post))
}

// Update は投稿を更新する。投稿者本人のみ許可される。
// PUT /v1/board/{id}
func (h *BoardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	post, err := h.service.Update(r.Context(), postID, userID, model.PostCategory(req.Category), req.Title, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(*post))
}

// Delete は投稿を削除する。投稿者本人のみ許可される。
// DELETE /v1/board/{id}
func (h *BoardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	postID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), postID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMyPosts は自分の投稿一覧を取得する。
// GET /v1/board/myposts
func (h *BoardHandler) ListMyPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	posts, err := h.service.ListMyPosts(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": toPostResponses(posts),
	})
}
