package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamit/internal/comment"
	"github.com/hitoshi/teamit/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	// ListThreads は対象のコメントを2階層ツリーで返す。
	ListThreads(ctx context.Context, target model.CommentTarget, targetID string) ([]comment.Thread, error)
	// Create はコメントを作成する。parentID指定時は返信になる。
	Create(ctx context.Context, target model.CommentTarget, targetID string, parentID *string, authorID, authorName, content string) (*model.Comment, error)
	// Update はコメント投稿者本人による本文更新を行う。
	Update(ctx context.Context, commentID, userID, content string) error
	// Delete はコメント投稿者本人による削除を行う。
	Delete(ctx context.Context, commentID, userID string) error
}

// CommentHandler はコメントのHTTPハンドラー。
// 掲示板投稿とプロジェクトの両方のコメントを扱う。
type CommentHandler struct {
	service  CommentServiceInterface
	resolver UserNameResolver
	target   model.CommentTarget
}

// NewCommentHandler は指定対象向けのCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface, resolver UserNameResolver, target model.CommentTarget) *CommentHandler {
	return &CommentHandler{service: service, resolver: resolver, target: target}
}

// --- リクエスト・レスポンス型 ---

type commentRequest struct {
	ParentID *string `json:"parentId,omitempty"`
	Content  string  `json:"content"`
}

type commentResponse struct {
	ID         string    `json:"id"`
	ParentID   *string   `json:"parentId,omitempty"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type threadResponse struct {
	commentResponse
	Replies []commentResponse `json:"replies"`
}

// toCommentResponse はドメインのCommentをレスポンス型に変換する。
func toCommentResponse(c model.Comment) commentResponse {
	return commentResponse{
		ID:         c.ID,
		ParentID:   c.ParentID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// toThreadResponses はコメントツリーをレスポンス型に変換する。
func toThreadResponses(threads []comment.Thread) []threadResponse {
	results := make([]threadResponse, len(threads))
	for i, th := range threads {
		replies := make([]commentResponse, len(th.Replies))
		for j, rep := range th.Replies {
			replies[j] = toCommentResponse(rep)
		}
		results[i] = threadResponse{
			commentResponse: toCommentResponse(th.Comment),
			Replies:         replies,
		}
	}
	return results
}

// List は対象のコメントツリーを取得する。
// GET /v1/board/{id}/comments, GET /v1/projects/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")

	threads, err := h.service.ListThreads(r.Context(), h.target, targetID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comments": toThreadResponses(threads),
	})
}

// Create はコメントを投稿する。parentId指定時は返信になる。
// POST /v1/board/{id}/comments, POST /v1/projects/{id}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	targetID := chi.URLParam(r, "id")

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	authorName, err := h.resolver.ResolveName(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), h.target, targetID, req.ParentID, userID, authorName, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(*created))
}

// Update はコメント本文を更新する。投稿者本人のみ許可される。
// PUT /v1/comments/{commentID}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	commentID := chi.URLParam(r, "commentID")

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.service.Update(r.Context(), commentID, userID, req.Content); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete はコメントを削除する。投稿者本人のみ許可される。
// DELETE /v1/comments/{commentID}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	commentID := chi.URLParam(r, "commentID")

	if err := h.service.Delete(r.Context(), commentID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
