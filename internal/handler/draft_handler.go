package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamit/internal/draft"
	"github.com/hitoshi/teamit/internal/metrics"
	"github.com/hitoshi/teamit/internal/model"
)

// DraftRepositoryInterface は名前付き下書きリポジトリのインターフェース。
// 保存系操作は更新後の一覧を返し、ストレージ障害時もエラーを返さない。
type DraftRepositoryInterface interface {
	List(ctx context.Context, userID string) []model.Draft
	Save(ctx context.Context, userID string, d model.Draft) []model.Draft
	DeleteByID(ctx context.Context, userID, draftID string) []model.Draft
	ClearAll(ctx context.Context, userID string)
}

// DraftSlotInterface は作業中フォームの単一スロットキャッシュのインターフェース。
type DraftSlotInterface interface {
	Save(ctx context.Context, userID, title string, data model.DraftData)
	Load(ctx context.Context, userID string) *model.Draft
	Clear(ctx context.Context, userID string)
	Info(ctx context.Context, userID string) *draft.SlotInfo
}

// DraftHandler は募集下書きのHTTPハンドラー。
type DraftHandler struct {
	repo      DraftRepositoryInterface
	slot      DraftSlotInterface
	collector metrics.MetricsCollector
}

// NewDraftHandler はDraftHandlerを生成する。
func NewDraftHandler(repo DraftRepositoryInterface, slot DraftSlotInterface, collector metrics.MetricsCollector) *DraftHandler {
	return &DraftHandler{repo: repo, slot: slot, collector: collector}
}

// --- リクエスト・レスポンス型 ---

type draftSaveRequest struct {
	ID    string          `json:"id,omitempty"`
	Title string          `json:"title"`
	Data  model.DraftData `json:"data"`
}

type slotSaveRequest struct {
	Title string          `json:"title"`
	Data  model.DraftData `json:"data"`
}

type draftListResponse struct {
	Drafts []model.Draft `json:"drafts"`
}

// List は名前付き下書きの一覧を新しい順で取得する。
// GET /v1/drafts
func (h *DraftHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	drafts := h.repo.List(r.Context(), userID)
	if drafts == nil {
		drafts = []model.Draft{}
	}

	writeJSON(w, http.StatusOK, draftListResponse{Drafts: drafts})
}

// Save は下書きを保存する。idが既存の下書きと一致する場合は上書きになる。
// 保存後の一覧を返す。
// POST /v1/drafts
func (h *DraftHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req draftSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	drafts := h.repo.Save(r.Context(), userID, model.Draft{
		ID:    req.ID,
		Title: req.Title,
		Data:  req.Data,
	})
	if drafts == nil {
		drafts = []model.Draft{}
	}

	h.collector.RecordDraftSaved(userID)
	writeJSON(w, http.StatusCreated, draftListResponse{Drafts: drafts})
}

// Delete は指定IDの下書きを削除し、削除後の一覧を返す。
// DELETE /v1/drafts/{draftID}
func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	draftID := chi.URLParam(r, "draftID")

	drafts := h.repo.DeleteByID(r.Context(), userID, draftID)
	if drafts == nil {
		drafts = []model.Draft{}
	}

	writeJSON(w, http.StatusOK, draftListResponse{Drafts: drafts})
}

// ClearAll は全下書きを削除する。
// DELETE /v1/drafts
func (h *DraftHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	h.repo.ClearAll(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}

// SaveSlot は作業中フォームを単一スロットへ上書き保存する。
// PUT /v1/drafts/slot
func (h *DraftHandler) SaveSlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req slotSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	h.slot.Save(r.Context(), userID, req.Title, req.Data)
	h.collector.RecordDraftSaved(userID)
	w.WriteHeader(http.StatusNoContent)
}

// LoadSlot は作業中フォームをスロットから読み込む。
// 読み込みでスロットは消えない。未保存の場合は404を返す。
// GET /v1/drafts/slot
func (h *DraftHandler) LoadSlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	d := h.slot.Load(r.Context(), userID)
	if d == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "DRAFT_NOT_FOUND",
			Message:  "保存された作業中の下書きがありません。",
			Category: "validation",
			Action:   "フォームの入力を保存してから読み込んでください。",
		})
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// SlotInfo はスロットの概要（タイトルと保存日時）を取得する。
// GET /v1/drafts/slot/info
func (h *DraftHandler) SlotInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	info := h.slot.Info(r.Context(), userID)
	if info == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"exists": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"exists":  true,
		"title":   info.Title,
		"savedAt": info.SavedAt,
	})
}

// ClearSlot は作業中フォームのスロットを明示的に破棄する。
// DELETE /v1/drafts/slot
func (h *DraftHandler) ClearSlot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	h.slot.Clear(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}
