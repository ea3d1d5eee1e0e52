package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamit/internal/draft"
	"github.com/hitoshi/teamit/internal/kvstore"
	"github.com/hitoshi/teamit/internal/model"
)

// newDraftTestRouter はメモリストア上の実リポジトリで下書きルートを構成する。
func newDraftTestRouter() http.Handler {
	store := kvstore.NewMemoryStore()
	h := NewDraftHandler(draft.NewRepository(store), draft.NewSlotCache(store), nopCollector{})

	r := chi.NewRouter()
	r.Get("/v1/drafts", h.List)
	r.Post("/v1/drafts", h.Save)
	r.Delete("/v1/drafts", h.ClearAll)
	r.Put("/v1/drafts/slot", h.SaveSlot)
	r.Get("/v1/drafts/slot", h.LoadSlot)
	r.Delete("/v1/drafts/slot", h.ClearSlot)
	r.Get("/v1/drafts/slot/info", h.SlotInfo)
	r.Delete("/v1/drafts/{draftID}", h.Delete)
	return r
}

// TestDraftHandler_SaveAndList は保存した下書きが一覧で返ることを検証する。
func TestDraftHandler_SaveAndList(t *testing.T) {
	router := newDraftTestRouter()

	body := `{"title":"Webアプリの募集案","data":{"basicInfo":{},"projectInfo":{},"situation":{},"workEnviron":{},"applicantInfo":{}}}`
	req := authedRequest(http.MethodPost, "/v1/drafts", "user-1", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("save status = %d, want %d", w.Code, http.StatusCreated)
	}

	var saveResp draftListResponse
	if err := json.NewDecoder(w.Body).Decode(&saveResp); err != nil {
		t.Fatalf("failed to decode save response: %v", err)
	}
	if len(saveResp.Drafts) != 1 || saveResp.Drafts[0].Title != "Webアプリの募集案" {
		t.Fatalf("unexpected save response: %+v", saveResp.Drafts)
	}

	req = authedRequest(http.MethodGet, "/v1/drafts", "user-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var listResp draftListResponse
	json.NewDecoder(w.Body).Decode(&listResp)
	if len(listResp.Drafts) != 1 {
		t.Errorf("len(drafts) = %d, want 1", len(listResp.Drafts))
	}
}

// TestDraftHandler_List_EmptyIsArray は下書きゼロ件で空配列が返ることを検証する。
func TestDraftHandler_List_EmptyIsArray(t *testing.T) {
	router := newDraftTestRouter()

	req := authedRequest(http.MethodGet, "/v1/drafts", "user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), `"drafts":[]`) {
		t.Errorf("expected empty array, got %s", w.Body.String())
	}
}

// TestDraftHandler_Delete_RemovesDraft は指定IDの下書きが削除されることを検証する。
func TestDraftHandler_Delete_RemovesDraft(t *testing.T) {
	router := newDraftTestRouter()

	body := `{"title":"消す下書き","data":{}}`
	req := authedRequest(http.MethodPost, "/v1/drafts", "user-1", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var saveResp draftListResponse
	json.NewDecoder(w.Body).Decode(&saveResp)
	draftID := saveResp.Drafts[0].ID

	req = authedRequest(http.MethodDelete, "/v1/drafts/"+draftID, "user-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusOK)
	}

	var deleteResp draftListResponse
	json.NewDecoder(w.Body).Decode(&deleteResp)
	if len(deleteResp.Drafts) != 0 {
		t.Errorf("len(drafts) = %d, want 0", len(deleteResp.Drafts))
	}
}

// TestDraftHandler_Slot_SaveLoadClear はスロットの保存・読み込み・破棄の一連の流れを検証する。
func TestDraftHandler_Slot_SaveLoadClear(t *testing.T) {
	router := newDraftTestRouter()

	// 未保存の読み込みは404
	req := authedRequest(http.MethodGet, "/v1/drafts/slot", "user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("empty slot load status = %d, want %d", w.Code, http.StatusNotFound)
	}

	// 保存
	body := `{"title":"作業中フォーム","data":{}}`
	req = authedRequest(http.MethodPut, "/v1/drafts/slot", "user-1", strings.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("slot save status = %d, want %d", w.Code, http.StatusNoContent)
	}

	// 読み込み（読み込んでもスロットは消えない）
	for i := 0; i < 2; i++ {
		req = authedRequest(http.MethodGet, "/v1/drafts/slot", "user-1", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("slot load %d status = %d, want %d", i+1, w.Code, http.StatusOK)
		}

		var d model.Draft
		if err := json.NewDecoder(w.Body).Decode(&d); err != nil {
			t.Fatalf("failed to decode slot: %v", err)
		}
		if d.Title != "作業中フォーム" {
			t.Errorf("slot title = %q", d.Title)
		}
	}

	// info
	req = authedRequest(http.MethodGet, "/v1/drafts/slot/info", "user-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var info map[string]any
	json.NewDecoder(w.Body).Decode(&info)
	if info["exists"] != true || info["title"] != "作業中フォーム" {
		t.Errorf("unexpected slot info: %+v", info)
	}

	// 破棄
	req = authedRequest(http.MethodDelete, "/v1/drafts/slot", "user-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("slot clear status = %d, want %d", w.Code, http.StatusNoContent)
	}

	req = authedRequest(http.MethodGet, "/v1/drafts/slot", "user-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("cleared slot load status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// TestDraftHandler_SlotInfo_EmptySlot は未保存スロットのinfoがexists:falseを返すことを検証する。
func TestDraftHandler_SlotInfo_EmptySlot(t *testing.T) {
	router := newDraftTestRouter()

	req := authedRequest(http.MethodGet, "/v1/drafts/slot/info", "user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var info map[string]any
	json.NewDecoder(w.Body).Decode(&info)
	if info["exists"] != false {
		t.Errorf("exists = %v, want false", info["exists"])
	}
}

// TestDraftHandler_ClearAll_RemovesEverything は全削除後に一覧が空になることを検証する。
func TestDraftHandler_ClearAll_RemovesEverything(t *testing.T) {
	router := newDraftTestRouter()

	for _, title := range []string{"下書き1", "下書き2"} {
		body := `{"title":"` + title + `","data":{}}`
		req := authedRequest(http.MethodPost, "/v1/drafts", "user-1", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}

	req := authedRequest(http.MethodDelete, "/v1/drafts", "user-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d, want %d", w.Code, http.StatusNoContent)
	}

	req = authedRequest(http.MethodGet, "/v1/drafts", "user-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var listResp draftListResponse
	json.NewDecoder(w.Body).Decode(&listResp)
	if len(listResp.Drafts) != 0 {
		t.Errorf("len(drafts) = %d, want 0", len(listResp.Drafts))
	}
}
