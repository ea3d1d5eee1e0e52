package search

import (
	"sync"

	"github.com/hitoshi/teamit/internal/model"
)

// pageSize は1ページあたりの表示件数。
const pageSize = 12

// Result は絞り込み結果の1ページ分。
type Result struct {
	Items      []model.Project
	Total      int // 絞り込み後の総件数
	Page       int // クランプ後の現在ページ（1始まり）
	TotalPages int
}

// Engine はフィルタ・検索・ページネーションの状態を持つ検索エンジン。
// セッション単位で生成され、モジュールレベルの共有状態を持たない。
//
// フィルタは「編集中」と「適用済み」の2状態を持ち、絞り込みには
// 適用済み状態のみが使われる。編集中の状態はApplyFiltersで昇格する。
type Engine struct {
	mu      sync.Mutex
	draft   FilterState
	applied FilterState
	query   string
	page    int
}

// NewEngine はEngineを生成する。初期状態は制約なし・1ページ目。
func NewEngine() *Engine {
	return &Engine{page: 1}
}

// Draft は編集中のフィルタ状態のコピーを返す。
func (e *Engine) Draft() FilterState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// SetDraft は編集中のフィルタ状態を差し替える。
// 適用済み状態と表示結果には影響しない。
func (e *Engine) SetDraft(state FilterState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = state
}

// ApplyFilters は編集中のフィルタ状態を適用済み状態へ昇格し、
// ページを1へリセットする。
func (e *Engine) ApplyFilters() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applied = e.draft
	e.page = 1
}

// ResetFilters は編集中・適用済みの両状態を初期値に戻し、
// ページを1へリセットする。検索クエリは維持される。
func (e *Engine) ResetFilters() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = FilterState{}
	e.applied = FilterState{}
	e.page = 1
}

// SetSearch はフリーテキスト検索クエリを設定し、ページを1へリセットする。
func (e *Engine) SetSearch(query string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.query = query
	e.page = 1
}

// SetPage は現在ページを設定する。クランプはQuery時に行われる。
func (e *Engine) SetPage(page int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.page = page
}

// Query はプロジェクト一覧へ適用済みフィルタと検索を適用し、
// 現在ページの結果を返す。
// ページは [1, ceil(総件数/ページサイズ)] へクランプされる。
// 絞り込み結果が0件の場合はページ1・空リストを返す。
func (e *Engine) Query(projects []model.Project) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	filtered := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if e.applied.Matches(p) && matchesSearch(e.query, p) {
			filtered = append(filtered, p)
		}
	}

	total := len(filtered)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	page := e.page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	e.page = page

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Result{
		Items:      filtered[start:end],
		Total:      total,
		Page:       page,
		TotalPages: totalPages,
	}
}
