// Package draft は募集フォーム下書きの保存・復元機能を提供する。
//
// 下書きには2系統ある:
//   - 名前付き下書きリスト: ユーザーが明示的に保存したスナップショット。最大10件。
//   - 単一スロットの作業中下書き: 固定キーに1件だけ保持される自動保存。
//
// どちらもkvstoreに JSON としてシリアライズされる。
// 読み取り時に不正なJSONを検出した場合はキーをリセットして空として扱い、
// 呼び出し側にエラーを伝播しない（自己修復）。
package draft

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/teamit/internal/kvstore"
	"github.com/hitoshi/teamit/internal/model"
)

// maxDrafts は名前付き下書きリストの最大保持件数。
// 超過分は保存時に古いものから黙って切り捨てられる。
const maxDrafts = 10

// draftsKeyPrefix は名前付き下書きリストのストアキー接頭辞。
const draftsKeyPrefix = "TeamPage:drafts:"

// Repository は名前付き下書きリストのリポジトリ。
// 同一ユーザーに対するread-modify-writeを直列化するためミューテックスを持つ。
type Repository struct {
	store kvstore.Store
	mu    sync.Mutex
}

// NewRepository はRepositoryを生成する。
func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// draftsKey はユーザーごとの下書きリストのストアキーを返す。
func draftsKey(userID string) string {
	return draftsKeyPrefix + userID
}

// List はユーザーの下書き一覧をsavedAt降順で返す。
// 保存内容が不正なJSONの場合はキーをリセットして空リストを返す。
func (r *Repository) List(ctx context.Context, userID string) []model.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx, userID)
}

// Save は下書きをupsertする。
// idが一致する既存エントリは置換、なければ先頭に追加する。
// savedAt降順に整列した上で最大10件に切り詰め、更新後のリストを返す。
func (r *Repository) Save(ctx context.Context, userID string, d model.Draft) []model.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.SavedAt.IsZero() {
		d.SavedAt = time.Now()
	}

	drafts := r.load(ctx, userID)

	replaced := false
	for i := range drafts {
		if drafts[i].ID == d.ID {
			drafts[i] = d
			replaced = true
			break
		}
	}
	if !replaced {
		drafts = append([]model.Draft{d}, drafts...)
	}

	sortBySavedAtDesc(drafts)
	if len(drafts) > maxDrafts {
		drafts = drafts[:maxDrafts]
	}

	r.persist(ctx, userID, drafts)
	return drafts
}

// DeleteByID は指定IDの下書きを削除し、更新後のリストを返す。
// 存在しないIDの削除は何もしない（エラーにならない）。
func (r *Repository) DeleteByID(ctx context.Context, userID, draftID string) []model.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()

	drafts := r.load(ctx, userID)

	kept := drafts[:0]
	for _, d := range drafts {
		if d.ID != draftID {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(drafts) {
		return drafts
	}

	r.persist(ctx, userID, kept)
	return kept
}

// ClearAll はユーザーの下書きリストのキーごと削除する。
func (r *Repository) ClearAll(ctx context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store.Remove(ctx, draftsKey(userID))
}

// load はストアから下書きリストを読み込む。
// キー不在は空リスト、不正JSONはキーをリセットして空リストを返す。
func (r *Repository) load(ctx context.Context, userID string) []model.Draft {
	key := draftsKey(userID)

	raw, ok := r.store.Get(ctx, key)
	if !ok || raw == "" {
		return []model.Draft{}
	}

	drafts, err := ParseDraftList([]byte(raw))
	if err != nil {
		// 破損した保存内容はエラーにせずリセットする
		slog.Warn("draft: corrupt draft list, resetting",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		r.store.Remove(ctx, key)
		return []model.Draft{}
	}

	sortBySavedAtDesc(drafts)
	return drafts
}

// persist は下書きリストをストアへ書き込む。
func (r *Repository) persist(ctx context.Context, userID string, drafts []model.Draft) {
	data, err := json.Marshal(drafts)
	if err != nil {
		// model.Draftは常にマーシャル可能であり、ここには到達しない
		slog.Error("draft: marshal failed", slog.String("error", err.Error()))
		return
	}
	r.store.Set(ctx, draftsKey(userID), string(data))
}

// sortBySavedAtDesc は下書きリストをsavedAt降順に安定ソートする。
func sortBySavedAtDesc(drafts []model.Draft) {
	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].SavedAt.After(drafts[j].SavedAt)
	})
}
