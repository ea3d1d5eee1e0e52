package draft

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hitoshi/teamit/internal/kvstore"
	"github.com/hitoshi/teamit/internal/model"
)

// slotKeyPrefix は作業中下書き（単一スロット）のストアキー接頭辞。
const slotKeyPrefix = "team_recruit_draft:"

// slotSentinelID は単一スロット下書きの固定ID。
const slotSentinelID = "__current__"

// SlotInfo は作業中下書きのメタ情報。
type SlotInfo struct {
	Title   string    `json:"title"`
	SavedAt time.Time `json:"savedAt"`
}

// SlotCache は作業中のマルチステップ募集フォームを1件だけ保持するキャッシュ。
// 名前付き下書きリスト（Repository）とは独立した固定キーを使用し、
// 保存は常に上書き、読み込みで消えることはない（削除は明示操作のみ）。
type SlotCache struct {
	store kvstore.Store
}

// NewSlotCache はSlotCacheを生成する。
func NewSlotCache(store kvstore.Store) *SlotCache {
	return &SlotCache{store: store}
}

// slotKey はユーザーごとの作業中下書きのストアキーを返す。
func slotKey(userID string) string {
	return slotKeyPrefix + userID
}

// Save は作業中下書きを保存する。既存の内容は常に上書きされる。
func (c *SlotCache) Save(ctx context.Context, userID, title string, data model.DraftData) {
	d := model.Draft{
		ID:      slotSentinelID,
		Title:   title,
		Data:    data,
		SavedAt: time.Now(),
	}

	raw, err := json.Marshal(d)
	if err != nil {
		slog.Error("draft: slot marshal failed", slog.String("error", err.Error()))
		return
	}
	c.store.Set(ctx, slotKey(userID), string(raw))
}

// Load は作業中下書きを取得する。存在しない場合はnilを返す。
// basicInfoとprojectInfoの日付フィールドはISO文字列から日付値へ復元される。
// 欠落したステップは各ステップの型に応じた空値になる。
// 読み込みで下書きが消えることはない。
func (c *SlotCache) Load(ctx context.Context, userID string) *model.Draft {
	raw, ok := c.store.Get(ctx, slotKey(userID))
	if !ok || raw == "" {
		return nil
	}

	d, err := ParseDraft([]byte(raw))
	if err != nil {
		slog.Warn("draft: corrupt slot draft, resetting",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		c.store.Remove(ctx, slotKey(userID))
		return nil
	}
	return &d
}

// Clear は作業中下書きを削除する。
func (c *SlotCache) Clear(ctx context.Context, userID string) {
	c.store.Remove(ctx, slotKey(userID))
}

// Exists は作業中下書きが存在するかを返す。
func (c *SlotCache) Exists(ctx context.Context, userID string) bool {
	return c.Info(ctx, userID) != nil
}

// Info は作業中下書きのタイトルと保存時刻を返す。存在しない場合はnil。
func (c *SlotCache) Info(ctx context.Context, userID string) *SlotInfo {
	d := c.Load(ctx, userID)
	if d == nil {
		return nil
	}
	return &SlotInfo{Title: d.Title, SavedAt: d.SavedAt}
}
