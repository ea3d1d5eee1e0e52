// Package override はエンティティ単位の部分フィールドパッチを保持するストアを提供する。
//
// 「マイプロジェクト」ダッシュボードの編集は、取得済みのベースレコードへ
// ローカルに保存されたパッチを浅くマージすることで表現される。
// マージは2段階とも浅い: 新しいパッチは既存パッチへ、最終的なパッチは
// ベースレコードへ、いずれも同名フィールドの丸ごと置換として適用される。
// 配列フィールド（members、milestones等）も要素単位ではなく全体置換になる。
package override

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/hitoshi/teamit/internal/kvstore"
)

// overridesKeyPrefix はオーバーライドストアのキー接頭辞。
const overridesKeyPrefix = "my-project-overrides:"

// Patch はエンティティへの部分フィールドパッチ。
type Patch map[string]any

// Store はエンティティIDをキーとするパッチの永続ストア。
// 同一ユーザーへのread-modify-writeを直列化するためミューテックスを持つ。
type Store struct {
	store kvstore.Store
	mu    sync.Mutex
}

// NewStore はStoreを生成する。
func NewStore(store kvstore.Store) *Store {
	return &Store{store: store}
}

// overridesKey はユーザーごとのオーバーライドマップのストアキーを返す。
func overridesKey(userID string) string {
	return overridesKeyPrefix + userID
}

// Get は指定エンティティのパッチを返す。存在しない場合はnil。
func (s *Store) Get(ctx context.Context, userID, entityID string) Patch {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load(ctx, userID)
	p, ok := all[entityID]
	if !ok {
		return nil
	}
	return p
}

// Set は指定エンティティへパッチをマージ保存する。
// 既存パッチがある場合は浅くマージされ、同名フィールドは新しい値で置換される。
func (s *Store) Set(ctx context.Context, userID, entityID string, patch Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load(ctx, userID)

	merged, ok := all[entityID]
	if !ok {
		merged = Patch{}
	}
	for k, v := range patch {
		merged[k] = v
	}
	all[entityID] = merged

	s.persist(ctx, userID, all)
}

// Clear は指定エンティティのパッチを削除し、サーバー取得値への復帰を可能にする。
// パッチが存在しない場合は何もしない。
func (s *Store) Clear(ctx context.Context, userID, entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load(ctx, userID)
	if _, ok := all[entityID]; !ok {
		return
	}
	delete(all, entityID)

	if len(all) == 0 {
		s.store.Remove(ctx, overridesKey(userID))
		return
	}
	s.persist(ctx, userID, all)
}

// Apply はベースレコードへパッチを浅くマージした新しいマップを返す。
// パッチのフィールドはベースの同名フィールドを丸ごと置換する。
// ベースがnilの場合はパッチのみのマップを返す（ベース不在の検証は行わない）。
func Apply(base map[string]any, patch Patch) map[string]any {
	merged := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// load はストアからオーバーライドマップを読み込む。
// キー不在は空マップ、不正JSONはキーをリセットして空マップを返す。
func (s *Store) load(ctx context.Context, userID string) map[string]Patch {
	key := overridesKey(userID)

	raw, ok := s.store.Get(ctx, key)
	if !ok || raw == "" {
		return map[string]Patch{}
	}

	var all map[string]Patch
	if err := json.Unmarshal([]byte(raw), &all); err != nil {
		slog.Warn("override: corrupt override map, resetting",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		s.store.Remove(ctx, key)
		return map[string]Patch{}
	}
	if all == nil {
		all = map[string]Patch{}
	}
	return all
}

// persist はオーバーライドマップをストアへ書き込む。
func (s *Store) persist(ctx context.Context, userID string, all map[string]Patch) {
	data, err := json.Marshal(all)
	if err != nil {
		slog.Error("override: marshal failed", slog.String("error", err.Error()))
		return
	}
	s.store.Set(ctx, overridesKey(userID), string(data))
}
