// Package scrap は投稿のスクラップ（ブックマーク）管理を提供する。
package scrap

import "sync"

// Cache はユーザーごとのスクラップ済み投稿IDを保持するプロセス内キャッシュ。
// 一覧画面での「スクラップ済みか」の即時判定に使う。
//
// キャッシュはService側の変更操作の一部として毎回再構築される。
// 呼び出し側が明示的にリフレッシュする必要はない。
type Cache struct {
	mu  sync.RWMutex
	ids map[string]map[string]struct{} // userID -> postIDの集合
}

// NewCache はCacheを生成する。
func NewCache() *Cache {
	return &Cache{ids: make(map[string]map[string]struct{})}
}

// Replace は指定ユーザーのキャッシュを与えられた投稿ID集合で置き換える。
func (c *Cache) Replace(userID string, postIDs []string) {
	set := make(map[string]struct{}, len(postIDs))
	for _, id := range postIDs {
		set[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[userID] = set
}

// Contains は投稿がキャッシュ上でスクラップ済みかを返す。
// 2番目の戻り値は該当ユーザーのキャッシュが構築済みかどうか。
func (c *Cache) Contains(userID, postID string) (scraped, cached bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set, ok := c.ids[userID]
	if !ok {
		return false, false
	}
	_, scraped = set[postID]
	return scraped, true
}

// Invalidate は指定ユーザーのキャッシュを破棄する。
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ids, userID)
}
