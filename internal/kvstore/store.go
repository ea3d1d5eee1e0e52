// Package kvstore はユーザーごとのクライアント状態（下書き、オーバーライド等）を
// 保持する文字列キーバリューストアを提供する。
//
// ストアは決して失敗しない: バックエンドが利用不能な場合はプロセス内メモリに
// フォールバックし、呼び出し側からは書き込みが成功したように振る舞う。
// フォールバック経路では永続性は保証されない（fail open to memory方針）。
package kvstore

import "context"

// Store は文字列キーバリューストアのインターフェース。
// すべての操作はエラーを返さない。バックエンド障害はアダプタ層で吸収される。
type Store interface {
	// Get は指定キーの値を取得する。キーが存在しない場合はfalseを返す。
	Get(ctx context.Context, key string) (string, bool)
	// Set は指定キーに値を保存する。
	Set(ctx context.Context, key, value string)
	// Remove は指定キーを削除する。存在しないキーの削除は何もしない。
	Remove(ctx context.Context, key string)
}
