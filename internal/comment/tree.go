// Package comment はコメントの管理機能とコメントツリーの構築を提供する。
//
// コメントはAPIからフラットな配列として取得され、表示時に
// ルートコメントと返信の2階層ツリーへ再構築される。
// この変換は掲示板コメントとプロジェクトコメントで完全に共通。
package comment

import "github.com/hitoshi/teamit/internal/model"

// Thread はルートコメント1件とそれに付く返信のリスト。
type Thread struct {
	model.Comment
	Replies []model.Comment
}

// BuildTree はフラットなコメントリストを2階層ツリーへ変換する。
//
// 1パス目でルート（ParentIDがnil）と、親ID→返信リストのグループ分けを行い、
// 2パス目で各ルートへ返信グループを取り付ける。O(n)。
// ルートと返信の順序はいずれも入力リストの順序を保持し、再ソートしない。
// 存在しないルートを参照する返信（孤児）は結果に現れない。
func BuildTree(comments []model.Comment) []Thread {
	roots := make([]model.Comment, 0, len(comments))
	repliesByParent := make(map[string][]model.Comment)

	for _, c := range comments {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		repliesByParent[*c.ParentID] = append(repliesByParent[*c.ParentID], c)
	}

	threads := make([]Thread, len(roots))
	for i, root := range roots {
		replies := repliesByParent[root.ID]
		if replies == nil {
			replies = []model.Comment{}
		}
		threads[i] = Thread{Comment: root, Replies: replies}
	}

	return threads
}
