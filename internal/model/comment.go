// Package model はドメインモデルを定義する。
package model

import "time"

// CommentTarget はコメントの対象種別を表す。
// 掲示板投稿とプロジェクトの両方に同一構造のコメントが付く。
type CommentTarget string

const (
	// CommentTargetBoard は掲示板投稿へのコメント。
	CommentTargetBoard CommentTarget = "board"
	// CommentTargetProject はプロジェクトへのコメント。
	CommentTargetProject CommentTarget = "project"
)

// Comment は投稿またはプロジェクトへのコメントを表す。
// ParentIDがnilのコメントはルートコメント、非nilは返信。
// 返信の入れ子は1段のみで、ParentIDは常にルートコメントのIDを指す。
type Comment struct {
	ID         string
	Target     CommentTarget
	TargetID   string
	ParentID   *string
	AuthorID   string
	AuthorName string
	Content    string // サニタイズ済み
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
