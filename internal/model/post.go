// Package model はドメインモデルを定義する。
package model

import "time"

// Post は掲示板の投稿を表す。
type Post struct {
	ID         string
	Category   PostCategory
	Title      string
	Content    string // サニタイズ済みHTML
	AuthorID   string
	AuthorName string
	Views      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PostCategory は掲示板投稿のカテゴリを表す。
type PostCategory string

const (
	// PostCategoryFree は自由掲示板カテゴリ。
	PostCategoryFree PostCategory = "free"
	// PostCategoryQuestion は質問カテゴリ。
	PostCategoryQuestion PostCategory = "question"
	// PostCategoryShare は情報共有カテゴリ。
	PostCategoryShare PostCategory = "share"
)

// Scrap はユーザーによる投稿のスクラップ（ブックマーク）を表す。
// スクラップ時点の投稿スナップショットを保持する。
type Scrap struct {
	ID        string
	UserID    string
	PostID    string
	Title     string
	Author    string
	Content   string
	Category  PostCategory
	PostedAt  time.Time
	Views     int
	ScrapedAt time.Time
}
