// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはbcryptハッシュであり、平文パスワードは保持しない。
type User struct {
	ID           string
	LoginID      string
	PasswordHash string
	Name         string
	Email        string
	Birth        string // YYYY-MM-DD形式
	Position     string
	TechStacks   []string
	PortfolioURL string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken はアクセストークン再発行用のリフレッシュトークンを表す。
type RefreshToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AccessToken はAPI認証用の短命トークンを表す。
type AccessToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
