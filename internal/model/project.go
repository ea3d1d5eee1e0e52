// Package model はドメインモデルを定義する。
package model

import "time"

// Project はチーム募集プロジェクトを表す。
type Project struct {
	ID               string
	Title            string
	Description      string // サニタイズ済みHTML
	ActivityType     string // "project", "study", "contest" 等
	Positions        []string
	TechStacks       []string
	Location         string
	Region           string
	Progress         string // "idea", "planning", "developing" 等
	Method           string // "online", "offline", "hybrid"
	Status           ProjectStatus
	RecruitEndDate   *time.Time
	ProjectStartDate *time.Time
	ProjectEndDate   *time.Time
	OwnerID          string
	OwnerName        string
	Views            int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProjectStatus はプロジェクトの募集状態を表す。
type ProjectStatus string

const (
	// ProjectStatusRecruiting は募集中の状態。
	ProjectStatusRecruiting ProjectStatus = "recruiting"
	// ProjectStatusClosed は募集終了の状態。
	// 募集締切日を過ぎたプロジェクトはワーカーにより自動的にこの状態へ遷移する。
	ProjectStatusClosed ProjectStatus = "closed"
)

// ProjectMember はプロジェクトの参加メンバーを表す。
type ProjectMember struct {
	ID       string
	UserID   string
	Name     string
	Position string
	JoinedAt time.Time
}

// Milestone はプロジェクトのマイルストーンを表す。
type Milestone struct {
	ID      string
	Title   string
	DueDate *time.Time
	Done    bool
}

// ProjectDetail はプロジェクト詳細をメンバー・マイルストーン付きで表す。
// オーバーライドストアのパッチ適用後の形で返却される。
type ProjectDetail struct {
	Project
	Members    []ProjectMember
	Milestones []Milestone
}

// Application はプロジェクトへの参加応募を表す。
type Application struct {
	ID        string
	ProjectID string
	UserID    string
	Position  string
	Message   string
	CreatedAt time.Time
}
