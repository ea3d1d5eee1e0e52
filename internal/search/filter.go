// Package search はプロジェクト一覧の絞り込み・検索・ページネーションを提供する。
//
// フィルタ条件は独立した基準のAND結合で、複数選択フィールドは
// 選択値間のOR結合（未選択は「制約なし」で全件一致）、
// 日付フィールドはgte/lteの不等式比較になる。
package search

import (
	"strings"
	"time"

	"github.com/hitoshi/teamit/internal/model"
)

// FilterState はフィルタUIの選択状態を表す。
// 「編集中（draft）」と「適用済み（applied）」の2インスタンスが並存し、
// 実際の絞り込みには適用済み状態のみが使われる。
type FilterState struct {
	SelectedActivity   []string
	SelectedPositions  []string
	SelectedTechStacks []string
	SelectedLocations  []string
	SelectedRegion     string
	SelectedProgress   []string
	SelectedMethod     []string

	// RecruitEndDate は募集締切がこの日以降のプロジェクトに絞る（gte）。
	RecruitEndDate *time.Time
	// ProjectStartDate は開始予定がこの日以降のプロジェクトに絞る（gte）。
	ProjectStartDate *time.Time
	// ProjectEndDate は終了予定がこの日以前のプロジェクトに絞る（lte）。
	ProjectEndDate *time.Time
}

// IsEmpty は全フィールドが未選択（制約なし）かどうかを返す。
func (f FilterState) IsEmpty() bool {
	return len(f.SelectedActivity) == 0 &&
		len(f.SelectedPositions) == 0 &&
		len(f.SelectedTechStacks) == 0 &&
		len(f.SelectedLocations) == 0 &&
		f.SelectedRegion == "" &&
		len(f.SelectedProgress) == 0 &&
		len(f.SelectedMethod) == 0 &&
		f.RecruitEndDate == nil &&
		f.ProjectStartDate == nil &&
		f.ProjectEndDate == nil
}

// Matches はプロジェクトがフィルタ条件を満たすかを返す。
// 各基準のANDで、複数選択フィールドは選択値とのORで判定する。
func (f FilterState) Matches(p model.Project) bool {
	if !matchesAny(f.SelectedActivity, p.ActivityType) {
		return false
	}
	if !overlapsAny(f.SelectedPositions, p.Positions) {
		return false
	}
	if !overlapsAny(f.SelectedTechStacks, p.TechStacks) {
		return false
	}
	if !matchesAny(f.SelectedLocations, p.Location) {
		return false
	}
	if f.SelectedRegion != "" && p.Region != f.SelectedRegion {
		return false
	}
	if !matchesAny(f.SelectedProgress, p.Progress) {
		return false
	}
	if !matchesAny(f.SelectedMethod, p.Method) {
		return false
	}

	if f.RecruitEndDate != nil {
		if p.RecruitEndDate == nil || p.RecruitEndDate.Before(*f.RecruitEndDate) {
			return false
		}
	}
	if f.ProjectStartDate != nil {
		if p.ProjectStartDate == nil || p.ProjectStartDate.Before(*f.ProjectStartDate) {
			return false
		}
	}
	if f.ProjectEndDate != nil {
		if p.ProjectEndDate == nil || p.ProjectEndDate.After(*f.ProjectEndDate) {
			return false
		}
	}

	return true
}

// matchesAny は値が選択値のいずれかに一致するかを返す。未選択は全件一致。
func matchesAny(selected []string, value string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if s == value {
			return true
		}
	}
	return false
}

// overlapsAny は値リストと選択値に共通要素があるかを返す。未選択は全件一致。
func overlapsAny(selected, values []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		for _, v := range values {
			if s == v {
				return true
			}
		}
	}
	return false
}

// matchesSearch はフリーテキスト検索の判定を行う。
// タイトル・説明文・技術スタックの各トークンに対して大文字小文字を
// 区別せずに部分一致する。空クエリは全件一致。
func matchesSearch(query string, p model.Project) bool {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Description), query) {
		return true
	}
	for _, tech := range p.TechStacks {
		if strings.Contains(strings.ToLower(tech), query) {
			return true
		}
	}
	return false
}
