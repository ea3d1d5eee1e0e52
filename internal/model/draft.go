// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateValue はISO文字列としてシリアライズされる日付値。
// 空文字列・null・RFC3339・"2006-01-02" のいずれの保存形式からも復元できる。
// ゼロ値は「未設定」を意味し、空文字列としてシリアライズされる。
type DateValue struct {
	time.Time
}

// MarshalJSON はRFC3339文字列として出力する。未設定の場合は空文字列。
func (d DateValue) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(d.Format(time.RFC3339))
}

// UnmarshalJSON はISO文字列から日付値を復元する。
// 空文字列とnullはゼロ値として扱う。
func (d *DateValue) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date value: %s", s)
}

// JobOption は募集職種の選択肢を表す。
type JobOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UnmarshalJSON は保存形式の揺れを吸収する。
// 旧形式のプレーン文字列と新形式の{value,label}オブジェクトの両方を
// 正規化された{value,label}として復元する。
func (j *JobOption) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		j.Value = s
		j.Label = s
		return nil
	}

	type alias JobOption
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("invalid job option: %w", err)
	}
	*j = JobOption(a)
	return nil
}

// BasicInfo は募集フォームの基本情報ステップ。
type BasicInfo struct {
	Title        string      `json:"title"`
	Activity     string      `json:"activity"`
	SelectedJobs []JobOption `json:"selectedJobs"`
	HeadCount    int         `json:"headCount"`
	Method       string      `json:"method"`
	StartDate    DateValue   `json:"startDate"`
	EndDate      DateValue   `json:"endDate"`
}

// ProjectInfo は募集フォームのプロジェクト情報ステップ。
type ProjectInfo struct {
	Summary          string    `json:"summary"`
	TechStacks       []string  `json:"techStacks"`
	Progress         string    `json:"progress"`
	ProjectStartDate DateValue `json:"projectStartDate"`
	ProjectEndDate   DateValue `json:"projectEndDate"`
}

// Situation は募集フォームの現況ステップ。日付フィールドは持たない。
type Situation struct {
	CurrentMembers string `json:"currentMembers"`
	CurrentStatus  string `json:"currentStatus"`
	Motivation     string `json:"motivation"`
}

// WorkEnviron は募集フォームの作業環境ステップ。日付フィールドは持たない。
type WorkEnviron struct {
	Location     string   `json:"location"`
	Region       string   `json:"region"`
	MeetingCycle string   `json:"meetingCycle"`
	Tools        []string `json:"tools"`
}

// ApplicantInfo は募集フォームの応募者向け情報ステップ。日付フィールドは持たない。
type ApplicantInfo struct {
	Requirements       string   `json:"requirements"`
	PreferredPositions []string `json:"preferredPositions"`
	ContactEmail       string   `json:"contactEmail"`
	Question           string   `json:"question"`
}

// DraftData はマルチステップ募集フォームの全ステップデータ。
// 各ステップは閉じたフィールドセットを持つ型付き構造体として定義する。
type DraftData struct {
	BasicInfo     BasicInfo     `json:"basicInfo"`
	ProjectInfo   ProjectInfo   `json:"projectInfo"`
	Situation     Situation     `json:"situation"`
	WorkEnviron   WorkEnviron   `json:"workEnviron"`
	ApplicantInfo ApplicantInfo `json:"applicantInfo"`
}

// Draft は作成途中の募集フォームの名前付きスナップショットを表す。
type Draft struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Data    DraftData `json:"data"`
	SavedAt time.Time `json:"savedAt"`
}
