package draft

import (
	"encoding/json"
	"fmt"

	"github.com/hitoshi/teamit/internal/model"
)

// ParseDraft はシリアライズ済みの下書き1件をデシリアライズする。
// 日付フィールド（startDate、endDate、projectStartDate等）はISO文字列から
// 日付値へ復元され、selectedJobsは旧形式のプレーン文字列と
// {value,label}オブジェクトの両方から正規化された{value,label}配列へ変換される。
// この揺れ吸収はmodel.DateValueとmodel.JobOptionのUnmarshalJSONが担う。
func ParseDraft(raw []byte) (model.Draft, error) {
	var d model.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return model.Draft{}, fmt.Errorf("下書きの解析に失敗: %w", err)
	}
	return d, nil
}

// ParseDraftList はシリアライズ済みの下書きリストをデシリアライズする。
// 配列以外のJSONはエラーを返す（呼び出し側でキーをリセットする）。
func ParseDraftList(raw []byte) ([]model.Draft, error) {
	var drafts []model.Draft
	if err := json.Unmarshal(raw, &drafts); err != nil {
		return nil, fmt.Errorf("下書きリストの解析に失敗: %w", err)
	}
	if drafts == nil {
		drafts = []model.Draft{}
	}
	return drafts, nil
}
