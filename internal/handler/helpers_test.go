package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/hitoshi/teamit/internal/middleware"
)

// nopCollector は何も記録しないメトリクスコレクター。テスト用。
type nopCollector struct{}

func (nopCollector) RecordSignup()                              {}
func (nopCollector) RecordLogin(success bool)                   {}
func (nopCollector) RecordDraftSaved(userID string)             {}
func (nopCollector) RecordScrapAction(action string)            {}
func (nopCollector) RecordSearch(resultCount int)               {}
func (nopCollector) RecordApplication()                         {}
func (nopCollector) RecordHTTPStatus(statusCode int)            {}
func (nopCollector) RecordRequestLatency(duration time.Duration) {}
func (nopCollector) RecordRecruitsClosed(count int)             {}

// fixedResolver は固定の表示名を返すUserNameResolver。テスト用。
type fixedResolver struct {
	name string
}

func (r *fixedResolver) ResolveName(ctx context.Context, userID string) (string, error) {
	return r.name, nil
}

// authedRequest は認証済みユーザーのコンテキストを持つリクエストを生成する。
func authedRequest(method, target, userID string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}
