// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordSignup()
	RecordLogin(success bool)
	RecordDraftSaved(userID string)
	RecordScrapAction(action string)
	RecordSearch(resultCount int)
	RecordApplication()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordRecruitsClosed(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signups        prometheus.Counter
	logins         *prometheus.CounterVec
	draftsSaved    prometheus.Counter
	scrapActions   *prometheus.CounterVec
	searches       prometheus.Counter
	searchResults  prometheus.Histogram
	applications   prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	recruitsClosed prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamit_signups_total",
			Help: "ユーザー登録の合計数",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamit_logins_total",
			Help: "ログイン試行の結果別合計数",
		}, []string{"result"}),
		draftsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamit_drafts_saved_total",
			Help: "保存された下書きの合計数",
		}),
		scrapActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamit_scrap_actions_total",
			Help: "スクラップ操作の種類別合計数",
		}, []string{"action"}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamit_searches_total",
			Help: "実行された募集検索の合計数",
		}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teamit_search_results",
			Help:    "検索結果件数の分布",
			Buckets: []float64{0, 1, 5, 12, 24, 60, 120},
		}),
		applications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamit_applications_total",
			Help: "募集への応募の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamit_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teamit_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		recruitsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamit_recruits_closed_total",
			Help: "締切超過で自動クローズされた募集の合計数",
		}),
	}

	reg.MustRegister(
		c.signups,
		c.logins,
		c.draftsSaved,
		c.scrapActions,
		c.searches,
		c.searchResults,
		c.applications,
		c.httpStatus,
		c.requestLatency,
		c.recruitsClosed,
	)

	return c
}

// RecordSignup はユーザー登録を記録する。
func (c *Collector) RecordSignup() {
	c.signups.Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordDraftSaved は下書き保存を記録する。
func (c *Collector) RecordDraftSaved(userID string) {
	c.draftsSaved.Inc()
}

// RecordScrapAction はスクラップ操作（add/remove/clear）を記録する。
func (c *Collector) RecordScrapAction(action string) {
	c.scrapActions.WithLabelValues(action).Inc()
}

// RecordSearch は検索の実行と結果件数を記録する。
func (c *Collector) RecordSearch(resultCount int) {
	c.searches.Inc()
	c.searchResults.Observe(float64(resultCount))
}

// RecordApplication は募集への応募を記録する。
func (c *Collector) RecordApplication() {
	c.applications.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordRecruitsClosed は自動クローズされた募集数を記録する。
func (c *Collector) RecordRecruitsClosed(count int) {
	c.recruitsClosed.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
