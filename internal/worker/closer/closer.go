// Package closer は募集締切日を過ぎたプロジェクトの自動クローズジョブを提供する。
// 締切日を過ぎても募集中のままのプロジェクトをclosedへ遷移させ、
// 検索結果や応募受付から除外する。
package closer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RecruitCloser は期限切れ募集のクローズ処理を抽象化するインターフェース。
type RecruitCloser interface {
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}

// RecruitMetrics は自動クローズ件数の記録を抽象化するインターフェース。
type RecruitMetrics interface {
	RecordRecruitsClosed(count int)
}

// Job は期限切れ募集の自動クローズジョブ。
// 冪等: クローズ対象がない場合でもエラーにならない。
type Job struct {
	repo      RecruitCloser
	collector RecruitMetrics
	logger    *slog.Logger
}

// NewJob は新しいJobを生成する。
func NewJob(repo RecruitCloser, collector RecruitMetrics, logger *slog.Logger) *Job {
	return &Job{
		repo:      repo,
		collector: collector,
		logger:    logger,
	}
}

// Run は募集締切日を過ぎた募集中プロジェクトをクローズする。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	closed, err := j.repo.CloseExpired(ctx, start)
	if err != nil {
		j.logger.Error("募集自動クローズジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("募集自動クローズの実行に失敗: %w", err)
	}

	j.collector.RecordRecruitsClosed(int(closed))

	duration := time.Since(start)
	j.logger.Info("募集自動クローズジョブが完了しました",
		slog.Int64("closed_count", closed),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Scheduler はcronでJobを定期実行するラッパー。
type Scheduler struct {
	cron   *cron.Cron
	job    *Job
	logger *slog.Logger
	spec   string
}

// NewScheduler はinterval間隔でJobを実行するSchedulerを生成する。
func NewScheduler(job *Job, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		job:    job,
		logger: logger,
		spec:   fmt.Sprintf("@every %s", interval),
	}
}

// Start はジョブを登録してスケジューラーを開始する。
// 最初のtickを待たずに起動直後にも一度実行する。
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.job.Run(ctx); err != nil {
			s.logger.Error("定期実行中にエラーが発生しました", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("募集自動クローズスケジューラーを開始しました", slog.String("spec", s.spec))

	go func() {
		if err := s.job.Run(ctx); err != nil {
			s.logger.Error("起動時実行中にエラーが発生しました", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop はスケジューラーを停止する。実行中のジョブの完了は待たない。
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("募集自動クローズスケジューラーを停止しました")
}
