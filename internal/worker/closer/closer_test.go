package closer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// mockRecruitCloser はRecruitCloserのモック実装。
type mockRecruitCloser struct {
	closeExpiredFunc func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockRecruitCloser) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	return m.closeExpiredFunc(ctx, now)
}

// countingMetrics は記録された件数を積算するモック。
type countingMetrics struct {
	total int
}

func (c *countingMetrics) RecordRecruitsClosed(count int) {
	c.total += count
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// TestJob_Run_ClosesExpiredRecruits はクローズ件数がメトリクスに記録されることを検証する。
func TestJob_Run_ClosesExpiredRecruits(t *testing.T) {
	var buf bytes.Buffer
	repo := &mockRecruitCloser{
		closeExpiredFunc: func(ctx context.Context, now time.Time) (int64, error) {
			if now.IsZero() {
				t.Error("nowがゼロ値で渡された")
			}
			return 3, nil
		},
	}
	m := &countingMetrics{}
	job := NewJob(repo, m, newTestLogger(&buf))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}
	if m.total != 3 {
		t.Errorf("記録されたクローズ件数 = %d, want 3", m.total)
	}
}

// TestJob_Run_LogsClosedCount はクローズ件数がログに出ることを検証する。
func TestJob_Run_LogsClosedCount(t *testing.T) {
	var buf bytes.Buffer
	repo := &mockRecruitCloser{
		closeExpiredFunc: func(ctx context.Context, now time.Time) (int64, error) {
			return 7, nil
		},
	}
	job := NewJob(repo, &countingMetrics{}, newTestLogger(&buf))

	_ = job.Run(context.Background())

	var entry map[string]interface{}
	found := false
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if count, ok := entry["closed_count"]; ok && count == float64(7) {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("ログに closed_count=7 が記録されていない。ログ出力: %s", buf.String())
	}
}

// TestJob_Run_Idempotent_ZeroClosed はクローズ対象ゼロ件でも成功することを検証する。
func TestJob_Run_Idempotent_ZeroClosed(t *testing.T) {
	var buf bytes.Buffer
	repo := &mockRecruitCloser{
		closeExpiredFunc: func(ctx context.Context, now time.Time) (int64, error) {
			return 0, nil
		},
	}
	m := &countingMetrics{}
	job := NewJob(repo, m, newTestLogger(&buf))

	for i := 0; i < 2; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("%d回目の Run() がエラーを返した: %v", i+1, err)
		}
	}
	if m.total != 0 {
		t.Errorf("記録されたクローズ件数 = %d, want 0", m.total)
	}
}

// TestJob_Run_ReturnsErrorOnRepoFailure はリポジトリエラーが伝播することを検証する。
func TestJob_Run_ReturnsErrorOnRepoFailure(t *testing.T) {
	var buf bytes.Buffer
	repo := &mockRecruitCloser{
		closeExpiredFunc: func(ctx context.Context, now time.Time) (int64, error) {
			return 0, errors.New("connection refused")
		},
	}
	m := &countingMetrics{}
	job := NewJob(repo, m, newTestLogger(&buf))

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("リポジトリエラー時に Run() は nil でないエラーを返すべき")
	}
	if m.total != 0 {
		t.Error("エラー時にはメトリクスを記録すべきでない")
	}
	if !strings.Contains(buf.String(), "ERROR") {
		t.Errorf("エラー時にERRORレベルのログが記録されていない。ログ出力: %s", buf.String())
	}
}

// TestScheduler_Start_RunsImmediately は起動直後に一度ジョブが実行されることを検証する。
func TestScheduler_Start_RunsImmediately(t *testing.T) {
	var buf bytes.Buffer
	ran := make(chan struct{}, 1)
	repo := &mockRecruitCloser{
		closeExpiredFunc: func(ctx context.Context, now time.Time) (int64, error) {
			select {
			case ran <- struct{}{}:
			default:
			}
			return 1, nil
		},
	}
	logger := newTestLogger(&buf)
	job := NewJob(repo, &countingMetrics{}, logger)
	s := NewScheduler(job, time.Hour, logger)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() がエラーを返した: %v", err)
	}
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("起動直後にジョブが実行されなかった")
	}
}

// TestScheduler_StopIsSafe は開始していないスケジューラーのStopが安全であることを検証する。
func TestScheduler_StopIsSafe(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	job := NewJob(&mockRecruitCloser{}, &countingMetrics{}, logger)
	s := NewScheduler(job, time.Hour, logger)

	s.Stop()
}
