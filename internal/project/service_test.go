package project

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/teamit/internal/kvstore"
	"github.com/hitoshi/teamit/internal/model"
	"github.com/hitoshi/teamit/internal/override"
)

// mockProjectRepo はProjectRepositoryのテスト用モック。
type mockProjectRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*model.Project, error)
	listAllFn        func(ctx context.Context) ([]model.Project, error)
	createFn         func(ctx context.Context, project *model.Project) error
	listMembersFn    func(ctx context.Context, projectID string) ([]model.ProjectMember, error)
	listMilestonesFn func(ctx context.Context, projectID string) ([]model.Milestone, error)
	incrementViewsFn func(ctx context.Context, id string) error
	closeExpiredFn   func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockProjectRepo) ListAll(ctx context.Context) ([]model.Project, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

func (m *mockProjectRepo) Create(ctx context.Context, project *model.Project) error {
	if m.createFn != nil {
		return m.createFn(ctx, project)
	}
	return nil
}

func (m *mockProjectRepo) ListMembers(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
	if m.listMembersFn != nil {
		return m.listMembersFn(ctx, projectID)
	}
	return nil, nil
}

func (m *mockProjectRepo) ListMilestones(ctx context.Context, projectID string) ([]model.Milestone, error) {
	if m.listMilestonesFn != nil {
		return m.listMilestonesFn(ctx, projectID)
	}
	return nil, nil
}

func (m *mockProjectRepo) IncrementViews(ctx context.Context, id string) error {
	if m.incrementViewsFn != nil {
		return m.incrementViewsFn(ctx, id)
	}
	return nil
}

func (m *mockProjectRepo) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.closeExpiredFn != nil {
		return m.closeExpiredFn(ctx, now)
	}
	return 0, nil
}

// mockAppRepo はApplicationRepositoryのテスト用モック。
type mockAppRepo struct {
	findByProjectAndUserFn func(ctx context.Context, projectID, userID string) (*model.Application, error)
	createFn               func(ctx context.Context, app *model.Application) error
}

func (m *mockAppRepo) FindByProjectAndUser(ctx context.Context, projectID, userID string) (*model.Application, error) {
	if m.findByProjectAndUserFn != nil {
		return m.findByProjectAndUserFn(ctx, projectID, userID)
	}
	return nil, nil
}

func (m *mockAppRepo) Create(ctx context.Context, app *model.Application) error {
	if m.createFn != nil {
		return m.createFn(ctx, app)
	}
	return nil
}

// passthroughSanitizer はサニタイズを素通しするテスト用実装。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(rawHTML string) string { return rawHTML }

func newTestService(projectRepo *mockProjectRepo, appRepo *mockAppRepo) *Service {
	return NewService(projectRepo, appRepo, override.NewStore(kvstore.NewMemoryStore()), passthroughSanitizer{})
}

func datePtr(t time.Time) *time.Time { return &t }

func recruitingProject(id string) *model.Project {
	return &model.Project{
		ID:             id,
		Title:          "プロジェクト " + id,
		Status:         model.ProjectStatusRecruiting,
		RecruitEndDate: datePtr(time.Now().Add(24 * time.Hour)),
	}
}

// 募集中プロジェクトへの応募が成功することを検証する。
func TestService_Apply(t *testing.T) {
	var created *model.Application
	projectRepo := &mockProjectRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Project, error) {
			return recruitingProject(id), nil
		},
	}
	appRepo := &mockAppRepo{
		createFn: func(ctx context.Context, app *model.Application) error {
			created = app
			return nil
		},
	}
	svc := newTestService(projectRepo, appRepo)

	app, err := svc.Apply(context.Background(), "p-1", "user-1", "バックエンド", "よろしくお願いします")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected application to be created")
	}
	if app.Position != "バックエンド" {
		t.Errorf("expected position to be saved, got %q", app.Position)
	}
}

// 募集終了済みプロジェクトへの応募が拒否されることを検証する。
func TestService_Apply_Closed(t *testing.T) {
	tests := []struct {
		name    string
		project *model.Project
	}{
		{
			name: "ステータスがclosed",
			project: &model.Project{
				ID:     "p-1",
				Status: model.ProjectStatusClosed,
			},
		},
		{
			name: "募集締切日を経過",
			project: &model.Project{
				ID:             "p-1",
				Status:         model.ProjectStatusRecruiting,
				RecruitEndDate: datePtr(time.Now().Add(-24 * time.Hour)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projectRepo := &mockProjectRepo{
				findByIDFn: func(ctx context.Context, id string) (*model.Project, error) {
					return tt.project, nil
				},
			}
			svc := newTestService(projectRepo, &mockAppRepo{})

			_, err := svc.Apply(context.Background(), "p-1", "user-1", "", "")
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeRecruitClosed {
				t.Errorf("expected recruit-closed error, got %v", err)
			}
		})
	}
}

// 二重応募が拒否されることを検証する。
func TestService_Apply_Duplicate(t *testing.T) {
	projectRepo := &mockProjectRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Project, error) {
			return recruitingProject(id), nil
		},
	}
	appRepo := &mockAppRepo{
		findByProjectAndUserFn: func(ctx context.Context, projectID, userID string) (*model.Application, error) {
			return &model.Application{ID: "a-1"}, nil
		},
	}
	svc := newTestService(projectRepo, appRepo)

	_, err := svc.Apply(context.Background(), "p-1", "user-1", "", "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAlreadyApplied {
		t.Errorf("expected already-applied error, got %v", err)
	}
}

// 存在しないプロジェクトへの応募がnot foundエラーになることを検証する。
func TestService_Apply_NotFound(t *testing.T) {
	svc := newTestService(&mockProjectRepo{}, &mockAppRepo{})

	_, err := svc.Apply(context.Background(), "missing", "user-1", "", "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProjectNotFound {
		t.Errorf("expected project not found error, got %v", err)
	}
}

// 詳細取得で閲覧数が増え、メンバー・マイルストーンが付属することを検証する。
func TestService_Get(t *testing.T) {
	var incremented bool
	projectRepo := &mockProjectRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Project, error) {
			p := recruitingProject(id)
			p.Views = 5
			return p, nil
		},
		listMembersFn: func(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
			return []model.ProjectMember{{ID: "m-1", Name: "田中"}}, nil
		},
		incrementViewsFn: func(ctx context.Context, id string) error {
			incremented = true
			return nil
		},
	}
	svc := newTestService(projectRepo, &mockAppRepo{})

	detail, err := svc.Get(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !incremented || detail.Views != 6 {
		t.Errorf("expected view increment, got views=%d incremented=%v", detail.Views, incremented)
	}
	if len(detail.Members) != 1 || detail.Members[0].Name != "田中" {
		t.Errorf("expected members in detail, got %v", detail.Members)
	}
	if detail.Milestones == nil {
		t.Error("expected empty milestone slice, got nil")
	}
}

// ダッシュボードでオーバーライドパッチが浅くマージされ、
// 配列フィールドが丸ごと置換されることを検証する。
func TestService_Dashboard_AppliesOverride(t *testing.T) {
	ctx := context.Background()
	projectRepo := &mockProjectRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Project, error) {
			p := recruitingProject(id)
			p.Title = "元のタイトル"
			return p, nil
		},
		listMembersFn: func(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
			return []model.ProjectMember{
				{ID: "m-1", Name: "田中"},
				{ID: "m-2", Name: "鈴木"},
			}, nil
		},
	}
	svc := newTestService(projectRepo, &mockAppRepo{})

	if err := svc.SaveOverride(ctx, "user-1", "p-1", override.Patch{
		"title":   "編集後のタイトル",
		"members": []any{map[string]any{"id": "m-9", "name": "佐藤"}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Dashboard(ctx, "user-1", "p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["title"] != "編集後のタイトル" {
		t.Errorf("expected overridden title, got %v", got["title"])
	}
	members, ok := got["members"].([]any)
	if !ok || len(members) != 1 {
		t.Fatalf("expected wholesale member replacement (1 member), got %v", got["members"])
	}

	// 別ユーザーにはオーバーライドが見えない
	other, err := svc.Dashboard(ctx, "user-2", "p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other["title"] != "元のタイトル" {
		t.Errorf("expected base title for other user, got %v", other["title"])
	}
}

// ClearOverrideでダッシュボードがサーバー値の表示へ戻ることを検証する。
func TestService_ClearOverride(t *testing.T) {
	ctx := context.Background()
	projectRepo := &mockProjectRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Project, error) {
			p := recruitingProject(id)
			p.Title = "元のタイトル"
			return p, nil
		},
	}
	svc := newTestService(projectRepo, &mockAppRepo{})

	if err := svc.SaveOverride(ctx, "user-1", "p-1", override.Patch{"title": "編集後"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.ClearOverride(ctx, "user-1", "p-1")

	got, err := svc.Dashboard(ctx, "user-1", "p-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["title"] != "元のタイトル" {
		t.Errorf("expected base title after clear, got %v", got["title"])
	}
}

// プロジェクト作成で所有者・ステータス・採番が設定されることを検証する。
func TestService_Create(t *testing.T) {
	var created *model.Project
	projectRepo := &mockProjectRepo{
		createFn: func(ctx context.Context, p *model.Project) error {
			created = p
			return nil
		},
	}
	svc := newTestService(projectRepo, &mockAppRepo{})

	p, err := svc.Create(context.Background(), "user-1", "田中", model.Project{
		Title:       "新プロジェクト",
		Description: "説明文",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected project to be created")
	}
	if p.ID == "" || p.OwnerID != "user-1" || p.Status != model.ProjectStatusRecruiting {
		t.Errorf("expected initialized project, got %+v", p)
	}
}

// タイトルなしのプロジェクト作成がバリデーションエラーになることを検証する。
func TestService_Create_Validation(t *testing.T) {
	svc := newTestService(&mockProjectRepo{}, &mockAppRepo{})

	_, err := svc.Create(context.Background(), "user-1", "田中", model.Project{Description: "説明のみ"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("expected validation error, got %v", err)
	}
}
