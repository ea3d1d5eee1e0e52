// Package project はチーム募集プロジェクトの管理機能を提供する。
package project

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/teamit/internal/model"
	"github.com/hitoshi/teamit/internal/override"
	"github.com/hitoshi/teamit/internal/repository"
	"github.com/hitoshi/teamit/internal/security"
)

// Service はプロジェクトの一覧・詳細・作成・応募と
// 「マイプロジェクト」ダッシュボードのオーバーライド適用を提供するサービス層。
type Service struct {
	projectRepo repository.ProjectRepository
	appRepo     repository.ApplicationRepository
	overrides   *override.Store
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	projectRepo repository.ProjectRepository,
	appRepo repository.ApplicationRepository,
	overrides *override.Store,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		projectRepo: projectRepo,
		appRepo:     appRepo,
		overrides:   overrides,
		sanitizer:   sanitizer,
	}
}

// ListAll は全プロジェクトを新着順で返す。
// 絞り込み・検索・ページネーションは呼び出し側のsearch.Engineが行う。
func (s *Service) ListAll(ctx context.Context) ([]model.Project, error) {
	projects, err := s.projectRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	if projects == nil {
		projects = []model.Project{}
	}
	return projects, nil
}

// Get はプロジェクト詳細をメンバー・マイルストーン付きで返し、閲覧数を1増やす。
func (s *Service) Get(ctx context.Context, projectID string) (*model.ProjectDetail, error) {
	detail, err := s.loadDetail(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if err := s.projectRepo.IncrementViews(ctx, projectID); err != nil {
		return nil, fmt.Errorf("閲覧数の更新に失敗しました: %w", err)
	}
	detail.Views++

	return detail, nil
}

// Create はプロジェクトを作成する。説明文はサニタイズされる。
func (s *Service) Create(ctx context.Context, ownerID, ownerName string, p model.Project) (*model.Project, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, model.NewValidationFailedError("タイトルが空です")
	}
	if strings.TrimSpace(p.Description) == "" {
		return nil, model.NewValidationFailedError("プロジェクト説明が空です")
	}

	now := time.Now()
	p.ID = uuid.New().String()
	p.Description = s.sanitizer.Sanitize(p.Description)
	p.Status = model.ProjectStatusRecruiting
	p.OwnerID = ownerID
	p.OwnerName = ownerName
	p.Views = 0
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.projectRepo.Create(ctx, &p); err != nil {
		return nil, fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return &p, nil
}

// Apply はプロジェクトへの参加応募を作成する。
// 募集終了済みプロジェクトへの応募と二重応募はエラーになる。
func (s *Service) Apply(ctx context.Context, projectID, userID, position, message string) (*model.Application, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}

	if project.Status != model.ProjectStatusRecruiting {
		return nil, model.NewRecruitClosedError()
	}
	if project.RecruitEndDate != nil && project.RecruitEndDate.Before(time.Now()) {
		return nil, model.NewRecruitClosedError()
	}

	existing, err := s.appRepo.FindByProjectAndUser(ctx, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("応募状況の確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewAlreadyAppliedError()
	}

	app := &model.Application{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		UserID:    userID,
		Position:  position,
		Message:   strings.TrimSpace(message),
		CreatedAt: time.Now(),
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("応募の作成に失敗しました: %w", err)
	}
	return app, nil
}

// Dashboard は「マイプロジェクト」ダッシュボード用のプロジェクト詳細を返す。
// ユーザーのオーバーライドパッチがベースレコードへ浅くマージされた
// マップ形式で、配列フィールド（members、milestones）はパッチ側の値で
// 丸ごと置換される。
func (s *Service) Dashboard(ctx context.Context, userID, projectID string) (map[string]any, error) {
	detail, err := s.loadDetail(ctx, projectID)
	if err != nil {
		return nil, err
	}

	base := detailToMap(detail)
	patch := s.overrides.Get(ctx, userID, projectID)
	if patch == nil {
		return base, nil
	}
	return override.Apply(base, patch), nil
}

// SaveOverride はダッシュボード編集をオーバーライドパッチとして保存する。
// 既存パッチへ浅くマージされる。
func (s *Service) SaveOverride(ctx context.Context, userID, projectID string, patch override.Patch) error {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return model.NewProjectNotFoundError(projectID)
	}

	s.overrides.Set(ctx, userID, projectID, patch)
	return nil
}

// ClearOverride はオーバーライドパッチを破棄し、サーバー値の表示へ戻す。
func (s *Service) ClearOverride(ctx context.Context, userID, projectID string) {
	s.overrides.Clear(ctx, userID, projectID)
}

// loadDetail はプロジェクト本体・メンバー・マイルストーンをまとめて取得する。
func (s *Service) loadDetail(ctx context.Context, projectID string) (*model.ProjectDetail, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	if project == nil {
		return nil, model.NewProjectNotFoundError(projectID)
	}

	members, err := s.projectRepo.ListMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	milestones, err := s.projectRepo.ListMilestones(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("マイルストーン一覧の取得に失敗しました: %w", err)
	}

	if members == nil {
		members = []model.ProjectMember{}
	}
	if milestones == nil {
		milestones = []model.Milestone{}
	}

	return &model.ProjectDetail{
		Project:    *project,
		Members:    members,
		Milestones: milestones,
	}, nil
}

// detailToMap はプロジェクト詳細をオーバーライド適用用のマップへ変換する。
// キー名はAPIレスポンスのフィールド名と一致させる。
func detailToMap(d *model.ProjectDetail) map[string]any {
	members := make([]any, len(d.Members))
	for i, m := range d.Members {
		members[i] = map[string]any{
			"id":       m.ID,
			"userId":   m.UserID,
			"name":     m.Name,
			"position": m.Position,
			"joinedAt": m.JoinedAt,
		}
	}
	milestones := make([]any, len(d.Milestones))
	for i, m := range d.Milestones {
		milestones[i] = map[string]any{
			"id":      m.ID,
			"title":   m.Title,
			"dueDate": m.DueDate,
			"done":    m.Done,
		}
	}

	return map[string]any{
		"id":               d.ID,
		"title":            d.Title,
		"description":      d.Description,
		"activityType":     d.ActivityType,
		"positions":        d.Positions,
		"techStacks":       d.TechStacks,
		"location":         d.Location,
		"region":           d.Region,
		"progress":         d.Progress,
		"method":           d.Method,
		"status":           string(d.Status),
		"recruitEndDate":   d.RecruitEndDate,
		"projectStartDate": d.ProjectStartDate,
		"projectEndDate":   d.ProjectEndDate,
		"ownerId":          d.OwnerID,
		"ownerName":        d.OwnerName,
		"views":            d.Views,
		"members":          members,
		"milestones":       milestones,
	}
}
