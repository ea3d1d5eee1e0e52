package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/teamit/internal/metrics"
	"github.com/hitoshi/teamit/internal/model"
	"github.com/hitoshi/teamit/internal/override"
	"github.com/hitoshi/teamit/internal/search"
)

// ProjectServiceInterface はプロジェクトハンドラーが必要とするサービスインターフェース。
type ProjectServiceInterface interface {
	// ListAll は全プロジェクトを新着順で返す。
	ListAll(ctx context.Context) ([]model.Project, error)
	// Get はプロジェクト詳細を返し、閲覧数を加算する。
	Get(ctx context.Context, projectID string) (*model.ProjectDetail, error)
	// Create は新規プロジェクトを募集中ステータスで作成する。
	Create(ctx context.Context, ownerID, ownerName string, p model.Project) (*model.Project, error)
	// Apply はプロジェクトへ応募する。締切超過・重複応募はエラーになる。
	Apply(ctx context.Context, projectID, userID, position, message string) (*model.Application, error)
	// Dashboard はユーザーごとのオーバーライドを適用したダッシュボード表示を返す。
	Dashboard(ctx context.Context, userID, projectID string) (map[string]any, error)
	// SaveOverride はダッシュボード表示のユーザー別上書きを保存する。
	SaveOverride(ctx context.Context, userID, projectID string, patch override.Patch) error
	// ClearOverride はユーザー別上書きを破棄する。
	ClearOverride(ctx context.Context, userID, projectID string)
}

// ProjectHandler はプロジェクト募集のHTTPハンドラー。
type ProjectHandler struct {
	service   ProjectServiceInterface
	resolver  UserNameResolver
	collector metrics.MetricsCollector
}

// NewProjectHandler はProjectHandlerを生成する。
func NewProjectHandler(service ProjectServiceInterface, resolver UserNameResolver, collector metrics.MetricsCollector) *ProjectHandler {
	return &ProjectHandler{service: service, resolver: resolver, collector: collector}
}

// --- リクエスト・レスポンス型 ---

// dateOnly は"2006-01-02"形式の日付文字列。
const dateOnly = "2006-01-02"

type projectRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	ActivityType     string   `json:"activityType"`
	Positions        []string `json:"positions"`
	TechStacks       []string `json:"techStacks"`
	Location         string   `json:"location"`
	Region           string   `json:"region"`
	Progress         string   `json:"progress"`
	Method           string   `json:"method"`
	RecruitEndDate   string   `json:"recruitEndDate,omitempty"`
	ProjectStartDate string   `json:"projectStartDate,omitempty"`
	ProjectEndDate   string   `json:"projectEndDate,omitempty"`
}

type projectResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ActivityType     string    `json:"activityType"`
	Positions        []string  `json:"positions"`
	TechStacks       []string  `json:"techStacks"`
	Location         string    `json:"location"`
	Region           string    `json:"region"`
	Progress         string    `json:"progress"`
	Method           string    `json:"method"`
	Status           string    `json:"status"`
	RecruitEndDate   *string   `json:"recruitEndDate,omitempty"`
	ProjectStartDate *string   `json:"projectStartDate,omitempty"`
	ProjectEndDate   *string   `json:"projectEndDate,omitempty"`
	OwnerID          string    `json:"ownerId"`
	OwnerName        string    `json:"ownerName"`
	Views            int       `json:"views"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type memberResponse struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Position string    `json:"position"`
	JoinedAt time.Time `json:"joinedAt"`
}

type milestoneResponse struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	DueDate *string `json:"dueDate,omitempty"`
	Done    bool    `json:"done"`
}

type projectDetailResponse struct {
	projectResponse
	Members    []memberResponse    `json:"members"`
	Milestones []milestoneResponse `json:"milestones"`
}

type applyRequest struct {
	Position string `json:"position,omitempty"`
	Message  string `json:"message,omitempty"`
}

type applicationResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Position  string    `json:"position,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// searchFilterRequest は検索フィルタ条件のJSON表現。日付は"2006-01-02"形式。
type searchFilterRequest struct {
	Activity         []string `json:"activity,omitempty"`
	Positions        []string `json:"positions,omitempty"`
	TechStacks       []string `json:"techStacks,omitempty"`
	Locations        []string `json:"locations,omitempty"`
	Region           string   `json:"region,omitempty"`
	Progress         []string `json:"progress,omitempty"`
	Method           []string `json:"method,omitempty"`
	RecruitEndDate   string   `json:"recruitEndDate,omitempty"`
	ProjectStartDate string   `json:"projectStartDate,omitempty"`
	ProjectEndDate   string   `json:"projectEndDate,omitempty"`
}

type searchRequest struct {
	Filters searchFilterRequest `json:"filters"`
	Query   string              `json:"query,omitempty"`
	Page    int                 `json:"page,omitempty"`
}

type searchResponse struct {
	Projects   []projectResponse `json:"projects"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
}

// formatDate は日付ポインタを"2006-01-02"形式の文字列ポインタへ変換する。
func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateOnly)
	return &s
}

// parseDate は"2006-01-02"形式の文字列を日付ポインタへ変換する。
// 空文字列や不正な形式はnilを返す。
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return nil
	}
	return &t
}

// toProjectResponse はドメインのProjectをレスポンス型に変換する。
func toProjectResponse(p model.Project) projectResponse {
	positions := p.Positions
	if positions == nil {
		positions = []string{}
	}
	techStacks := p.TechStacks
	if techStacks == nil {
		techStacks = []string{}
	}
	return projectResponse{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		ActivityType:     p.ActivityType,
		Positions:        positions,
		TechStacks:       techStacks,
		Location:         p.Location,
		Region:           p.Region,
		Progress:         p.Progress,
		Method:           p.Method,
		Status:           string(p.Status),
		RecruitEndDate:   formatDate(p.RecruitEndDate),
		ProjectStartDate: formatDate(p.ProjectStartDate),
		ProjectEndDate:   formatDate(p.ProjectEndDate),
		OwnerID:          p.OwnerID,
		OwnerName:        p.OwnerName,
		Views:            p.Views,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// toProjectDetailResponse はドメインのProjectDetailをレスポンス型に変換する。
func toProjectDetailResponse(d *model.ProjectDetail) projectDetailResponse {
	members := make([]memberResponse, len(d.Members))
	for i, m := range d.Members {
		members[i] = memberResponse{
			ID:       m.ID,
			UserID:   m.UserID,
			Name:     m.Name,
			Position: m.Position,
			JoinedAt: m.JoinedAt,
		}
	}
	milestones := make([]milestoneResponse, len(d.Milestones))
	for i, m := range d.Milestones {
		milestones[i] = milestoneResponse{
			ID:      m.ID,
			Title:   m.Title,
			DueDate: formatDate(m.DueDate),
			Done:    m.Done,
		}
	}
	return projectDetailResponse{
		projectResponse: toProjectResponse(d.Project),
		Members:         members,
		Milestones:      milestones,
	}
}

// List は全プロジェクト一覧を取得する。
// GET /v1/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]projectResponse, len(projects))
	for i, p := range projects {
		results[i] = toProjectResponse(p)
	}

	writeJSON(w, http.StatusOK, map[string]any{"projects": results})
}

// Search はフィルタ・フリーテキスト検索・ページネーションを適用した一覧を返す。
// フィルタは各基準のANDで、複数選択フィールドは選択値間のORになる。
// POST /v1/projects/search
func (h *ProjectHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	projects, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	engine := search.NewEngine()
	engine.SetDraft(search.FilterState{
		SelectedActivity:   req.Filters.Activity,
		SelectedPositions:  req.Filters.Positions,
		SelectedTechStacks: req.Filters.TechStacks,
		SelectedLocations:  req.Filters.Locations,
		SelectedRegion:     req.Filters.Region,
		SelectedProgress:   req.Filters.Progress,
		SelectedMethod:     req.Filters.Method,
		RecruitEndDate:     parseDate(req.Filters.RecruitEndDate),
		ProjectStartDate:   parseDate(req.Filters.ProjectStartDate),
		ProjectEndDate:     parseDate(req.Filters.ProjectEndDate),
	})
	engine.ApplyFilters()
	engine.SetSearch(req.Query)
	engine.SetPage(req.Page)

	result := engine.Query(projects)
	h.collector.RecordSearch(result.Total)

	items := make([]projectResponse, len(result.Items))
	for i, p := range result.Items {
		items[i] = toProjectResponse(p)
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Projects:   items,
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	})
}

// Get はプロジェクト詳細を取得する。閲覧数を加算する。
// GET /v1/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")

	detail, err := h.service.Get(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if detail == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewProjectNotFoundError(projectID))
		return
	}

	writeJSON(w, http.StatusOK, toProjectDetailResponse(detail))
}

// Create は新規プロジェクトを作成する。
// POST /v1/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	ownerName, err := h.resolver.ResolveName(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), userID, ownerName, model.Project{
		Title:            req.Title,
		Description:      req.Description,
		ActivityType:     req.ActivityType,
		Positions:        req.Positions,
		TechStacks:       req.TechStacks,
		Location:         req.Location,
		Region:           req.Region,
		Progress:         req.Progress,
		Method:           req.Method,
		RecruitEndDate:   parseDate(req.RecruitEndDate),
		ProjectStartDate: parseDate(req.ProjectStartDate),
		ProjectEndDate:   parseDate(req.ProjectEndDate),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProjectResponse(*created))
}

// Apply はプロジェクトへの応募を処理する。
// POST /v1/projects/{id}/apply
func (h *ProjectHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projectID := chi.URLParam(r, "id")

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	app, err := h.service.Apply(r.Context(), projectID, userID, req.Position, req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.collector.RecordApplication()
	writeJSON(w, http.StatusCreated, applicationResponse{
		ID:        app.ID,
		ProjectID: app.ProjectID,
		Position:  app.Position,
		Message:   app.Message,
		CreatedAt: app.CreatedAt,
	})
}

// Dashboard はユーザー別オーバーライド適用後のダッシュボード表示を取得する。
// GET /v1/projects/{id}/dashboard
func (h *ProjectHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projectID := chi.URLParam(r, "id")

	view, err := h.service.Dashboard(r.Context(), userID, projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SaveOverride はダッシュボード表示のユーザー別上書きを保存する。
// PUT /v1/projects/{id}/overrides
func (h *ProjectHandler) SaveOverride(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projectID := chi.URLParam(r, "id")

	var patch override.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.service.SaveOverride(r.Context(), userID, projectID, patch); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearOverride はダッシュボード表示のユーザー別上書きを破棄する。
// DELETE /v1/projects/{id}/overrides
func (h *ProjectHandler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projectID := chi.URLParam(r, "id")

	h.service.ClearOverride(r.Context(), userID, projectID)
	w.WriteHeader(http.StatusNoContent)
}
