package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/teamit/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトリポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

const projectColumns = `p.id, p.title, p.description, p.activity_type, p.positions, p.tech_stacks,
	        p.location, p.region, p.progress, p.method, p.status,
	        p.recruit_end_date, p.project_start_date, p.project_end_date,
	        p.owner_id, u.name, p.views, p.created_at, p.updated_at`

// FindByID は指定IDのプロジェクトを取得する。見つからない場合はnilを返す。
func (r *PostgresProjectRepo) FindByID(ctx context.Context, id string) (*model.Project, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects p JOIN users u ON u.id = p.owner_id
		 WHERE p.id = $1`,
		id,
	)

	project, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの取得に失敗しました: %w", err)
	}
	return project, nil
}

// ListAll は全プロジェクトをcreated_at降順で返す。
func (r *PostgresProjectRepo) ListAll(ctx context.Context) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects p JOIN users u ON u.id = p.owner_id
		 ORDER BY p.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("プロジェクトのスキャンに失敗しました: %w", err)
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の読み取りに失敗しました: %w", err)
	}
	return projects, nil
}

// Create はプロジェクトを作成する。
func (r *PostgresProjectRepo) Create(ctx context.Context, project *model.Project) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, title, description, activity_type, positions, tech_stacks,
		                       location, region, progress, method, status,
		                       recruit_end_date, project_start_date, project_end_date,
		                       owner_id, views, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		project.ID, project.Title, project.Description, project.ActivityType,
		pq.Array(project.Positions), pq.Array(project.TechStacks),
		project.Location, project.Region, project.Progress, project.Method,
		string(project.Status),
		project.RecruitEndDate, project.ProjectStartDate, project.ProjectEndDate,
		project.OwnerID, project.Views, project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("プロジェクトの作成に失敗しました: %w", err)
	}
	return nil
}

// ListMembers はプロジェクトの参加メンバー一覧をjoined_at昇順で返す。
func (r *PostgresProjectRepo) ListMembers(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.user_id, u.name, m.position, m.joined_at
		 FROM project_members m JOIN users u ON u.id = m.user_id
		 WHERE m.project_id = $1
		 ORDER BY m.joined_at ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var members []model.ProjectMember
	for rows.Next() {
		var m model.ProjectMember
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Position, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("メンバーのスキャンに失敗しました: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("メンバー一覧の読み取りに失敗しました: %w", err)
	}
	return members, nil
}

// ListMilestones はプロジェクトのマイルストーン一覧をdue_date昇順で返す。
func (r *PostgresProjectRepo) ListMilestones(ctx context.Context, projectID string) ([]model.Milestone, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, due_date, done
		 FROM milestones
		 WHERE project_id = $1
		 ORDER BY due_date ASC NULLS LAST`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("マイルストーン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var milestones []model.Milestone
	for rows.Next() {
		var m model.Milestone
		var dueDate sql.NullTime
		if err := rows.Scan(&m.ID, &m.Title, &dueDate, &m.Done); err != nil {
			return nil, fmt.Errorf("マイルストーンのスキャンに失敗しました: %w", err)
		}
		if dueDate.Valid {
			m.DueDate = &dueDate.Time
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("マイルストーン一覧の読み取りに失敗しました: %w", err)
	}
	return milestones, nil
}

// IncrementViews はプロジェクトの閲覧数を1増やす。
func (r *PostgresProjectRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE projects SET views = views + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("閲覧数の更新に失敗しました: %w", err)
	}
	return nil
}

// CloseExpired は募集締切日を過ぎた募集中プロジェクトをclosedへ遷移させ、
// 遷移した件数を返す。冪等。
func (r *PostgresProjectRepo) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects
		 SET status = $1, updated_at = $2
		 WHERE status = $3 AND recruit_end_date IS NOT NULL AND recruit_end_date < $2`,
		string(model.ProjectStatusClosed), now, string(model.ProjectStatusRecruiting),
	)
	if err != nil {
		return 0, fmt.Errorf("募集締切処理に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return rowsAffected, nil
}

// rowScanner はQueryRowContextとrows.Nextの両方からスキャンするための共通化。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProject はプロジェクト行をスキャンする。
func scanProject(row rowScanner) (*model.Project, error) {
	project := &model.Project{}
	var recruitEnd, projectStart, projectEnd sql.NullTime

	err := row.Scan(
		&project.ID, &project.Title, &project.Description, &project.ActivityType,
		pq.Array(&project.Positions), pq.Array(&project.TechStacks),
		&project.Location, &project.Region, &project.Progress, &project.Method,
		&project.Status,
		&recruitEnd, &projectStart, &projectEnd,
		&project.OwnerID, &project.OwnerName, &project.Views,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if recruitEnd.Valid {
		project.RecruitEndDate = &recruitEnd.Time
	}
	if projectStart.Valid {
		project.ProjectStartDate = &projectStart.Time
	}
	if projectEnd.Valid {
		project.ProjectEndDate = &projectEnd.Time
	}
	return project, nil
}

// compile-time interface check
var _ ProjectRepository = (*PostgresProjectRepo)(nil)
