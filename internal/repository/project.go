// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

// ProjectRepository 项目仓储
// 班次需求作为 JSONB 列随项目一起存取
type ProjectRepository struct {
	db DB
}

// NewProjectRepository 创建项目仓储
func NewProjectRepository(db DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, name, code, hourly_rate, active, requirements, created_at, updated_at`

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	for _, req := range p.Requirements {
		if req.ID == uuid.Nil {
			req.ID = uuid.New()
		}
		req.ProjectID = p.ID
	}
	reqsJSON, _ := json.Marshal(p.Requirements)

	query := `
		INSERT INTO projects (
			id, name, code, hourly_rate, active, requirements, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Code, p.HourlyRate, p.Active, reqsJSON, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建项目失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取项目
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM projects
		WHERE id = $1 AND deleted_at IS NULL
	`, projectColumns)

	return r.scanProject(r.db.QueryRowContext(ctx, query, id))
}

// GetByCode 根据编码获取项目
func (r *ProjectRepository) GetByCode(ctx context.Context, code string) (*model.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM projects
		WHERE code = $1 AND deleted_at IS NULL
	`, projectColumns)

	return r.scanProject(r.db.QueryRowContext(ctx, query, code))
}

// Update 更新项目
func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	p.UpdatedAt = time.Now()

	for _, req := range p.Requirements {
		if req.ID == uuid.Nil {
			req.ID = uuid.New()
		}
		req.ProjectID = p.ID
	}
	reqsJSON, _ := json.Marshal(p.Requirements)

	query := `
		UPDATE projects SET
			name = $2, code = $3, hourly_rate = $4, active = $5, requirements = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Code, p.HourlyRate, p.Active, reqsJSON, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新项目失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("项目不存在")
	}

	return nil
}

// Delete 软删除项目
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE projects SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除项目失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("项目不存在")
	}

	return nil
}

// List 查询项目列表
func (r *ProjectRepository) List(ctx context.Context, filter ListFilter) ([]*model.Project, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.Status == "active" {
		conditions = append(conditions, "active = TRUE")
	} else if filter.Status == "inactive" {
		conditions = append(conditions, "active = FALSE")
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM projects WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM projects
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, projectColumns, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p, err := r.scanProjectRow(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, p)
	}

	return projects, total, nil
}

// ListActive 获取所有启用的项目
func (r *ProjectRepository) ListActive(ctx context.Context) ([]*model.Project, error) {
	filter := DefaultListFilter().WithStatus("active").WithLimit(10000)
	projects, _, err := r.List(ctx, filter)
	return projects, err
}

// scanProject 扫描单行项目数据
func (r *ProjectRepository) scanProject(row *sql.Row) (*model.Project, error) {
	p := &model.Project{}
	var reqsJSON []byte

	err := row.Scan(
		&p.ID, &p.Name, &p.Code, &p.HourlyRate, &p.Active, &reqsJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描项目数据失败: %w", err)
	}

	json.Unmarshal(reqsJSON, &p.Requirements)

	return p, nil
}

// scanProjectRow 扫描Rows中的项目数据
func (r *ProjectRepository) scanProjectRow(rows *sql.Rows) (*model.Project, error) {
	p := &model.Project{}
	var reqsJSON []byte

	err := rows.Scan(
		&p.ID, &p.Name, &p.Code, &p.HourlyRate, &p.Active, &reqsJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描项目数据失败: %w", err)
	}

	json.Unmarshal(reqsJSON, &p.Requirements)

	return p, nil
}
