// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

// AssignmentRepository 排班分配仓储
type AssignmentRepository struct {
	db DB
}

// NewAssignmentRepository 创建分配仓储
func NewAssignmentRepository(db DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// WithTx 返回绑定到指定事务的仓储副本
func (r *AssignmentRepository) WithTx(tx DB) *AssignmentRepository {
	return &AssignmentRepository{db: tx}
}

const assignmentColumns = `id, employee_id, project_id, date, shift_type,
		start_time, end_time, status, notes, created_at, updated_at`

// Create 创建分配
func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO assignments (
			id, employee_id, project_id, date, shift_type,
			start_time, end_time, status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.EmployeeID, a.ProjectID, a.Date, a.ShiftType,
		a.StartTime, a.EndTime, a.Status, a.Notes, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建分配失败: %w", err)
	}

	return nil
}

// CreateBatch 批量创建分配，引擎单次运行的产出整体落库
func (r *AssignmentRepository) CreateBatch(ctx context.Context, assignments []*model.Assignment) error {
	for _, a := range assignments {
		if err := r.Create(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据ID获取分配
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM assignments
		WHERE id = $1
	`, assignmentColumns)

	return r.scanAssignment(r.db.QueryRowContext(ctx, query, id))
}

// UpdateStatus 更新分配状态
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE assignments SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新分配状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("分配不存在")
	}

	return nil
}

// List 查询分配列表
func (r *AssignmentRepository) List(ctx context.Context, filter ListFilter) ([]*model.Assignment, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "1=1")

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIndex))
		args = append(args, *filter.EmployeeID)
		argIndex++
	}

	if filter.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argIndex))
		args = append(args, *filter.ProjectID)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argIndex))
		args = append(args, filter.StartDate)
		argIndex++
	}

	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", argIndex))
		args = append(args, filter.EndDate)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM assignments WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "date"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "asc"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM assignments
		WHERE %s
		ORDER BY %s %s, start_time asc
		LIMIT $%d OFFSET $%d
	`, assignmentColumns, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var assignments []*model.Assignment
	for rows.Next() {
		a, err := r.scanAssignmentRow(rows)
		if err != nil {
			return nil, 0, err
		}
		assignments = append(assignments, a)
	}

	return assignments, total, nil
}

// ListByEmployee 查询员工在日期区间内的分配
func (r *AssignmentRepository) ListByEmployee(ctx context.Context, employeeID uuid.UUID, start, end string) ([]*model.Assignment, error) {
	filter := DefaultListFilter().
		WithEmployeeID(employeeID).
		WithDateRange(start, end).
		WithLimit(10000)
	filter.OrderBy = "date"
	filter.OrderDir = "asc"
	assignments, _, err := r.List(ctx, filter)
	return assignments, err
}

// ListByWindow 查询日期区间内的全部分配
func (r *AssignmentRepository) ListByWindow(ctx context.Context, start, end string) ([]*model.Assignment, error) {
	filter := DefaultListFilter().WithDateRange(start, end).WithLimit(100000)
	filter.OrderBy = "date"
	filter.OrderDir = "asc"
	assignments, _, err := r.List(ctx, filter)
	return assignments, err
}

// DeleteGeneratedInWindow 删除窗口内引擎排定且未变更的分配
// 重新生成覆盖计划前调用，自报与取消的记录保留
func (r *AssignmentRepository) DeleteGeneratedInWindow(ctx context.Context, start, end string) (int64, error) {
	query := `DELETE FROM assignments WHERE date >= $1 AND date <= $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, start, end, model.AssignmentAssigned)
	if err != nil {
		return 0, fmt.Errorf("删除窗口内分配失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}

// ReplaceGeneratedInWindow 在一个事务内删除窗口内引擎排定的分配并写入新产出
// 任一步失败整体回滚，窗口不会出现半新半旧的状态
func (r *AssignmentRepository) ReplaceGeneratedInWindow(ctx context.Context, start, end string, assignments []*model.Assignment) (int64, error) {
	runner, ok := r.db.(TxRunner)
	if !ok {
		return 0, fmt.Errorf("当前数据库句柄不支持事务")
	}

	var removed int64
	err := runner.Transaction(ctx, func(tx *sql.Tx) error {
		repo := r.WithTx(tx)
		n, err := repo.DeleteGeneratedInWindow(ctx, start, end)
		if err != nil {
			return err
		}
		removed = n
		return repo.CreateBatch(ctx, assignments)
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

// CancelAndCreate 在一个事务内取消原分配并创建接替分配
func (r *AssignmentRepository) CancelAndCreate(ctx context.Context, sourceID uuid.UUID, replacement *model.Assignment) error {
	runner, ok := r.db.(TxRunner)
	if !ok {
		return fmt.Errorf("当前数据库句柄不支持事务")
	}

	return runner.Transaction(ctx, func(tx *sql.Tx) error {
		repo := r.WithTx(tx)
		if err := repo.UpdateStatus(ctx, sourceID, model.AssignmentCancelled); err != nil {
			return err
		}
		return repo.Create(ctx, replacement)
	})
}

// scanAssignment 扫描单行分配数据
func (r *AssignmentRepository) scanAssignment(row *sql.Row) (*model.Assignment, error) {
	a := &model.Assignment{}

	err := row.Scan(
		&a.ID, &a.EmployeeID, &a.ProjectID, &a.Date, &a.ShiftType,
		&a.StartTime, &a.EndTime, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描分配数据失败: %w", err)
	}

	return a, nil
}

// scanAssignmentRow 扫描Rows中的分配数据
func (r *AssignmentRepository) scanAssignmentRow(rows *sql.Rows) (*model.Assignment, error) {
	a := &model.Assignment{}

	err := rows.Scan(
		&a.ID, &a.EmployeeID, &a.ProjectID, &a.Date, &a.ShiftType,
		&a.StartTime, &a.EndTime, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描分配数据失败: %w", err)
	}

	return a, nil
}
