// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/internal/security"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
)

// AssignmentHandler 排班分配处理器
// 含员工自报门户：员工凭令牌上报班次，管理端审批或取消
type AssignmentHandler struct {
	employees   EmployeeStore
	projects    ProjectStore
	assignments AssignmentStore
}

// NewAssignmentHandler 创建分配处理器
func NewAssignmentHandler(
	employees EmployeeStore,
	projects ProjectStore,
	assignments AssignmentStore,
) *AssignmentHandler {
	return &AssignmentHandler{
		employees:   employees,
		projects:    projects,
		assignments: assignments,
	}
}

// List 查询分配列表
// GET /api/v1/assignments
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)

	assignments, total, err := h.assignments.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询分配列表失败"))
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Items: assignments, Total: total})
}

// ReportRequest 员工自报请求
type ReportRequest struct {
	ProjectID string          `json:"project_id"`
	Date      string          `json:"date"`
	ShiftType model.ShiftType `json:"shift_type"`
	Notes     string          `json:"notes,omitempty"`
}

// Report 员工自报班次，凭门户令牌认证
// POST /api/v1/portal/report
// 自报记录状态为 reported，待管理端审批，与已有未取消分配重叠则拒绝
func (h *AssignmentHandler) Report(w http.ResponseWriter, r *http.Request) {
	token := security.ExtractPortalToken(r)
	if token == "" {
		respondError(w, errors.New(errors.CodeUnauthorized, "门户令牌未提供"))
		return
	}

	emp, err := h.employees.GetByTokenHash(r.Context(), security.HashToken(token))
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询员工失败"))
		return
	}
	if emp == nil {
		respondError(w, errors.New(errors.CodeUnauthorized, "无效的门户令牌"))
		return
	}
	if !emp.IsActive() {
		respondError(w, errors.New(errors.CodeForbidden, "员工不在职"))
		return
	}

	var req ReportRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	ve := &errors.ValidationErrors{}
	if req.ProjectID == "" {
		ve.Add("project_id", "项目ID不能为空")
	}
	if _, err := time.Parse(model.DateFormat, req.Date); err != nil {
		ve.Add("date", "日期格式无效，应为YYYY-MM-DD")
	}
	if !req.ShiftType.IsValid() {
		ve.Add("shift_type", "未知班次类型: "+string(req.ShiftType))
	}
	if ve.HasErrors() {
		respondError(w, ve.ToAppError())
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		respondError(w, errors.InvalidInput("project_id", "无效的UUID格式"))
		return
	}
	project, err := h.projects.GetByID(r.Context(), projectID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询项目失败"))
		return
	}
	if project == nil {
		respondError(w, errors.NotFound("项目", req.ProjectID))
		return
	}

	tr, err := req.ShiftType.TimeRangeOn(req.Date)
	if err != nil {
		respondError(w, errors.InvalidInput("shift_type", err.Error()))
		return
	}

	// 与已有未取消分配重叠则拒绝
	existing, err := h.assignments.ListByEmployee(r.Context(), emp.ID, req.Date, addDate(req.Date, 1))
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询已有分配失败"))
		return
	}
	for _, a := range existing {
		if a.IsCounted() && a.TimeRange().Overlaps(tr) {
			respondError(w, errors.ScheduleConflict(emp.ID.String(), req.Date, "与已有分配时间重叠"))
			return
		}
	}

	assignment := &model.Assignment{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: emp.ID,
		ProjectID:  projectID,
		Date:       req.Date,
		ShiftType:  req.ShiftType,
		StartTime:  tr.Start,
		EndTime:    tr.End,
		Status:     model.AssignmentReported,
		Notes:      req.Notes,
	}

	if err := h.assignments.Create(r.Context(), assignment); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存自报记录失败"))
		return
	}

	respondJSON(w, http.StatusCreated, assignment)
}

// MyAssignments 员工查询本人分配
// GET /api/v1/portal/assignments
func (h *AssignmentHandler) MyAssignments(w http.ResponseWriter, r *http.Request) {
	token := security.ExtractPortalToken(r)
	if token == "" {
		respondError(w, errors.New(errors.CodeUnauthorized, "门户令牌未提供"))
		return
	}

	emp, err := h.employees.GetByTokenHash(r.Context(), security.HashToken(token))
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询员工失败"))
		return
	}
	if emp == nil {
		respondError(w, errors.New(errors.CodeUnauthorized, "无效的门户令牌"))
		return
	}

	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")

	assignments, err := h.assignments.ListByEmployee(r.Context(), emp.ID, start, end)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询分配失败"))
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Items: assignments, Total: len(assignments)})
}

// Approve 审批自报记录，状态 reported → assigned
// POST /api/v1/assignments/{id}/approve
func (h *AssignmentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.AssignmentReported, model.AssignmentAssigned, "只有自报记录可以审批")
}

// Cancel 取消分配，取消后不计工时与成本
// POST /api/v1/assignments/{id}/cancel
func (h *AssignmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	a, err := h.assignments.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询分配失败"))
		return
	}
	if a == nil {
		respondError(w, errors.NotFound("分配", id.String()))
		return
	}
	if a.Status == model.AssignmentCancelled {
		respondError(w, errors.New(errors.CodeScheduleConflict, "分配已取消"))
		return
	}

	if err := h.assignments.UpdateStatus(r.Context(), id, model.AssignmentCancelled); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "取消分配失败"))
		return
	}

	a.Status = model.AssignmentCancelled
	respondJSON(w, http.StatusOK, a)
}

// transition 状态迁移
func (h *AssignmentHandler) transition(w http.ResponseWriter, r *http.Request, from, to, message string) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	a, err := h.assignments.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询分配失败"))
		return
	}
	if a == nil {
		respondError(w, errors.NotFound("分配", id.String()))
		return
	}
	if a.Status != from {
		respondError(w, errors.New(errors.CodeScheduleConflict, message))
		return
	}

	if err := h.assignments.UpdateStatus(r.Context(), id, to); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "更新状态失败"))
		return
	}

	a.Status = to
	respondJSON(w, http.StatusOK, a)
}

// addDate 日期字符串偏移
func addDate(date string, days int) string {
	t, err := time.Parse(model.DateFormat, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format(model.DateFormat)
}
