// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/internal/config"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
	"github.com/paigong/paigong/pkg/scheduler/constraint/builtin"
	"github.com/paigong/paigong/pkg/swap"
)

// SwapHandler 换班与补位处理器
type SwapHandler struct {
	employees   EmployeeStore
	assignments AssignmentStore
	engineCfg   config.EngineConfig
}

// NewSwapHandler 创建换班处理器
func NewSwapHandler(
	employees EmployeeStore,
	assignments AssignmentStore,
	engineCfg config.EngineConfig,
) *SwapHandler {
	return &SwapHandler{
		employees:   employees,
		assignments: assignments,
		engineCfg:   engineCfg,
	}
}

// CheckRequest 换班可行性请求
// TargetEmployeeID 为空时返回推荐的接替人选
type CheckRequest struct {
	AssignmentID     string `json:"assignment_id"`
	TargetEmployeeID string `json:"target_employee_id,omitempty"`
	MaxCandidates    int    `json:"max_candidates,omitempty"`
}

// CheckResponse 换班可行性响应
type CheckResponse struct {
	Evaluation      *swap.Evaluation      `json:"evaluation,omitempty"`
	Recommendations []swap.Recommendation `json:"recommendations,omitempty"`
}

// Check 评估换班可行性或推荐接替人选
// POST /api/v1/swaps/check
func (h *SwapHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	assignmentID, err := uuid.Parse(req.AssignmentID)
	if err != nil {
		respondError(w, errors.InvalidInput("assignment_id", "无效的UUID格式"))
		return
	}

	source, err := h.assignments.GetByID(r.Context(), assignmentID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询分配失败"))
		return
	}
	if source == nil {
		respondError(w, errors.NotFound("分配", req.AssignmentID))
		return
	}
	if source.Status == model.AssignmentCancelled {
		respondError(w, errors.New(errors.CodeScheduleConflict, "已取消的分配不能换班"))
		return
	}

	schedCtx, cm, appErr := h.buildContext(r.Context(), source.Date)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	if req.TargetEmployeeID != "" {
		targetID, err := uuid.Parse(req.TargetEmployeeID)
		if err != nil {
			respondError(w, errors.InvalidInput("target_employee_id", "无效的UUID格式"))
			return
		}
		target := schedCtx.GetEmployee(targetID)
		if target == nil {
			respondError(w, errors.NotFound("员工", req.TargetEmployeeID))
			return
		}

		evaluation := swap.NewEvaluator(cm).EvaluateTakeOver(schedCtx, source, target)
		respondJSON(w, http.StatusOK, CheckResponse{Evaluation: evaluation})
		return
	}

	options := swap.DefaultOptions()
	if req.MaxCandidates > 0 {
		options.MaxRecommendations = req.MaxCandidates
	}
	recommendations := swap.NewRecommender(cm).RecommendTakeOvers(schedCtx, source, options)
	respondJSON(w, http.StatusOK, CheckResponse{Recommendations: recommendations})
}

// ExecuteRequest 换班执行请求
type ExecuteRequest struct {
	AssignmentID     string `json:"assignment_id"`
	TargetEmployeeID string `json:"target_employee_id"`
}

// Execute 执行换班：原分配取消，目标员工获得新分配
// POST /api/v1/swaps/execute
func (h *SwapHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	assignmentID, err := uuid.Parse(req.AssignmentID)
	if err != nil {
		respondError(w, errors.InvalidInput("assignment_id", "无效的UUID格式"))
		return
	}
	targetID, err := uuid.Parse(req.TargetEmployeeID)
	if err != nil {
		respondError(w, errors.InvalidInput("target_employee_id", "无效的UUID格式"))
		return
	}

	source, err := h.assignments.GetByID(r.Context(), assignmentID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询分配失败"))
		return
	}
	if source == nil {
		respondError(w, errors.NotFound("分配", req.AssignmentID))
		return
	}

	schedCtx, cm, appErr := h.buildContext(r.Context(), source.Date)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	target := schedCtx.GetEmployee(targetID)
	if target == nil {
		respondError(w, errors.NotFound("员工", req.TargetEmployeeID))
		return
	}

	if ok, reason := swap.NewEvaluator(cm).CanSwap(schedCtx, source, target); !ok {
		respondError(w, errors.New(errors.CodeConstraintViolation, reason))
		return
	}

	replacement := &model.Assignment{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: targetID,
		ProjectID:  source.ProjectID,
		Date:       source.Date,
		ShiftType:  source.ShiftType,
		StartTime:  source.StartTime,
		EndTime:    source.EndTime,
		Status:     model.AssignmentAssigned,
		Notes:      "换班接替",
	}
	// 取消原分配与创建接替在同一事务内完成
	if err := h.assignments.CancelAndCreate(r.Context(), source.ID, replacement); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "执行换班失败"))
		return
	}

	respondJSON(w, http.StatusOK, replacement)
}

// BackfillRequest 缺口补位推荐请求
type BackfillRequest struct {
	ProjectID     string          `json:"project_id"`
	Date          string          `json:"date"`
	ShiftType     model.ShiftType `json:"shift_type"`
	Shortfall     int             `json:"shortfall,omitempty"`
	MaxCandidates int             `json:"max_candidates,omitempty"`
}

// Backfill 为未填满的排班单元推荐补位员工
// POST /api/v1/swaps/backfill
func (h *SwapHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	var req BackfillRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	ve := &errors.ValidationErrors{}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		ve.Add("project_id", "无效的UUID格式")
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

	schedCtx, cm, appErr := h.buildContext(r.Context(), req.Date)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	shortfall := req.Shortfall
	if shortfall < 1 {
		shortfall = 1
	}

	unfilled := model.UnfilledSlot{
		ProjectID: projectID,
		Date:      req.Date,
		ShiftType: req.ShiftType,
		Shortfall: shortfall,
	}

	options := swap.DefaultOptions()
	if req.MaxCandidates > 0 {
		options.MaxRecommendations = req.MaxCandidates
	}

	recommendations := swap.NewRecommender(cm).RecommendBackfills(schedCtx, unfilled, options)
	respondJSON(w, http.StatusOK, CheckResponse{Recommendations: recommendations})
}

// buildContext 以目标日期所在周为窗口拼装评估上下文
// 窗口取前后各7天，覆盖周工时软上限需要的整周数据
func (h *SwapHandler) buildContext(ctx context.Context, date string) (*constraint.Context, *constraint.Manager, *errors.AppError) {
	start := addDate(date, -7)
	end := addDate(date, 7)

	schedCtx := constraint.NewContext(start, end)

	employees, err := h.employees.ListActive(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeDatabaseError, "加载员工失败")
	}
	schedCtx.SetEmployees(employees)

	assignments, err := h.assignments.ListByWindow(ctx, start, end)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeDatabaseError, "加载分配失败")
	}
	schedCtx.SetAssignments(assignments)

	cm := constraint.NewManager()
	builtin.RegisterDefaultConstraints(cm, h.engineCfg.RuleConfig())

	return schedCtx, cm, nil
}
