// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/internal/config"
	"github.com/paigong/paigong/internal/metrics"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
	"github.com/paigong/paigong/pkg/scheduler/constraint/builtin"
	"github.com/paigong/paigong/pkg/scheduler/solver"
	"github.com/paigong/paigong/pkg/validator"
)

// ScheduleHandler 排班运行处理器
// 负责拼装输入快照、调用引擎、落库产出
type ScheduleHandler struct {
	employees   EmployeeStore
	projects    ProjectStore
	assignments AssignmentStore
	engineCfg   config.EngineConfig
}

// NewScheduleHandler 创建排班处理器
func NewScheduleHandler(
	employees EmployeeStore,
	projects ProjectStore,
	assignments AssignmentStore,
	engineCfg config.EngineConfig,
) *ScheduleHandler {
	return &ScheduleHandler{
		employees:   employees,
		projects:    projects,
		assignments: assignments,
		engineCfg:   engineCfg,
	}
}

// GenerateRequest 排班生成请求
type GenerateRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	// 本次运行的需求覆盖，非空时完全替换项目上配置的需求
	RequirementOverrides []RequirementOverride `json:"requirement_overrides,omitempty"`

	// 规则参数覆盖
	RuleConfig map[string]interface{} `json:"rule_config,omitempty"`

	Options *GenerateOptions `json:"options,omitempty"`
}

// RequirementOverride 单次运行的需求覆盖
type RequirementOverride struct {
	ProjectID  string           `json:"project_id"`
	ShiftType  model.ShiftType  `json:"shift_type"`
	Recurrence model.Recurrence `json:"recurrence"`
	Headcount  int              `json:"headcount"`
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	Timeout int `json:"timeout_seconds,omitempty"`
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success     bool                    `json:"success"`
	Message     string                  `json:"message,omitempty"`
	RunID       string                  `json:"run_id"`
	Persisted   bool                    `json:"persisted"`
	Plan        *model.CoveragePlan     `json:"plan"`
	Statistics  *solver.Statistics      `json:"statistics"`
	Constraints *ConstraintResultOutput `json:"constraint_result,omitempty"`
	Duration    string                  `json:"duration"`
}

// ConstraintResultOutput 规则审计结果输出
type ConstraintResultOutput struct {
	IsValid        bool                         `json:"is_valid"`
	Score          float64                      `json:"score"`
	HardViolations []constraint.ViolationDetail `json:"hard_violations,omitempty"`
	SoftViolations []constraint.ViolationDetail `json:"soft_violations,omitempty"`
}

// Generate 生成排班并落库
// POST /api/v1/schedule/generate
// 窗口内原有的引擎排定分配被替换，自报与取消的记录保留
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, true)
}

// Preview 生成排班但不落库
// POST /api/v1/schedule/preview
func (h *ScheduleHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, false)
}

func (h *ScheduleHandler) run(w http.ResponseWriter, r *http.Request, persist bool) {
	var req GenerateRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	if appErr := validateGenerateRequest(&req); appErr != nil {
		respondError(w, appErr)
		return
	}

	schedCtx, appErr := h.buildContext(r.Context(), &req)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	cm := constraint.NewManager()
	builtin.RegisterDefaultConstraints(cm, h.mergedRuleConfig(req.RuleConfig))

	s := solver.NewGreedySolver(cm)

	timeout := h.engineCfg.DefaultTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if req.Options != nil && req.Options.Timeout > 0 {
		timeout = time.Duration(req.Options.Timeout) * time.Second
	}
	solveCtx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	start := time.Now()
	result, err := s.Solve(solveCtx, schedCtx)
	if err != nil {
		metrics.RecordScheduleRun(false, time.Since(start), 0, 0)
		if err == context.DeadlineExceeded {
			respondError(w, errors.New(errors.CodeTimeout, "排班计算超时，请缩短规划窗口"))
			return
		}
		if appErr, ok := err.(*errors.AppError); ok {
			respondError(w, appErr)
			return
		}
		respondError(w, errors.Wrap(err, errors.CodeInternal, "排班失败"))
		return
	}

	// 产出审计：引擎输出出现重叠属于程序缺陷
	employeeMap := make(map[uuid.UUID]*model.Employee)
	for _, emp := range schedCtx.Employees {
		employeeMap[emp.ID] = emp
	}
	auditor := validator.NewPlanAuditor()
	if err := auditor.AssertNoOverlap(result.Plan, employeeMap); err != nil {
		metrics.RecordScheduleRun(false, result.Duration, 0, 0)
		respondError(w, errors.Wrap(err, errors.CodeOverlapConflict, "引擎产出未通过审计"))
		return
	}

	persisted := false
	if persist {
		// 清理旧排班与写入新产出在同一事务内完成
		if _, err := h.assignments.ReplaceGeneratedInWindow(r.Context(), req.StartDate, req.EndDate, result.Plan.Assignments); err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存排班失败"))
			return
		}
		persisted = true
	}

	metrics.RecordScheduleRun(result.Success, result.Duration,
		result.Statistics.TotalAssignments, result.Statistics.TotalShortfall)
	if result.Statistics.TotalSlots > 0 {
		metrics.SetCoverageRate(result.Statistics.FillRate)
	}

	resp := GenerateResponse{
		Success:    result.Success,
		Message:    result.Message,
		RunID:      uuid.New().String(),
		Persisted:  persisted,
		Plan:       result.Plan,
		Statistics: result.Statistics,
		Duration:   result.Duration.String(),
	}
	if result.ConstraintResult != nil {
		resp.Constraints = &ConstraintResultOutput{
			IsValid:        result.ConstraintResult.IsValid,
			Score:          result.ConstraintResult.Score,
			HardViolations: result.ConstraintResult.HardViolations,
			SoftViolations: result.ConstraintResult.SoftViolations,
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// buildContext 从仓储拼装引擎输入快照
func (h *ScheduleHandler) buildContext(ctx context.Context, req *GenerateRequest) (*constraint.Context, *errors.AppError) {
	schedCtx := constraint.NewContext(req.StartDate, req.EndDate)

	employees, err := h.employees.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载员工失败")
	}
	schedCtx.SetEmployees(employees)

	projects, err := h.projects.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载项目失败")
	}
	schedCtx.SetProjects(projects)

	if len(req.RequirementOverrides) > 0 {
		requirements := make([]*model.ShiftRequirement, 0, len(req.RequirementOverrides))
		for _, o := range req.RequirementOverrides {
			projectID, err := uuid.Parse(o.ProjectID)
			if err != nil {
				return nil, errors.InvalidInput("requirement_overrides", "无效的项目ID格式: "+o.ProjectID)
			}
			requirements = append(requirements, &model.ShiftRequirement{
				BaseModel:  model.NewBaseModel(),
				ProjectID:  projectID,
				ShiftType:  o.ShiftType,
				Recurrence: o.Recurrence,
				Headcount:  o.Headcount,
			})
		}
		schedCtx.SetRequirements(requirements)
	} else {
		var requirements []*model.ShiftRequirement
		for _, p := range projects {
			requirements = append(requirements, p.Requirements...)
		}
		schedCtx.SetRequirements(requirements)
	}

	// 窗口内已有的自报分配进入快照，引擎排班时避开它们
	existing, err := h.assignments.ListByWindow(ctx, req.StartDate, req.EndDate)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载已有分配失败")
	}
	var kept []*model.Assignment
	for _, a := range existing {
		if a.Status != model.AssignmentAssigned {
			kept = append(kept, a)
		}
	}
	schedCtx.SetAssignments(kept)

	return schedCtx, nil
}

// mergedRuleConfig 引擎默认参数与请求覆盖合并
func (h *ScheduleHandler) mergedRuleConfig(override map[string]interface{}) map[string]interface{} {
	merged := h.engineCfg.RuleConfig()
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

// validateGenerateRequest 验证生成请求
func validateGenerateRequest(req *GenerateRequest) *errors.AppError {
	ve := &errors.ValidationErrors{}

	if req.StartDate == "" {
		ve.Add("start_date", "开始日期不能为空")
	}
	if req.EndDate == "" {
		ve.Add("end_date", "结束日期不能为空")
	}

	if req.StartDate != "" {
		if _, err := time.Parse(model.DateFormat, req.StartDate); err != nil {
			ve.Add("start_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}
	if req.EndDate != "" {
		if _, err := time.Parse(model.DateFormat, req.EndDate); err != nil {
			ve.Add("end_date", "日期格式无效，应为YYYY-MM-DD")
		}
	}
	if req.StartDate != "" && req.EndDate != "" && req.EndDate < req.StartDate {
		ve.Add("end_date", "结束日期不能早于开始日期")
	}

	for _, o := range req.RequirementOverrides {
		if o.ProjectID == "" {
			ve.Add("requirement_overrides", "项目ID不能为空")
		}
		if !o.ShiftType.IsValid() {
			ve.Add("requirement_overrides", "未知班次类型: "+string(o.ShiftType))
		}
		if o.Headcount < 1 {
			ve.Add("requirement_overrides", "所需人数必须至少为1")
		}
		if err := o.Recurrence.Validate(); err != nil {
			ve.Add("requirement_overrides", err.Error())
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}
