// Package solver 提供排班求解器
package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/logger"
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
	"github.com/paigong/paigong/pkg/scheduler/expander"
)

// RunState 单次运行的状态机状态
type RunState string

const (
	RunInitialized RunState = "initialized"
	RunExpanding   RunState = "expanding"
	RunAssigning   RunState = "assigning"
	RunFinalized   RunState = "finalized"
)

// Solver 求解器接口
type Solver interface {
	// Solve 生成覆盖计划
	Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error)

	// Name 返回求解器名称
	Name() string
}

// Result 求解结果
type Result struct {
	Plan             *model.CoveragePlan `json:"plan"`
	Statistics       *Statistics         `json:"statistics"`
	ConstraintResult *constraint.Result  `json:"constraint_result"`
	State            RunState            `json:"state"`
	Duration         time.Duration       `json:"duration"`
	Success          bool                `json:"success"`
	Message          string              `json:"message,omitempty"`
}

// Statistics 排班统计
type Statistics struct {
	TotalAssignments    int     `json:"total_assignments"`
	TotalSlots          int     `json:"total_slots"`
	FilledSlots         int     `json:"filled_slots"`
	FillRate            float64 `json:"fill_rate"`
	TotalShortfall      int     `json:"total_shortfall"`
	TotalHours          float64 `json:"total_hours"`
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"`
}

// GreedySolver 贪心求解器
// 对展开后的排班单元做单次顺序遍历，候选按软规则得分降序、
// 本次运行工时升序、员工ID升序排序，排序固定保证结果可复现
type GreedySolver struct {
	constraintManager *constraint.Manager
	logger            *logger.SchedulerLogger
}

// NewGreedySolver 创建贪心求解器
func NewGreedySolver(cm *constraint.Manager) *GreedySolver {
	return &GreedySolver{
		constraintManager: cm,
		logger:            logger.NewSchedulerLogger(),
	}
}

// Name 返回求解器名称
func (s *GreedySolver) Name() string {
	return "GreedySolver"
}

// Solve 生成覆盖计划
// 状态机：Initialized → Expanding → Assigning → Finalized
// 输入校验失败在 Assigning 之前返回，不产生部分计划；
// 人手不足只记入缺口列表，不是运行失败
func (s *GreedySolver) Solve(ctx context.Context, schedCtx *constraint.Context) (*Result, error) {
	startTime := time.Now()
	state := RunInitialized

	s.logger.StartSchedule(
		fmt.Sprintf("%s~%s", schedCtx.StartDate, schedCtx.EndDate),
		len(schedCtx.Employees),
		countDays(schedCtx.StartDate, schedCtx.EndDate),
	)

	// 输入校验，失败则整个运行失败
	if ve := validateInputs(schedCtx); ve.HasErrors() {
		return nil, ve.ToAppError()
	}

	// 展开需求为有序排班单元
	state = RunExpanding
	slots, err := expander.Expand(schedCtx.Requirements, model.DateRange{
		StartDate: schedCtx.StartDate,
		EndDate:   schedCtx.EndDate,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "需求展开失败")
	}

	plan := &model.CoveragePlan{
		Window:      model.DateRange{StartDate: schedCtx.StartDate, EndDate: schedCtx.EndDate},
		Assignments: make([]*model.Assignment, 0),
		Unfilled:    make([]model.UnfilledSlot, 0),
		GeneratedAt: startTime,
	}

	// 班次窗口异常提示（不阻断运行）
	for _, st := range model.ShiftTypes() {
		if w := st.WindowWarning(); w != "" {
			plan.Warnings = append(plan.Warnings, w)
		}
	}

	result := &Result{
		Plan:       plan,
		Statistics: &Statistics{TotalSlots: len(slots)},
		State:      state,
	}

	// 逐个单元分配，先排单元看不到后排单元的结果，反之可见
	state = RunAssigning
	filledSlots := 0

	// 快照里已占用的ID不能复用，派生时跳过
	usedIDs := make(map[uuid.UUID]bool, len(schedCtx.Assignments))
	for _, a := range schedCtx.Assignments {
		usedIDs[a.ID] = true
	}

	for _, slot := range slots {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		candidates := s.getCandidates(schedCtx, slot)

		assignedCount := 0
		for _, emp := range candidates {
			if assignedCount >= slot.RequiredCount {
				break
			}

			assignment, err := s.createAssignment(emp, slot, startTime, usedIDs)
			if err != nil {
				return result, errors.Wrap(err, errors.CodeInternal, "创建分配失败")
			}
			usedIDs[assignment.ID] = true

			schedCtx.AddRunAssignment(assignment)
			plan.Assignments = append(plan.Assignments, assignment)
			assignedCount++
		}

		if assignedCount >= slot.RequiredCount {
			filledSlots++
		} else {
			plan.Unfilled = append(plan.Unfilled, model.UnfilledSlot{
				ProjectID: slot.ProjectID,
				Date:      slot.Date,
				ShiftType: slot.ShiftType,
				Shortfall: slot.RequiredCount - assignedCount,
				Reason:    "无合格候选员工",
			})
		}
	}

	state = RunFinalized
	result.State = state
	result.ConstraintResult = s.constraintManager.Evaluate(schedCtx)
	result.Success = result.ConstraintResult.IsValid
	result.Duration = time.Since(startTime)

	// 统计信息
	result.Statistics.TotalAssignments = len(plan.Assignments)
	result.Statistics.FilledSlots = filledSlots
	result.Statistics.TotalShortfall = plan.TotalShortfall()

	if len(slots) > 0 {
		result.Statistics.FillRate = float64(filledSlots) / float64(len(slots)) * 100
	} else {
		result.Statistics.FillRate = 100
	}

	employeeHours := make(map[uuid.UUID]float64)
	var totalHours float64
	for _, a := range plan.Assignments {
		h := a.WorkingHours()
		employeeHours[a.EmployeeID] += h
		totalHours += h
	}
	result.Statistics.TotalHours = totalHours
	if len(employeeHours) > 0 {
		result.Statistics.AvgHoursPerEmployee = totalHours / float64(len(employeeHours))
	}

	s.logger.ScheduleComplete(
		fmt.Sprintf("%s~%s", schedCtx.StartDate, schedCtx.EndDate),
		result.Duration,
		result.ConstraintResult.Score,
	)

	if !result.Success {
		result.Message = fmt.Sprintf("存在 %d 个硬规则违反", len(result.ConstraintResult.HardViolations))
	} else {
		result.Message = fmt.Sprintf("排班成功，满足率 %.1f%%，缺口 %d 人次", result.Statistics.FillRate, result.Statistics.TotalShortfall)
	}

	return result, nil
}

// getCandidates 获取排好序的候选员工列表
// 排序：软规则得分降序 → 本次运行工时升序 → 员工ID升序
func (s *GreedySolver) getCandidates(ctx *constraint.Context, slot model.ShiftSlot) []*model.Employee {
	type scored struct {
		emp   *model.Employee
		score int
	}

	var candidates []scored
	for _, emp := range ctx.Employees {
		if !emp.IsActive() {
			continue
		}

		canAssign, reason := s.constraintManager.CanAssign(ctx, emp, slot)
		if !canAssign {
			s.logger.ConstraintViolation("候选过滤", fmt.Sprintf("员工 %s: %s", emp.Name, reason))
			continue
		}

		candidates = append(candidates, scored{
			emp:   emp,
			score: s.constraintManager.Score(ctx, emp, slot),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		hi := ctx.GetEmployeeRunHours(candidates[i].emp.ID)
		hj := ctx.GetEmployeeRunHours(candidates[j].emp.ID)
		if hi != hj {
			return hi < hj
		}
		return candidates[i].emp.ID.String() < candidates[j].emp.ID.String()
	})

	result := make([]*model.Employee, len(candidates))
	for i, c := range candidates {
		result[i] = c.emp
	}
	return result
}

// assignmentIDNamespace 派生分配ID的命名空间
var assignmentIDNamespace = uuid.MustParse("9b1dcb2e-5a7d-4f83-9c6a-2f3e1d4c5b6a")

// createAssignment 创建排班分配
// 分配ID由单元键与员工ID派生，相同输入的两次运行产出相同的ID；
// 与快照中已有ID冲突时带序号重派生，序号只依赖输入，确定性不受影响；
// 时间戳统一取运行开始时刻，运行内所有分配一致
func (s *GreedySolver) createAssignment(emp *model.Employee, slot model.ShiftSlot, at time.Time, usedIDs map[uuid.UUID]bool) (*model.Assignment, error) {
	tr, err := slot.TimeRange()
	if err != nil {
		return nil, err
	}

	seed := slot.Key() + "|" + emp.ID.String()
	id := uuid.NewSHA1(assignmentIDNamespace, []byte(seed))
	for seq := 2; usedIDs[id]; seq++ {
		id = uuid.NewSHA1(assignmentIDNamespace, []byte(fmt.Sprintf("%s#%d", seed, seq)))
	}

	return &model.Assignment{
		BaseModel: model.BaseModel{
			ID:        id,
			CreatedAt: at,
			UpdatedAt: at,
		},
		EmployeeID: emp.ID,
		ProjectID:  slot.ProjectID,
		Date:       slot.Date,
		ShiftType:  slot.ShiftType,
		StartTime:  tr.Start,
		EndTime:    tr.End,
		Status:     model.AssignmentAssigned,
	}, nil
}

// validateInputs 校验运行输入，任何错误都在分配开始前失败
func validateInputs(ctx *constraint.Context) *errors.ValidationErrors {
	ve := &errors.ValidationErrors{}

	window := model.DateRange{StartDate: ctx.StartDate, EndDate: ctx.EndDate}
	if !window.Validate() {
		ve.Add("window", fmt.Sprintf("非法规划窗口: %s ~ %s", ctx.StartDate, ctx.EndDate))
	}

	// 员工ID不得重复
	seen := make(map[uuid.UUID]bool)
	for _, emp := range ctx.Employees {
		if seen[emp.ID] {
			ve.Add("employees", fmt.Sprintf("员工ID重复: %s", emp.ID))
		}
		seen[emp.ID] = true
	}

	// 需求必须引用已知项目且参数合法
	for _, req := range ctx.Requirements {
		if ctx.GetProject(req.ProjectID) == nil {
			ve.Add("requirements", fmt.Sprintf("需求 %s 引用未知项目: %s", req.ID, req.ProjectID))
		}
		if req.Headcount < 1 {
			ve.Add("requirements", fmt.Sprintf("需求 %s 的人数非法: %d", req.ID, req.Headcount))
		}
		if !req.ShiftType.IsValid() {
			ve.Add("requirements", fmt.Sprintf("需求 %s 的班次类型非法: %s", req.ID, req.ShiftType))
		}
		if err := req.Recurrence.Validate(); err != nil {
			ve.Add("requirements", fmt.Sprintf("需求 %s 的重复规则非法: %v", req.ID, err))
		}
	}

	return ve
}

// countDays 计算天数
func countDays(startDate, endDate string) int {
	start, err1 := time.Parse(model.DateFormat, startDate)
	end, err2 := time.Parse(model.DateFormat, endDate)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}
