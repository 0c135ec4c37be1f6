// Package validator 提供覆盖计划的不变量审计
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
)

// ViolationType 违规类型
type ViolationType string

const (
	ViolationOverlap      ViolationType = "overlap"       // 时间重叠
	ViolationBlockedDate  ViolationType = "blocked_date"  // 屏蔽日期被排班
	ViolationAvailability ViolationType = "availability"  // 可用性不允许
	ViolationHeadcount    ViolationType = "headcount"     // 人数越界
)

// Violation 违规信息
type Violation struct {
	Type        ViolationType `json:"type"`
	Severity    string        `json:"severity"` // error/warning
	EmployeeID  uuid.UUID     `json:"employee_id,omitempty"`
	Date        string        `json:"date,omitempty"`
	Message     string        `json:"message"`
	Assignments []uuid.UUID   `json:"assignments,omitempty"` // 相关的分配ID
}

// PlanAuditor 覆盖计划审计器
// 引擎输出不应出现任何一条违规，出现即为引擎缺陷
type PlanAuditor struct{}

// NewPlanAuditor 创建计划审计器
func NewPlanAuditor() *PlanAuditor {
	return &PlanAuditor{}
}

// Audit 审计计划的全部不变量
func (d *PlanAuditor) Audit(plan *model.CoveragePlan, employees map[uuid.UUID]*model.Employee, slots []model.ShiftSlot) []Violation {
	var violations []Violation

	byEmployee := groupByEmployee(plan.Assignments)

	for empID, empAssignments := range byEmployee {
		emp := employees[empID]
		if emp == nil {
			continue
		}

		violations = append(violations, d.detectOverlaps(emp, empAssignments)...)
		violations = append(violations, d.detectHardRuleBreaches(emp, empAssignments)...)
	}

	violations = append(violations, d.detectHeadcountBreaches(plan, slots)...)

	return violations
}

// AssertNoOverlap 断言计划中不存在重叠分配
// 发现重叠返回 OverlapConflict 错误，调用方应视为程序缺陷处理
func (d *PlanAuditor) AssertNoOverlap(plan *model.CoveragePlan, employees map[uuid.UUID]*model.Employee) error {
	for empID, empAssignments := range groupByEmployee(plan.Assignments) {
		emp := employees[empID]
		if emp == nil {
			continue
		}
		for _, v := range d.detectOverlaps(emp, empAssignments) {
			return errors.OverlapConflict(empID.String(), v.Date, v.Message)
		}
	}
	return nil
}

// detectOverlaps 检测同一员工未取消分配之间的时间重叠
func (d *PlanAuditor) detectOverlaps(emp *model.Employee, assignments []*model.Assignment) []Violation {
	var violations []Violation

	sorted := make([]*model.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.IsCounted() {
			sorted = append(sorted, a)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	for i := 0; i < len(sorted)-1; i++ {
		current := sorted[i]
		next := sorted[i+1]

		if current.TimeRange().Overlaps(next.TimeRange()) {
			violations = append(violations, Violation{
				Type:        ViolationOverlap,
				Severity:    "error",
				EmployeeID:  emp.ID,
				Date:        current.Date,
				Message:     fmt.Sprintf("员工 %s 在 %s 存在时间重叠的分配", emp.Name, current.Date),
				Assignments: []uuid.UUID{current.ID, next.ID},
			})
		}
	}

	return violations
}

// detectHardRuleBreaches 检测屏蔽日期与可用性违规
func (d *PlanAuditor) detectHardRuleBreaches(emp *model.Employee, assignments []*model.Assignment) []Violation {
	var violations []Violation

	for _, a := range assignments {
		if !a.IsCounted() {
			continue
		}

		if emp.IsBlocked(a.Date) {
			violations = append(violations, Violation{
				Type:        ViolationBlockedDate,
				Severity:    "error",
				EmployeeID:  emp.ID,
				Date:        a.Date,
				Message:     fmt.Sprintf("员工 %s 在屏蔽日期 %s 被排班", emp.Name, a.Date),
				Assignments: []uuid.UUID{a.ID},
			})
		}

		weekday, err := model.WeekdayOf(a.Date)
		if err != nil {
			continue
		}
		if !emp.AllowsShift(a.ShiftType, weekday) {
			violations = append(violations, Violation{
				Type:        ViolationAvailability,
				Severity:    "error",
				EmployeeID:  emp.ID,
				Date:        a.Date,
				Message:     fmt.Sprintf("员工 %s 的可用性不包含 %s %s 班", emp.Name, weekday, a.ShiftType),
				Assignments: []uuid.UUID{a.ID},
			})
		}
	}

	return violations
}

// detectHeadcountBreaches 检测人数越界：每个单元分配数不得超过所需人数，
// 且分配数加缺口数必须等于所需人数
func (d *PlanAuditor) detectHeadcountBreaches(plan *model.CoveragePlan, slots []model.ShiftSlot) []Violation {
	var violations []Violation

	assignedBySlot := make(map[string]int)
	for _, a := range plan.Assignments {
		slot := model.ShiftSlot{ProjectID: a.ProjectID, Date: a.Date, ShiftType: a.ShiftType}
		assignedBySlot[slot.Key()]++
	}

	shortfallBySlot := make(map[string]int)
	for _, u := range plan.Unfilled {
		slot := model.ShiftSlot{ProjectID: u.ProjectID, Date: u.Date, ShiftType: u.ShiftType}
		shortfallBySlot[slot.Key()] += u.Shortfall
	}

	// 同一单元可能被多条需求重复列出，所需人数按键位累加后逐键比对
	requiredBySlot := make(map[string]int)
	var unique []model.ShiftSlot
	for _, slot := range slots {
		if _, seen := requiredBySlot[slot.Key()]; !seen {
			unique = append(unique, slot)
		}
		requiredBySlot[slot.Key()] += slot.RequiredCount
	}

	for _, slot := range unique {
		assigned := assignedBySlot[slot.Key()]
		shortfall := shortfallBySlot[slot.Key()]
		required := requiredBySlot[slot.Key()]

		if assigned > required {
			violations = append(violations, Violation{
				Type:     ViolationHeadcount,
				Severity: "error",
				Date:     slot.Date,
				Message:  fmt.Sprintf("单元 %s 分配 %d 人，超过所需 %d 人", slot.Key(), assigned, required),
			})
		}
		if assigned+shortfall != required {
			violations = append(violations, Violation{
				Type:     ViolationHeadcount,
				Severity: "error",
				Date:     slot.Date,
				Message:  fmt.Sprintf("单元 %s 分配 %d 人加缺口 %d 人不等于所需 %d 人", slot.Key(), assigned, shortfall, required),
			})
		}
	}

	return violations
}

// groupByEmployee 按员工分组
func groupByEmployee(assignments []*model.Assignment) map[uuid.UUID][]*model.Assignment {
	result := make(map[uuid.UUID][]*model.Assignment)
	for _, a := range assignments {
		result[a.EmployeeID] = append(result[a.EmployeeID], a)
	}
	return result
}
