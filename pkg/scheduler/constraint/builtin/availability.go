// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
)

// AvailabilityConstraint 每周可用性规则（硬规则）
// 员工的可用性集合必须包含（班次类型，星期）组合
type AvailabilityConstraint struct {
	*BaseConstraint
}

// NewAvailabilityConstraint 创建每周可用性规则
func NewAvailabilityConstraint() *AvailabilityConstraint {
	return &AvailabilityConstraint{
		BaseConstraint: NewBaseConstraint(
			"每周可用性",
			constraint.TypeAvailability,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 审计整个排班方案
func (c *AvailabilityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, a := range ctx.Assignments {
		if !a.IsCounted() {
			continue
		}
		emp := ctx.GetEmployee(a.EmployeeID)
		if emp == nil {
			continue
		}

		weekday, err := model.WeekdayOf(a.Date)
		if err != nil {
			continue
		}
		if !emp.AllowsShift(a.ShiftType, weekday) {
			isValid = false
			totalPenalty += c.Weight()

			v := c.CreateViolation(a.Date,
				fmt.Sprintf("员工 %s 的可用性不包含 %s %s 班", emp.Name, weekday, a.ShiftType), c.Weight())
			v.EmployeeID = emp.ID
			violations = append(violations, v)
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateCandidate 评估候选
func (c *AvailabilityConstraint) EvaluateCandidate(ctx *constraint.Context, emp *model.Employee, slot model.ShiftSlot) (bool, int) {
	weekday, err := model.WeekdayOf(slot.Date)
	if err != nil {
		return false, 0
	}
	if !emp.AllowsShift(slot.ShiftType, weekday) {
		return false, 0
	}
	return true, 0
}
