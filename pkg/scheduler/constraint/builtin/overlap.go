// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
)

// ShiftOverlapConstraint 班次重叠规则（硬规则）
// 同一员工的未取消分配之间时间窗口不得重叠，跨项目同样生效
type ShiftOverlapConstraint struct {
	*BaseConstraint
}

// NewShiftOverlapConstraint 创建班次重叠规则
func NewShiftOverlapConstraint() *ShiftOverlapConstraint {
	return &ShiftOverlapConstraint{
		BaseConstraint: NewBaseConstraint(
			"班次重叠",
			constraint.TypeShiftOverlap,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 审计整个排班方案，逐员工两两比较
func (c *ShiftOverlapConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, emp := range ctx.Employees {
		assignments := ctx.GetEmployeeAssignments(emp.ID)

		for i := 0; i < len(assignments); i++ {
			if !assignments[i].IsCounted() {
				continue
			}
			for j := i + 1; j < len(assignments); j++ {
				if !assignments[j].IsCounted() {
					continue
				}
				if assignments[i].TimeRange().Overlaps(assignments[j].TimeRange()) {
					isValid = false
					totalPenalty += c.Weight()

					v := c.CreateViolation(assignments[i].Date,
						fmt.Sprintf("员工 %s 的分配时间重叠: %s %s 与 %s %s",
							emp.Name,
							assignments[i].Date, assignments[i].ShiftType,
							assignments[j].Date, assignments[j].ShiftType), c.Weight())
					v.EmployeeID = emp.ID
					violations = append(violations, v)
				}
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateCandidate 评估候选
func (c *ShiftOverlapConstraint) EvaluateCandidate(ctx *constraint.Context, emp *model.Employee, slot model.ShiftSlot) (bool, int) {
	tr, err := slot.TimeRange()
	if err != nil {
		return false, 0
	}
	if ctx.HasOverlap(emp.ID, tr) {
		return false, 0
	}
	return true, 0
}
