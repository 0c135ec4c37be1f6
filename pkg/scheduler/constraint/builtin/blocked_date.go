// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
)

// BlockedDateConstraint 屏蔽日期规则（硬规则）
// 员工屏蔽的日期覆盖其可用性与偏好，当天不得排班
type BlockedDateConstraint struct {
	*BaseConstraint
}

// NewBlockedDateConstraint 创建屏蔽日期规则
func NewBlockedDateConstraint() *BlockedDateConstraint {
	return &BlockedDateConstraint{
		BaseConstraint: NewBaseConstraint(
			"屏蔽日期",
			constraint.TypeBlockedDate,
			constraint.CategoryHard,
			100,
		),
	}
}

// Evaluate 审计整个排班方案
func (c *BlockedDateConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
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
		if emp.IsBlocked(a.Date) {
			isValid = false
			totalPenalty += c.Weight()

			v := c.CreateViolation(a.Date,
				fmt.Sprintf("员工 %s 在屏蔽日期 %s 被排班", emp.Name, a.Date), c.Weight())
			v.EmployeeID = emp.ID
			violations = append(violations, v)
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateCandidate 评估候选
func (c *BlockedDateConstraint) EvaluateCandidate(ctx *constraint.Context, emp *model.Employee, slot model.ShiftSlot) (bool, int) {
	if emp.IsBlocked(slot.Date) {
		return false, 0
	}
	return true, 0
}
