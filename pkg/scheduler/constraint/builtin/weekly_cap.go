// Package builtin 提供内置排班规则实现
package builtin

import (
	"fmt"

	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
)

// WeeklySoftCapConstraint 周工时软上限规则（软规则）
// 员工在班次所在周的工时加上该班次将超过上限时降权，不阻止排班
type WeeklySoftCapConstraint struct {
	*BaseConstraint
	capHours float64
}

// NewWeeklySoftCapConstraint 创建周工时软上限规则
// weight 为接近上限时的降权分，capHours 为周工时上限
func NewWeeklySoftCapConstraint(weight int, capHours float64) *WeeklySoftCapConstraint {
	return &WeeklySoftCapConstraint{
		BaseConstraint: NewBaseConstraint(
			"周工时软上限",
			constraint.TypeWeeklySoftCap,
			constraint.CategorySoft,
			weight,
		),
		capHours: capHours,
	}
}

// Evaluate 审计整个排班方案，超上限的周记为警告
func (c *WeeklySoftCapConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, emp := range ctx.Employees {
		hoursByWeek := make(map[string]float64)
		for _, a := range ctx.GetEmployeeAssignments(emp.ID) {
			if !a.IsCounted() {
				continue
			}
			hoursByWeek[model.WeekStartOf(a.Date)] += a.WorkingHours()
		}

		for weekStart, hours := range hoursByWeek {
			if hours > c.capHours {
				totalPenalty += c.Weight()

				v := c.CreateViolation(weekStart,
					fmt.Sprintf("员工 %s 在周 %s 工时 %.1f 超过软上限 %.1f", emp.Name, weekStart, hours, c.capHours), c.Weight())
				v.EmployeeID = emp.ID
				violations = append(violations, v)
			}
		}
	}

	return true, totalPenalty, violations
}

// EvaluateCandidate 评估候选，接近上限返回 -weight
func (c *WeeklySoftCapConstraint) EvaluateCandidate(ctx *constraint.Context, emp *model.Employee, slot model.ShiftSlot) (bool, int) {
	weekHours := ctx.GetEmployeeWeekHours(emp.ID, slot.Date)
	if weekHours+slot.ShiftType.Hours() > c.capHours {
		return true, -c.Weight()
	}
	return true, 0
}
