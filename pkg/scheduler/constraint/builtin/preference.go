// Package builtin 提供内置排班规则实现
package builtin

import (
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
)

// PreferenceConstraint 班次偏好规则（软规则）
// 命中员工的偏好条目时给予得分奖励，只影响候选排序，不影响资格
type PreferenceConstraint struct {
	*BaseConstraint
}

// NewPreferenceConstraint 创建班次偏好规则，weight 为命中时的奖励分
func NewPreferenceConstraint(weight int) *PreferenceConstraint {
	return &PreferenceConstraint{
		BaseConstraint: NewBaseConstraint(
			"班次偏好",
			constraint.TypePreference,
			constraint.CategorySoft,
			weight,
		),
	}
}

// Evaluate 审计整个排班方案，偏好不产生违反
func (c *PreferenceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	return true, 0, nil
}

// EvaluateCandidate 评估候选，命中偏好返回 +weight
func (c *PreferenceConstraint) EvaluateCandidate(ctx *constraint.Context, emp *model.Employee, slot model.ShiftSlot) (bool, int) {
	weekday, err := model.WeekdayOf(slot.Date)
	if err != nil {
		return true, 0
	}
	if emp.PrefersSlot(slot.ShiftType, slot.Date, weekday) {
		return true, c.Weight()
	}
	return true, 0
}
