// Package swap 提供换班与缺口补位功能
package swap

import (
	"fmt"

	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
)

// Evaluator 换班评估器
// 复用排班规则管理器：硬规则决定可行性，软规则决定推荐得分
type Evaluator struct {
	constraintManager *constraint.Manager
}

// NewEvaluator 创建换班评估器
func NewEvaluator(cm *constraint.Manager) *Evaluator {
	return &Evaluator{constraintManager: cm}
}

// Evaluation 换班评估结果
type Evaluation struct {
	Feasible    bool    `json:"feasible"`
	Score       int     `json:"score"` // 软规则得分，越高越优
	Reason      string  `json:"reason,omitempty"`
	HoursChange float64 `json:"hours_change"` // 目标员工的工时变化
}

// EvaluateTakeOver 评估目标员工接替一个已有分配
// 分配对应的班次单元用同样的硬规则检查，目标员工必须在职
func (e *Evaluator) EvaluateTakeOver(ctx *constraint.Context, source *model.Assignment, target *model.Employee) *Evaluation {
	if source == nil || target == nil {
		return &Evaluation{Feasible: false, Reason: "无效的换班请求"}
	}

	if target.ID == source.EmployeeID {
		return &Evaluation{Feasible: false, Reason: "目标员工即为当前员工"}
	}

	if !target.IsActive() {
		return &Evaluation{Feasible: false, Reason: "目标员工不在职"}
	}

	slot := model.ShiftSlot{
		ProjectID:     source.ProjectID,
		Date:          source.Date,
		ShiftType:     source.ShiftType,
		RequiredCount: 1,
	}

	canAssign, reason := e.constraintManager.CanAssign(ctx, target, slot)
	if !canAssign {
		return &Evaluation{Feasible: false, Reason: reason}
	}

	return &Evaluation{
		Feasible:    true,
		Score:       e.constraintManager.Score(ctx, target, slot),
		HoursChange: source.WorkingHours(),
	}
}

// EvaluateBackfill 评估目标员工补位一个未填满的单元
func (e *Evaluator) EvaluateBackfill(ctx *constraint.Context, unfilled model.UnfilledSlot, target *model.Employee) *Evaluation {
	if target == nil {
		return &Evaluation{Feasible: false, Reason: "无效的补位请求"}
	}
	if !target.IsActive() {
		return &Evaluation{Feasible: false, Reason: "目标员工不在职"}
	}

	slot := model.ShiftSlot{
		ProjectID:     unfilled.ProjectID,
		Date:          unfilled.Date,
		ShiftType:     unfilled.ShiftType,
		RequiredCount: unfilled.Shortfall,
	}

	canAssign, reason := e.constraintManager.CanAssign(ctx, target, slot)
	if !canAssign {
		return &Evaluation{Feasible: false, Reason: reason}
	}

	return &Evaluation{
		Feasible:    true,
		Score:       e.constraintManager.Score(ctx, target, slot),
		HoursChange: slot.ShiftType.Hours(),
	}
}

// CanSwap 快速检查目标员工是否可以接替分配
func (e *Evaluator) CanSwap(ctx *constraint.Context, source *model.Assignment, target *model.Employee) (bool, string) {
	result := e.EvaluateTakeOver(ctx, source, target)
	if !result.Feasible {
		if result.Reason != "" {
			return false, result.Reason
		}
		return false, "无法进行换班"
	}
	return true, ""
}

// describeChange 描述工时变化
func describeChange(hours float64) string {
	if hours > 0 {
		return fmt.Sprintf("目标员工增加 %.1f 小时工时", hours)
	}
	return "对目标员工工时无影响"
}
