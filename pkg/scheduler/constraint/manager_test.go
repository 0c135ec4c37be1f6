package constraint

import (
	"testing"
	"time"

	"github.com/paigong/paigong/pkg/model"
)

// stubConstraint 测试用规则
type stubConstraint struct {
	name       string
	typ        Type
	category   Category
	weight     int
	allow      bool
	scoreDelta int
	penalty    int
	details    []ViolationDetail
}

func (c *stubConstraint) Name() string       { return c.name }
func (c *stubConstraint) Type() Type         { return c.typ }
func (c *stubConstraint) Category() Category { return c.category }
func (c *stubConstraint) Weight() int        { return c.weight }

func (c *stubConstraint) Evaluate(ctx *Context) (bool, int, []ViolationDetail) {
	return c.allow, c.penalty, c.details
}

func (c *stubConstraint) EvaluateCandidate(ctx *Context, emp *model.Employee, slot model.ShiftSlot) (bool, int) {
	return c.allow, c.scoreDelta
}

func TestManager_Register_ReplacesSameType(t *testing.T) {
	m := NewManager()
	m.Register(&stubConstraint{name: "旧规则", typ: TypePreference, category: CategorySoft, weight: 1, allow: true})
	m.Register(&stubConstraint{name: "新规则", typ: TypePreference, category: CategorySoft, weight: 2, allow: true})

	if m.Count() != 1 {
		t.Fatalf("同类型规则应替换, count = %d", m.Count())
	}
	if c := m.GetConstraint(TypePreference); c.Name() != "新规则" {
		t.Errorf("规则未被替换: %s", c.Name())
	}
}

func TestManager_CanAssign(t *testing.T) {
	emp := &model.Employee{BaseModel: model.NewBaseModel(), Name: "张三", Status: "active"}
	slot := model.ShiftSlot{Date: "2026-01-12", ShiftType: model.ShiftMorning, RequiredCount: 1}
	ctx := NewContext("2026-01-11", "2026-01-17")

	t.Run("全部硬规则通过", func(t *testing.T) {
		m := NewManager()
		m.Register(&stubConstraint{name: "硬A", typ: TypeBlockedDate, category: CategoryHard, allow: true})
		m.Register(&stubConstraint{name: "硬B", typ: TypeAvailability, category: CategoryHard, allow: true})

		ok, reason := m.CanAssign(ctx, emp, slot)
		if !ok || reason != "" {
			t.Errorf("CanAssign() = (%v, %q), expected (true, \"\")", ok, reason)
		}
	})

	t.Run("任一硬规则拒绝即不可排", func(t *testing.T) {
		m := NewManager()
		m.Register(&stubConstraint{name: "硬A", typ: TypeBlockedDate, category: CategoryHard, allow: true})
		m.Register(&stubConstraint{name: "硬B", typ: TypeAvailability, category: CategoryHard, allow: false})

		ok, reason := m.CanAssign(ctx, emp, slot)
		if ok || reason == "" {
			t.Errorf("CanAssign() = (%v, %q), expected 拒绝并给出原因", ok, reason)
		}
	})

	t.Run("软规则不影响资格", func(t *testing.T) {
		m := NewManager()
		m.Register(&stubConstraint{name: "软A", typ: TypePreference, category: CategorySoft, allow: false, scoreDelta: -5})

		ok, _ := m.CanAssign(ctx, emp, slot)
		if !ok {
			t.Error("软规则不应影响候选资格")
		}
	})
}

func TestManager_Score(t *testing.T) {
	emp := &model.Employee{BaseModel: model.NewBaseModel(), Status: "active"}
	slot := model.ShiftSlot{Date: "2026-01-12", ShiftType: model.ShiftMorning}
	ctx := NewContext("2026-01-11", "2026-01-17")

	m := NewManager()
	m.Register(&stubConstraint{name: "偏好", typ: TypePreference, category: CategorySoft, allow: true, scoreDelta: 2})
	m.Register(&stubConstraint{name: "软上限", typ: TypeWeeklySoftCap, category: CategorySoft, allow: true, scoreDelta: -1})
	m.Register(&stubConstraint{name: "硬规则", typ: TypeBlockedDate, category: CategoryHard, allow: true, scoreDelta: 100})

	// 软规则得分累加，硬规则的得分增量不计入
	if score := m.Score(ctx, emp, slot); score != 1 {
		t.Errorf("Score() = %d, expected 1", score)
	}
}

func TestManager_Evaluate(t *testing.T) {
	ctx := NewContext("2026-01-11", "2026-01-17")

	t.Run("硬规则违反使方案无效", func(t *testing.T) {
		m := NewManager()
		m.Register(&stubConstraint{
			name: "硬规则", typ: TypeBlockedDate, category: CategoryHard,
			weight: 100, allow: false, penalty: 100,
			details: []ViolationDetail{{ConstraintType: TypeBlockedDate, Message: "违反", Severity: "error"}},
		})

		result := m.Evaluate(ctx)
		if result.IsValid {
			t.Error("硬规则违反时方案应无效")
		}
		if len(result.HardViolations) != 1 {
			t.Errorf("硬违反 %d 条, expected 1", len(result.HardViolations))
		}
	})

	t.Run("软规则警告不影响有效性", func(t *testing.T) {
		m := NewManager()
		m.Register(&stubConstraint{
			name: "软规则", typ: TypeWeeklySoftCap, category: CategorySoft,
			weight: 1, allow: true, penalty: 1,
			details: []ViolationDetail{{ConstraintType: TypeWeeklySoftCap, Message: "超上限", Severity: "warning"}},
		})

		result := m.Evaluate(ctx)
		if !result.IsValid {
			t.Error("软规则警告不应使方案无效")
		}
		if len(result.SoftViolations) != 1 {
			t.Errorf("软违反 %d 条, expected 1", len(result.SoftViolations))
		}
		if result.TotalPenalty != 1 {
			t.Errorf("总惩罚 = %d, expected 1", result.TotalPenalty)
		}
	})

	t.Run("无规则时满分", func(t *testing.T) {
		m := NewManager()
		result := m.Evaluate(ctx)
		if !result.IsValid || result.Score != 100.0 {
			t.Errorf("空管理器评估 = (%v, %.1f), expected (true, 100)", result.IsValid, result.Score)
		}
	})
}

func TestContext_GetEmployeeWeekHours(t *testing.T) {
	ctx := NewContext("2026-01-11", "2026-01-24")
	emp := &model.Employee{BaseModel: model.NewBaseModel(), Status: "active"}
	ctx.SetEmployees([]*model.Employee{emp})

	add := func(date, status string) {
		tr, _ := model.ShiftMorning.TimeRangeOn(date)
		ctx.AddRunAssignment(&model.Assignment{
			BaseModel:  model.NewBaseModel(),
			EmployeeID: emp.ID,
			Date:       date,
			ShiftType:  model.ShiftMorning,
			StartTime:  tr.Start,
			EndTime:    tr.End,
			Status:     status,
		})
	}

	add("2026-01-12", model.AssignmentAssigned)  // 本周
	add("2026-01-14", model.AssignmentReported)  // 本周，自报同样计入
	add("2026-01-15", model.AssignmentCancelled) // 本周，取消不计
	add("2026-01-19", model.AssignmentAssigned)  // 下周

	if hours := ctx.GetEmployeeWeekHours(emp.ID, "2026-01-13"); hours != 16.0 {
		t.Errorf("本周工时 = %v, expected 16", hours)
	}
	if hours := ctx.GetEmployeeWeekHours(emp.ID, "2026-01-20"); hours != 8.0 {
		t.Errorf("下周工时 = %v, expected 8", hours)
	}
}

func TestContext_HasOverlap(t *testing.T) {
	ctx := NewContext("2026-01-11", "2026-01-17")
	emp := &model.Employee{BaseModel: model.NewBaseModel(), Status: "active"}
	ctx.SetEmployees([]*model.Employee{emp})

	tr, _ := model.ShiftNight.TimeRangeOn("2026-01-12")
	ctx.AddRunAssignment(&model.Assignment{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: emp.ID,
		Date:       "2026-01-12",
		ShiftType:  model.ShiftNight,
		StartTime:  tr.Start,
		EndTime:    tr.End,
		Status:     model.AssignmentAssigned,
	})

	// 次日 00:00~08:00 的自定义区间与跨午夜夜班重叠
	overlapping := model.TimeRange{
		Start: time.Date(2026, 1, 13, 0, 0, 0, 0, tr.Start.Location()),
		End:   time.Date(2026, 1, 13, 8, 0, 0, 0, tr.Start.Location()),
	}
	if !ctx.HasOverlap(emp.ID, overlapping) {
		t.Error("跨午夜夜班应与次日凌晨区间重叠")
	}

	morning, _ := model.ShiftMorning.TimeRangeOn("2026-01-12")
	if ctx.HasOverlap(emp.ID, morning) {
		t.Error("同日早班不应与夜班重叠")
	}
}
