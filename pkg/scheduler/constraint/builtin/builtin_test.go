package builtin

import (
	"testing"
	"time"

	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
)

// fullAvailability 生成覆盖全部班次与星期的可用性
func fullAvailability() []model.AvailabilityRule {
	var rules []model.AvailabilityRule
	for _, st := range model.ShiftTypes() {
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			rules = append(rules, model.AvailabilityRule{ShiftType: st, Weekday: wd})
		}
	}
	return rules
}

func newEmployee(name string) *model.Employee {
	return &model.Employee{
		BaseModel:    model.NewBaseModel(),
		Name:         name,
		Code:         name,
		Status:       "active",
		Availability: fullAvailability(),
	}
}

func newSlot(date string, st model.ShiftType) model.ShiftSlot {
	return model.ShiftSlot{Date: date, ShiftType: st, RequiredCount: 1}
}

func TestBlockedDateConstraint_EvaluateCandidate(t *testing.T) {
	c := NewBlockedDateConstraint()
	ctx := constraint.NewContext("2026-01-11", "2026-01-17")

	emp := newEmployee("张三")
	emp.BlockedDates = []string{"2026-01-12"}

	tests := []struct {
		name     string
		date     string
		expected bool
	}{
		{"屏蔽日期拒绝", "2026-01-12", false},
		{"非屏蔽日期通过", "2026-01-13", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, _ := c.EvaluateCandidate(ctx, emp, newSlot(tt.date, model.ShiftMorning))
			if valid != tt.expected {
				t.Errorf("EvaluateCandidate() = %v, expected %v", valid, tt.expected)
			}
		})
	}
}

func TestAvailabilityConstraint_EvaluateCandidate(t *testing.T) {
	c := NewAvailabilityConstraint()
	ctx := constraint.NewContext("2026-01-11", "2026-01-17")

	emp := newEmployee("李四")
	emp.Availability = []model.AvailabilityRule{
		{ShiftType: model.ShiftMorning, Weekday: time.Monday},
	}

	tests := []struct {
		name      string
		date      string
		shiftType model.ShiftType
		expected  bool
	}{
		{"周一早班允许", "2026-01-12", model.ShiftMorning, true},
		{"周一夜班拒绝", "2026-01-12", model.ShiftNight, false},
		{"周二早班拒绝", "2026-01-13", model.ShiftMorning, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, _ := c.EvaluateCandidate(ctx, emp, newSlot(tt.date, tt.shiftType))
			if valid != tt.expected {
				t.Errorf("EvaluateCandidate() = %v, expected %v", valid, tt.expected)
			}
		})
	}
}

func TestShiftOverlapConstraint_EvaluateCandidate(t *testing.T) {
	c := NewShiftOverlapConstraint()
	ctx := constraint.NewContext("2026-01-11", "2026-01-17")

	emp := newEmployee("王五")
	ctx.SetEmployees([]*model.Employee{emp})

	// 已有 01-12 夜班（22:00 ~ 次日 06:00）
	tr, _ := model.ShiftNight.TimeRangeOn("2026-01-12")
	ctx.SetAssignments([]*model.Assignment{
		{
			BaseModel:  model.NewBaseModel(),
			EmployeeID: emp.ID,
			Date:       "2026-01-12",
			ShiftType:  model.ShiftNight,
			StartTime:  tr.Start,
			EndTime:    tr.End,
			Status:     model.AssignmentAssigned,
		},
	})

	tests := []struct {
		name      string
		date      string
		shiftType model.ShiftType
		expected  bool
	}{
		{"同日夜班重叠拒绝", "2026-01-12", model.ShiftNight, false},
		{"次日早班与跨午夜夜班无重叠", "2026-01-13", model.ShiftMorning, true},
		{"同日早班不重叠", "2026-01-12", model.ShiftMorning, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, _ := c.EvaluateCandidate(ctx, emp, newSlot(tt.date, tt.shiftType))
			if valid != tt.expected {
				t.Errorf("EvaluateCandidate() = %v, expected %v", valid, tt.expected)
			}
		})
	}
}

func TestShiftOverlapConstraint_CancelledIgnored(t *testing.T) {
	c := NewShiftOverlapConstraint()
	ctx := constraint.NewContext("2026-01-11", "2026-01-17")

	emp := newEmployee("赵六")
	ctx.SetEmployees([]*model.Employee{emp})

	tr, _ := model.ShiftMorning.TimeRangeOn("2026-01-12")
	ctx.SetAssignments([]*model.Assignment{
		{
			BaseModel:  model.NewBaseModel(),
			EmployeeID: emp.ID,
			Date:       "2026-01-12",
			ShiftType:  model.ShiftMorning,
			StartTime:  tr.Start,
			EndTime:    tr.End,
			Status:     model.AssignmentCancelled,
		},
	})

	valid, _ := c.EvaluateCandidate(ctx, emp, newSlot("2026-01-12", model.ShiftMorning))
	if !valid {
		t.Error("已取消的分配不应参与重叠判定")
	}
}

func TestPreferenceConstraint_EvaluateCandidate(t *testing.T) {
	c := NewPreferenceConstraint(2)
	ctx := constraint.NewContext("2026-01-11", "2026-01-17")

	monday := time.Monday
	emp := newEmployee("钱七")
	emp.Preferences = []model.ShiftPreference{
		{ShiftType: model.ShiftMorning, Weekday: &monday},
	}

	t.Run("偏好命中加分", func(t *testing.T) {
		valid, delta := c.EvaluateCandidate(ctx, emp, newSlot("2026-01-12", model.ShiftMorning))
		if !valid || delta != 2 {
			t.Errorf("EvaluateCandidate() = (%v, %d), expected (true, 2)", valid, delta)
		}
	})

	t.Run("偏好不命中不加分", func(t *testing.T) {
		valid, delta := c.EvaluateCandidate(ctx, emp, newSlot("2026-01-12", model.ShiftNight))
		if !valid || delta != 0 {
			t.Errorf("EvaluateCandidate() = (%v, %d), expected (true, 0)", valid, delta)
		}
	})
}

func TestWeeklySoftCapConstraint_EvaluateCandidate(t *testing.T) {
	c := NewWeeklySoftCapConstraint(1, 40.0)
	ctx := constraint.NewContext("2026-01-11", "2026-01-17")

	emp := newEmployee("孙八")
	ctx.SetEmployees([]*model.Employee{emp})

	// 本周（2026-01-11 周日起）已排 4 个班 32 小时
	var existing []*model.Assignment
	for _, date := range []string{"2026-01-11", "2026-01-12", "2026-01-13", "2026-01-14"} {
		tr, _ := model.ShiftMorning.TimeRangeOn(date)
		existing = append(existing, &model.Assignment{
			BaseModel:  model.NewBaseModel(),
			EmployeeID: emp.ID,
			Date:       date,
			ShiftType:  model.ShiftMorning,
			StartTime:  tr.Start,
			EndTime:    tr.End,
			Status:     model.AssignmentAssigned,
		})
	}
	ctx.SetAssignments(existing)

	t.Run("未超上限不降权", func(t *testing.T) {
		// 32 + 8 = 40，不超过上限
		valid, delta := c.EvaluateCandidate(ctx, emp, newSlot("2026-01-15", model.ShiftMorning))
		if !valid || delta != 0 {
			t.Errorf("EvaluateCandidate() = (%v, %d), expected (true, 0)", valid, delta)
		}
	})

	t.Run("将超上限降权但不拒绝", func(t *testing.T) {
		// 再加一个班使本周达到 40，然后评估第 6 个班
		tr, _ := model.ShiftMorning.TimeRangeOn("2026-01-15")
		ctx.AddRunAssignment(&model.Assignment{
			BaseModel:  model.NewBaseModel(),
			EmployeeID: emp.ID,
			Date:       "2026-01-15",
			ShiftType:  model.ShiftMorning,
			StartTime:  tr.Start,
			EndTime:    tr.End,
			Status:     model.AssignmentAssigned,
		})

		valid, delta := c.EvaluateCandidate(ctx, emp, newSlot("2026-01-16", model.ShiftMorning))
		if !valid {
			t.Error("软规则不应拒绝候选")
		}
		if delta != -1 {
			t.Errorf("降权分 = %d, expected -1", delta)
		}
	})

	t.Run("跨周不受上周工时影响", func(t *testing.T) {
		// 2026-01-18 属于下一周
		valid, delta := c.EvaluateCandidate(ctx, emp, newSlot("2026-01-18", model.ShiftMorning))
		if !valid || delta != 0 {
			t.Errorf("EvaluateCandidate() = (%v, %d), expected (true, 0)", valid, delta)
		}
	})
}

func TestRegisterDefaultConstraints(t *testing.T) {
	manager := constraint.NewManager()
	RegisterDefaultConstraints(manager, nil)

	if manager.Count() != 5 {
		t.Fatalf("注册 %d 条规则, expected 5", manager.Count())
	}

	hard := manager.GetByCategory(constraint.CategoryHard)
	soft := manager.GetByCategory(constraint.CategorySoft)
	if len(hard) != 3 || len(soft) != 2 {
		t.Errorf("硬规则 %d 条软规则 %d 条, expected 3/2", len(hard), len(soft))
	}
}

func TestRegisterDefaultConstraints_ConfigOverride(t *testing.T) {
	manager := constraint.NewManager()
	RegisterDefaultConstraints(manager, map[string]interface{}{
		"preference_weight":     5,
		"weekly_soft_cap_hours": 24.0,
	})

	pref := manager.GetConstraint(constraint.TypePreference)
	if pref == nil || pref.Weight() != 5 {
		t.Errorf("偏好权重未生效: %+v", pref)
	}

	// 24 小时上限下，本周已有 3 个班的员工再排第 4 个时降权
	ctx := constraint.NewContext("2026-01-11", "2026-01-17")
	emp := newEmployee("周九")
	ctx.SetEmployees([]*model.Employee{emp})
	for _, date := range []string{"2026-01-11", "2026-01-12", "2026-01-13"} {
		tr, _ := model.ShiftMorning.TimeRangeOn(date)
		ctx.AddRunAssignment(&model.Assignment{
			BaseModel:  model.NewBaseModel(),
			EmployeeID: emp.ID,
			Date:       date,
			ShiftType:  model.ShiftMorning,
			StartTime:  tr.Start,
			EndTime:    tr.End,
			Status:     model.AssignmentAssigned,
		})
	}

	cap := manager.GetConstraint(constraint.TypeWeeklySoftCap)
	_, delta := cap.EvaluateCandidate(ctx, emp, newSlot("2026-01-14", model.ShiftMorning))
	if delta != -1 {
		t.Errorf("自定义上限未生效, delta = %d", delta)
	}
}
