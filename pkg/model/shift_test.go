package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestShiftType_Window(t *testing.T) {
	tests := []struct {
		name      string
		shiftType ShiftType
		start     string
		end       string
		hours     float64
	}{
		{"早班", ShiftMorning, "06:00", "14:00", 8.0},
		{"午班", ShiftAfternoon, "14:00", "22:00", 8.0},
		{"夜班", ShiftNight, "22:00", "06:00", 8.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := tt.shiftType.Window()
			if w.StartTime != tt.start || w.EndTime != tt.end {
				t.Errorf("Window() = %s~%s, expected %s~%s", w.StartTime, w.EndTime, tt.start, tt.end)
			}
			if w.Hours != tt.hours {
				t.Errorf("Hours = %v, expected %v", w.Hours, tt.hours)
			}
		})
	}
}

func TestShiftType_Order(t *testing.T) {
	if ShiftMorning.Order() != 0 || ShiftAfternoon.Order() != 1 || ShiftNight.Order() != 2 {
		t.Errorf("班次规范顺序错误: morning=%d afternoon=%d night=%d",
			ShiftMorning.Order(), ShiftAfternoon.Order(), ShiftNight.Order())
	}
	if ShiftType("unknown").Order() != 3 {
		t.Errorf("非法类型应排在最后, got %d", ShiftType("unknown").Order())
	}
}

func TestShiftType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		shiftType ShiftType
		expected  bool
	}{
		{"早班合法", ShiftMorning, true},
		{"午班合法", ShiftAfternoon, true},
		{"夜班合法", ShiftNight, true},
		{"未知类型", ShiftType("evening"), false},
		{"空类型", ShiftType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.shiftType.IsValid(); result != tt.expected {
				t.Errorf("IsValid() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestShiftType_TimeRangeOn(t *testing.T) {
	t.Run("早班当天结束", func(t *testing.T) {
		tr, err := ShiftMorning.TimeRangeOn("2026-01-12")
		if err != nil {
			t.Fatalf("TimeRangeOn() error: %v", err)
		}
		if tr.Start.Hour() != 6 || tr.End.Hour() != 14 {
			t.Errorf("时间窗口错误: %v ~ %v", tr.Start, tr.End)
		}
		if tr.Start.Day() != tr.End.Day() {
			t.Error("早班不应跨天")
		}
	})

	t.Run("夜班跨午夜结束时间加一天", func(t *testing.T) {
		tr, err := ShiftNight.TimeRangeOn("2026-01-12")
		if err != nil {
			t.Fatalf("TimeRangeOn() error: %v", err)
		}
		if tr.End.Day() != 13 {
			t.Errorf("夜班结束应在次日, got day %d", tr.End.Day())
		}
		if tr.End.Sub(tr.Start).Hours() != 8.0 {
			t.Errorf("夜班时长 = %v, expected 8", tr.End.Sub(tr.Start).Hours())
		}
	})

	t.Run("未知班次类型报错", func(t *testing.T) {
		if _, err := ShiftType("evening").TimeRangeOn("2026-01-12"); err == nil {
			t.Error("未知班次类型应报错")
		}
	})
}

func TestRecurrence_Matches(t *testing.T) {
	// 2026-01-11 是周日，2026-01-12 是周一
	tests := []struct {
		name       string
		recurrence Recurrence
		date       string
		expected   bool
	}{
		{
			name:       "按星期命中",
			recurrence: Recurrence{Kind: RecurrenceWeekly, Weekdays: []time.Weekday{time.Monday}},
			date:       "2026-01-12",
			expected:   true,
		},
		{
			name:       "按星期不命中",
			recurrence: Recurrence{Kind: RecurrenceWeekly, Weekdays: []time.Weekday{time.Monday}},
			date:       "2026-01-11",
			expected:   false,
		},
		{
			name:       "日期区间命中边界",
			recurrence: Recurrence{Kind: RecurrenceDateRange, StartDate: "2026-01-11", EndDate: "2026-01-13"},
			date:       "2026-01-13",
			expected:   true,
		},
		{
			name:       "日期区间不命中",
			recurrence: Recurrence{Kind: RecurrenceDateRange, StartDate: "2026-01-11", EndDate: "2026-01-13"},
			date:       "2026-01-14",
			expected:   false,
		},
		{
			name:       "未知类型不命中",
			recurrence: Recurrence{Kind: RecurrenceKind("monthly")},
			date:       "2026-01-12",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.recurrence.Matches(tt.date); result != tt.expected {
				t.Errorf("Matches(%s) = %v, expected %v", tt.date, result, tt.expected)
			}
		})
	}
}

func TestRecurrence_Validate(t *testing.T) {
	tests := []struct {
		name       string
		recurrence Recurrence
		wantErr    bool
	}{
		{"合法按星期", Recurrence{Kind: RecurrenceWeekly, Weekdays: []time.Weekday{time.Monday}}, false},
		{"按星期无条目", Recurrence{Kind: RecurrenceWeekly}, true},
		{"合法日期区间", Recurrence{Kind: RecurrenceDateRange, StartDate: "2026-01-11", EndDate: "2026-01-13"}, false},
		{"日期区间颠倒", Recurrence{Kind: RecurrenceDateRange, StartDate: "2026-01-13", EndDate: "2026-01-11"}, true},
		{"日期格式错误", Recurrence{Kind: RecurrenceDateRange, StartDate: "01/11/2026", EndDate: "2026-01-13"}, true},
		{"未知类型", Recurrence{Kind: RecurrenceKind("monthly")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.recurrence.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShiftSlot_Key(t *testing.T) {
	id := uuid.New()
	s1 := ShiftSlot{ProjectID: id, Date: "2026-01-12", ShiftType: ShiftMorning}
	s2 := ShiftSlot{ProjectID: id, Date: "2026-01-12", ShiftType: ShiftMorning, RequiredCount: 3}

	if s1.Key() != s2.Key() {
		t.Error("所需人数不应影响单元标识")
	}

	s3 := ShiftSlot{ProjectID: id, Date: "2026-01-12", ShiftType: ShiftNight}
	if s1.Key() == s3.Key() {
		t.Error("不同班次类型的单元标识应不同")
	}
}

func TestAssignment_WorkingHours(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected float64
	}{
		{
			name:     "标准8小时",
			start:    time.Date(2026, 1, 12, 6, 0, 0, 0, time.UTC),
			end:      time.Date(2026, 1, 12, 14, 0, 0, 0, time.UTC),
			expected: 8.0,
		},
		{
			name:     "跨天夜班",
			start:    time.Date(2026, 1, 12, 22, 0, 0, 0, time.UTC),
			end:      time.Date(2026, 1, 13, 6, 0, 0, 0, time.UTC),
			expected: 8.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Assignment{StartTime: tt.start, EndTime: tt.end}
			if result := a.WorkingHours(); result != tt.expected {
				t.Errorf("WorkingHours() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestAssignment_IsCounted(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected bool
	}{
		{"引擎排定计入", AssignmentAssigned, true},
		{"员工自报计入", AssignmentReported, true},
		{"已取消不计入", AssignmentCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Assignment{Status: tt.status}
			if result := a.IsCounted(); result != tt.expected {
				t.Errorf("IsCounted() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestCoveragePlan_TotalShortfall(t *testing.T) {
	plan := &CoveragePlan{
		Unfilled: []UnfilledSlot{
			{Shortfall: 2},
			{Shortfall: 1},
		},
	}
	if total := plan.TotalShortfall(); total != 3 {
		t.Errorf("TotalShortfall() = %d, expected 3", total)
	}

	empty := &CoveragePlan{}
	if total := empty.TotalShortfall(); total != 0 {
		t.Errorf("空计划缺口 = %d, expected 0", total)
	}
}
