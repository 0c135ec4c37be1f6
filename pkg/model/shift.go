// Package model 定义项目排班系统的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShiftType 班次类型
type ShiftType string

const (
	ShiftMorning   ShiftType = "morning"   // 早班
	ShiftAfternoon ShiftType = "afternoon" // 午班
	ShiftNight     ShiftType = "night"     // 夜班
)

// ShiftWindow 班次的固定时间窗口
type ShiftWindow struct {
	StartTime string  `json:"start_time"` // HH:MM
	EndTime   string  `json:"end_time"`   // HH:MM
	Hours     float64 `json:"hours"`      // 时长（小时）
}

// shiftWindows 三种班次的规范时间窗口，夜班跨午夜
var shiftWindows = map[ShiftType]ShiftWindow{
	ShiftMorning:   {StartTime: "06:00", EndTime: "14:00", Hours: 8.0},
	ShiftAfternoon: {StartTime: "14:00", EndTime: "22:00", Hours: 8.0},
	ShiftNight:     {StartTime: "22:00", EndTime: "06:00", Hours: 8.0},
}

// shiftOrder 班次的规范顺序，排班与排序均以此为准
var shiftOrder = []ShiftType{ShiftMorning, ShiftAfternoon, ShiftNight}

// ShiftTypes 按规范顺序返回全部班次类型
func ShiftTypes() []ShiftType {
	out := make([]ShiftType, len(shiftOrder))
	copy(out, shiftOrder)
	return out
}

// IsValid 检查班次类型是否合法
func (st ShiftType) IsValid() bool {
	_, ok := shiftWindows[st]
	return ok
}

// Order 返回班次在规范顺序中的位置，非法类型返回 len(shiftOrder)
func (st ShiftType) Order() int {
	for i, s := range shiftOrder {
		if s == st {
			return i
		}
	}
	return len(shiftOrder)
}

// Window 返回班次的固定时间窗口
func (st ShiftType) Window() ShiftWindow {
	return shiftWindows[st]
}

// Hours 返回班次的固定时长（小时）
func (st ShiftType) Hours() float64 {
	return shiftWindows[st].Hours
}

// Label 返回班次的中文名称
func (st ShiftType) Label() string {
	switch st {
	case ShiftMorning:
		return "早班"
	case ShiftAfternoon:
		return "午班"
	case ShiftNight:
		return "夜班"
	default:
		return string(st)
	}
}

// TimeRangeOn 返回班次在指定日期上的具体时间范围，跨午夜的班次结束时间加一天
func (st ShiftType) TimeRangeOn(date string) (TimeRange, error) {
	w, ok := shiftWindows[st]
	if !ok {
		return TimeRange{}, fmt.Errorf("未知班次类型: %s", st)
	}

	start, err := time.Parse(DateFormat+" "+ClockFormat, date+" "+w.StartTime)
	if err != nil {
		return TimeRange{}, err
	}
	end, err := time.Parse(DateFormat+" "+ClockFormat, date+" "+w.EndTime)
	if err != nil {
		return TimeRange{}, err
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}

	return TimeRange{Start: start, End: end}, nil
}

// WindowWarning 检查班次窗口是否异常（时长≤0或超过16小时），异常时返回提示
func (st ShiftType) WindowWarning() string {
	w, ok := shiftWindows[st]
	if !ok {
		return fmt.Sprintf("班次 %s 未定义时间窗口", st)
	}
	if w.Hours <= 0 || w.Hours > 16 {
		return fmt.Sprintf("班次 %s 时长异常: %.1f 小时", st, w.Hours)
	}
	return ""
}

// RecurrenceKind 需求的重复规则类型
type RecurrenceKind string

const (
	RecurrenceWeekly    RecurrenceKind = "weekly"     // 按星期重复
	RecurrenceDateRange RecurrenceKind = "date_range" // 显式日期区间
)

// Recurrence 需求的重复规则，封闭的标签变体而非自由文本
type Recurrence struct {
	Kind      RecurrenceKind `json:"kind"`
	Weekdays  []time.Weekday `json:"weekdays,omitempty"`   // Kind=weekly 时生效
	StartDate string         `json:"start_date,omitempty"` // Kind=date_range 时生效
	EndDate   string         `json:"end_date,omitempty"`
}

// Matches 检查规则是否命中指定日期
func (r Recurrence) Matches(date string) bool {
	switch r.Kind {
	case RecurrenceWeekly:
		wd, err := WeekdayOf(date)
		if err != nil {
			return false
		}
		for _, d := range r.Weekdays {
			if d == wd {
				return true
			}
		}
		return false
	case RecurrenceDateRange:
		return date >= r.StartDate && date <= r.EndDate
	default:
		return false
	}
}

// Validate 检查重复规则是否合法
func (r Recurrence) Validate() error {
	switch r.Kind {
	case RecurrenceWeekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("按星期重复的规则至少需要一个星期")
		}
		for _, d := range r.Weekdays {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("非法星期: %d", d)
			}
		}
		return nil
	case RecurrenceDateRange:
		dr := DateRange{StartDate: r.StartDate, EndDate: r.EndDate}
		if !dr.Validate() {
			return fmt.Errorf("非法日期区间: %s ~ %s", r.StartDate, r.EndDate)
		}
		return nil
	default:
		return fmt.Errorf("未知重复规则类型: %s", r.Kind)
	}
}

// ShiftRequirement 项目的班次需求
type ShiftRequirement struct {
	BaseModel
	ProjectID  uuid.UUID  `json:"project_id" db:"project_id"`
	ShiftType  ShiftType  `json:"shift_type" db:"shift_type"`
	Recurrence Recurrence `json:"recurrence" db:"recurrence"`
	Headcount  int        `json:"headcount" db:"headcount"` // 每个班次所需人数，≥1
}

// ShiftSlot 引擎内部的具体排班单元，由需求在规划窗口内展开而来
// 单次运行中展开后不可变
type ShiftSlot struct {
	ProjectID     uuid.UUID `json:"project_id"`
	Date          string    `json:"date"` // YYYY-MM-DD
	ShiftType     ShiftType `json:"shift_type"`
	RequiredCount int       `json:"required_count"`
}

// Key 返回排班单元的唯一标识
func (s ShiftSlot) Key() string {
	return fmt.Sprintf("%s|%s|%s", s.Date, s.ShiftType, s.ProjectID)
}

// TimeRange 返回排班单元的具体时间范围
func (s ShiftSlot) TimeRange() (TimeRange, error) {
	return s.ShiftType.TimeRangeOn(s.Date)
}

// Assignment 排班分配
type Assignment struct {
	BaseModel
	EmployeeID uuid.UUID `json:"employee_id" db:"employee_id"`
	ProjectID  uuid.UUID `json:"project_id" db:"project_id"`
	Date       string    `json:"date" db:"date"` // YYYY-MM-DD
	ShiftType  ShiftType `json:"shift_type" db:"shift_type"`
	StartTime  time.Time `json:"start_time" db:"start_time"`
	EndTime    time.Time `json:"end_time" db:"end_time"`
	Status     string    `json:"status" db:"status"` // assigned/reported/cancelled
	Notes      string    `json:"notes,omitempty" db:"notes"`
}

// 分配状态
const (
	AssignmentAssigned  = "assigned"  // 引擎排定
	AssignmentReported  = "reported"  // 员工自报
	AssignmentCancelled = "cancelled" // 已取消
)

// WorkingHours 计算工作时长（小时）
func (a *Assignment) WorkingHours() float64 {
	return a.EndTime.Sub(a.StartTime).Hours()
}

// IsCounted 检查分配是否计入工时与成本（取消的不计）
func (a *Assignment) IsCounted() bool {
	return a.Status != AssignmentCancelled
}

// IsOnDate 检查分配是否在指定日期
func (a *Assignment) IsOnDate(date string) bool {
	return a.Date == date
}

// TimeRange 返回分配的时间范围
func (a *Assignment) TimeRange() TimeRange {
	return TimeRange{Start: a.StartTime, End: a.EndTime}
}

// UnfilledSlot 未填满的排班单元及缺口人数
type UnfilledSlot struct {
	ProjectID uuid.UUID `json:"project_id"`
	Date      string    `json:"date"`
	ShiftType ShiftType `json:"shift_type"`
	Shortfall int       `json:"shortfall"`
	Reason    string    `json:"reason,omitempty"`
}

// CoveragePlan 引擎单次运行的输出：分配列表加缺口列表
// 由调用方负责持久化，引擎本身不落库
type CoveragePlan struct {
	Window      DateRange      `json:"window"`
	Assignments []*Assignment  `json:"assignments"`
	Unfilled    []UnfilledSlot `json:"unfilled"`
	Warnings    []string       `json:"warnings,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// TotalShortfall 返回计划的总缺口人数
func (p *CoveragePlan) TotalShortfall() int {
	total := 0
	for _, u := range p.Unfilled {
		total += u.Shortfall
	}
	return total
}
