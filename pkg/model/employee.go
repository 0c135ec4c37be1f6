// Package model 定义项目排班系统的核心数据模型
package model

import (
	"time"
)

// AvailabilityRule 员工的每周可用性条目：允许在某星期出某类班
type AvailabilityRule struct {
	ShiftType ShiftType    `json:"shift_type"`
	Weekday   time.Weekday `json:"weekday"`
}

// ShiftPreference 员工的班次偏好（软规则）
// Date 与 Weekday 二选一：指定日期偏好或按星期的周期性偏好
type ShiftPreference struct {
	ShiftType ShiftType     `json:"shift_type"`
	Date      string        `json:"date,omitempty"` // YYYY-MM-DD
	Weekday   *time.Weekday `json:"weekday,omitempty"`
}

// Matches 检查偏好是否命中指定班次单元
func (p ShiftPreference) Matches(shiftType ShiftType, date string, weekday time.Weekday) bool {
	if p.ShiftType != shiftType {
		return false
	}
	if p.Date != "" {
		return p.Date == date
	}
	if p.Weekday != nil {
		return *p.Weekday == weekday
	}
	return false
}

// Employee 员工
type Employee struct {
	BaseModel
	Name      string `json:"name" db:"name"`
	Code      string `json:"code" db:"code"`
	Phone     string `json:"phone,omitempty" db:"phone"`
	Email     string `json:"email,omitempty" db:"email"`
	IsAdmin   bool   `json:"is_admin" db:"is_admin"` // 管理端标记，引擎不使用
	Status    string `json:"status" db:"status"`     // active/inactive
	TokenHash string `json:"-" db:"token_hash"`      // 自报门户令牌哈希

	// 排班约束：可用性为硬规则，屏蔽日期覆盖一切，偏好仅用于排序
	Availability []AvailabilityRule `json:"availability" db:"availability"`
	BlockedDates []string           `json:"blocked_dates" db:"blocked_dates"` // YYYY-MM-DD
	Preferences  []ShiftPreference  `json:"preferences,omitempty" db:"preferences"`
}

// IsActive 检查员工是否在职
func (e *Employee) IsActive() bool {
	return e.Status == "active"
}

// IsBlocked 检查日期是否被员工屏蔽，屏蔽日期优先于可用性与偏好
func (e *Employee) IsBlocked(date string) bool {
	for _, d := range e.BlockedDates {
		if d == date {
			return true
		}
	}
	return false
}

// AllowsShift 检查员工的每周可用性是否允许（班次类型，星期）组合
func (e *Employee) AllowsShift(shiftType ShiftType, weekday time.Weekday) bool {
	for _, r := range e.Availability {
		if r.ShiftType == shiftType && r.Weekday == weekday {
			return true
		}
	}
	return false
}

// PrefersSlot 检查员工是否偏好指定班次单元
func (e *Employee) PrefersSlot(shiftType ShiftType, date string, weekday time.Weekday) bool {
	for _, p := range e.Preferences {
		if p.Matches(shiftType, date, weekday) {
			return true
		}
	}
	return false
}
