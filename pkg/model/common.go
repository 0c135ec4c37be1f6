// Package model 定义项目排班系统的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// 日期与时刻的统一字符串格式
const (
	DateFormat  = "2006-01-02"
	ClockFormat = "15:04"
)

// RuleCategory 规则类别
type RuleCategory string

const (
	RuleHard RuleCategory = "hard" // 硬规则（必须满足）
	RuleSoft RuleCategory = "soft" // 软规则（用于排序）
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JSONMap 用于存储 JSONB 数据
type JSONMap map[string]interface{}

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Contains 检查时间范围是否包含某个时间点
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// DateRange 日期范围（闭区间）
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Validate 检查日期范围是否合法
func (dr DateRange) Validate() bool {
	start, err := time.Parse(DateFormat, dr.StartDate)
	if err != nil {
		return false
	}
	end, err := time.Parse(DateFormat, dr.EndDate)
	if err != nil {
		return false
	}
	return !end.Before(start)
}

// Dates 枚举范围内的全部日期
func (dr DateRange) Dates() []string {
	start, err := time.Parse(DateFormat, dr.StartDate)
	if err != nil {
		return nil
	}
	end, err := time.Parse(DateFormat, dr.EndDate)
	if err != nil {
		return nil
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateFormat))
	}
	return dates
}

// WeekdayOf 返回日期字符串对应的星期
func WeekdayOf(date string) (time.Weekday, error) {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}

// WeekStartOf 返回日期所在周的开始日期（周日）
func WeekStartOf(date string) string {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return date
	}
	weekday := int(t.Weekday())
	return t.AddDate(0, 0, -weekday).Format(DateFormat)
}
