// Package model 定义项目排班系统的核心数据模型
package model

// Project 项目
type Project struct {
	BaseModel
	Name         string              `json:"name" db:"name"`
	Code         string              `json:"code" db:"code"`
	HourlyRate   float64             `json:"hourly_rate" db:"hourly_rate"` // 小时费率
	Active       bool                `json:"active" db:"active"`
	Requirements []*ShiftRequirement `json:"requirements,omitempty" db:"-"`
}

// IsActive 检查项目是否启用，引擎只读取启用的项目
func (p *Project) IsActive() bool {
	return p.Active
}
