// Package rules 排班规则目录
package rules

// RuleParam 规则参数定义
type RuleParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// RuleDefinition 规则定义
type RuleDefinition struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	Type        string      `json:"type"` // hard 硬规则, soft 软规则
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Params      []RuleParam `json:"params"`
}

// CatalogResponse 规则目录响应
type CatalogResponse struct {
	Rules []RuleDefinition `json:"rules"`
}

// Catalog 返回引擎内置的全部排班规则
// 硬规则决定候选资格，软规则只影响候选排序
func Catalog() []RuleDefinition {
	return []RuleDefinition{
		{
			Name:        "blocked_date",
			DisplayName: "屏蔽日期",
			Type:        "hard",
			Category:    "时间限制",
			Description: "员工屏蔽的日期当天不参与任何班次分配，优先级高于可用性与偏好。",
			Params:      []RuleParam{},
		},
		{
			Name:        "availability",
			DisplayName: "每周可用性",
			Type:        "hard",
			Category:    "时间限制",
			Description: "只有员工可用性允许的（班次类型，星期）组合才能被分配，可用性为空即完全不可排。",
			Params:      []RuleParam{},
		},
		{
			Name:        "shift_overlap",
			DisplayName: "班次不重叠",
			Type:        "hard",
			Category:    "休息保障",
			Description: "同一员工的未取消分配在时间上不得重叠，夜班跨午夜计入次日时段。",
			Params:      []RuleParam{},
		},
		{
			Name:        "preference",
			DisplayName: "班次偏好",
			Type:        "soft",
			Category:    "偏好",
			Description: "命中员工偏好的候选获得加分，只影响排序，不命中不扣分。",
			Params: []RuleParam{
				{Name: "preference_weight", Type: "int", Description: "偏好命中加分", Default: "2", Min: "0", Max: "10"},
			},
		},
		{
			Name:        "weekly_soft_cap",
			DisplayName: "周工时软上限",
			Type:        "soft",
			Category:    "工时限制",
			Description: "接下此班次会使当周工时超过软上限的候选被扣分，周以周日为起点。超上限不阻止分配。",
			Params: []RuleParam{
				{Name: "weekly_soft_cap_hours", Type: "float", Description: "周工时软上限(小时)", Default: "40", Min: "8", Max: "80"},
				{Name: "soft_cap_weight", Type: "int", Description: "超上限扣分", Default: "1", Min: "0", Max: "10"},
			},
		},
	}
}
