// Package builtin 提供内置排班规则实现
package builtin

import (
	"github.com/paigong/paigong/pkg/scheduler/constraint"
)

// RegisterDefaultConstraints 注册默认规则到管理器
// 硬规则固定，软规则的权重与周工时上限可通过配置调整
func RegisterDefaultConstraints(manager *constraint.Manager, config map[string]interface{}) {
	preferenceWeight := getConfigInt(config, "preference_weight", 2)
	softCapWeight := getConfigInt(config, "soft_cap_weight", 1)
	weeklySoftCapHours := getConfigFloat(config, "weekly_soft_cap_hours", 40.0)

	// 注册硬规则
	manager.Register(NewBlockedDateConstraint())
	manager.Register(NewAvailabilityConstraint())
	manager.Register(NewShiftOverlapConstraint())

	// 注册软规则
	manager.Register(NewPreferenceConstraint(preferenceWeight))
	manager.Register(NewWeeklySoftCapConstraint(softCapWeight, weeklySoftCapHours))
}

// getConfigInt 从配置中获取整数
func getConfigInt(config map[string]interface{}, key string, defaultVal int) int {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case float64:
			return int(v)
		case int64:
			return int(v)
		}
	}
	return defaultVal
}

// getConfigFloat 从配置中获取浮点数
func getConfigFloat(config map[string]interface{}, key string, defaultVal float64) float64 {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return defaultVal
}
