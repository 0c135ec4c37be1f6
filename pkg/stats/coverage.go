// Package stats 提供覆盖计划的统计分析功能
package stats

import (
	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	// 整体覆盖率，按人次（座位）计
	TotalSeats      int     `json:"total_seats"`      // 总需求人次
	AssignedSeats   int     `json:"assigned_seats"`   // 已分配人次
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率 (%)

	// 按日期统计
	DailyCoverage map[string]DayCoverage `json:"daily_coverage"`

	// 按班次类型统计
	ShiftTypeCoverage map[model.ShiftType]float64 `json:"shift_type_coverage"`

	// 按项目统计
	ProjectCoverage map[uuid.UUID]float64 `json:"project_coverage"`

	// 缺口明细，直接来自计划的未填满列表
	Unfilled []model.UnfilledSlot `json:"unfilled"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date          string  `json:"date"`
	RequiredSeats int     `json:"required_seats"`
	Assigned      int     `json:"assigned"`
	CoverageRate  float64 `json:"coverage_rate"`
	TotalHours    float64 `json:"total_hours"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析一次运行产出的计划对需求的覆盖情况
func (c *CoverageAnalyzer) Analyze(plan *model.CoveragePlan, slots []model.ShiftSlot) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:     make(map[string]DayCoverage),
		ShiftTypeCoverage: make(map[model.ShiftType]float64),
		ProjectCoverage:   make(map[uuid.UUID]float64),
		Unfilled:          plan.Unfilled,
	}

	if len(slots) == 0 {
		metrics.OverallCoverage = 100
		return metrics
	}

	// 按单元统计已分配人次
	assignedBySlot := make(map[string]int)
	for _, a := range plan.Assignments {
		if !a.IsCounted() {
			continue
		}
		key := model.ShiftSlot{ProjectID: a.ProjectID, Date: a.Date, ShiftType: a.ShiftType}.Key()
		assignedBySlot[key]++
	}

	dailyStats := make(map[string]*DayCoverage)
	typeTotals := make(map[model.ShiftType]int)
	typeAssigned := make(map[model.ShiftType]int)
	projTotals := make(map[uuid.UUID]int)
	projAssigned := make(map[uuid.UUID]int)

	for _, slot := range slots {
		assigned := assignedBySlot[slot.Key()]
		if assigned > slot.RequiredCount {
			assigned = slot.RequiredCount
		}

		metrics.TotalSeats += slot.RequiredCount
		metrics.AssignedSeats += assigned

		day, exists := dailyStats[slot.Date]
		if !exists {
			day = &DayCoverage{Date: slot.Date}
			dailyStats[slot.Date] = day
		}
		day.RequiredSeats += slot.RequiredCount
		day.Assigned += assigned
		day.TotalHours += float64(assigned) * slot.ShiftType.Hours()

		typeTotals[slot.ShiftType] += slot.RequiredCount
		typeAssigned[slot.ShiftType] += assigned
		projTotals[slot.ProjectID] += slot.RequiredCount
		projAssigned[slot.ProjectID] += assigned
	}

	if metrics.TotalSeats > 0 {
		metrics.OverallCoverage = float64(metrics.AssignedSeats) / float64(metrics.TotalSeats) * 100
	}

	for date, stats := range dailyStats {
		if stats.RequiredSeats > 0 {
			stats.CoverageRate = float64(stats.Assigned) / float64(stats.RequiredSeats) * 100
		}
		metrics.DailyCoverage[date] = *stats
	}

	for st, total := range typeTotals {
		if total > 0 {
			metrics.ShiftTypeCoverage[st] = float64(typeAssigned[st]) / float64(total) * 100
		}
	}

	for pid, total := range projTotals {
		if total > 0 {
			metrics.ProjectCoverage[pid] = float64(projAssigned[pid]) / float64(total) * 100
		}
	}

	return metrics
}
