// Package stats 提供覆盖计划的统计分析功能
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 工时公平性
	WorkloadGini        float64 `json:"workload_gini"`     // 工时基尼系数 (0=完全公平, 1=完全不公平)
	WorkloadVariance    float64 `json:"workload_variance"` // 工时方差
	WorkloadStdDev      float64 `json:"workload_std_dev"`  // 工时标准差
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"`
	MaxHours            float64 `json:"max_hours"`
	MinHours            float64 `json:"min_hours"`
	HoursRange          float64 `json:"hours_range"`

	// 班次类型公平性
	ShiftTypeDistribution map[model.ShiftType]float64 `json:"shift_type_distribution"` // 各班次类型占比
	NightShiftGini        float64                     `json:"night_shift_gini"`        // 夜班分配基尼系数
	WeekendShiftGini      float64                     `json:"weekend_shift_gini"`      // 周末班分配基尼系数

	// 员工级别统计
	EmployeeStats []EmployeeStat `json:"employee_stats"`

	// 综合评分
	OverallFairnessScore float64 `json:"overall_fairness_score"` // 0-100
}

// EmployeeStat 员工统计
type EmployeeStat struct {
	EmployeeID    uuid.UUID `json:"employee_id"`
	EmployeeName  string    `json:"employee_name"`
	TotalHours    float64   `json:"total_hours"`
	ShiftCount    int       `json:"shift_count"`
	NightShifts   int       `json:"night_shifts"`
	WeekendShifts int       `json:"weekend_shifts"`
	Deviation     float64   `json:"deviation"` // 与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析分配在员工之间的公平性，取消的分配不计
func (f *FairnessAnalyzer) Analyze(assignments []*model.Assignment, employees []*model.Employee) *FairnessMetrics {
	if len(assignments) == 0 || len(employees) == 0 {
		return &FairnessMetrics{
			ShiftTypeDistribution: make(map[model.ShiftType]float64),
			OverallFairnessScore:  100,
		}
	}

	employeeMap := make(map[uuid.UUID]*model.Employee)
	for _, e := range employees {
		employeeMap[e.ID] = e
	}

	employeeStats := f.calculateEmployeeStats(assignments, employeeMap)

	hours := make([]float64, len(employeeStats))
	nightShifts := make([]float64, len(employeeStats))
	weekendShifts := make([]float64, len(employeeStats))

	for i, stat := range employeeStats {
		hours[i] = stat.TotalHours
		nightShifts[i] = float64(stat.NightShifts)
		weekendShifts[i] = float64(stat.WeekendShifts)
	}

	avgHours := mean(hours)
	variance := varianceOf(hours, avgHours)
	stdDev := math.Sqrt(variance)
	maxHours, minHours := rangeOf(hours)

	for i := range employeeStats {
		if avgHours > 0 {
			employeeStats[i].Deviation = (employeeStats[i].TotalHours - avgHours) / avgHours * 100
		}
	}

	workloadGini := gini(hours)
	nightGini := gini(nightShifts)
	weekendGini := gini(weekendShifts)

	return &FairnessMetrics{
		WorkloadGini:          workloadGini,
		WorkloadVariance:      variance,
		WorkloadStdDev:        stdDev,
		AvgHoursPerEmployee:   avgHours,
		MaxHours:              maxHours,
		MinHours:              minHours,
		HoursRange:            maxHours - minHours,
		ShiftTypeDistribution: f.shiftTypeDistribution(assignments),
		NightShiftGini:        nightGini,
		WeekendShiftGini:      weekendGini,
		EmployeeStats:         employeeStats,
		OverallFairnessScore:  f.overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours),
	}
}

// calculateEmployeeStats 计算员工统计数据
func (f *FairnessAnalyzer) calculateEmployeeStats(assignments []*model.Assignment, employeeMap map[uuid.UUID]*model.Employee) []EmployeeStat {
	statMap := make(map[uuid.UUID]*EmployeeStat)

	for _, a := range assignments {
		if !a.IsCounted() {
			continue
		}

		stat, exists := statMap[a.EmployeeID]
		if !exists {
			name := a.EmployeeID.String()
			if e, ok := employeeMap[a.EmployeeID]; ok {
				name = e.Name
			}
			stat = &EmployeeStat{
				EmployeeID:   a.EmployeeID,
				EmployeeName: name,
			}
			statMap[a.EmployeeID] = stat
		}

		stat.TotalHours += a.WorkingHours()
		stat.ShiftCount++

		if a.ShiftType == model.ShiftNight {
			stat.NightShifts++
		}
		if isWeekend(a.Date) {
			stat.WeekendShifts++
		}
	}

	result := make([]EmployeeStat, 0, len(statMap))
	for _, stat := range statMap {
		result = append(result, *stat)
	}

	// 按工时排序
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalHours != result[j].TotalHours {
			return result[i].TotalHours > result[j].TotalHours
		}
		return result[i].EmployeeID.String() < result[j].EmployeeID.String()
	})

	return result
}

// shiftTypeDistribution 计算班次类型分布
func (f *FairnessAnalyzer) shiftTypeDistribution(assignments []*model.Assignment) map[model.ShiftType]float64 {
	typeCounts := make(map[model.ShiftType]int)
	total := 0

	for _, a := range assignments {
		if !a.IsCounted() {
			continue
		}
		typeCounts[a.ShiftType]++
		total++
	}

	distribution := make(map[model.ShiftType]float64)
	if total > 0 {
		for st, count := range typeCounts {
			distribution[st] = float64(count) / float64(total) * 100
		}
	}

	return distribution
}

// overallScore 计算综合公平性评分
func (f *FairnessAnalyzer) overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.4
		nightWeight    = 0.25
		weekendWeight  = 0.25
		stdDevWeight   = 0.1
	)

	// 基尼系数转换为分数 (0=100分, 1=0分)
	workloadScore := (1 - workloadGini) * 100
	nightScore := (1 - nightGini) * 100
	weekendScore := (1 - weekendGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore +
		nightWeight*nightScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore

	return math.Max(0, math.Min(100, score))
}

// isWeekend 判断是否是周末
func isWeekend(dateStr string) bool {
	date, err := time.Parse(model.DateFormat, dateStr)
	if err != nil {
		return false
	}
	weekday := date.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// mean 计算平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// varianceOf 计算方差
func varianceOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// rangeOf 计算极值
func rangeOf(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}

	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}
