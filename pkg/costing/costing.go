// Package costing 提供工时与成本汇总
package costing

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

// Summary 汇总结果
// 所有金额只在最终输出时保留两位小数，中间过程不舍入，避免误差累积
type Summary struct {
	PerEmployeeHours map[uuid.UUID]float64 `json:"per_employee_hours"`
	PerEmployeeCost  map[uuid.UUID]float64 `json:"per_employee_cost"`
	PerProjectHours  map[uuid.UUID]float64 `json:"per_project_hours"`
	PerProjectCost   map[uuid.UUID]float64 `json:"per_project_cost"`
	TotalHours       float64               `json:"total_hours"`
	TotalCost        float64               `json:"total_cost"`
}

// Summarize 汇总分配列表的工时与成本
// 取消的分配不计入，自报的分配与引擎排定的同等计入
func Summarize(assignments []*model.Assignment, projects []*model.Project) (*Summary, error) {
	rates := make(map[uuid.UUID]float64, len(projects))
	for _, p := range projects {
		rates[p.ID] = p.HourlyRate
	}

	empHours := make(map[uuid.UUID]float64)
	empCost := make(map[uuid.UUID]float64)
	projHours := make(map[uuid.UUID]float64)
	projCost := make(map[uuid.UUID]float64)
	var totalHours, totalCost float64

	for _, a := range assignments {
		if !a.IsCounted() {
			continue
		}

		rate, ok := rates[a.ProjectID]
		if !ok {
			return nil, fmt.Errorf("分配 %s 引用未知项目: %s", a.ID, a.ProjectID)
		}

		hours := a.ShiftType.Hours()
		cost := hours * rate

		empHours[a.EmployeeID] += hours
		empCost[a.EmployeeID] += cost
		projHours[a.ProjectID] += hours
		projCost[a.ProjectID] += cost
		totalHours += hours
		totalCost += cost
	}

	// 仅在最终聚合处舍入
	for k, v := range empCost {
		empCost[k] = round2(v)
	}
	for k, v := range projCost {
		projCost[k] = round2(v)
	}

	return &Summary{
		PerEmployeeHours: empHours,
		PerEmployeeCost:  empCost,
		PerProjectHours:  projHours,
		PerProjectCost:   projCost,
		TotalHours:       totalHours,
		TotalCost:        round2(totalCost),
	}, nil
}

// SummarizePlan 汇总一次运行产出的覆盖计划
func SummarizePlan(plan *model.CoveragePlan, projects []*model.Project) (*Summary, error) {
	return Summarize(plan.Assignments, projects)
}

// round2 保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
