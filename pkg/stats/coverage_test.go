package stats

import (
	"testing"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

func newAssignment(empID, projID uuid.UUID, date string, st model.ShiftType, status string) *model.Assignment {
	tr, _ := st.TimeRangeOn(date)
	return &model.Assignment{
		BaseModel:  model.NewBaseModel(),
		EmployeeID: empID,
		ProjectID:  projID,
		Date:       date,
		ShiftType:  st,
		StartTime:  tr.Start,
		EndTime:    tr.End,
		Status:     status,
	}
}

func TestCoverageAnalyzer_FullCoverage(t *testing.T) {
	projID := uuid.New()
	slots := []model.ShiftSlot{
		{ProjectID: projID, Date: "2026-01-12", ShiftType: model.ShiftMorning, RequiredCount: 2},
		{ProjectID: projID, Date: "2026-01-13", ShiftType: model.ShiftNight, RequiredCount: 1},
	}

	plan := &model.CoveragePlan{
		Assignments: []*model.Assignment{
			newAssignment(uuid.New(), projID, "2026-01-12", model.ShiftMorning, model.AssignmentAssigned),
			newAssignment(uuid.New(), projID, "2026-01-12", model.ShiftMorning, model.AssignmentAssigned),
			newAssignment(uuid.New(), projID, "2026-01-13", model.ShiftNight, model.AssignmentAssigned),
		},
	}

	metrics := NewCoverageAnalyzer().Analyze(plan, slots)

	if metrics.TotalSeats != 3 || metrics.AssignedSeats != 3 {
		t.Errorf("人次 = (%d, %d), expected (3, 3)", metrics.TotalSeats, metrics.AssignedSeats)
	}
	if metrics.OverallCoverage != 100.0 {
		t.Errorf("整体覆盖率 = %v, expected 100", metrics.OverallCoverage)
	}

	day := metrics.DailyCoverage["2026-01-12"]
	if day.RequiredSeats != 2 || day.Assigned != 2 || day.TotalHours != 16.0 {
		t.Errorf("01-12 覆盖 = %+v", day)
	}
	if metrics.ShiftTypeCoverage[model.ShiftNight] != 100.0 {
		t.Errorf("夜班覆盖率 = %v, expected 100", metrics.ShiftTypeCoverage[model.ShiftNight])
	}
	if metrics.ProjectCoverage[projID] != 100.0 {
		t.Errorf("项目覆盖率 = %v, expected 100", metrics.ProjectCoverage[projID])
	}
}

func TestCoverageAnalyzer_PartialCoverage(t *testing.T) {
	projID := uuid.New()
	slots := []model.ShiftSlot{
		{ProjectID: projID, Date: "2026-01-12", ShiftType: model.ShiftMorning, RequiredCount: 4},
	}

	plan := &model.CoveragePlan{
		Assignments: []*model.Assignment{
			newAssignment(uuid.New(), projID, "2026-01-12", model.ShiftMorning, model.AssignmentAssigned),
		},
		Unfilled: []model.UnfilledSlot{
			{ProjectID: projID, Date: "2026-01-12", ShiftType: model.ShiftMorning, Shortfall: 3},
		},
	}

	metrics := NewCoverageAnalyzer().Analyze(plan, slots)
	if metrics.OverallCoverage != 25.0 {
		t.Errorf("整体覆盖率 = %v, expected 25", metrics.OverallCoverage)
	}
	if len(metrics.Unfilled) != 1 || metrics.Unfilled[0].Shortfall != 3 {
		t.Errorf("缺口明细 = %+v", metrics.Unfilled)
	}
}

func TestCoverageAnalyzer_CancelledExcluded(t *testing.T) {
	projID := uuid.New()
	slots := []model.ShiftSlot{
		{ProjectID: projID, Date: "2026-01-12", ShiftType: model.ShiftMorning, RequiredCount: 2},
	}

	plan := &model.CoveragePlan{
		Assignments: []*model.Assignment{
			newAssignment(uuid.New(), projID, "2026-01-12", model.ShiftMorning, model.AssignmentReported),
			newAssignment(uuid.New(), projID, "2026-01-12", model.ShiftMorning, model.AssignmentCancelled),
		},
	}

	metrics := NewCoverageAnalyzer().Analyze(plan, slots)
	// 自报计入，取消不计
	if metrics.AssignedSeats != 1 || metrics.OverallCoverage != 50.0 {
		t.Errorf("覆盖 = (%d, %v), expected (1, 50)", metrics.AssignedSeats, metrics.OverallCoverage)
	}
}

func TestCoverageAnalyzer_OverAssignedCapped(t *testing.T) {
	projID := uuid.New()
	slots := []model.ShiftSlot{
		{ProjectID: projID, Date: "2026-01-12", ShiftType: model.ShiftMorning, RequiredCount: 1},
	}

	plan := &model.CoveragePlan{
		Assignments: []*model.Assignment{
			newAssignment(uuid.New(), projID, "2026-01-12", model.ShiftMorning, model.AssignmentAssigned),
			newAssignment(uuid.New(), projID, "2026-01-12", model.ShiftMorning, model.AssignmentAssigned),
		},
	}

	metrics := NewCoverageAnalyzer().Analyze(plan, slots)
	// 覆盖率按座位封顶，不超过 100
	if metrics.AssignedSeats != 1 || metrics.OverallCoverage != 100.0 {
		t.Errorf("覆盖 = (%d, %v), expected (1, 100)", metrics.AssignedSeats, metrics.OverallCoverage)
	}
}

func TestCoverageAnalyzer_EmptySlots(t *testing.T) {
	metrics := NewCoverageAnalyzer().Analyze(&model.CoveragePlan{}, nil)
	if metrics.OverallCoverage != 100.0 {
		t.Errorf("空需求覆盖率 = %v, expected 100", metrics.OverallCoverage)
	}
}
