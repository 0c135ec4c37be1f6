// Package scenario 端到端排班场景测试
// 不依赖数据库，直接驱动引擎并用审计器与统计器交叉验证输出
package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/costing"
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/constraint"
	"github.com/paigong/paigong/pkg/scheduler/constraint/builtin"
	"github.com/paigong/paigong/pkg/scheduler/expander"
	"github.com/paigong/paigong/pkg/scheduler/solver"
	"github.com/paigong/paigong/pkg/stats"
	"github.com/paigong/paigong/pkg/validator"
)

func fullAvailability() []model.AvailabilityRule {
	var rules []model.AvailabilityRule
	for _, st := range model.ShiftTypes() {
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			rules = append(rules, model.AvailabilityRule{ShiftType: st, Weekday: wd})
		}
	}
	return rules
}

func newEmployee(name string) *model.Employee {
	return &model.Employee{
		BaseModel:    model.NewBaseModel(),
		Name:         name,
		Code:         name,
		Status:       "active",
		Availability: fullAvailability(),
	}
}

func newProject(name string, rate float64) *model.Project {
	return &model.Project{
		BaseModel:  model.NewBaseModel(),
		Name:       name,
		Code:       name,
		HourlyRate: rate,
		Active:     true,
	}
}

func weeklyReq(projID uuid.UUID, st model.ShiftType, headcount int, weekdays ...time.Weekday) *model.ShiftRequirement {
	return &model.ShiftRequirement{
		BaseModel: model.NewBaseModel(),
		ProjectID: projID,
		ShiftType: st,
		Recurrence: model.Recurrence{
			Kind:     model.RecurrenceWeekly,
			Weekdays: weekdays,
		},
		Headcount: headcount,
	}
}

func buildContext(start, end string, employees []*model.Employee, projects []*model.Project, reqs []*model.ShiftRequirement) *constraint.Context {
	ctx := constraint.NewContext(start, end)
	ctx.SetEmployees(employees)
	ctx.SetProjects(projects)
	ctx.SetRequirements(reqs)
	return ctx
}

func newSolver() *solver.GreedySolver {
	cm := constraint.NewManager()
	builtin.RegisterDefaultConstraints(cm, nil)
	return solver.NewGreedySolver(cm)
}

// 全周两个项目混合班次的典型一周排班，产出必须通过全部不变量审计
func TestWeeklySchedule_PassesAudit(t *testing.T) {
	employees := []*model.Employee{
		newEmployee("张三"), newEmployee("李四"), newEmployee("王五"),
		newEmployee("赵六"), newEmployee("钱七"), newEmployee("孙八"),
	}
	storeA := newProject("门店A", 30)
	storeB := newProject("门店B", 35)

	reqs := []*model.ShiftRequirement{
		weeklyReq(storeA.ID, model.ShiftMorning, 2, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
		weeklyReq(storeA.ID, model.ShiftNight, 1, time.Monday, time.Wednesday, time.Friday),
		weeklyReq(storeB.ID, model.ShiftAfternoon, 1, time.Saturday, time.Sunday),
	}

	schedCtx := buildContext("2026-01-11", "2026-01-17", employees, []*model.Project{storeA, storeB}, reqs)

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if !result.Success || result.State != solver.RunFinalized {
		t.Fatalf("运行结果 = (%v, %s)", result.Success, result.State)
	}

	// 6 人对 10 个单元 15 人次，应全部填满
	if result.Statistics.FillRate != 100.0 {
		t.Errorf("满足率 = %v, expected 100", result.Statistics.FillRate)
	}

	slots, err := expander.Expand(reqs, model.DateRange{StartDate: "2026-01-11", EndDate: "2026-01-17"})
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}

	empMap := make(map[uuid.UUID]*model.Employee)
	for _, e := range employees {
		empMap[e.ID] = e
	}

	auditor := validator.NewPlanAuditor()
	if violations := auditor.Audit(result.Plan, empMap, slots); len(violations) != 0 {
		t.Errorf("审计发现 %d 条违规: %+v", len(violations), violations)
	}
	if err := auditor.AssertNoOverlap(result.Plan, empMap); err != nil {
		t.Errorf("存在重叠分配: %v", err)
	}
}

// 同一输入多次运行的计划必须逐字段一致
func TestWeeklySchedule_Deterministic(t *testing.T) {
	build := func() *constraint.Context {
		employees := []*model.Employee{
			newEmployee("甲"), newEmployee("乙"), newEmployee("丙"),
		}
		// 跨运行保持相同员工ID才能比较输出
		for i, e := range employees {
			e.ID = uuid.UUID{byte(i + 1)}
		}
		proj := newProject("门店", 30)
		proj.ID = uuid.UUID{0xff}
		reqs := []*model.ShiftRequirement{
			weeklyReq(proj.ID, model.ShiftMorning, 2, time.Monday, time.Wednesday),
			weeklyReq(proj.ID, model.ShiftNight, 1, time.Tuesday),
		}
		return buildContext("2026-01-11", "2026-01-17", employees, []*model.Project{proj}, reqs)
	}

	// 分配ID由单元与员工派生，也必须跨运行一致
	signature := func(plan *model.CoveragePlan) []string {
		var sig []string
		for _, a := range plan.Assignments {
			sig = append(sig, a.Date+"|"+string(a.ShiftType)+"|"+a.EmployeeID.String()+"|"+a.ID.String())
		}
		return sig
	}

	first, err := newSolver().Solve(context.Background(), build())
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	base := signature(first.Plan)

	for run := 0; run < 3; run++ {
		result, err := newSolver().Solve(context.Background(), build())
		if err != nil {
			t.Fatalf("第 %d 次运行 error: %v", run+2, err)
		}
		got := signature(result.Plan)
		if len(got) != len(base) {
			t.Fatalf("第 %d 次运行分配数 %d, expected %d", run+2, len(got), len(base))
		}
		for i := range base {
			if got[i] != base[i] {
				t.Fatalf("第 %d 次运行第 %d 条分配 %s, expected %s", run+2, i, got[i], base[i])
			}
		}
	}
}

// 人手不足时缺口入账且审计收支平衡
func TestShortfall_Accounting(t *testing.T) {
	employees := []*model.Employee{newEmployee("独苗")}
	proj := newProject("门店", 30)
	reqs := []*model.ShiftRequirement{
		weeklyReq(proj.ID, model.ShiftMorning, 3, time.Monday),
	}

	schedCtx := buildContext("2026-01-11", "2026-01-17", employees, []*model.Project{proj}, reqs)

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}

	// 人手不足不是运行失败
	if !result.Success {
		t.Error("缺口不应导致运行失败")
	}
	if len(result.Plan.Assignments) != 1 || result.Plan.TotalShortfall() != 2 {
		t.Errorf("分配 %d 缺口 %d, expected 1/2", len(result.Plan.Assignments), result.Plan.TotalShortfall())
	}

	slots, _ := expander.Expand(reqs, model.DateRange{StartDate: "2026-01-11", EndDate: "2026-01-17"})
	empMap := map[uuid.UUID]*model.Employee{employees[0].ID: employees[0]}
	if violations := validator.NewPlanAuditor().Audit(result.Plan, empMap, slots); len(violations) != 0 {
		t.Errorf("缺口入账后审计应通过: %+v", violations)
	}

	// 覆盖率与缺口口径一致
	coverage := stats.NewCoverageAnalyzer().Analyze(result.Plan, slots)
	if coverage.AssignedSeats != 1 || coverage.TotalSeats != 3 {
		t.Errorf("覆盖人次 = (%d, %d), expected (1, 3)", coverage.AssignedSeats, coverage.TotalSeats)
	}
}

// 两条需求命中同一单元时按合并后的人数排班，审计收支平衡
func TestDuplicateRequirements_MergedAndAuditClean(t *testing.T) {
	employees := []*model.Employee{newEmployee("甲"), newEmployee("乙")}
	proj := newProject("门店", 30)
	reqs := []*model.ShiftRequirement{
		weeklyReq(proj.ID, model.ShiftMorning, 1, time.Monday),
		weeklyReq(proj.ID, model.ShiftMorning, 1, time.Monday),
	}

	schedCtx := buildContext("2026-01-11", "2026-01-17", employees, []*model.Project{proj}, reqs)

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}

	if len(result.Plan.Assignments) != 2 || result.Plan.TotalShortfall() != 0 {
		t.Fatalf("分配 %d 缺口 %d, expected 2/0", len(result.Plan.Assignments), result.Plan.TotalShortfall())
	}

	slots, err := expander.Expand(reqs, model.DateRange{StartDate: "2026-01-11", EndDate: "2026-01-17"})
	if err != nil {
		t.Fatalf("Expand() error: %v", err)
	}
	if len(slots) != 1 || slots[0].RequiredCount != 2 {
		t.Fatalf("展开 %d 个单元(所需 %d 人), expected 1 个单元 2 人", len(slots), slots[0].RequiredCount)
	}

	empMap := make(map[uuid.UUID]*model.Employee)
	for _, e := range employees {
		empMap[e.ID] = e
	}
	if violations := validator.NewPlanAuditor().Audit(result.Plan, empMap, slots); len(violations) != 0 {
		t.Errorf("审计发现 %d 条违规: %+v", len(violations), violations)
	}
}

// 成本汇总与引擎工时统计口径一致
func TestCosting_MatchesStatistics(t *testing.T) {
	employees := []*model.Employee{
		newEmployee("张三"), newEmployee("李四"), newEmployee("王五"),
	}
	storeA := newProject("门店A", 30)
	storeB := newProject("门店B", 40)
	projects := []*model.Project{storeA, storeB}

	reqs := []*model.ShiftRequirement{
		weeklyReq(storeA.ID, model.ShiftMorning, 1, time.Monday, time.Tuesday),
		weeklyReq(storeB.ID, model.ShiftNight, 1, time.Monday),
	}

	schedCtx := buildContext("2026-01-11", "2026-01-17", employees, projects, reqs)

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}

	summary, err := costing.SummarizePlan(result.Plan, projects)
	if err != nil {
		t.Fatalf("SummarizePlan() error: %v", err)
	}

	if summary.TotalHours != result.Statistics.TotalHours {
		t.Errorf("成本工时 %v 与统计工时 %v 不一致", summary.TotalHours, result.Statistics.TotalHours)
	}

	// 2 个早班 * 30 + 1 个夜班 * 40，每班 8 小时
	if summary.TotalCost != 800.0 {
		t.Errorf("总成本 = %v, expected 800", summary.TotalCost)
	}

	// 分项合计等于总计
	var perProject float64
	for _, c := range summary.PerProjectCost {
		perProject += c
	}
	if perProject != summary.TotalCost {
		t.Errorf("项目成本合计 %v 不等于总成本 %v", perProject, summary.TotalCost)
	}
}

// 单员工承接工作日早班整周，产出与成本逐项可数
func TestSingleEmployee_WeekdayMornings(t *testing.T) {
	emp := newEmployee("独班")
	proj := newProject("门店", 30)
	reqs := []*model.ShiftRequirement{
		weeklyReq(proj.ID, model.ShiftMorning, 1,
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
	}

	schedCtx := buildContext("2026-01-11", "2026-01-17",
		[]*model.Employee{emp}, []*model.Project{proj}, reqs)

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}

	if len(result.Plan.Assignments) != 5 || result.Plan.TotalShortfall() != 0 {
		t.Fatalf("分配 %d 缺口 %d, expected 5/0", len(result.Plan.Assignments), result.Plan.TotalShortfall())
	}

	wantDates := []string{"2026-01-12", "2026-01-13", "2026-01-14", "2026-01-15", "2026-01-16"}
	for i, a := range result.Plan.Assignments {
		if a.Date != wantDates[i] || a.EmployeeID != emp.ID || a.ShiftType != model.ShiftMorning {
			t.Errorf("assignments[%d] = (%s, %s), expected (%s, morning)", i, a.Date, a.ShiftType, wantDates[i])
		}
	}

	// 5 班 * 8 小时 * 30 元
	summary, err := costing.SummarizePlan(result.Plan, []*model.Project{proj})
	if err != nil {
		t.Fatalf("SummarizePlan() error: %v", err)
	}
	if summary.TotalHours != 40.0 || summary.TotalCost != 1200.0 {
		t.Errorf("工时/成本 = (%v, %v), expected (40, 1200)", summary.TotalHours, summary.TotalCost)
	}
}

// 同分候选之间最后一个席位归累计工时更少的员工
func TestTieBreak_FewerRunHoursWins(t *testing.T) {
	busy := newEmployee("满手")
	idle := newEmployee("空手")
	// 周一到周四只有满手可排，周五早班两人同分竞争
	idle.Availability = []model.AvailabilityRule{
		{ShiftType: model.ShiftMorning, Weekday: time.Friday},
	}

	proj := newProject("门店", 30)
	reqs := []*model.ShiftRequirement{
		weeklyReq(proj.ID, model.ShiftMorning, 1,
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
	}

	schedCtx := buildContext("2026-01-11", "2026-01-17",
		[]*model.Employee{busy, idle}, []*model.Project{proj}, reqs)

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if len(result.Plan.Assignments) != 5 {
		t.Fatalf("分配 %d 条, expected 5", len(result.Plan.Assignments))
	}

	for _, a := range result.Plan.Assignments {
		if a.Date == "2026-01-16" {
			if a.EmployeeID != idle.ID {
				t.Error("周五早班应归累计工时更少的员工")
			}
			return
		}
	}
	t.Fatal("缺少周五早班的分配")
}

// 屏蔽日期与可用性在排班产出中被严格遵守
func TestHardRules_Respected(t *testing.T) {
	blocked := newEmployee("屏蔽者")
	blocked.BlockedDates = []string{"2026-01-12"}

	limited := newEmployee("受限者")
	limited.Availability = []model.AvailabilityRule{
		{ShiftType: model.ShiftMorning, Weekday: time.Monday},
	}

	proj := newProject("门店", 30)
	reqs := []*model.ShiftRequirement{
		weeklyReq(proj.ID, model.ShiftMorning, 2, time.Monday),
		weeklyReq(proj.ID, model.ShiftNight, 1, time.Monday),
	}

	schedCtx := buildContext("2026-01-11", "2026-01-17",
		[]*model.Employee{blocked, limited}, []*model.Project{proj}, reqs)

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}

	for _, a := range result.Plan.Assignments {
		if a.EmployeeID == blocked.ID {
			t.Errorf("屏蔽日期员工被排班: %s %s", a.Date, a.ShiftType)
		}
		if a.EmployeeID == limited.ID && a.ShiftType != model.ShiftMorning {
			t.Errorf("可用性之外的分配: %s %s", a.Date, a.ShiftType)
		}
	}

	// 周一早班只有受限者可排，缺 1；夜班无人可排，缺 1
	if result.Plan.TotalShortfall() != 2 {
		t.Errorf("总缺口 = %d, expected 2", result.Plan.TotalShortfall())
	}
}

// 偏好影响排序、周上限降权但都不产生硬失败
func TestSoftRules_InfluenceOrdering(t *testing.T) {
	monday := time.Monday
	preferring := newEmployee("偏好者")
	preferring.Preferences = []model.ShiftPreference{
		{ShiftType: model.ShiftMorning, Weekday: &monday},
	}
	plain := newEmployee("普通者")

	proj := newProject("门店", 30)
	reqs := []*model.ShiftRequirement{
		weeklyReq(proj.ID, model.ShiftMorning, 1, time.Monday),
	}

	schedCtx := buildContext("2026-01-11", "2026-01-17",
		[]*model.Employee{plain, preferring}, []*model.Project{proj}, reqs)

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}

	if len(result.Plan.Assignments) != 1 {
		t.Fatalf("分配 %d 条, expected 1", len(result.Plan.Assignments))
	}
	if result.Plan.Assignments[0].EmployeeID != preferring.ID {
		t.Error("周一早班应优先分配给偏好者")
	}
	if !result.Success {
		t.Error("软规则不应导致运行失败")
	}
}

// 工时在同分候选间向低工时者倾斜，产出大体均衡
func TestFairness_WorkloadSpread(t *testing.T) {
	employees := []*model.Employee{
		newEmployee("甲"), newEmployee("乙"), newEmployee("丙"), newEmployee("丁"),
	}
	proj := newProject("门店", 30)
	reqs := []*model.ShiftRequirement{
		weeklyReq(proj.ID, model.ShiftMorning, 2,
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday),
	}

	schedCtx := buildContext("2026-01-11", "2026-01-17", employees, []*model.Project{proj}, reqs)

	result, err := newSolver().Solve(context.Background(), schedCtx)
	if err != nil {
		t.Fatalf("Solve() error: %v", err)
	}

	// 8 人次对 4 人，每人恰好 2 班
	metrics := stats.NewFairnessAnalyzer().Analyze(result.Plan.Assignments, employees)
	if metrics.WorkloadGini != 0 {
		t.Errorf("均匀需求下基尼系数 = %v, expected 0", metrics.WorkloadGini)
	}
	if metrics.HoursRange != 0 {
		t.Errorf("工时极差 = %v, expected 0", metrics.HoursRange)
	}
}
