// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/calendar"
	"github.com/paigong/paigong/pkg/costing"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/scheduler/expander"
	"github.com/paigong/paigong/pkg/stats"
)

// ReportHandler 报表处理器
// 汇总窗口内的成本、覆盖率与公平性，并提供员工日历导出
type ReportHandler struct {
	employees   EmployeeStore
	projects    ProjectStore
	assignments AssignmentStore
}

// NewReportHandler 创建报表处理器
func NewReportHandler(
	employees EmployeeStore,
	projects ProjectStore,
	assignments AssignmentStore,
) *ReportHandler {
	return &ReportHandler{
		employees:   employees,
		projects:    projects,
		assignments: assignments,
	}
}

// SummaryResponse 汇总报表响应
type SummaryResponse struct {
	Window   model.DateRange        `json:"window"`
	Cost     *costing.Summary       `json:"cost"`
	Coverage *stats.CoverageMetrics `json:"coverage"`
	Fairness *stats.FairnessMetrics `json:"fairness"`
}

// Summary 汇总报表
// GET /api/v1/reports/summary?start_date=...&end_date=...
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	window, appErr := windowFromQuery(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	assignments, err := h.assignments.ListByWindow(r.Context(), window.StartDate, window.EndDate)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询分配失败"))
		return
	}

	projects, err := h.projects.ListActive(r.Context())
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询项目失败"))
		return
	}

	employees, err := h.employees.ListActive(r.Context())
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询员工失败"))
		return
	}

	cost, err := costing.Summarize(assignments, projects)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInternal, "成本汇总失败"))
		return
	}

	// 覆盖率按当前项目需求在窗口内的展开计算
	var requirements []*model.ShiftRequirement
	for _, p := range projects {
		requirements = append(requirements, p.Requirements...)
	}
	slots, err := expander.Expand(requirements, window)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInternal, "需求展开失败"))
		return
	}

	plan := &model.CoveragePlan{
		Window:      window,
		Assignments: assignments,
	}
	coverage := stats.NewCoverageAnalyzer().Analyze(plan, slots)
	fairness := stats.NewFairnessAnalyzer().Analyze(assignments, employees)

	respondJSON(w, http.StatusOK, SummaryResponse{
		Window:   window,
		Cost:     cost,
		Coverage: coverage,
		Fairness: fairness,
	})
}

// ExportICS 导出员工排班日历
// GET /api/v1/reports/employees/{id}/calendar.ics?start_date=...&end_date=...
func (h *ReportHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	window, appErr := windowFromQuery(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	emp, err := h.employees.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询员工失败"))
		return
	}
	if emp == nil {
		respondError(w, errors.NotFound("员工", id.String()))
		return
	}

	assignments, err := h.assignments.ListByEmployee(r.Context(), id, window.StartDate, window.EndDate)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询分配失败"))
		return
	}

	projects, err := h.projects.ListActive(r.Context())
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询项目失败"))
		return
	}
	projectMap := make(map[uuid.UUID]*model.Project, len(projects))
	for _, p := range projects {
		projectMap[p.ID] = p
	}

	ics, err := calendar.NewICSExporter("排班日历").ExportEmployee(emp, assignments, projectMap)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInternal, "日历导出失败"))
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ics))
}

// windowFromQuery 从查询参数解析日期窗口
func windowFromQuery(r *http.Request) (model.DateRange, *errors.AppError) {
	ve := &errors.ValidationErrors{}

	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")

	if start == "" {
		ve.Add("start_date", "开始日期不能为空")
	} else if _, err := time.Parse(model.DateFormat, start); err != nil {
		ve.Add("start_date", "日期格式无效，应为YYYY-MM-DD")
	}
	if end == "" {
		ve.Add("end_date", "结束日期不能为空")
	} else if _, err := time.Parse(model.DateFormat, end); err != nil {
		ve.Add("end_date", "日期格式无效，应为YYYY-MM-DD")
	}
	if start != "" && end != "" && end < start {
		ve.Add("end_date", "结束日期不能早于开始日期")
	}

	if ve.HasErrors() {
		return model.DateRange{}, ve.ToAppError()
	}
	return model.DateRange{StartDate: start, EndDate: end}, nil
}
