// Package constraint 定义排班规则接口和管理器
package constraint

import (
	"time"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/model"
)

// Type 规则类型标识
type Type string

const (
	// 硬规则类型
	TypeBlockedDate  Type = "blocked_date"  // 屏蔽日期
	TypeAvailability Type = "availability"  // 每周可用性
	TypeShiftOverlap Type = "shift_overlap" // 班次时间重叠

	// 软规则类型
	TypePreference    Type = "preference"      // 班次偏好
	TypeWeeklySoftCap Type = "weekly_soft_cap" // 周工时软上限
)

// Category 规则类别
type Category string

const (
	CategoryHard Category = "hard" // 硬规则（必须满足）
	CategorySoft Category = "soft" // 软规则（用于候选排序）
)

// Constraint 排班规则接口
type Constraint interface {
	// Name 返回规则名称
	Name() string

	// Type 返回规则类型
	Type() Type

	// Category 返回规则类别
	Category() Category

	// Weight 返回规则权重
	Weight() int

	// Evaluate 审计整个排班方案
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)

	// EvaluateCandidate 评估把员工排入某个班次单元
	// 硬规则返回是否允许；软规则返回得分增量（正为奖励，负为降权）
	EvaluateCandidate(ctx *Context, emp *model.Employee, slot model.ShiftSlot) (valid bool, scoreDelta int)
}

// ViolationDetail 规则违反详情
type ViolationDetail struct {
	ConstraintType Type      `json:"constraint_type"`
	ConstraintName string    `json:"constraint_name"`
	EmployeeID     uuid.UUID `json:"employee_id,omitempty"`
	Date           string    `json:"date,omitempty"`
	Message        string    `json:"message"`
	Severity       string    `json:"severity"` // error/warning
	Penalty        int       `json:"penalty"`
}

// Context 排班运行上下文
// 保存输入快照与本次运行的累积分配状态，状态只通过 AddRunAssignment 变化，
// 从而保证相同快照重复运行产出相同结果
type Context struct {
	// 输入快照
	StartDate    string                    `json:"start_date"`
	EndDate      string                    `json:"end_date"`
	Employees    []*model.Employee         `json:"employees"`
	Projects     []*model.Project          `json:"projects"`
	Requirements []*model.ShiftRequirement `json:"requirements"`

	// 当前分配（快照中已有的 + 本次运行新增的）
	Assignments []*model.Assignment `json:"assignments"`

	// 索引缓存
	employeeMap       map[uuid.UUID]*model.Employee
	projectMap        map[uuid.UUID]*model.Project
	assignmentsByEmp  map[uuid.UUID][]*model.Assignment
	assignmentsByDate map[string][]*model.Assignment

	// 本次运行排定的工时，用于负载均衡排序
	runHours map[uuid.UUID]float64

	// 额外配置
	Config map[string]interface{} `json:"config,omitempty"`
}

// NewContext 创建新的排班上下文
func NewContext(startDate, endDate string) *Context {
	return &Context{
		StartDate:         startDate,
		EndDate:           endDate,
		Employees:         make([]*model.Employee, 0),
		Projects:          make([]*model.Project, 0),
		Requirements:      make([]*model.ShiftRequirement, 0),
		Assignments:       make([]*model.Assignment, 0),
		employeeMap:       make(map[uuid.UUID]*model.Employee),
		projectMap:        make(map[uuid.UUID]*model.Project),
		assignmentsByEmp:  make(map[uuid.UUID][]*model.Assignment),
		assignmentsByDate: make(map[string][]*model.Assignment),
		runHours:          make(map[uuid.UUID]float64),
		Config:            make(map[string]interface{}),
	}
}

// SetEmployees 设置员工快照
func (c *Context) SetEmployees(employees []*model.Employee) {
	c.Employees = employees
	c.employeeMap = make(map[uuid.UUID]*model.Employee)
	for _, e := range employees {
		c.employeeMap[e.ID] = e
	}
}

// SetProjects 设置项目快照
func (c *Context) SetProjects(projects []*model.Project) {
	c.Projects = projects
	c.projectMap = make(map[uuid.UUID]*model.Project)
	for _, p := range projects {
		c.projectMap[p.ID] = p
	}
}

// SetRequirements 设置班次需求快照
func (c *Context) SetRequirements(requirements []*model.ShiftRequirement) {
	c.Requirements = requirements
}

// SetAssignments 设置快照中已有的分配
func (c *Context) SetAssignments(assignments []*model.Assignment) {
	c.Assignments = assignments
	c.rebuildAssignmentIndexes()
}

// AddRunAssignment 记录本次运行新增的分配，后续班次单元立即可见
func (c *Context) AddRunAssignment(a *model.Assignment) {
	c.Assignments = append(c.Assignments, a)
	c.assignmentsByEmp[a.EmployeeID] = append(c.assignmentsByEmp[a.EmployeeID], a)
	c.assignmentsByDate[a.Date] = append(c.assignmentsByDate[a.Date], a)
	c.runHours[a.EmployeeID] += a.WorkingHours()
}

// rebuildAssignmentIndexes 重建分配索引
func (c *Context) rebuildAssignmentIndexes() {
	c.assignmentsByEmp = make(map[uuid.UUID][]*model.Assignment)
	c.assignmentsByDate = make(map[string][]*model.Assignment)
	for _, a := range c.Assignments {
		c.assignmentsByEmp[a.EmployeeID] = append(c.assignmentsByEmp[a.EmployeeID], a)
		c.assignmentsByDate[a.Date] = append(c.assignmentsByDate[a.Date], a)
	}
}

// GetEmployee 获取员工
func (c *Context) GetEmployee(id uuid.UUID) *model.Employee {
	return c.employeeMap[id]
}

// GetProject 获取项目
func (c *Context) GetProject(id uuid.UUID) *model.Project {
	return c.projectMap[id]
}

// GetEmployeeAssignments 获取员工的所有分配
func (c *Context) GetEmployeeAssignments(empID uuid.UUID) []*model.Assignment {
	return c.assignmentsByEmp[empID]
}

// GetDateAssignments 获取某日期的所有分配
func (c *Context) GetDateAssignments(date string) []*model.Assignment {
	return c.assignmentsByDate[date]
}

// GetEmployeeRunHours 获取员工本次运行已排定的工时
func (c *Context) GetEmployeeRunHours(empID uuid.UUID) float64 {
	return c.runHours[empID]
}

// GetEmployeeWeekHours 获取员工在指定日期所在周（周日起）的累计工时
// 只计未取消的分配
func (c *Context) GetEmployeeWeekHours(empID uuid.UUID, date string) float64 {
	weekStart := model.WeekStartOf(date)
	weekEnd := addDays(weekStart, 6)

	var hours float64
	for _, a := range c.assignmentsByEmp[empID] {
		if !a.IsCounted() {
			continue
		}
		if a.Date >= weekStart && a.Date <= weekEnd {
			hours += a.WorkingHours()
		}
	}
	return hours
}

// HasOverlap 检查员工是否已有与给定时间范围重叠的未取消分配
func (c *Context) HasOverlap(empID uuid.UUID, tr model.TimeRange) bool {
	for _, a := range c.assignmentsByEmp[empID] {
		if !a.IsCounted() {
			continue
		}
		if a.TimeRange().Overlaps(tr) {
			return true
		}
	}
	return false
}

// addDays 日期字符串偏移
func addDays(date string, n int) string {
	t, err := time.Parse(model.DateFormat, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(model.DateFormat)
}

// Result 规则审计结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	Score          float64           `json:"score"` // 0-100
}

// CalculateScore 计算规则满足度得分
func (r *Result) CalculateScore(maxPenalty int) {
	if maxPenalty == 0 {
		r.Score = 100.0
		return
	}
	r.Score = 100.0 * float64(maxPenalty-r.TotalPenalty) / float64(maxPenalty)
	if r.Score < 0 {
		r.Score = 0
	}
}
