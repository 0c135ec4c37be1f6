// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"
	"time"

	"github.com/paigong/paigong/internal/security"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
)

// EmployeeHandler 员工管理处理器
type EmployeeHandler struct {
	employees EmployeeStore
}

// NewEmployeeHandler 创建员工处理器
func NewEmployeeHandler(employees EmployeeStore) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// EmployeeInput 员工输入
type EmployeeInput struct {
	Name         string                   `json:"name"`
	Code         string                   `json:"code"`
	Phone        string                   `json:"phone,omitempty"`
	Email        string                   `json:"email,omitempty"`
	IsAdmin      bool                     `json:"is_admin,omitempty"`
	Status       string                   `json:"status,omitempty"`
	Availability []model.AvailabilityRule `json:"availability,omitempty"`
	BlockedDates []string                 `json:"blocked_dates,omitempty"`
	Preferences  []model.ShiftPreference  `json:"preferences,omitempty"`
}

// validate 校验员工输入
func (in *EmployeeInput) validate() *errors.AppError {
	ve := &errors.ValidationErrors{}

	if in.Name == "" {
		ve.Add("name", "姓名不能为空")
	}
	if in.Code == "" {
		ve.Add("code", "工号不能为空")
	}
	if in.Status != "" && in.Status != "active" && in.Status != "inactive" {
		ve.Add("status", "状态只能是 active 或 inactive")
	}
	for _, rule := range in.Availability {
		if !rule.ShiftType.IsValid() {
			ve.Add("availability", "未知班次类型: "+string(rule.ShiftType))
		}
		if rule.Weekday < time.Sunday || rule.Weekday > time.Saturday {
			ve.Add("availability", "非法星期")
		}
	}
	for _, d := range in.BlockedDates {
		if _, err := time.Parse(model.DateFormat, d); err != nil {
			ve.Add("blocked_dates", "日期格式无效，应为YYYY-MM-DD: "+d)
		}
	}
	for _, p := range in.Preferences {
		if !p.ShiftType.IsValid() {
			ve.Add("preferences", "未知班次类型: "+string(p.ShiftType))
		}
		if p.Date != "" {
			if _, err := time.Parse(model.DateFormat, p.Date); err != nil {
				ve.Add("preferences", "日期格式无效: "+p.Date)
			}
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// Create 创建员工
// POST /api/v1/employees
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in EmployeeInput
	if appErr := decodeJSON(r, &in); appErr != nil {
		respondError(w, appErr)
		return
	}
	if appErr := in.validate(); appErr != nil {
		respondError(w, appErr)
		return
	}

	emp := &model.Employee{
		BaseModel:    model.NewBaseModel(),
		Name:         in.Name,
		Code:         in.Code,
		Phone:        in.Phone,
		Email:        in.Email,
		IsAdmin:      in.IsAdmin,
		Status:       in.Status,
		Availability: in.Availability,
		BlockedDates: in.BlockedDates,
		Preferences:  in.Preferences,
	}
	if emp.Status == "" {
		emp.Status = "active"
	}

	if err := h.employees.Create(r.Context(), emp); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建员工失败"))
		return
	}

	respondJSON(w, http.StatusCreated, emp)
}

// Get 获取员工详情
// GET /api/v1/employees/{id}
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
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

	respondJSON(w, http.StatusOK, emp)
}

// Update 更新员工
// PUT /api/v1/employees/{id}
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	var in EmployeeInput
	if appErr := decodeJSON(r, &in); appErr != nil {
		respondError(w, appErr)
		return
	}
	if appErr := in.validate(); appErr != nil {
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

	emp.Name = in.Name
	emp.Code = in.Code
	emp.Phone = in.Phone
	emp.Email = in.Email
	emp.IsAdmin = in.IsAdmin
	if in.Status != "" {
		emp.Status = in.Status
	}
	emp.Availability = in.Availability
	emp.BlockedDates = in.BlockedDates
	emp.Preferences = in.Preferences

	if err := h.employees.Update(r.Context(), emp); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "更新员工失败"))
		return
	}

	respondJSON(w, http.StatusOK, emp)
}

// Delete 删除员工
// DELETE /api/v1/employees/{id}
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	if err := h.employees.Delete(r.Context(), id); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "删除员工失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// List 查询员工列表
// GET /api/v1/employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)

	employees, total, err := h.employees.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询员工列表失败"))
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Items: employees, Total: total})
}

// TokenResponse 门户令牌响应
type TokenResponse struct {
	Token string `json:"token"` // 明文只返回这一次
}

// IssueToken 为员工签发自报门户令牌，旧令牌立即失效
// POST /api/v1/employees/{id}/token
func (h *EmployeeHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
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

	token, hash, err := security.GeneratePortalToken()
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInternal, "生成令牌失败"))
		return
	}

	emp.TokenHash = hash
	if err := h.employees.Update(r.Context(), emp); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存令牌失败"))
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{Token: token})
}
