// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/model"
)

// ProjectHandler 项目管理处理器
type ProjectHandler struct {
	projects ProjectStore
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projects ProjectStore) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// RequirementInput 班次需求输入
type RequirementInput struct {
	ShiftType  model.ShiftType  `json:"shift_type"`
	Recurrence model.Recurrence `json:"recurrence"`
	Headcount  int              `json:"headcount"`
}

// ProjectInput 项目输入
type ProjectInput struct {
	Name         string             `json:"name"`
	Code         string             `json:"code"`
	HourlyRate   float64            `json:"hourly_rate"`
	Active       *bool              `json:"active,omitempty"`
	Requirements []RequirementInput `json:"requirements,omitempty"`
}

// validate 校验项目输入，需求参数错误在落库前拒绝
func (in *ProjectInput) validate() *errors.AppError {
	ve := &errors.ValidationErrors{}

	if in.Name == "" {
		ve.Add("name", "项目名称不能为空")
	}
	if in.Code == "" {
		ve.Add("code", "项目编码不能为空")
	}
	if in.HourlyRate < 0 {
		ve.Add("hourly_rate", "小时费率不能为负")
	}
	for _, req := range in.Requirements {
		if !req.ShiftType.IsValid() {
			ve.Add("requirements", "未知班次类型: "+string(req.ShiftType))
		}
		if req.Headcount < 1 {
			ve.Add("requirements", "所需人数必须至少为1")
		}
		if err := req.Recurrence.Validate(); err != nil {
			ve.Add("requirements", err.Error())
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// toModel 转换为模型
func (in *ProjectInput) toModel(projectID uuid.UUID) []*model.ShiftRequirement {
	reqs := make([]*model.ShiftRequirement, 0, len(in.Requirements))
	for _, r := range in.Requirements {
		reqs = append(reqs, &model.ShiftRequirement{
			BaseModel:  model.NewBaseModel(),
			ProjectID:  projectID,
			ShiftType:  r.ShiftType,
			Recurrence: r.Recurrence,
			Headcount:  r.Headcount,
		})
	}
	return reqs
}

// Create 创建项目
// POST /api/v1/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in ProjectInput
	if appErr := decodeJSON(r, &in); appErr != nil {
		respondError(w, appErr)
		return
	}
	if appErr := in.validate(); appErr != nil {
		respondError(w, appErr)
		return
	}

	p := &model.Project{
		BaseModel:  model.NewBaseModel(),
		Name:       in.Name,
		Code:       in.Code,
		HourlyRate: in.HourlyRate,
		Active:     true,
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	p.Requirements = in.toModel(p.ID)

	if err := h.projects.Create(r.Context(), p); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "创建项目失败"))
		return
	}

	respondJSON(w, http.StatusCreated, p)
}

// Get 获取项目详情
// GET /api/v1/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	p, err := h.projects.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询项目失败"))
		return
	}
	if p == nil {
		respondError(w, errors.NotFound("项目", id.String()))
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// Update 更新项目
// PUT /api/v1/projects/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	var in ProjectInput
	if appErr := decodeJSON(r, &in); appErr != nil {
		respondError(w, appErr)
		return
	}
	if appErr := in.validate(); appErr != nil {
		respondError(w, appErr)
		return
	}

	p, err := h.projects.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询项目失败"))
		return
	}
	if p == nil {
		respondError(w, errors.NotFound("项目", id.String()))
		return
	}

	p.Name = in.Name
	p.Code = in.Code
	p.HourlyRate = in.HourlyRate
	if in.Active != nil {
		p.Active = *in.Active
	}
	p.Requirements = in.toModel(p.ID)

	if err := h.projects.Update(r.Context(), p); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "更新项目失败"))
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// Delete 删除项目
// DELETE /api/v1/projects/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, appErr := pathUUID(r, "id")
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	if err := h.projects.Delete(r.Context(), id); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "删除项目失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// List 查询项目列表
// GET /api/v1/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)

	projects, total, err := h.projects.List(r.Context(), filter)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询项目列表失败"))
		return
	}

	respondJSON(w, http.StatusOK, ListResponse{Items: projects, Total: total})
}
