// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/paigong/paigong/internal/repository"
	"github.com/paigong/paigong/pkg/errors"
)

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
		"fields":  err.Fields,
	})
}

// decodeJSON 解析请求体
func decodeJSON(r *http.Request, dst interface{}) *errors.AppError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败")
	}
	return nil
}

// pathUUID 解析路径参数中的UUID
func pathUUID(r *http.Request, name string) (uuid.UUID, *errors.AppError) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.InvalidInput(name, "无效的UUID格式")
	}
	return id, nil
}

// listFilterFromQuery 从查询参数构造过滤器
func listFilterFromQuery(r *http.Request) repository.ListFilter {
	filter := repository.DefaultListFilter()
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		filter.Status = v
	}
	if v := q.Get("search"); v != "" {
		filter.Search = v
	}
	if v := q.Get("start_date"); v != "" {
		filter.StartDate = v
	}
	if v := q.Get("end_date"); v != "" {
		filter.EndDate = v
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}
	if v := q.Get("employee_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.EmployeeID = &id
		}
	}
	if v := q.Get("project_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.ProjectID = &id
		}
	}

	return filter
}

// ListResponse 列表响应
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}
