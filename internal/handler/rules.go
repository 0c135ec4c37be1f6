// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/paigong/paigong/internal/rules"
)

// RulesHandler 规则目录处理器
type RulesHandler struct{}

// NewRulesHandler 创建规则目录处理器
func NewRulesHandler() *RulesHandler {
	return &RulesHandler{}
}

// Catalog 返回引擎支持的规则目录及可调参数
// GET /api/v1/rules
func (h *RulesHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rules.CatalogResponse{Rules: rules.Catalog()})
}
