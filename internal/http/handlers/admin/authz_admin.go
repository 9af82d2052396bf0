package admin

import (
	"github.com/sokoni-shop/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListRoles 角色列表
func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "load roles failed", err)
		return
	}
	response.Success(c, gin.H{"roles": roles})
}

// GetRolePolicies 角色策略列表
func (h *Handler) GetRolePolicies(c *gin.Context) {
	policies, err := h.AuthzService.GetRolePolicies(c.Param("role"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "load role policies failed", err)
		return
	}
	response.Success(c, gin.H{"policies": policies})
}

// RolePolicyRequest 角色策略请求
type RolePolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// GrantRolePolicy 为角色授予策略
func (h *Handler) GrantRolePolicy(c *gin.Context) {
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	if err := h.AuthzService.GrantRolePolicy(c.Param("role"), req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "grant role policy failed", err)
		return
	}
	response.Success(c, gin.H{"granted": true})
}

// RevokeRolePolicy 撤销角色策略
func (h *Handler) RevokeRolePolicy(c *gin.Context) {
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	if err := h.AuthzService.RevokeRolePolicy(c.Param("role"), req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "revoke role policy failed", err)
		return
	}
	response.Success(c, gin.H{"revoked": true})
}

// CustomerRolesRequest 客户角色设置请求
type CustomerRolesRequest struct {
	Roles []string `json:"roles"`
}

// GetCustomerRoles 查询客户角色
func (h *Handler) GetCustomerRoles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	roles, err := h.AuthzService.GetCustomerRoles(id)
	if err != nil {
		respondError(c, response.CodeInternal, "load customer roles failed", err)
		return
	}
	response.Success(c, gin.H{"customer_id": id, "roles": roles})
}

// SetCustomerRoles 覆盖设置客户角色
func (h *Handler) SetCustomerRoles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CustomerRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	if err := h.AuthzService.SetCustomerRoles(id, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, "set customer roles failed", err)
		return
	}
	response.Success(c, gin.H{"customer_id": id, "roles": req.Roles})
}
