package handler

import (
	"github.com/gin-gonic/gin"

	"thesis-hub/backend/internal/api/middleware"
	"thesis-hub/backend/pkg/jwt"
	"thesis-hub/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextRole)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetCaller 同时提取 user_id 与 role
func MustGetCaller(c *gin.Context) (userID, role string, ok bool) {
	if userID, ok = MustGetUserID(c); !ok {
		return "", "", false
	}
	if role, ok = MustGetRole(c); !ok {
		return "", "", false
	}
	return userID, role, true
}

// MustBeSelfOrAdmin 学生只能操作自己的数据，管理员不受限
func MustBeSelfOrAdmin(c *gin.Context, studentID string) bool {
	userID, role, ok := MustGetCaller(c)
	if !ok {
		return false
	}
	if role == jwt.RoleAdmin || (role == jwt.RoleStudent && userID == studentID) {
		return true
	}
	response.Forbidden(c, 10003, "无权限访问")
	return false
}

// mustParam 读取非空路径参数
func mustParam(c *gin.Context, name, message string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		response.BadRequest(c, 10001, message)
		return "", false
	}
	return v, true
}
