package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/massiyousfi23-source/Emargement/internal/dto"
	"github.com/massiyousfi23-source/Emargement/internal/service"
	"github.com/massiyousfi23-source/Emargement/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 主管登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	token, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(c, 10101, "用户名或密码错误")
		case errors.Is(err, service.ErrAuthDisabled):
			response.NotFound(c, 10102, "未启用认证")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, token)
}
