package controller

import (
	"runsight_backend/internal/service"
	"runsight_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
	AuthService      *service.AuthService
}

func NewDashboardController(dashboardService *service.DashboardService, authService *service.AuthService) *DashboardController {
	return &DashboardController{
		DashboardService: dashboardService,
		AuthService:      authService,
	}
}

// GetDashboard godoc
// @Summary 仪表盘
// @Description 汇总分析、今日记录、当月日历建议、周跑量趋势与同步状态，带短时缓存
// @Tags 仪表盘
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.Dashboard}
// @Failure 401 {object} util.Response "未登录"
// @Router /api/dashboard [get]
func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	dashboard, err := c.DashboardService.Get(ctx.Request.Context(), user)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}
