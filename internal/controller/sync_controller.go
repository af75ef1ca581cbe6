package controller

import (
	"errors"

	"runsight_backend/internal/service"
	"runsight_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SyncController struct {
	SyncService *service.SyncService
	AuthService *service.AuthService
}

func NewSyncController(syncService *service.SyncService, authService *service.AuthService) *SyncController {
	return &SyncController{
		SyncService: syncService,
		AuthService: authService,
	}
}

// SyncRequest 手动触发同步
type SyncRequest struct {
	Provider string `json:"provider" binding:"required,oneof=strava oura"`
}

// TriggerSync godoc
// @Summary 手动触发数据源同步
// @Description 同一数据源同一时间只允许一个同步在跑
// @Tags 同步
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body SyncRequest true "数据源"
// @Success 200 {object} util.Response "同步完成"
// @Failure 400 {object} util.Response "数据源未配置或参数错误"
// @Failure 409 {object} util.Response "同步正在进行中"
// @Router /api/sync [post]
func (c *SyncController) TriggerSync(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SyncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	provider, err := service.ParseProvider(req.Provider)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.SyncService.SyncProvider(ctx.Request.Context(), user, provider); err != nil {
		switch {
		case errors.Is(err, util.ErrSyncRunning):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrProviderNotSet):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, nil)
}

// TriggerSyncForUser godoc
// @Summary 为指定用户触发同步（管理员）
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "用户 ID"
// @Param   body body SyncRequest true "数据源"
// @Success 200 {object} util.Response "同步完成"
// @Failure 404 {object} util.Response "用户不存在"
// @Failure 409 {object} util.Response "同步正在进行中"
// @Router /api/admin/users/{id}/sync [post]
func (c *SyncController) TriggerSyncForUser(ctx *gin.Context) {
	userID := util.MustParseUint(ctx.Param("id"))
	if userID == 0 {
		util.BadRequest(ctx, "invalid user id")
		return
	}

	user, err := c.SyncService.UserRepo.FindByID(userID)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	var req SyncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	provider, err := service.ParseProvider(req.Provider)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.SyncService.SyncProvider(ctx.Request.Context(), user, provider); err != nil {
		switch {
		case errors.Is(err, util.ErrSyncRunning):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrProviderNotSet):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, nil)
}

// GetStatus godoc
// @Summary 查询同步状态
// @Tags 同步
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.SyncState}
// @Router /api/sync/status [get]
func (c *SyncController) GetStatus(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	states, err := c.SyncService.Status(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, states)
}
