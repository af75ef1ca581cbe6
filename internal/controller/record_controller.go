package controller

import (
	"errors"

	"runsight_backend/internal/service"
	"runsight_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RecordController struct {
	RecordService *service.RecordService
}

func NewRecordController(recordService *service.RecordService) *RecordController {
	return &RecordController{
		RecordService: recordService,
	}
}

// GetRecords godoc
// @Summary 查询日期区间内的每日记录
// @Tags 记录
// @Produce  json
// @Security BearerAuth
// @Param   start query string true "起始日期 YYYY-MM-DD"
// @Param   end query string true "结束日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=[]model.DailyRecord}
// @Failure 400 {object} util.Response "日期格式错误"
// @Router /api/records [get]
func (c *RecordController) GetRecords(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	records, err := c.RecordService.GetRange(claims.UserID, ctx.Query("start"), ctx.Query("end"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, records)
}

// UpsertRecord godoc
// @Summary 写入或覆盖一天的记录
// @Description 手动录入当日跑量与睡眠/准备度评分
// @Tags 记录
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   date path string true "日期 YYYY-MM-DD"
// @Param   body body service.RecordInput true "当日数据"
// @Success 200 {object} util.Response{data=model.DailyRecord}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/records/{date} [put]
func (c *RecordController) UpsertRecord(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.RecordInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	record, err := c.RecordService.Upsert(ctx.Request.Context(), claims.UserID, ctx.Param("date"), req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, record)
}

// DeleteRecord godoc
// @Summary 删除一天的记录
// @Tags 记录
// @Produce  json
// @Security BearerAuth
// @Param   date path string true "日期 YYYY-MM-DD"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "记录不存在"
// @Router /api/records/{date} [delete]
func (c *RecordController) DeleteRecord(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	err := c.RecordService.Delete(ctx.Request.Context(), claims.UserID, ctx.Param("date"))
	if err != nil {
		if errors.Is(err, util.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else if errors.Is(err, util.ErrInvalidDate) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
