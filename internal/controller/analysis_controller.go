package controller

import (
	"errors"

	"runsight_backend/internal/service"
	"runsight_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	AnalysisService *service.AnalysisService
	AuthService     *service.AuthService
}

func NewAnalysisController(analysisService *service.AnalysisService, authService *service.AuthService) *AnalysisController {
	return &AnalysisController{
		AnalysisService: analysisService,
		AuthService:     authService,
	}
}

// GetACWR godoc
// @Summary 急慢性负荷比
// @Description date 缺省为今天；数据不足时 data 为 null，不视为错误
// @Tags 分析
// @Produce  json
// @Security BearerAuth
// @Param   date query string false "日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=model.ACWRResult}
// @Failure 400 {object} util.Response "日期格式错误"
// @Router /api/analysis/acwr [get]
func (c *AnalysisController) GetACWR(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.AnalysisService.ACWR(user, ctx.Query("date"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, result)
}

// GetRecovery godoc
// @Summary 指定日期的恢复分
// @Description date 缺省为今天；当日无可用数据时 data 为 null
// @Tags 分析
// @Produce  json
// @Security BearerAuth
// @Param   date query string false "日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=model.RecoveryResult}
// @Failure 400 {object} util.Response "日期格式错误"
// @Router /api/analysis/recovery [get]
func (c *AnalysisController) GetRecovery(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.AnalysisService.Recovery(user, ctx.Query("date"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, result)
}

// GetRecommendation godoc
// @Summary 指定日期的训练建议
// @Tags 分析
// @Produce  json
// @Security BearerAuth
// @Param   date query string false "日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=model.DailyRecommendation}
// @Failure 400 {object} util.Response "日期格式错误"
// @Router /api/analysis/recommendation [get]
func (c *AnalysisController) GetRecommendation(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.AnalysisService.Recommendation(user, ctx.Query("date"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, result)
}

// GetCalendar godoc
// @Summary 日期区间每天的训练建议
// @Description 区间含两端，最长 92 天；无记录的日子返回无数据占位
// @Tags 分析
// @Produce  json
// @Security BearerAuth
// @Param   start query string true "起始日期 YYYY-MM-DD"
// @Param   end query string true "结束日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=[]model.DailyRecommendation}
// @Failure 400 {object} util.Response "区间不合法"
// @Router /api/analysis/calendar [get]
func (c *AnalysisController) GetCalendar(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.AnalysisService.Calendar(user, ctx.Query("start"), ctx.Query("end"))
	if err != nil {
		if errors.Is(err, util.ErrInvalidDate) || errors.Is(err, util.ErrInvalidDateRange) || errors.Is(err, util.ErrRangeTooLarge) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// GetFull godoc
// @Summary 汇总分析
// @Description ACWR、今日恢复与建议、近期平均恢复分；无任何记录时 data 为 null
// @Tags 分析
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.FullAnalysis}
// @Router /api/analysis/full [get]
func (c *AnalysisController) GetFull(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.AnalysisService.Full(user)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// GetOptimalRun godoc
// @Summary 指定日期是否适合跑步
// @Description 三态：true/false/null，null 表示数据不足以判断
// @Tags 分析
// @Produce  json
// @Security BearerAuth
// @Param   date query string false "日期 YYYY-MM-DD"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "日期格式错误"
// @Router /api/analysis/optimal-run [get]
func (c *AnalysisController) GetOptimalRun(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.AnalysisService.OptimalRunDay(user, ctx.Query("date"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, gin.H{"optimal": result})
}
