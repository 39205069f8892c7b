package controller

import (
	"studyhelper_backend/internal/service"
	"studyhelper_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	service *service.QuizService
}

func NewQuizController(s *service.QuizService) *QuizController {
	return &QuizController{service: s}
}

type SubmitAttemptRequest struct {
	Answers  []service.AnswerInput `json:"answers"`
	Feedback bool                  `json:"feedback"`
}

type SaveQuizAsRequest struct {
	CustomTitle string `json:"custom_title" binding:"required"`
}

// CreateQuiz godoc
// @Summary 创建测验
// @Description 校验题目后一次性写入测验、题目、选项与关联
// @Tags 测验
// @Accept json
// @Produce json
// @Param body body service.CreateQuizInput true "测验内容"
// @Success 201 {object} util.Response{data=service.CreatedQuiz}
// @Failure 400 {object} util.Response
// @Router /api/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	var req service.CreateQuizInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	req.UserID = util.CurrentUserID(ctx)

	created, err := c.service.CreateQuiz(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, created)
}

// GenerateQuiz godoc
// @Summary AI 生成测验
// @Description 根据主题或学习内容生成选择题并保存
// @Tags 测验
// @Accept json
// @Produce json
// @Param body body service.GenerateQuizInput true "主题或内容"
// @Success 201 {object} util.Response{data=service.CreatedQuiz}
// @Failure 503 {object} util.Response
// @Router /api/quizzes/generate [post]
func (c *QuizController) GenerateQuiz(ctx *gin.Context) {
	var req service.GenerateQuizInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	req.UserID = util.CurrentUserID(ctx)

	created, err := c.service.GenerateQuiz(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, created)
}

// GetQuiz godoc
// @Summary 获取测验
// @Description 返回不含正确答案的测验
// @Tags 测验
// @Produce json
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.PublicQuiz}
// @Failure 404 {object} util.Response
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	quiz, err := c.service.GetQuiz(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, quiz.Redact())
}

// QuizAnalytics godoc
// @Summary 测验统计
// @Tags 测验
// @Produce json
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.QuizAnalytics}
// @Router /api/quizzes/{id}/analytics [get]
func (c *QuizController) QuizAnalytics(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	stats, err := c.service.QuizAnalytics(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, stats)
}

// DeleteQuiz godoc
// @Summary 删除测验
// @Description 删除测验及其作答记录，题目保留
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	userID := util.CurrentUserID(ctx)
	if userID == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeleteQuiz(ctx.Request.Context(), id, userID); err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"quiz_id": id})
}

// SubmitAttempt godoc
// @Summary 提交作答
// @Description 评分并记录作答，重复提交覆盖上一次结果
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param body body SubmitAttemptRequest true "答案"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Router /api/quizzes/{id}/attempts [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.service.SubmitAttempt(ctx.Request.Context(), user.Subject, id, req.Answers, req.Feedback)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// ListAttempts godoc
// @Summary 我的作答记录
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "条数"
// @Success 200 {object} util.Response{data=[]model.AttemptSummary}
// @Router /api/attempts [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	rows, err := c.service.ListAttempts(ctx.Request.Context(), user.Subject, util.QueryInt(ctx.Query("limit"), 0))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, rows)
}

// GetAttempt godoc
// @Summary 作答详情
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=model.AttemptDetail}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/attempts/{id} [get]
func (c *QuizController) GetAttempt(ctx *gin.Context) {
	userID := util.CurrentUserID(ctx)
	if userID == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.service.GetAttemptDetail(ctx.Request.Context(), id, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, detail)
}

// SaveQuizAs godoc
// @Summary 另存测验
// @Description 以自定义标题复制作答对应的测验
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Param body body SaveQuizAsRequest true "标题"
// @Success 201 {object} util.Response{data=service.CreatedQuiz}
// @Router /api/attempts/{id}/save-as [post]
func (c *QuizController) SaveQuizAs(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req SaveQuizAsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	created, err := c.service.SaveQuizAs(ctx.Request.Context(), id, user.Subject, req.CustomTitle)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, created)
}

// MyPerformance godoc
// @Summary 我的学习表现
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.UserPerformance}
// @Router /api/users/me/performance [get]
func (c *QuizController) MyPerformance(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	perf, err := c.service.UserPerformance(ctx.Request.Context(), user.Subject)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, perf)
}
