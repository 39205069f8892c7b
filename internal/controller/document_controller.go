package controller

import (
	"net/http"
	"strings"

	"studyhelper_backend/internal/model"
	"studyhelper_backend/internal/service"
	"studyhelper_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DocumentController struct {
	service *service.DocumentService
}

func NewDocumentController(s *service.DocumentService) *DocumentController {
	return &DocumentController{service: s}
}

type SaveDocumentRequest struct {
	Topic     string           `json:"topic"`
	Content   string           `json:"content"`
	Summary   string           `json:"summary"`
	Keywords  string           `json:"keywords"`
	Resources []model.Resource `json:"resources"`
	FileURL   string           `json:"file_url"`
}

type SummarizeRequest struct {
	Text  string `json:"text" binding:"required"`
	Topic string `json:"topic"`
}

// SaveDocument godoc
// @Summary 保存学习文档
// @Description 保存原文、摘要、关键词与推荐资源，登录时记录所有者
// @Tags 文档
// @Accept json
// @Produce json
// @Param body body SaveDocumentRequest true "文档内容"
// @Success 201 {object} util.Response{data=model.Document}
// @Failure 503 {object} util.Response
// @Router /api/documents [post]
func (c *DocumentController) SaveDocument(ctx *gin.Context) {
	var req SaveDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	doc, err := c.service.SaveDocument(ctx.Request.Context(), service.SaveDocumentInput{
		UserID:    util.CurrentUserID(ctx),
		Topic:     req.Topic,
		Content:   req.Content,
		Summary:   req.Summary,
		Keywords:  req.Keywords,
		Resources: req.Resources,
		FileURL:   req.FileURL,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, doc)
}

// Summarize godoc
// @Summary 文本摘要并保存
// @Description 生成摘要、关键词与学习资源后保存为文档
// @Tags 文档
// @Accept json
// @Produce json
// @Param body body SummarizeRequest true "待摘要文本"
// @Success 201 {object} util.Response{data=model.Document}
// @Failure 400 {object} util.Response
// @Router /api/documents/summarize [post]
func (c *DocumentController) Summarize(ctx *gin.Context) {
	var req SummarizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	doc, err := c.service.SummarizeAndSave(ctx.Request.Context(), service.SummarizeInput{
		UserID: util.CurrentUserID(ctx),
		Text:   req.Text,
		Topic:  req.Topic,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, doc)
}

// SummarizeFile godoc
// @Summary 上传文件并摘要
// @Description 支持 .txt、.docx 与 .pdf，提取文本后生成摘要并保存
// @Tags 文档
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "文档文件"
// @Success 201 {object} util.Response{data=model.Document}
// @Failure 400 {object} util.Response
// @Router /api/documents/summarize/file [post]
func (c *DocumentController) SummarizeFile(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "File is required")
		return
	}
	if file.Size > util.MaxUploadSize {
		util.Error(ctx, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	f, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer f.Close()

	doc, err := c.service.SummarizeFile(ctx.Request.Context(), util.CurrentUserID(ctx), file.Filename, f)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, doc)
}

// ListDocuments godoc
// @Summary 我的文档列表
// @Tags 文档
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "条数" default(20)
// @Param offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/documents [get]
func (c *DocumentController) ListDocuments(ctx *gin.Context) {
	userID := util.CurrentUserID(ctx)
	if userID == nil {
		util.Unauthorized(ctx)
		return
	}

	limit := util.QueryInt(ctx.Query("limit"), 20)
	offset := util.QueryInt(ctx.Query("offset"), 0)
	docs, err := c.service.ListDocuments(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: docs, Total: len(docs), Limit: limit, Offset: offset})
}

// SearchDocuments godoc
// @Summary 搜索我的文档
// @Description 按主题、摘要、关键词模糊匹配
// @Tags 文档
// @Produce json
// @Security ApiKeyAuth
// @Param q query string true "关键词"
// @Param limit query int false "条数" default(20)
// @Param offset query int false "偏移" default(0)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/documents/search [get]
func (c *DocumentController) SearchDocuments(ctx *gin.Context) {
	userID := util.CurrentUserID(ctx)
	if userID == nil {
		util.Unauthorized(ctx)
		return
	}

	term := strings.TrimSpace(ctx.Query("q"))
	limit := util.QueryInt(ctx.Query("limit"), 20)
	offset := util.QueryInt(ctx.Query("offset"), 0)
	docs, err := c.service.SearchDocuments(ctx.Request.Context(), userID, term, limit, offset)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: docs, Total: len(docs), Limit: limit, Offset: offset})
}

// ListSummaries godoc
// @Summary 已保存摘要预览
// @Tags 文档
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "条数" default(50)
// @Success 200 {object} util.Response{data=[]model.SummaryPreview}
// @Router /api/documents/summaries [get]
func (c *DocumentController) ListSummaries(ctx *gin.Context) {
	userID := util.CurrentUserID(ctx)
	if userID == nil {
		util.Unauthorized(ctx)
		return
	}

	previews, err := c.service.ListSavedSummaries(ctx.Request.Context(), userID, util.QueryInt(ctx.Query("limit"), 50))
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, previews)
}

// GetDocument godoc
// @Summary 文档详情
// @Tags 文档
// @Produce json
// @Param id path int true "文档ID"
// @Success 200 {object} util.Response{data=model.Document}
// @Failure 404 {object} util.Response
// @Router /api/documents/{id} [get]
func (c *DocumentController) GetDocument(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	doc, err := c.service.GetDocument(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, doc)
}

// DownloadDocument godoc
// @Summary 下载文档
// @Description 返回文档并增加下载次数
// @Tags 文档
// @Produce json
// @Param id path int true "文档ID"
// @Success 200 {object} util.Response{data=model.Document}
// @Router /api/documents/{id}/download [get]
func (c *DocumentController) DownloadDocument(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	doc, err := c.service.GetDocumentWithDownloadTracking(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, doc)
}

// ExportSummary godoc
// @Summary 导出摘要文件
// @Description 生成纯文本学习摘要并上传到对象存储
// @Tags 文档
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "文档ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/documents/{id}/export [post]
func (c *DocumentController) ExportSummary(ctx *gin.Context) {
	userID := util.CurrentUserID(ctx)
	if userID == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	url, err := c.service.ExportSummary(ctx.Request.Context(), id, userID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"doc_id": id, "url": url})
}

// DeleteDocument godoc
// @Summary 删除文档
// @Description 只能删除自己的文档
// @Tags 文档
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "文档ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Router /api/documents/{id} [delete]
func (c *DocumentController) DeleteDocument(ctx *gin.Context) {
	userID := util.CurrentUserID(ctx)
	if userID == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeleteDocument(ctx.Request.Context(), id, userID); err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"doc_id": id})
}
