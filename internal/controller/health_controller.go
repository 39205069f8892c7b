package controller

import (
	"net/http"

	"studyhelper_backend/internal/backend"
	"studyhelper_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	selector *backend.Selector
}

func NewHealthController(sel *backend.Selector) *HealthController {
	return &HealthController{selector: sel}
}

// @Summary 健康检查
// @Description 返回主库状态、故障切换原因以及本地库是否已初始化
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	st := c.selector.Status()

	status := "ok"
	if st.Primary == "down" {
		status = "degraded"
		// 主库已下线且无本地库，无法提供服务
		if !st.Fallback {
			util.ErrorWithData(ctx, http.StatusServiceUnavailable, "Database unavailable", gin.H{
				"status":     "down",
				"components": st,
			})
			return
		}
	}

	util.Success(ctx, gin.H{
		"status":     status,
		"components": st,
	})
}
