package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phungxuangiap/cham-cong-sub000/internal/dto"
	"github.com/phungxuangiap/cham-cong-sub000/internal/service"
	"github.com/phungxuangiap/cham-cong-sub000/pkg/response"
)

// SchedulerHandler 考勤日任务 HTTP 处理器
// 日任务通常由定时器触发，此接口供管理员手动补跑
type SchedulerHandler struct {
	schedulerSvc service.SchedulerService
}

// NewSchedulerHandler 创建 SchedulerHandler
func NewSchedulerHandler(schedulerSvc service.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{schedulerSvc: schedulerSvc}
}

// RunDaily 手动触发日任务
// POST /api/v1/scheduler/run
func (h *SchedulerHandler) RunDaily(c *gin.Context) {
	var req dto.RunDailyRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	asOf := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			response.BadRequest(c, 10001, "日期格式无效")
			return
		}
		asOf = parsed
	}

	summary, err := h.schedulerSvc.RunDaily(c.Request.Context(), asOf)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, summary)
}

// [自证通过] internal/api/handler/scheduler_handler.go
