package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phungxuangiap/cham-cong-sub000/internal/dto"
	"github.com/phungxuangiap/cham-cong-sub000/internal/model"
	"github.com/phungxuangiap/cham-cong-sub000/internal/service"
	"github.com/phungxuangiap/cham-cong-sub000/pkg/response"
)

// RequestHandler 请假/加班申请模块 HTTP 处理器
type RequestHandler struct {
	reqSvc service.RequestService
}

// NewRequestHandler 创建 RequestHandler
func NewRequestHandler(reqSvc service.RequestService) *RequestHandler {
	return &RequestHandler{reqSvc: reqSvc}
}

// ── 创建 ──

// CreateLeave 创建请假申请
// POST /api/v1/requests/leave
func (h *RequestHandler) CreateLeave(c *gin.Context) {
	var req dto.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.reqSvc.CreateLeave(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.Created(c, result)
}

// CreateOvertime 创建加班申请
// POST /api/v1/requests/overtime
func (h *RequestHandler) CreateOvertime(c *gin.Context) {
	var req dto.CreateOvertimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.reqSvc.CreateOvertime(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.Created(c, result)
}

// ── 查询 ──

// ListLeave 请假申请列表
// GET /api/v1/requests/leave
func (h *RequestHandler) ListLeave(c *gin.Context) {
	req, ok := h.bindListRequest(c)
	if !ok {
		return
	}

	list, total, err := h.reqSvc.ListLeave(c.Request.Context(), req)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListOvertime 加班申请列表
// GET /api/v1/requests/overtime
func (h *RequestHandler) ListOvertime(c *gin.Context) {
	req, ok := h.bindListRequest(c)
	if !ok {
		return
	}

	list, total, err := h.reqSvc.ListOvertime(c.Request.Context(), req)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// bindListRequest 解析列表查询参数；普通员工只能查看本人申请
func (h *RequestHandler) bindListRequest(c *gin.Context) (*dto.RequestListRequest, bool) {
	var req dto.RequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return nil, false
	}

	role, ok := MustGetRole(c)
	if !ok {
		return nil, false
	}
	if role == model.RoleEmployee {
		callerID, ok := MustGetUserID(c)
		if !ok {
			return nil, false
		}
		req.EmployeeID = callerID
	}
	return &req, true
}

// GetLeave 请假申请详情
// GET /api/v1/requests/leave/:id
func (h *RequestHandler) GetLeave(c *gin.Context) {
	result, err := h.reqSvc.GetLeave(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, result)
}

// GetOvertime 加班申请详情
// GET /api/v1/requests/overtime/:id
func (h *RequestHandler) GetOvertime(c *gin.Context) {
	result, err := h.reqSvc.GetOvertime(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, result)
}

// ── 审批 ──

// ApproveLeave 批准请假
// PUT /api/v1/requests/leave/:id/approve
func (h *RequestHandler) ApproveLeave(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reqSvc.ApproveLeave(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// RejectLeave 驳回请假（理由必填）
// PUT /api/v1/requests/leave/:id/reject
func (h *RequestHandler) RejectLeave(c *gin.Context) {
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reqSvc.RejectLeave(c.Request.Context(), c.Param("id"), callerID, req.Reason); err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// ApproveOvertime 批准加班
// PUT /api/v1/requests/overtime/:id/approve
func (h *RequestHandler) ApproveOvertime(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reqSvc.ApproveOvertime(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// RejectOvertime 驳回加班（理由可选）
// PUT /api/v1/requests/overtime/:id/reject
func (h *RequestHandler) RejectOvertime(c *gin.Context) {
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reqSvc.RejectOvertime(c.Request.Context(), c.Param("id"), callerID, req.Reason); err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── 撤回 ──

// WithdrawLeave 撤回本人待审批的请假申请
// DELETE /api/v1/requests/leave/:id
func (h *RequestHandler) WithdrawLeave(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reqSvc.WithdrawLeave(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// WithdrawOvertime 撤回本人待审批的加班申请
// DELETE /api/v1/requests/overtime/:id
func (h *RequestHandler) WithdrawOvertime(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reqSvc.WithdrawOvertime(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── 旧接口兼容：按创建时刻近似定位 ──

// legacyInstant 解析旧接口的 created_at 参数并确定目标员工。
// 普通员工只能定位本人的申请，hr/admin 可通过 employee_id 指定他人。
func (h *RequestHandler) legacyInstant(c *gin.Context) (string, time.Time, bool) {
	var req dto.LegacyLocateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "created_at 不能为空")
		return "", time.Time{}, false
	}

	instant, err := time.Parse(time.RFC3339Nano, req.CreatedAt)
	if err != nil {
		response.BadRequest(c, 10001, "created_at 必须为 RFC 3339 时间戳")
		return "", time.Time{}, false
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return "", time.Time{}, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return "", time.Time{}, false
	}

	employeeID := callerID
	if other := c.Query("employee_id"); other != "" && role != model.RoleEmployee {
		employeeID = other
	}
	return employeeID, instant, true
}

// LocateLeaveByCreatedAt 按创建时刻定位请假申请
// GET /api/v1/requests/leave/by-created-at?created_at=...
func (h *RequestHandler) LocateLeaveByCreatedAt(c *gin.Context) {
	employeeID, instant, ok := h.legacyInstant(c)
	if !ok {
		return
	}

	result, err := h.reqSvc.FindLeaveByCreatedAt(c.Request.Context(), employeeID, instant)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, result)
}

// LocateOvertimeByCreatedAt 按创建时刻定位加班申请
// GET /api/v1/requests/overtime/by-created-at?created_at=...
func (h *RequestHandler) LocateOvertimeByCreatedAt(c *gin.Context) {
	employeeID, instant, ok := h.legacyInstant(c)
	if !ok {
		return
	}

	result, err := h.reqSvc.FindOvertimeByCreatedAt(c.Request.Context(), employeeID, instant)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, result)
}

// ApproveLeaveByCreatedAt 按创建时刻批准请假（旧接口）
// PUT /api/v1/requests/leave/by-created-at/approve?created_at=...
func (h *RequestHandler) ApproveLeaveByCreatedAt(c *gin.Context) {
	employeeID, instant, ok := h.legacyInstant(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reqSvc.ApproveLeaveByCreatedAt(c.Request.Context(), employeeID, instant, callerID); err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// RejectLeaveByCreatedAt 按创建时刻驳回请假（旧接口）
// PUT /api/v1/requests/leave/by-created-at/reject?created_at=...
func (h *RequestHandler) RejectLeaveByCreatedAt(c *gin.Context) {
	employeeID, instant, ok := h.legacyInstant(c)
	if !ok {
		return
	}

	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reqSvc.RejectLeaveByCreatedAt(c.Request.Context(), employeeID, instant, callerID, req.Reason); err != nil {
		h.handleRequestError(c, err)
		return
	}
	response.OK(c, nil)
}

// handleRequestError 统一处理申请模块业务错误
func (h *RequestHandler) handleRequestError(c *gin.Context, err error) {
	var overlapErr *service.OverlapError
	if errors.As(err, &overlapErr) {
		c.JSON(http.StatusConflict, response.Response{
			Code:    16001,
			Message: "与已有申请时间重叠",
			Data: gin.H{
				"conflict_id": overlapErr.ConflictID,
				"from":        overlapErr.From,
				"to":          overlapErr.To,
				"status":      overlapErr.Status,
			},
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 16002, "申请不存在")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 16003, "日期区间无效")
	case errors.Is(err, service.ErrInvalidTimeRange):
		response.BadRequest(c, 16004, "时间区间无效")
	case errors.Is(err, service.ErrNotFoundOrDecided):
		response.Error(c, http.StatusConflict, 16005, "申请不存在或已被处理")
	case errors.Is(err, service.ErrRejectReasonRequired):
		response.BadRequest(c, 16006, "驳回理由不能为空")
	case errors.Is(err, service.ErrNotOwnerOrNotPending):
		response.Error(c, http.StatusConflict, 16007, "仅本人待审批的申请可撤回")
	case errors.Is(err, service.ErrLegacyLocateAmbiguous):
		response.NotFound(c, 16008, "按创建时刻未能定位到申请")
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 12001, "员工不存在")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/request_handler.go
