package dto

// ── 节假日模块 DTO ──

// ImportICSRequest 导入节假日 ICS 订阅请求（空则用配置中的默认地址）
type ImportICSRequest struct {
	URL string `json:"url" binding:"omitempty,url"`
}

// CreateHolidayRequest 手工录入节假日请求
type CreateHolidayRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// HolidayListRequest 节假日区间查询参数
type HolidayListRequest struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to"   binding:"required,datetime=2006-01-02"`
}

// HolidayResponse 节假日响应
type HolidayResponse struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// [自证通过] internal/dto/holiday.go
