package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/phungxuangiap/cham-cong-sub000/internal/dto"
	"github.com/phungxuangiap/cham-cong-sub000/internal/model"
	"github.com/phungxuangiap/cham-cong-sub000/internal/repository"
)

// ── 测试辅助 ──

type attendanceTestEnv struct {
	svc        AttendanceService
	attendance *mockAttendanceRepo
	employees  *mockEmployeeRepo
	shifts     *mockShiftRepo
	depts      *mockDepartmentRepo
}

func setupTestAttendanceService() *attendanceTestEnv {
	employees := newMockEmployeeRepo()
	changes := newMockShiftChangeRepo()
	shifts := newMockShiftRepo(changes)
	attendance := newMockAttendanceRepo(employees)
	depts := newMockDepartmentRepo(employees)

	repo := &repository.Repository{
		Employee:        employees,
		Department:      depts,
		Shift:           shifts,
		ShiftChange:     changes,
		Attendance:      attendance,
		LeaveRequest:    newMockLeaveRequestRepo(),
		OvertimeRequest: newMockOvertimeRequestRepo(),
		Holiday:         newMockHolidayRepo(),
	}
	svc := NewAttendanceService(repo, zap.NewNop())
	return &attendanceTestEnv{
		svc:        svc,
		attendance: attendance,
		employees:  employees,
		shifts:     shifts,
		depts:      depts,
	}
}

// seedRecord 植入标准 09:00-17:00（最迟 09:15）的当日记录
func (e *attendanceTestEnv) seedRecord(id, employeeID string, date time.Time) *model.AttendanceRecord {
	rec := &model.AttendanceRecord{
		AttendanceID: id,
		EmployeeID:   employeeID,
		WorkDate:     date,
		ShiftName:    "标准班",
		ShiftStart:   "09:00",
		ShiftEnd:     "17:00",
		ShiftLatest:  "09:15",
	}
	e.attendance.records[id] = rec
	return rec
}

// ── Materialize 测试 ──

func TestAttendanceService_Materialize_SnapshotsShift(t *testing.T) {
	env := setupTestAttendanceService()
	env.shifts.shifts["shift-001"] = &model.Shift{
		ShiftID:      "shift-001",
		DepartmentID: "dept-001",
		Name:         "标准班",
		StartTime:    "09:00",
		EndTime:      "17:00",
		LatestTime:   "09:15",
	}
	emp := &model.Employee{
		EmployeeID:   "emp-001",
		DepartmentID: "dept-001",
		IsActive:     true,
	}

	created, err := env.svc.Materialize(context.Background(), emp, testToday)
	if err != nil {
		t.Fatalf("Materialize 应成功: %v", err)
	}
	if !created {
		t.Fatal("首次生成应返回 created=true")
	}

	rec, err := env.attendance.GetByEmployeeDate(context.Background(), "emp-001", testToday)
	if err != nil {
		t.Fatalf("记录应已生成: %v", err)
	}
	if rec.ShiftStart != "09:00" || rec.ShiftLatest != "09:15" {
		t.Errorf("快照字段不正确: %s / %s", rec.ShiftStart, rec.ShiftLatest)
	}

	// 幂等：重复生成跳过
	created, err = env.svc.Materialize(context.Background(), emp, testToday)
	if err != nil {
		t.Fatalf("重复 Materialize 不应报错: %v", err)
	}
	if created {
		t.Error("重复生成应返回 created=false")
	}
}

func TestAttendanceService_Materialize_SnapshotImmuneToShiftChange(t *testing.T) {
	env := setupTestAttendanceService()
	shift := &model.Shift{
		ShiftID:      "shift-001",
		DepartmentID: "dept-001",
		Name:         "标准班",
		StartTime:    "09:00",
		EndTime:      "17:00",
		LatestTime:   "09:15",
	}
	env.shifts.shifts["shift-001"] = shift
	emp := &model.Employee{EmployeeID: "emp-001", DepartmentID: "dept-001", IsActive: true}

	if _, err := env.svc.Materialize(context.Background(), emp, testToday); err != nil {
		t.Fatalf("Materialize 应成功: %v", err)
	}

	// 记录生成后班次被改动
	shift.StartTime = "10:00"
	shift.LatestTime = "10:15"

	rec, _ := env.attendance.GetByEmployeeDate(context.Background(), "emp-001", testToday)
	if rec.ShiftStart != "09:00" {
		t.Errorf("快照不应随班次改动，实际=%s", rec.ShiftStart)
	}
}

// ── CheckIn 测试 ──

func TestAttendanceService_CheckIn_OnTime(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedRecord("att-1", "emp-001", testToday)

	result, err := env.svc.CheckIn(context.Background(), "emp-001", testToday, "08:55")
	if err != nil {
		t.Fatalf("CheckIn 应成功: %v", err)
	}
	if result.LateMinutes != 0 {
		t.Errorf("提前到岗迟到分钟应为 0，实际=%d", result.LateMinutes)
	}
	if result.CheckInTime == nil || *result.CheckInTime != "08:55" {
		t.Error("签到时刻未写入")
	}
}

func TestAttendanceService_CheckIn_LateMinutesFromSnapshotStart(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedRecord("att-1", "emp-001", testToday)

	// 09:20 签到，上班 09:00 → 迟到 20 分钟
	result, err := env.svc.CheckIn(context.Background(), "emp-001", testToday, "09:20")
	if err != nil {
		t.Fatalf("CheckIn 应成功: %v", err)
	}
	if result.LateMinutes != 20 {
		t.Errorf("期望迟到 20 分钟，实际=%d", result.LateMinutes)
	}
}

func TestAttendanceService_CheckIn_NoRecord(t *testing.T) {
	env := setupTestAttendanceService()
	_, err := env.svc.CheckIn(context.Background(), "emp-001", testToday, "09:00")
	if !errors.Is(err, ErrNoScheduleToday) {
		t.Errorf("期望 ErrNoScheduleToday，实际: %v", err)
	}
}

func TestAttendanceService_CheckIn_Twice(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedRecord("att-1", "emp-001", testToday)

	if _, err := env.svc.CheckIn(context.Background(), "emp-001", testToday, "09:00"); err != nil {
		t.Fatalf("第一次签到应成功: %v", err)
	}
	_, err := env.svc.CheckIn(context.Background(), "emp-001", testToday, "09:05")
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("期望 ErrAlreadyCheckedIn，实际: %v", err)
	}

	// 第一次的数据不被覆盖
	rec := env.attendance.records["att-1"]
	if *rec.CheckInTime != "09:00" {
		t.Errorf("重复签到不应覆盖首次时刻，实际=%s", *rec.CheckInTime)
	}
}

func TestAttendanceService_CheckIn_WindowBoundary(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedRecord("att-1", "emp-001", testToday)

	// 最迟 09:15，通道 08:15 开放；08:14 拒绝
	_, err := env.svc.CheckIn(context.Background(), "emp-001", testToday, "08:14")
	if !errors.Is(err, ErrCheckInTooEarly) {
		t.Fatalf("期望 ErrCheckInTooEarly，实际: %v", err)
	}

	// 08:15 整点放行
	if _, err := env.svc.CheckIn(context.Background(), "emp-001", testToday, "08:15"); err != nil {
		t.Errorf("开放时刻整点签到应成功: %v", err)
	}
}

// ── CheckOut 测试 ──

func TestAttendanceService_CheckOut_EarlyMinutes(t *testing.T) {
	env := setupTestAttendanceService()
	rec := env.seedRecord("att-1", "emp-001", testToday)
	checkIn := "09:20"
	rec.CheckInTime = &checkIn
	rec.LateMinutes = 20

	// 16:45 签退，下班 17:00 → 早退 15 分钟
	result, err := env.svc.CheckOut(context.Background(), "emp-001", testToday, "16:45")
	if err != nil {
		t.Fatalf("CheckOut 应成功: %v", err)
	}
	if result.EarlyMinutes != 15 {
		t.Errorf("期望早退 15 分钟，实际=%d", result.EarlyMinutes)
	}
	// 迟到分钟保持不变
	if result.LateMinutes != 20 {
		t.Errorf("签退不应改动迟到分钟，实际=%d", result.LateMinutes)
	}
}

func TestAttendanceService_CheckOut_BeforeCheckIn(t *testing.T) {
	env := setupTestAttendanceService()
	env.seedRecord("att-1", "emp-001", testToday)

	_, err := env.svc.CheckOut(context.Background(), "emp-001", testToday, "17:00")
	if !errors.Is(err, ErrNotCheckedIn) {
		t.Errorf("期望 ErrNotCheckedIn，实际: %v", err)
	}
}

func TestAttendanceService_CheckOut_Twice(t *testing.T) {
	env := setupTestAttendanceService()
	rec := env.seedRecord("att-1", "emp-001", testToday)
	checkIn, checkOut := "09:00", "17:00"
	rec.CheckInTime = &checkIn
	rec.CheckOutTime = &checkOut

	_, err := env.svc.CheckOut(context.Background(), "emp-001", testToday, "17:30")
	if !errors.Is(err, ErrAlreadyCheckedOut) {
		t.Errorf("期望 ErrAlreadyCheckedOut，实际: %v", err)
	}
}

// ── TodayStatus 测试 ──

func TestAttendanceService_TodayStatus(t *testing.T) {
	env := setupTestAttendanceService()

	// 无记录
	status, err := env.svc.TodayStatus(context.Background(), "emp-001", testToday, "10:00")
	if err != nil {
		t.Fatalf("TodayStatus 应成功: %v", err)
	}
	if status.HasRecord || status.CanCheckIn || status.CanCheckOut {
		t.Error("无记录时所有操作都应不可用")
	}

	// 通道未开放
	env.seedRecord("att-1", "emp-001", testToday)
	status, _ = env.svc.TodayStatus(context.Background(), "emp-001", testToday, "07:30")
	if status.CanCheckIn {
		t.Error("07:30 通道未开放，不应可签到")
	}
	if status.Reason == "" {
		t.Error("通道未开放时应说明开放时刻")
	}

	// 通道开放
	status, _ = env.svc.TodayStatus(context.Background(), "emp-001", testToday, "08:30")
	if !status.CanCheckIn || status.CanCheckOut {
		t.Error("08:30 应可签到不可签退")
	}

	// 已签到
	checkIn := "09:00"
	env.attendance.records["att-1"].CheckInTime = &checkIn
	status, _ = env.svc.TodayStatus(context.Background(), "emp-001", testToday, "12:00")
	if status.CanCheckIn || !status.CanCheckOut {
		t.Error("已签到后应可签退不可签到")
	}

	// 已签退
	checkOut := "17:00"
	env.attendance.records["att-1"].CheckOutTime = &checkOut
	status, _ = env.svc.TodayStatus(context.Background(), "emp-001", testToday, "18:00")
	if status.CanCheckIn || status.CanCheckOut {
		t.Error("已签退后所有操作都应不可用")
	}
}

// ── ReconcileAbandoned 测试 ──

func TestAttendanceService_ReconcileAbandoned(t *testing.T) {
	env := setupTestAttendanceService()
	yesterday := testToday.AddDate(0, 0, -1)

	// 昨日已签到未签退
	stale := env.seedRecord("att-1", "emp-001", yesterday)
	checkIn := "09:00"
	stale.CheckInTime = &checkIn

	// 昨日已完成的记录不受影响
	done := env.seedRecord("att-2", "emp-002", yesterday)
	doneIn, doneOut := "09:00", "17:05"
	done.CheckInTime = &doneIn
	done.CheckOutTime = &doneOut

	// 当日进行中的记录不算遗留
	today := env.seedRecord("att-3", "emp-003", testToday)
	todayIn := "09:00"
	today.CheckInTime = &todayIn

	closed, errs := env.svc.ReconcileAbandoned(context.Background(), testToday)
	if len(errs) != 0 {
		t.Fatalf("补签退不应报错: %v", errs)
	}
	if closed != 1 {
		t.Fatalf("期望补签退 1 条，实际=%d", closed)
	}

	if stale.CheckOutTime == nil || *stale.CheckOutTime != "17:00" {
		t.Error("遗留记录应以快照下班时刻补签退")
	}
	if stale.EarlyMinutes != 0 {
		t.Errorf("补签退不算早退，实际=%d", stale.EarlyMinutes)
	}
	if stale.Note == "" {
		t.Error("补签退应在备注留痕")
	}
	if *done.CheckOutTime != "17:05" {
		t.Error("已完成记录不应被改动")
	}
	if today.CheckOutTime != nil {
		t.Error("当日记录不应被补签退")
	}

	// 幂等：重复执行无新处理
	closed, errs = env.svc.ReconcileAbandoned(context.Background(), testToday)
	if closed != 0 || len(errs) != 0 {
		t.Errorf("重复补签退应为 no-op，实际 closed=%d errs=%v", closed, errs)
	}
}

func TestAttendanceService_ReconcileAbandoned_FallbackCloseTime(t *testing.T) {
	env := setupTestAttendanceService()
	yesterday := testToday.AddDate(0, 0, -1)

	// 快照缺失的遗留记录
	rec := &model.AttendanceRecord{
		AttendanceID: "att-1",
		EmployeeID:   "emp-001",
		WorkDate:     yesterday,
	}
	checkIn := "09:00"
	rec.CheckInTime = &checkIn
	env.attendance.records["att-1"] = rec

	closed, _ := env.svc.ReconcileAbandoned(context.Background(), testToday)
	if closed != 1 {
		t.Fatalf("期望补签退 1 条，实际=%d", closed)
	}
	if *rec.CheckOutTime != "18:00" {
		t.Errorf("快照缺失时应兜底 18:00，实际=%s", *rec.CheckOutTime)
	}
}

// ── Backfill 测试 ──

func TestAttendanceService_Backfill(t *testing.T) {
	env := setupTestAttendanceService()
	env.employees.employees["emp-001"] = &model.Employee{
		EmployeeID:   "emp-001",
		Name:         "张三",
		EmployeeNo:   "E001",
		DepartmentID: "dept-001",
		IsActive:     true,
	}
	env.shifts.shifts["shift-001"] = &model.Shift{
		ShiftID:      "shift-001",
		DepartmentID: "dept-001",
		Name:         "标准班",
		StartTime:    "09:00",
		EndTime:      "17:00",
		LatestTime:   "09:15",
	}

	req := &dto.BackfillRequest{EmployeeID: "emp-001", Date: "2026-08-30"}
	result, err := env.svc.Backfill(context.Background(), req, "admin-001")
	if err != nil {
		t.Fatalf("Backfill 应成功: %v", err)
	}
	if result.ShiftStart != "09:00" {
		t.Errorf("补建记录应带班次快照，实际=%s", result.ShiftStart)
	}

	// 已存在时拒绝
	_, err = env.svc.Backfill(context.Background(), req, "admin-001")
	if !errors.Is(err, ErrRecordAlreadyExist) {
		t.Errorf("期望 ErrRecordAlreadyExist，实际: %v", err)
	}
}

func TestAttendanceService_Backfill_InactiveEmployee(t *testing.T) {
	env := setupTestAttendanceService()
	env.employees.employees["emp-001"] = &model.Employee{
		EmployeeID:   "emp-001",
		DepartmentID: "dept-001",
		IsActive:     false,
	}

	req := &dto.BackfillRequest{EmployeeID: "emp-001", Date: "2026-08-30"}
	_, err := env.svc.Backfill(context.Background(), req, "admin-001")
	if !errors.Is(err, ErrEmployeeInactive) {
		t.Errorf("期望 ErrEmployeeInactive，实际: %v", err)
	}
}
