//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgerrors "github.com/phungxuangiap/cham-cong-sub000/pkg/errors"

	"github.com/phungxuangiap/cham-cong-sub000/internal/model"
	"github.com/phungxuangiap/cham-cong-sub000/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=cham_cong password=cham_cong_password dbname=cham_cong_test sslmode=disable TimeZone=Asia/Ho_Chi_Minh"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	err = testDB.AutoMigrate(
		&model.Department{},
		&model.Employee{},
		&model.Shift{},
		&model.ShiftChange{},
		&model.AttendanceRecord{},
		&model.LeaveRequest{},
		&model.OvertimeRequest{},
		&model.Holiday{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestData 创建基础测试数据并返回清理函数
func setupTestData(t *testing.T) (dept *model.Department, emp *model.Employee, shift *model.Shift, cleanup func()) {
	t.Helper()
	ctx := context.Background()

	dept = &model.Department{
		Name:     fmt.Sprintf("测试部门-%d", time.Now().UnixNano()),
		IsActive: true,
	}
	if err := testDB.WithContext(ctx).Create(dept).Error; err != nil {
		t.Fatalf("创建部门失败: %v", err)
	}

	emp = &model.Employee{
		Name:         "测试员工",
		EmployeeNo:   fmt.Sprintf("E%d", time.Now().UnixNano()),
		PasswordHash: "$2a$10$placeholder",
		Role:         model.RoleEmployee,
		DepartmentID: dept.DepartmentID,
		IsActive:     true,
	}
	if err := testDB.WithContext(ctx).Create(emp).Error; err != nil {
		t.Fatalf("创建员工失败: %v", err)
	}

	shift = &model.Shift{
		DepartmentID: dept.DepartmentID,
		Name:         "标准班",
		StartTime:    "09:00",
		EndTime:      "17:00",
		LatestTime:   "09:15",
	}
	if err := testDB.WithContext(ctx).Create(shift).Error; err != nil {
		t.Fatalf("创建班次失败: %v", err)
	}

	cleanup = func() {
		testDB.Unscoped().Where("shift_id = ?", shift.ShiftID).Delete(&model.ShiftChange{})
		testDB.Unscoped().Where("shift_id = ?", shift.ShiftID).Delete(&model.Shift{})
		testDB.Unscoped().Where("employee_id = ?", emp.EmployeeID).Delete(&model.AttendanceRecord{})
		testDB.Unscoped().Where("employee_id = ?", emp.EmployeeID).Delete(&model.LeaveRequest{})
		testDB.Unscoped().Where("employee_id = ?", emp.EmployeeID).Delete(&model.OvertimeRequest{})
		testDB.Unscoped().Where("employee_id = ?", emp.EmployeeID).Delete(&model.Employee{})
		testDB.Unscoped().Where("department_id = ?", dept.DepartmentID).Delete(&model.Department{})
	}
	return
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock (Shift)
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_Shift_ConflictDetected(t *testing.T) {
	_, _, shift, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	// 模拟并发：获取两份副本
	copy1, _ := repo.Shift.GetByID(ctx, shift.ShiftID)
	copy2, _ := repo.Shift.GetByID(ctx, shift.ShiftID)

	// 第一次更新成功
	copy1.StartTime = "08:30"
	if err := repo.Shift.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	// 第二次更新应失败（version 已过期）
	copy2.StartTime = "10:00"
	err := repo.Shift.Update(ctx, copy2)
	if err == nil {
		t.Fatal("期望乐观锁冲突错误，但更新成功了")
	}
	if err != pkgerrors.ErrOptimisticLock {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestOptimisticLock_VersionIncrement(t *testing.T) {
	_, _, shift, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if shift.Version != 1 {
		t.Errorf("初始 version 应为 1，得到: %d", shift.Version)
	}

	// 连续更新 3 次
	for i := 0; i < 3; i++ {
		got, _ := repo.Shift.GetByID(ctx, shift.ShiftID)
		got.Name = fmt.Sprintf("标准班-%d", i)
		if err := repo.Shift.Update(ctx, got); err != nil {
			t.Fatalf("第 %d 次更新失败: %v", i+1, err)
		}
	}

	// 验证 version 递增到 4
	final, _ := repo.Shift.GetByID(ctx, shift.ShiftID)
	if final.Version != 4 {
		t.Errorf("期望 version=4，得到: %d", final.Version)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Shift Change Promote
// ═══════════════════════════════════════════════════════════

func TestShiftChange_StageAndPromote(t *testing.T) {
	_, _, shift, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	change := &model.ShiftChange{
		ShiftID:       shift.ShiftID,
		Name:          "新标准班",
		StartTime:     "08:30",
		EndTime:       "16:30",
		LatestTime:    "08:45",
		EffectiveDate: today,
		StagedBy:      shift.ShiftID, // 任意 uuid
	}
	if err := repo.ShiftChange.Stage(ctx, change); err != nil {
		t.Fatalf("Stage 失败: %v", err)
	}

	// 重复暂存覆盖旧行
	change2 := &model.ShiftChange{
		ShiftID:       shift.ShiftID,
		Name:          "更新的班次",
		StartTime:     "08:00",
		EndTime:       "16:00",
		LatestTime:    "08:15",
		EffectiveDate: today,
		StagedBy:      shift.ShiftID,
	}
	if err := repo.ShiftChange.Stage(ctx, change2); err != nil {
		t.Fatalf("覆盖暂存失败: %v", err)
	}

	due, err := repo.Shift.ListWithDueChanges(ctx, today)
	if err != nil {
		t.Fatalf("ListWithDueChanges 失败: %v", err)
	}
	var target *model.Shift
	for i := range due {
		if due[i].ShiftID == shift.ShiftID {
			target = &due[i]
		}
	}
	if target == nil || target.Change == nil {
		t.Fatal("到期列表应包含该班次及其变更行")
	}
	if target.Change.Name != "更新的班次" {
		t.Errorf("应取覆盖后的暂存行，得到: %s", target.Change.Name)
	}

	if err := repo.Shift.Promote(ctx, target, target.Change); err != nil {
		t.Fatalf("Promote 失败: %v", err)
	}

	// 配置已并入，变更行已删除
	after, _ := repo.Shift.GetByID(ctx, shift.ShiftID)
	if after.StartTime != "08:00" {
		t.Errorf("班次配置应已并入变更，得到: %s", after.StartTime)
	}
	if after.Change != nil {
		t.Error("Promote 后变更行应已删除")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Attendance Conditional Writes
// ═══════════════════════════════════════════════════════════

func TestAttendance_CreateIfAbsent_Idempotent(t *testing.T) {
	_, emp, _, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	workDate := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	rec := &model.AttendanceRecord{
		EmployeeID:  emp.EmployeeID,
		WorkDate:    workDate,
		ShiftName:   "标准班",
		ShiftStart:  "09:00",
		ShiftEnd:    "17:00",
		ShiftLatest: "09:15",
	}
	created, err := repo.Attendance.CreateIfAbsent(ctx, rec)
	if err != nil {
		t.Fatalf("CreateIfAbsent 失败: %v", err)
	}
	if !created {
		t.Fatal("第一次写入应新建记录")
	}

	dup := &model.AttendanceRecord{
		EmployeeID: emp.EmployeeID,
		WorkDate:   workDate,
	}
	created, err = repo.Attendance.CreateIfAbsent(ctx, dup)
	if err != nil {
		t.Fatalf("重复写入不应报错: %v", err)
	}
	if created {
		t.Error("同员工同日期重复写入应静默跳过")
	}
}

func TestAttendance_SetCheckIn_Race(t *testing.T) {
	_, emp, _, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	rec := &model.AttendanceRecord{
		EmployeeID: emp.EmployeeID,
		WorkDate:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		ShiftStart: "09:00",
	}
	if _, err := repo.Attendance.CreateIfAbsent(ctx, rec); err != nil {
		t.Fatalf("创建记录失败: %v", err)
	}

	if err := repo.Attendance.SetCheckIn(ctx, rec.AttendanceID, "09:05", 0); err != nil {
		t.Fatalf("第一次签到应成功: %v", err)
	}

	// 第二次签到输掉条件写
	err := repo.Attendance.SetCheckIn(ctx, rec.AttendanceID, "09:10", 0)
	if err != pkgerrors.ErrOptimisticLock {
		t.Errorf("重复签到期望 ErrOptimisticLock，得到: %v", err)
	}

	// 未签退前签退成功，重复签退失败
	if err := repo.Attendance.SetCheckOut(ctx, rec.AttendanceID, "17:00", 0); err != nil {
		t.Fatalf("签退应成功: %v", err)
	}
	err = repo.Attendance.SetCheckOut(ctx, rec.AttendanceID, "17:05", 0)
	if err != pkgerrors.ErrOptimisticLock {
		t.Errorf("重复签退期望 ErrOptimisticLock，得到: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Leave Request Conditional Writes
// ═══════════════════════════════════════════════════════════

func TestLeaveRequest_Decide_OnlyPending(t *testing.T) {
	_, emp, _, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	req := &model.LeaveRequest{
		EmployeeID: emp.EmployeeID,
		Type:       "personal",
		DateFrom:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DateTo:     time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
		Status:     model.RequestStatusPending,
	}
	if err := repo.LeaveRequest.Create(ctx, req); err != nil {
		t.Fatalf("创建申请失败: %v", err)
	}

	now := time.Now()
	if err := repo.LeaveRequest.Decide(ctx, req.LeaveRequestID,
		model.RequestStatusApproved, emp.EmployeeID, "", now); err != nil {
		t.Fatalf("第一次审批应成功: %v", err)
	}

	// 已决定的申请不可再流转
	err := repo.LeaveRequest.Decide(ctx, req.LeaveRequestID,
		model.RequestStatusRejected, emp.EmployeeID, "too late", now)
	if err != pkgerrors.ErrOptimisticLock {
		t.Errorf("重复审批期望 ErrOptimisticLock，得到: %v", err)
	}

	// 已决定的申请不可撤回
	err = repo.LeaveRequest.DeletePending(ctx, req.LeaveRequestID, emp.EmployeeID)
	if err != pkgerrors.ErrOptimisticLock {
		t.Errorf("撤回已决定申请期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestLeaveRequest_FindNearestCreatedAt(t *testing.T) {
	_, emp, _, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	req := &model.LeaveRequest{
		EmployeeID: emp.EmployeeID,
		Type:       "sick",
		DateFrom:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		DateTo:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Status:     model.RequestStatusPending,
	}
	if err := repo.LeaveRequest.Create(ctx, req); err != nil {
		t.Fatalf("创建申请失败: %v", err)
	}
	stored, _ := repo.LeaveRequest.GetByID(ctx, req.LeaveRequestID)

	// 容差内按最近匹配
	found, err := repo.LeaveRequest.FindNearestCreatedAt(ctx, emp.EmployeeID,
		stored.CreatedAt.Add(2*time.Second), 3*time.Second)
	if err != nil {
		t.Fatalf("容差内查找应成功: %v", err)
	}
	if found.LeaveRequestID != req.LeaveRequestID {
		t.Error("应定位到同一条申请")
	}

	// 容差外查不到
	if _, err := repo.LeaveRequest.FindNearestCreatedAt(ctx, emp.EmployeeID,
		stored.CreatedAt.Add(10*time.Second), 3*time.Second); err == nil {
		t.Error("容差外应查不到申请")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Holiday Upsert
// ═══════════════════════════════════════════════════════════

func TestHoliday_Upsert_Idempotent(t *testing.T) {
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	date := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	defer testDB.Unscoped().Where("holiday_date = ?", date.Format("2006-01-02")).Delete(&model.Holiday{})

	if err := repo.Holiday.Upsert(ctx, &model.Holiday{
		HolidayDate: date, Name: "国庆节", Source: "manual",
	}); err != nil {
		t.Fatalf("Upsert 失败: %v", err)
	}

	// 同日期重复写入覆盖名称与来源
	if err := repo.Holiday.Upsert(ctx, &model.Holiday{
		HolidayDate: date, Name: "国庆节（ICS）", Source: "ics",
	}); err != nil {
		t.Fatalf("重复 Upsert 失败: %v", err)
	}

	exists, err := repo.Holiday.ExistsOnDate(ctx, date)
	if err != nil {
		t.Fatalf("ExistsOnDate 失败: %v", err)
	}
	if !exists {
		t.Error("日期应存在假日")
	}

	list, err := repo.Holiday.ListRange(ctx, date, date)
	if err != nil {
		t.Fatalf("ListRange 失败: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("同日期应只有一行，实际=%d", len(list))
	}
	if list[0].Source != "ics" {
		t.Errorf("来源应被覆盖为 ics，实际=%s", list[0].Source)
	}
}
