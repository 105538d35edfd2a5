package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/phungxuangiap/cham-cong-sub000/internal/model"
	pkgerrors "github.com/phungxuangiap/cham-cong-sub000/pkg/errors"
)

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	employees map[string]*model.Employee
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[string]*model.Employee)}
}

func (m *mockEmployeeRepo) Create(_ context.Context, emp *model.Employee) error {
	if emp.EmployeeID == "" {
		emp.EmployeeID = "emp-" + emp.EmployeeNo
	}
	m.employees[emp.EmployeeID] = emp
	return nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	if e, ok := m.employees[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) GetByEmployeeNo(_ context.Context, no string) (*model.Employee, error) {
	for _, e := range m.employees {
		if e.EmployeeNo == no {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEmployeeRepo) List(_ context.Context, departmentID string, offset, limit int) ([]model.Employee, int64, error) {
	var filtered []model.Employee
	for _, e := range m.employees {
		if departmentID != "" && e.DepartmentID != departmentID {
			continue
		}
		filtered = append(filtered, *e)
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockEmployeeRepo) ListActive(_ context.Context) ([]model.Employee, error) {
	var result []model.Employee
	for _, e := range m.employees {
		if e.IsActive {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEmployeeRepo) Update(_ context.Context, emp *model.Employee) error {
	m.employees[emp.EmployeeID] = emp
	return nil
}

// ── Mock DepartmentRepository ──

type mockDepartmentRepo struct {
	departments map[string]*model.Department
	employees   *mockEmployeeRepo // 成员数查询委托
}

func newMockDepartmentRepo(emps *mockEmployeeRepo) *mockDepartmentRepo {
	return &mockDepartmentRepo{
		departments: make(map[string]*model.Department),
		employees:   emps,
	}
}

func (m *mockDepartmentRepo) Create(_ context.Context, dept *model.Department) error {
	if dept.DepartmentID == "" {
		dept.DepartmentID = "dept-" + dept.Name
	}
	m.departments[dept.DepartmentID] = dept
	return nil
}

func (m *mockDepartmentRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.departments[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDepartmentRepo) GetByName(_ context.Context, name string) (*model.Department, error) {
	for _, d := range m.departments {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDepartmentRepo) List(_ context.Context) ([]model.Department, error) {
	var result []model.Department
	for _, d := range m.departments {
		if d.IsActive {
			result = append(result, *d)
		}
	}
	return result, nil
}

func (m *mockDepartmentRepo) ListAll(_ context.Context) ([]model.Department, error) {
	var result []model.Department
	for _, d := range m.departments {
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockDepartmentRepo) Update(_ context.Context, dept *model.Department) error {
	m.departments[dept.DepartmentID] = dept
	return nil
}

func (m *mockDepartmentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.departments, id)
	return nil
}

func (m *mockDepartmentRepo) CountMembers(_ context.Context, departmentID string) (int64, error) {
	var count int64
	for _, e := range m.employees.employees {
		if e.DepartmentID == departmentID {
			count++
		}
	}
	return count, nil
}

func (m *mockDepartmentRepo) BatchCountMembers(ctx context.Context, departmentIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(departmentIDs))
	for _, id := range departmentIDs {
		count, _ := m.CountMembers(ctx, id)
		result[id] = count
	}
	return result, nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts  map[string]*model.Shift
	changes *mockShiftChangeRepo // Promote/预载 委托
}

func newMockShiftRepo(changes *mockShiftChangeRepo) *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift), changes: changes}
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	if shift.ShiftID == "" {
		shift.ShiftID = "shift-" + shift.Name
	}
	if shift.Version == 0 {
		shift.Version = 1
	}
	m.shifts[shift.ShiftID] = shift
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok {
		cp := *s
		cp.Change = m.changes.changes[id]
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) GetByDepartment(_ context.Context, departmentID string) (*model.Shift, error) {
	for _, s := range m.shifts {
		if s.DepartmentID == departmentID {
			cp := *s
			cp.Change = m.changes.changes[s.ShiftID]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) List(_ context.Context) ([]model.Shift, error) {
	var result []model.Shift
	for _, s := range m.shifts {
		cp := *s
		cp.Change = m.changes.changes[s.ShiftID]
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	stored, ok := m.shifts[shift.ShiftID]
	if !ok || stored.Version != shift.Version {
		return pkgerrors.ErrOptimisticLock
	}
	shift.Version++
	cp := *shift
	cp.Change = nil
	m.shifts[shift.ShiftID] = &cp
	return nil
}

func (m *mockShiftRepo) ListWithDueChanges(_ context.Context, asOf time.Time) ([]model.Shift, error) {
	var result []model.Shift
	for id, s := range m.shifts {
		change, ok := m.changes.changes[id]
		if !ok || change.EffectiveDate.After(asOf) {
			continue
		}
		cp := *s
		cp.Change = change
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockShiftRepo) Promote(_ context.Context, shift *model.Shift, change *model.ShiftChange) error {
	stored, ok := m.shifts[shift.ShiftID]
	if !ok || stored.Version != shift.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Name = change.Name
	stored.StartTime = change.StartTime
	stored.EndTime = change.EndTime
	stored.LatestTime = change.LatestTime
	stored.Version++
	delete(m.changes.changes, shift.ShiftID)

	shift.Name = change.Name
	shift.StartTime = change.StartTime
	shift.EndTime = change.EndTime
	shift.LatestTime = change.LatestTime
	shift.Version = stored.Version
	return nil
}

// ── Mock ShiftChangeRepository ──

type mockShiftChangeRepo struct {
	changes map[string]*model.ShiftChange // shiftID → change
}

func newMockShiftChangeRepo() *mockShiftChangeRepo {
	return &mockShiftChangeRepo{changes: make(map[string]*model.ShiftChange)}
}

func (m *mockShiftChangeRepo) GetByShift(_ context.Context, shiftID string) (*model.ShiftChange, error) {
	if c, ok := m.changes[shiftID]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftChangeRepo) Stage(_ context.Context, change *model.ShiftChange) error {
	if change.ShiftChangeID == "" {
		change.ShiftChangeID = "chg-" + change.ShiftID
	}
	m.changes[change.ShiftID] = change
	return nil
}

func (m *mockShiftChangeRepo) DeleteByShift(_ context.Context, shiftID string) error {
	delete(m.changes, shiftID)
	return nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records   map[string]*model.AttendanceRecord
	employees *mockEmployeeRepo
	idCounter int
}

func newMockAttendanceRepo(emps *mockEmployeeRepo) *mockAttendanceRepo {
	return &mockAttendanceRepo{
		records:   make(map[string]*model.AttendanceRecord),
		employees: emps,
	}
}

func (m *mockAttendanceRepo) CreateIfAbsent(_ context.Context, rec *model.AttendanceRecord) (bool, error) {
	for _, r := range m.records {
		if r.EmployeeID == rec.EmployeeID && sameDate(r.WorkDate, rec.WorkDate) {
			return false, nil
		}
	}
	m.idCounter++
	if rec.AttendanceID == "" {
		rec.AttendanceID = fmt.Sprintf("att-%d", m.idCounter)
	}
	rec.CreatedAt = time.Now()
	m.records[rec.AttendanceID] = rec
	return true, nil
}

func (m *mockAttendanceRepo) GetByEmployeeDate(_ context.Context, employeeID string, date time.Time) (*model.AttendanceRecord, error) {
	for _, r := range m.records {
		if r.EmployeeID == employeeID && sameDate(r.WorkDate, date) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) SetCheckIn(_ context.Context, attendanceID, at string, lateMinutes int) error {
	rec, ok := m.records[attendanceID]
	if !ok || rec.CheckInTime != nil {
		return pkgerrors.ErrOptimisticLock
	}
	rec.CheckInTime = &at
	rec.LateMinutes = lateMinutes
	return nil
}

func (m *mockAttendanceRepo) SetCheckOut(_ context.Context, attendanceID, at string, earlyMinutes int) error {
	rec, ok := m.records[attendanceID]
	if !ok || rec.CheckInTime == nil || rec.CheckOutTime != nil {
		return pkgerrors.ErrOptimisticLock
	}
	rec.CheckOutTime = &at
	rec.EarlyMinutes = earlyMinutes
	return nil
}

func (m *mockAttendanceRepo) ForceClose(_ context.Context, attendanceID, at, note string) error {
	rec, ok := m.records[attendanceID]
	if !ok || rec.CheckInTime == nil || rec.CheckOutTime != nil {
		return pkgerrors.ErrOptimisticLock
	}
	rec.CheckOutTime = &at
	rec.EarlyMinutes = 0
	rec.Note = note
	return nil
}

func (m *mockAttendanceRepo) ListAbandonedBefore(_ context.Context, cutoff time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.WorkDate.Before(truncateDate(cutoff)) && r.CheckInTime != nil && r.CheckOutTime == nil {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByEmployeeRange(_ context.Context, employeeID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.EmployeeID != employeeID {
			continue
		}
		d := truncateDate(r.WorkDate)
		if d.Before(truncateDate(from)) || d.After(truncateDate(to)) {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByDepartmentDate(ctx context.Context, departmentID string, date time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if !sameDate(r.WorkDate, date) {
			continue
		}
		emp, err := m.employees.GetByID(ctx, r.EmployeeID)
		if err != nil || emp.DepartmentID != departmentID {
			continue
		}
		cp := *r
		cp.Employee = emp
		result = append(result, cp)
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByDepartmentRange(ctx context.Context, departmentID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		d := truncateDate(r.WorkDate)
		if d.Before(truncateDate(from)) || d.After(truncateDate(to)) {
			continue
		}
		emp, err := m.employees.GetByID(ctx, r.EmployeeID)
		if err != nil || emp.DepartmentID != departmentID {
			continue
		}
		cp := *r
		cp.Employee = emp
		result = append(result, cp)
	}
	return result, nil
}

// ── Mock LeaveRequestRepository ──

type mockLeaveRequestRepo struct {
	requests  map[string]*model.LeaveRequest
	idCounter int
}

func newMockLeaveRequestRepo() *mockLeaveRequestRepo {
	return &mockLeaveRequestRepo{requests: make(map[string]*model.LeaveRequest)}
}

func (m *mockLeaveRequestRepo) Create(_ context.Context, req *model.LeaveRequest) error {
	m.idCounter++
	if req.LeaveRequestID == "" {
		req.LeaveRequestID = fmt.Sprintf("lv-%d", m.idCounter)
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	m.requests[req.LeaveRequestID] = req
	return nil
}

func (m *mockLeaveRequestRepo) GetByID(_ context.Context, id string) (*model.LeaveRequest, error) {
	if r, ok := m.requests[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLeaveRequestRepo) ListByEmployeeStatuses(_ context.Context, employeeID string, statuses []string) ([]model.LeaveRequest, error) {
	statusSet := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		statusSet[s] = true
	}
	var result []model.LeaveRequest
	for _, r := range m.requests {
		if r.EmployeeID == employeeID && statusSet[r.Status] {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockLeaveRequestRepo) List(_ context.Context, employeeID, status string, offset, limit int) ([]model.LeaveRequest, int64, error) {
	var filtered []model.LeaveRequest
	for _, r := range m.requests {
		if employeeID != "" && r.EmployeeID != employeeID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		filtered = append(filtered, *r)
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockLeaveRequestRepo) FindNearestCreatedAt(_ context.Context, employeeID string, instant time.Time, tolerance time.Duration) (*model.LeaveRequest, error) {
	var best *model.LeaveRequest
	var bestDiff time.Duration
	for _, r := range m.requests {
		if r.EmployeeID != employeeID {
			continue
		}
		diff := r.CreatedAt.Sub(instant)
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			continue
		}
		if best == nil || diff < bestDiff {
			best = r
			bestDiff = diff
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (m *mockLeaveRequestRepo) Decide(_ context.Context, id, status, approvedBy, rejectReason string, decidedAt time.Time) error {
	r, ok := m.requests[id]
	if !ok || r.Status != model.RequestStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	r.Status = status
	r.ApprovedBy = &approvedBy
	r.DecidedAt = &decidedAt
	r.RejectReason = rejectReason
	return nil
}

func (m *mockLeaveRequestRepo) DeletePending(_ context.Context, id, employeeID string) error {
	r, ok := m.requests[id]
	if !ok || r.EmployeeID != employeeID || r.Status != model.RequestStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	delete(m.requests, id)
	return nil
}

// ── Mock OvertimeRequestRepository ──

type mockOvertimeRequestRepo struct {
	requests  map[string]*model.OvertimeRequest
	idCounter int
}

func newMockOvertimeRequestRepo() *mockOvertimeRequestRepo {
	return &mockOvertimeRequestRepo{requests: make(map[string]*model.OvertimeRequest)}
}

func (m *mockOvertimeRequestRepo) Create(_ context.Context, req *model.OvertimeRequest) error {
	m.idCounter++
	if req.OvertimeRequestID == "" {
		req.OvertimeRequestID = fmt.Sprintf("ot-%d", m.idCounter)
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	m.requests[req.OvertimeRequestID] = req
	return nil
}

func (m *mockOvertimeRequestRepo) GetByID(_ context.Context, id string) (*model.OvertimeRequest, error) {
	if r, ok := m.requests[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOvertimeRequestRepo) ListByEmployeeStatuses(_ context.Context, employeeID string, statuses []string) ([]model.OvertimeRequest, error) {
	statusSet := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		statusSet[s] = true
	}
	var result []model.OvertimeRequest
	for _, r := range m.requests {
		if r.EmployeeID == employeeID && statusSet[r.Status] {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockOvertimeRequestRepo) List(_ context.Context, employeeID, status string, offset, limit int) ([]model.OvertimeRequest, int64, error) {
	var filtered []model.OvertimeRequest
	for _, r := range m.requests {
		if employeeID != "" && r.EmployeeID != employeeID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		filtered = append(filtered, *r)
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockOvertimeRequestRepo) FindNearestCreatedAt(_ context.Context, employeeID string, instant time.Time, tolerance time.Duration) (*model.OvertimeRequest, error) {
	var best *model.OvertimeRequest
	var bestDiff time.Duration
	for _, r := range m.requests {
		if r.EmployeeID != employeeID {
			continue
		}
		diff := r.CreatedAt.Sub(instant)
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			continue
		}
		if best == nil || diff < bestDiff {
			best = r
			bestDiff = diff
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (m *mockOvertimeRequestRepo) Decide(_ context.Context, id, status, approvedBy string, decidedAt time.Time) error {
	r, ok := m.requests[id]
	if !ok || r.Status != model.RequestStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	r.Status = status
	r.ApprovedBy = &approvedBy
	r.DecidedAt = &decidedAt
	return nil
}

func (m *mockOvertimeRequestRepo) DeletePending(_ context.Context, id, employeeID string) error {
	r, ok := m.requests[id]
	if !ok || r.EmployeeID != employeeID || r.Status != model.RequestStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	delete(m.requests, id)
	return nil
}

// ── Mock HolidayRepository ──

type mockHolidayRepo struct {
	holidays map[string]*model.Holiday // "2006-01-02" → holiday
}

func newMockHolidayRepo() *mockHolidayRepo {
	return &mockHolidayRepo{holidays: make(map[string]*model.Holiday)}
}

func (m *mockHolidayRepo) Upsert(_ context.Context, holiday *model.Holiday) error {
	key := holiday.HolidayDate.Format("2006-01-02")
	if holiday.HolidayID == "" {
		holiday.HolidayID = "hol-" + key
	}
	m.holidays[key] = holiday
	return nil
}

func (m *mockHolidayRepo) ExistsOnDate(_ context.Context, date time.Time) (bool, error) {
	_, ok := m.holidays[date.Format("2006-01-02")]
	return ok, nil
}

func (m *mockHolidayRepo) ListRange(_ context.Context, from, to time.Time) ([]model.Holiday, error) {
	var result []model.Holiday
	for _, h := range m.holidays {
		d := truncateDate(h.HolidayDate)
		if d.Before(truncateDate(from)) || d.After(truncateDate(to)) {
			continue
		}
		result = append(result, *h)
	}
	return result, nil
}

// ── 测试辅助 ──

func sameDate(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
