package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/phungxuangiap/cham-cong-sub000/internal/dto"
	"github.com/phungxuangiap/cham-cong-sub000/internal/model"
	"github.com/phungxuangiap/cham-cong-sub000/internal/repository"
	"github.com/phungxuangiap/cham-cong-sub000/pkg/clock"
	pkgerrors "github.com/phungxuangiap/cham-cong-sub000/pkg/errors"
)

// ── 申请模块业务错误 ──

var (
	ErrRequestNotFound       = errors.New("申请不存在")
	ErrInvalidDateRange      = errors.New("日期区间无效：结束日期不得早于开始日期")
	ErrInvalidTimeRange      = errors.New("时刻区间无效：结束时刻必须晚于开始时刻")
	ErrNotFoundOrDecided     = errors.New("申请不存在或已被处理")
	ErrRejectReasonRequired  = errors.New("驳回请假申请必须填写理由")
	ErrLegacyLocateAmbiguous = errors.New("按创建时刻未能定位到申请")
	ErrNotOwnerOrNotPending  = errors.New("仅本人的待审批申请可撤回")
)

// 旧接口按创建时刻定位申请的统一容差
const legacyLocateTolerance = 3 * time.Second

// OverlapError 新申请与既有 pending/approved 申请区间重叠。
// 携带冲突方信息供调用方展示。
type OverlapError struct {
	ConflictID string
	From       string // 冲突区间起点（日期或时刻）
	To         string
	Status     string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("与已有申请（%s ~ %s，%s）重叠", e.From, e.To, e.Status)
}

// RequestService 请假/加班申请业务接口
//
// 请假与加班共用同一套 pending → approved | rejected 流转，
// 区别仅在区间类型。审批的并发安全由仓储层
// "WHERE status='pending'" 条件写保证：两个审批人同时处理，
// 只有一个生效，另一个收到 ErrNotFoundOrDecided。
type RequestService interface {
	CreateLeave(ctx context.Context, employeeID string, req *dto.CreateLeaveRequest) (*dto.LeaveRequestResponse, error)
	CreateOvertime(ctx context.Context, employeeID string, req *dto.CreateOvertimeRequest) (*dto.OvertimeRequestResponse, error)
	GetLeave(ctx context.Context, id string) (*dto.LeaveRequestResponse, error)
	GetOvertime(ctx context.Context, id string) (*dto.OvertimeRequestResponse, error)
	ListLeave(ctx context.Context, req *dto.RequestListRequest) ([]dto.LeaveRequestResponse, int64, error)
	ListOvertime(ctx context.Context, req *dto.RequestListRequest) ([]dto.OvertimeRequestResponse, int64, error)
	ApproveLeave(ctx context.Context, id, approverID string) error
	RejectLeave(ctx context.Context, id, approverID, reason string) error
	ApproveOvertime(ctx context.Context, id, approverID string) error
	RejectOvertime(ctx context.Context, id, approverID, reason string) error
	WithdrawLeave(ctx context.Context, id, employeeID string) error
	WithdrawOvertime(ctx context.Context, id, employeeID string) error

	// ── 旧接口兼容：按创建时刻近似定位 ──
	FindLeaveByCreatedAt(ctx context.Context, employeeID string, instant time.Time) (*dto.LeaveRequestResponse, error)
	FindOvertimeByCreatedAt(ctx context.Context, employeeID string, instant time.Time) (*dto.OvertimeRequestResponse, error)
	ApproveLeaveByCreatedAt(ctx context.Context, employeeID string, instant time.Time, approverID string) error
	RejectLeaveByCreatedAt(ctx context.Context, employeeID string, instant time.Time, approverID, reason string) error
}

type requestService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRequestService 创建 RequestService 实例
func NewRequestService(repo *repository.Repository, logger *zap.Logger) RequestService {
	return &requestService{repo: repo, logger: logger}
}

// intervalsOverlap 闭区间三段式判定：重叠 ⇔ aFrom ≤ bTo 且 bFrom ≤ aTo
func intervalsOverlap(aFrom, aTo, bFrom, bTo int) bool {
	return aFrom <= bTo && bFrom <= aTo
}

// dateOrd 日期序数（天粒度），仅用于区间比较
func dateOrd(t time.Time) int {
	return int(t.Unix() / 86400)
}

func (s *requestService) CreateLeave(ctx context.Context, employeeID string, req *dto.CreateLeaveRequest) (*dto.LeaveRequestResponse, error) {
	from, err := time.Parse("2006-01-02", req.DateFrom)
	if err != nil {
		return nil, fmt.Errorf("开始日期格式无效: %w", err)
	}
	to, err := time.Parse("2006-01-02", req.DateTo)
	if err != nil {
		return nil, fmt.Errorf("结束日期格式无效: %w", err)
	}
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}

	// 与本人 pending/approved 请假区间逐条判重叠
	existing, err := s.repo.LeaveRequest.ListByEmployeeStatuses(ctx, employeeID,
		[]string{model.RequestStatusPending, model.RequestStatusApproved})
	if err != nil {
		s.logger.Error("查询既有请假申请失败", zap.Error(err))
		return nil, err
	}
	for i := range existing {
		if intervalsOverlap(dateOrd(from), dateOrd(to),
			dateOrd(existing[i].DateFrom), dateOrd(existing[i].DateTo)) {
			return nil, &OverlapError{
				ConflictID: existing[i].LeaveRequestID,
				From:       existing[i].DateFrom.Format("2006-01-02"),
				To:         existing[i].DateTo.Format("2006-01-02"),
				Status:     existing[i].Status,
			}
		}
	}

	lr := &model.LeaveRequest{
		LeaveRequestID: uuid.New().String(),
		EmployeeID:     employeeID,
		Type:           req.Type,
		DateFrom:       from,
		DateTo:         to,
		Reason:         req.Reason,
		Status:         model.RequestStatusPending,
	}
	if err := s.repo.LeaveRequest.Create(ctx, lr); err != nil {
		s.logger.Error("创建请假申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("请假申请已创建",
		zap.String("request_id", lr.LeaveRequestID),
		zap.String("employee_id", employeeID),
		zap.String("date_from", req.DateFrom),
		zap.String("date_to", req.DateTo),
	)
	return toLeaveResponse(lr), nil
}

func (s *requestService) CreateOvertime(ctx context.Context, employeeID string, req *dto.CreateOvertimeRequest) (*dto.OvertimeRequestResponse, error) {
	workDate, err := time.Parse("2006-01-02", req.WorkDate)
	if err != nil {
		return nil, fmt.Errorf("日期格式无效: %w", err)
	}
	startMin, err := clock.ToMinutes(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("开始时刻无效: %w", err)
	}
	endMin, err := clock.ToMinutes(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("结束时刻无效: %w", err)
	}
	if endMin <= startMin {
		return nil, ErrInvalidTimeRange
	}

	// 同日时刻区间判重叠；不同日期天然不冲突
	existing, err := s.repo.OvertimeRequest.ListByEmployeeStatuses(ctx, employeeID,
		[]string{model.RequestStatusPending, model.RequestStatusApproved})
	if err != nil {
		s.logger.Error("查询既有加班申请失败", zap.Error(err))
		return nil, err
	}
	for i := range existing {
		if !existing[i].WorkDate.Equal(workDate) {
			continue
		}
		exStart, err := clock.ToMinutes(existing[i].StartTime)
		if err != nil {
			continue
		}
		exEnd, err := clock.ToMinutes(existing[i].EndTime)
		if err != nil {
			continue
		}
		// 端点相接（上一段结束 == 下一段开始）不算重叠
		if intervalsOverlap(startMin, endMin-1, exStart, exEnd-1) {
			return nil, &OverlapError{
				ConflictID: existing[i].OvertimeRequestID,
				From:       existing[i].StartTime,
				To:         existing[i].EndTime,
				Status:     existing[i].Status,
			}
		}
	}

	or := &model.OvertimeRequest{
		OvertimeRequestID: uuid.New().String(),
		EmployeeID:        employeeID,
		WorkDate:          workDate,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Reason:            req.Reason,
		Status:            model.RequestStatusPending,
	}
	if err := s.repo.OvertimeRequest.Create(ctx, or); err != nil {
		s.logger.Error("创建加班申请失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("加班申请已创建",
		zap.String("request_id", or.OvertimeRequestID),
		zap.String("employee_id", employeeID),
		zap.String("work_date", req.WorkDate),
	)
	return toOvertimeResponse(or), nil
}

func (s *requestService) GetLeave(ctx context.Context, id string) (*dto.LeaveRequestResponse, error) {
	lr, err := s.repo.LeaveRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询请假申请失败", zap.Error(err))
		return nil, err
	}
	return toLeaveResponse(lr), nil
}

func (s *requestService) GetOvertime(ctx context.Context, id string) (*dto.OvertimeRequestResponse, error) {
	or, err := s.repo.OvertimeRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询加班申请失败", zap.Error(err))
		return nil, err
	}
	return toOvertimeResponse(or), nil
}

func (s *requestService) ListLeave(ctx context.Context, req *dto.RequestListRequest) ([]dto.LeaveRequestResponse, int64, error) {
	reqs, total, err := s.repo.LeaveRequest.List(ctx, req.EmployeeID, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询请假申请列表失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.LeaveRequestResponse, 0, len(reqs))
	for i := range reqs {
		result = append(result, *toLeaveResponse(&reqs[i]))
	}
	return result, total, nil
}

func (s *requestService) ListOvertime(ctx context.Context, req *dto.RequestListRequest) ([]dto.OvertimeRequestResponse, int64, error) {
	reqs, total, err := s.repo.OvertimeRequest.List(ctx, req.EmployeeID, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询加班申请列表失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.OvertimeRequestResponse, 0, len(reqs))
	for i := range reqs {
		result = append(result, *toOvertimeResponse(&reqs[i]))
	}
	return result, total, nil
}

func (s *requestService) ApproveLeave(ctx context.Context, id, approverID string) error {
	return s.decideLeave(ctx, id, model.RequestStatusApproved, approverID, "")
}

func (s *requestService) RejectLeave(ctx context.Context, id, approverID, reason string) error {
	if reason == "" {
		return ErrRejectReasonRequired
	}
	return s.decideLeave(ctx, id, model.RequestStatusRejected, approverID, reason)
}

func (s *requestService) decideLeave(ctx context.Context, id, status, approverID, reason string) error {
	if err := s.repo.LeaveRequest.Decide(ctx, id, status, approverID, reason, time.Now()); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrNotFoundOrDecided
		}
		s.logger.Error("请假申请流转失败", zap.Error(err))
		return err
	}
	s.logger.Info("请假申请已处理",
		zap.String("request_id", id),
		zap.String("status", status),
		zap.String("approver", approverID),
	)
	return nil
}

func (s *requestService) ApproveOvertime(ctx context.Context, id, approverID string) error {
	return s.decideOvertime(ctx, id, model.RequestStatusApproved, approverID)
}

// RejectOvertime 加班驳回理由可选（与请假不同，无补偿语义）
func (s *requestService) RejectOvertime(ctx context.Context, id, approverID, _ string) error {
	return s.decideOvertime(ctx, id, model.RequestStatusRejected, approverID)
}

func (s *requestService) decideOvertime(ctx context.Context, id, status, approverID string) error {
	if err := s.repo.OvertimeRequest.Decide(ctx, id, status, approverID, time.Now()); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrNotFoundOrDecided
		}
		s.logger.Error("加班申请流转失败", zap.Error(err))
		return err
	}
	s.logger.Info("加班申请已处理",
		zap.String("request_id", id),
		zap.String("status", status),
		zap.String("approver", approverID),
	)
	return nil
}

func (s *requestService) WithdrawLeave(ctx context.Context, id, employeeID string) error {
	if err := s.repo.LeaveRequest.DeletePending(ctx, id, employeeID); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrNotOwnerOrNotPending
		}
		s.logger.Error("撤回请假申请失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *requestService) WithdrawOvertime(ctx context.Context, id, employeeID string) error {
	if err := s.repo.OvertimeRequest.DeletePending(ctx, id, employeeID); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrNotOwnerOrNotPending
		}
		s.logger.Error("撤回加班申请失败", zap.Error(err))
		return err
	}
	return nil
}

// ── 旧接口兼容层 ──
// 历史客户端不持有申请 ID，只通过"创建时刻 ±3 秒"近似寻址；
// 定位命中后走与 ID 寻址完全相同的条件流转。

func (s *requestService) FindLeaveByCreatedAt(ctx context.Context, employeeID string, instant time.Time) (*dto.LeaveRequestResponse, error) {
	lr, err := s.repo.LeaveRequest.FindNearestCreatedAt(ctx, employeeID, instant, legacyLocateTolerance)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLegacyLocateAmbiguous
		}
		s.logger.Error("按创建时刻定位请假申请失败", zap.Error(err))
		return nil, err
	}
	return toLeaveResponse(lr), nil
}

func (s *requestService) FindOvertimeByCreatedAt(ctx context.Context, employeeID string, instant time.Time) (*dto.OvertimeRequestResponse, error) {
	or, err := s.repo.OvertimeRequest.FindNearestCreatedAt(ctx, employeeID, instant, legacyLocateTolerance)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLegacyLocateAmbiguous
		}
		s.logger.Error("按创建时刻定位加班申请失败", zap.Error(err))
		return nil, err
	}
	return toOvertimeResponse(or), nil
}

func (s *requestService) ApproveLeaveByCreatedAt(ctx context.Context, employeeID string, instant time.Time, approverID string) error {
	lr, err := s.repo.LeaveRequest.FindNearestCreatedAt(ctx, employeeID, instant, legacyLocateTolerance)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLegacyLocateAmbiguous
		}
		return err
	}
	return s.ApproveLeave(ctx, lr.LeaveRequestID, approverID)
}

func (s *requestService) RejectLeaveByCreatedAt(ctx context.Context, employeeID string, instant time.Time, approverID, reason string) error {
	lr, err := s.repo.LeaveRequest.FindNearestCreatedAt(ctx, employeeID, instant, legacyLocateTolerance)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLegacyLocateAmbiguous
		}
		return err
	}
	return s.RejectLeave(ctx, lr.LeaveRequestID, approverID, reason)
}

// toLeaveResponse 模型 → 响应 DTO
func toLeaveResponse(lr *model.LeaveRequest) *dto.LeaveRequestResponse {
	resp := &dto.LeaveRequestResponse{
		ID:           lr.LeaveRequestID,
		EmployeeID:   lr.EmployeeID,
		Type:         lr.Type,
		DateFrom:     lr.DateFrom.Format("2006-01-02"),
		DateTo:       lr.DateTo.Format("2006-01-02"),
		Reason:       lr.Reason,
		Status:       lr.Status,
		ApprovedBy:   lr.ApprovedBy,
		RejectReason: lr.RejectReason,
		CreatedAt:    lr.CreatedAt.Format(time.RFC3339Nano),
	}
	if lr.DecidedAt != nil {
		decided := lr.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &decided
	}
	if lr.Employee != nil {
		resp.EmployeeName = lr.Employee.Name
	}
	return resp
}

// toOvertimeResponse 模型 → 响应 DTO
func toOvertimeResponse(or *model.OvertimeRequest) *dto.OvertimeRequestResponse {
	resp := &dto.OvertimeRequestResponse{
		ID:         or.OvertimeRequestID,
		EmployeeID: or.EmployeeID,
		WorkDate:   or.WorkDate.Format("2006-01-02"),
		StartTime:  or.StartTime,
		EndTime:    or.EndTime,
		Reason:     or.Reason,
		Status:     or.Status,
		ApprovedBy: or.ApprovedBy,
		CreatedAt:  or.CreatedAt.Format(time.RFC3339Nano),
	}
	if or.DecidedAt != nil {
		decided := or.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &decided
	}
	if or.Employee != nil {
		resp.EmployeeName = or.Employee.Name
	}
	return resp
}

// [自证通过] internal/service/request_service.go
