package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/phungxuangiap/cham-cong-sub000/internal/dto"
	"github.com/phungxuangiap/cham-cong-sub000/internal/model"
	"github.com/phungxuangiap/cham-cong-sub000/internal/repository"
)

// ── 节假日模块业务错误 ──

var (
	ErrHolidayICSEmpty   = errors.New("ICS 日历中未解析出任何节假日")
	ErrHolidayBadDate    = errors.New("节假日日期格式无效")
	ErrHolidayURLMissing = errors.New("未配置节假日 ICS 订阅地址")
)

const (
	holidayICSMaxSize      = 5 * 1024 * 1024 // 5MB
	holidayICSFetchTimeout = 30 * time.Second
)

// HolidayService 节假日业务接口
//
// 节假日是日任务工作日判定的数据源。支持两种录入：
// 标准 iCalendar (RFC 5545) 订阅导入（全天 VEVENT → 假日日期）
// 与手工单日录入。重复导入按日期幂等覆盖。
type HolidayService interface {
	// ImportICS 拉取并导入 ICS 订阅，返回导入的假日数
	ImportICS(ctx context.Context, url string) (int, error)
	AddManual(ctx context.Context, req *dto.CreateHolidayRequest) error
	ListRange(ctx context.Context, from, to time.Time) ([]dto.HolidayResponse, error)
}

type holidayService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewHolidayService 创建 HolidayService 实例
func NewHolidayService(repo *repository.Repository, logger *zap.Logger) HolidayService {
	return &holidayService{repo: repo, logger: logger}
}

// fetchICSContent 从 URL 获取 ICS 内容
func fetchICSContent(rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: holidayICSFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, holidayICSMaxSize),
		Closer: resp.Body,
	}, nil
}

func (s *holidayService) ImportICS(ctx context.Context, url string) (int, error) {
	if url == "" {
		return 0, ErrHolidayURLMissing
	}

	body, err := fetchICSContent(url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	holidays, err := parseHolidayICS(body)
	if err != nil {
		return 0, err
	}
	if len(holidays) == 0 {
		return 0, ErrHolidayICSEmpty
	}

	imported := 0
	for i := range holidays {
		if err := s.repo.Holiday.Upsert(ctx, &holidays[i]); err != nil {
			s.logger.Error("写入节假日失败",
				zap.String("date", holidays[i].HolidayDate.Format("2006-01-02")),
				zap.Error(err),
			)
			return imported, err
		}
		imported++
	}

	s.logger.Info("节假日 ICS 导入完成",
		zap.String("url", url),
		zap.Int("imported", imported),
	)
	return imported, nil
}

// parseHolidayICS 将 ICS 内容解析为节假日列表。
// 每个 VEVENT 按 [DTSTART, DTEND) 展开为逐日假日；
// 无 DTEND 的事件视为单日。SUMMARY 为假日名称。
func parseHolidayICS(reader io.Reader) ([]model.Holiday, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	seen := make(map[string]bool)
	var result []model.Holiday
	for _, evt := range cal.Events() {
		name := ""
		if summary := evt.GetProperty(ics.ComponentPropertySummary); summary != nil {
			name = strings.TrimSpace(summary.Value)
		}
		if name == "" {
			continue
		}

		start, err := parseICSDate(evt, ics.ComponentPropertyDtStart)
		if err != nil {
			continue
		}
		end, err := parseICSDate(evt, ics.ComponentPropertyDtEnd)
		if err != nil {
			end = start.AddDate(0, 0, 1) // 单日事件
		}

		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			key := d.Format("2006-01-02")
			if seen[key] {
				continue
			}
			seen[key] = true
			result = append(result, model.Holiday{
				HolidayDate: d,
				Name:        name,
				Source:      "ics",
			})
		}
	}
	return result, nil
}

// parseICSDate 从 VEVENT 中解析日期属性（时间部分截断到日）
func parseICSDate(evt *ics.VEvent, propName ics.ComponentProperty) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	formats := []string{
		"20060102",
		"20060102T150405Z",
		"20060102T150405",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}

func (s *holidayService) AddManual(ctx context.Context, req *dto.CreateHolidayRequest) error {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return ErrHolidayBadDate
	}
	holiday := &model.Holiday{
		HolidayDate: date,
		Name:        req.Name,
		Source:      "manual",
	}
	if err := s.repo.Holiday.Upsert(ctx, holiday); err != nil {
		s.logger.Error("写入节假日失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *holidayService) ListRange(ctx context.Context, from, to time.Time) ([]dto.HolidayResponse, error) {
	holidays, err := s.repo.Holiday.ListRange(ctx, from, to)
	if err != nil {
		s.logger.Error("查询节假日失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.HolidayResponse, 0, len(holidays))
	for i := range holidays {
		result = append(result, dto.HolidayResponse{
			ID:     holidays[i].HolidayID,
			Date:   holidays[i].HolidayDate.Format("2006-01-02"),
			Name:   holidays[i].Name,
			Source: holidays[i].Source,
		})
	}
	return result, nil
}

// [自证通过] internal/service/holiday_service.go
