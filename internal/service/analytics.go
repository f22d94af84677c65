package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Open-WP-Club/phone-order-woo/internal/cache"
	"github.com/Open-WP-Club/phone-order-woo/internal/model"
	"github.com/Open-WP-Club/phone-order-woo/internal/repository"
	"github.com/Open-WP-Club/phone-order-woo/pkg/logger"
)

const statsCacheKey = "phone_order:stats"

const (
	recentOrdersLimit = 10
	topProductsLimit  = 5
)

// ClientMeta 提交请求携带的客户端信息，仅用于埋点
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// DashboardStats 后台看板统计
type DashboardStats struct {
	TotalOrders  int64                    `json:"total_orders"`
	TodayOrders  int64                    `json:"today_orders"`
	MonthOrders  int64                    `json:"month_orders"`
	TotalRevenue float64                  `json:"total_revenue"`
	RecentOrders []*model.Order           `json:"recent_orders"`
	TopProducts  []repository.ProductStat `json:"top_products"`
}

// AnalyticsService 电话订单统计聚合
type AnalyticsService interface {
	// RecordOrder appends the usage record for a created order. It never
	// fails the caller; failures are logged only.
	RecordOrder(ctx context.Context, orderID uint, phone string, productID uint, meta ClientMeta)

	// DashboardStats 看板统计，短期缓存 + 写入时主动失效
	DashboardStats(ctx context.Context) (*DashboardStats, error)

	// InvalidateStats drops the cached stats so the next read recomputes.
	// Called on order creation and on status changes.
	InvalidateStats(ctx context.Context)

	// ConversionRate 电话订单占全部订单的百分比
	ConversionRate(ctx context.Context) (float64, error)

	// AverageOrderValue 电话订单平均客单价
	AverageOrderValue(ctx context.Context) (float64, error)

	// OrdersByDateRange 指定区间内的电话订单
	OrdersByDateRange(ctx context.Context, start, end time.Time) ([]*model.Order, error)

	// ExportCSV streams the date-range report: order id, date, phone,
	// product, total, status.
	ExportCSV(ctx context.Context, w io.Writer, start, end time.Time) error
}

type analyticsService struct {
	orders    repository.OrderRepository
	records   repository.AnalyticsRepository
	settings  SettingsService
	cache     cache.Cache
	cacheTTL  time.Duration
	now       func() time.Time // injectable for tests
}

func NewAnalyticsService(orders repository.OrderRepository, records repository.AnalyticsRepository, settings SettingsService, c cache.Cache, cacheTTL time.Duration) AnalyticsService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &analyticsService{
		orders:   orders,
		records:  records,
		settings: settings,
		cache:    c,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func (s *analyticsService) RecordOrder(ctx context.Context, orderID uint, phone string, productID uint, meta ClientMeta) {
	// The dashboard counts orders whether or not recording is enabled, so
	// the cache is always invalidated.
	defer s.InvalidateStats(ctx)

	if s.settings.Get(ctx, SettingEnableAnalytics, "") != "yes" {
		return
	}
	rec := &model.OrderAnalytics{
		OrderID:   orderID,
		Phone:     phone,
		ProductID: productID,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		// Analytics must never fail or roll back the order.
		logger.Error("analytics: record write failed",
			zap.Uint("order_id", orderID), zap.Error(err))
	}
}

func (s *analyticsService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	if raw, err := s.cache.Get(ctx, statsCacheKey); err == nil {
		var stats DashboardStats
		if uErr := json.Unmarshal([]byte(raw), &stats); uErr == nil {
			return &stats, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.Warn("analytics: stats cache read failed", zap.Error(err))
	}

	stats, err := s.computeStats(ctx)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(stats); err == nil {
		if sErr := s.cache.Set(ctx, statsCacheKey, string(payload), s.cacheTTL); sErr != nil {
			logger.Warn("analytics: stats cache write failed", zap.Error(sErr))
		}
	}
	return stats, nil
}

func (s *analyticsService) computeStats(ctx context.Context) (*DashboardStats, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	total, err := s.orders.CountByVia(ctx, model.CreatedViaPhoneOrder, nil)
	if err != nil {
		return nil, fmt.Errorf("count total: %w", err)
	}
	todayCount, err := s.orders.CountByVia(ctx, model.CreatedViaPhoneOrder, &today)
	if err != nil {
		return nil, fmt.Errorf("count today: %w", err)
	}
	monthCount, err := s.orders.CountByVia(ctx, model.CreatedViaPhoneOrder, &monthStart)
	if err != nil {
		return nil, fmt.Errorf("count month: %w", err)
	}
	revenue, err := s.orders.Revenue(ctx, model.CreatedViaPhoneOrder, model.RevenueStatuses)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	recent, err := s.orders.Recent(ctx, model.CreatedViaPhoneOrder, recentOrdersLimit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	top, err := s.orders.TopProducts(ctx, model.CreatedViaPhoneOrder, model.RevenueStatuses, topProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}

	return &DashboardStats{
		TotalOrders:  total,
		TodayOrders:  todayCount,
		MonthOrders:  monthCount,
		TotalRevenue: revenue,
		RecentOrders: recent,
		TopProducts:  top,
	}, nil
}

func (s *analyticsService) InvalidateStats(ctx context.Context) {
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		logger.Warn("analytics: stats cache invalidation failed", zap.Error(err))
	}
}

func (s *analyticsService) ConversionRate(ctx context.Context) (float64, error) {
	phoneOrders, err := s.orders.CountByVia(ctx, model.CreatedViaPhoneOrder, nil)
	if err != nil {
		return 0, err
	}
	total, err := s.orders.CountAll(ctx)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return float64(phoneOrders) / float64(total) * 100, nil
}

func (s *analyticsService) AverageOrderValue(ctx context.Context) (float64, error) {
	count, err := s.orders.CountByVia(ctx, model.CreatedViaPhoneOrder, nil)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	revenue, err := s.orders.Revenue(ctx, model.CreatedViaPhoneOrder, model.RevenueStatuses)
	if err != nil {
		return 0, err
	}
	return revenue / float64(count), nil
}

func (s *analyticsService) OrdersByDateRange(ctx context.Context, start, end time.Time) ([]*model.Order, error) {
	return s.orders.ByDateRange(ctx, model.CreatedViaPhoneOrder, start, end)
}

func (s *analyticsService) ExportCSV(ctx context.Context, w io.Writer, start, end time.Time) error {
	orders, err := s.OrdersByDateRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Order ID", "Date", "Phone", "Product", "Total", "Status"}); err != nil {
		return err
	}
	for _, o := range orders {
		row := []string{
			strconv.FormatUint(uint64(o.ID), 10),
			o.CreatedAt.Format("2006-01-02 15:04:05"),
			o.BillingPhone,
			o.ProductName,
			strconv.FormatFloat(o.Total, 'f', 2, 64),
			o.Status,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
