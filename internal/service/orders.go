package service

import (
	"context"
	"errors"

	"github.com/Open-WP-Club/phone-order-woo/internal/model"
	"github.com/Open-WP-Club/phone-order-woo/internal/repository"
)

var ErrInvalidStatus = errors.New("invalid order status")

var validStatuses = map[string]bool{
	model.OrderStatusPending:    true,
	model.OrderStatusProcessing: true,
	model.OrderStatusCompleted:  true,
	model.OrderStatusCancelled:  true,
}

// OrderService 订单读写（状态变更会主动失效统计缓存）
type OrderService interface {
	Get(ctx context.Context, id uint) (*model.Order, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
}

type orderService struct {
	orders    repository.OrderRepository
	analytics AnalyticsService
}

func NewOrderService(orders repository.OrderRepository, analytics AnalyticsService) OrderService {
	return &orderService{orders: orders, analytics: analytics}
}

func (s *orderService) Get(ctx context.Context, id uint) (*model.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *orderService) UpdateStatus(ctx context.Context, id uint, status string) error {
	if !validStatuses[status] {
		return ErrInvalidStatus
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	// Revenue buckets depend on status, so the cached dashboard is stale.
	s.analytics.InvalidateStats(ctx)
	return nil
}
