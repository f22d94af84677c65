package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Open-WP-Club/phone-order-woo/internal/model"
	"github.com/Open-WP-Club/phone-order-woo/internal/repository"
	"github.com/Open-WP-Club/phone-order-woo/pkg/logger"
)

// SubmitInput is one phone-order submission.
type SubmitInput struct {
	Phone     string
	ProductID uint
	Quantity  int
	Meta      ClientMeta
}

// SubmitResult is returned on success.
type SubmitResult struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Message     string `json:"message"`
}

// IntakeService 电话下单入口：校验 → 解析客户 → 建单扣库存 → 埋点 → 发事件
type IntakeService interface {
	Submit(ctx context.Context, in SubmitInput) (*SubmitResult, *IntakeError)
}

type intakeService struct {
	db         *gorm.DB
	products   repository.ProductRepository
	resolver   CustomerResolver
	analytics  AnalyticsService
	settings   SettingsService
	dispatcher *Dispatcher
	timeout    time.Duration
}

func NewIntakeService(db *gorm.DB, products repository.ProductRepository, resolver CustomerResolver, analytics AnalyticsService, settings SettingsService, dispatcher *Dispatcher, timeout time.Duration) IntakeService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &intakeService{
		db:         db,
		products:   products,
		resolver:   resolver,
		analytics:  analytics,
		settings:   settings,
		dispatcher: dispatcher,
		timeout:    timeout,
	}
}

// Submit runs the intake pipeline. Every step short-circuits; internal
// causes are logged here and never carried in the user-facing message.
func (s *intakeService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, *IntakeError) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	phone := strings.TrimSpace(in.Phone)
	if !ValidatePhone(phone) {
		return nil, newIntakeError(KindInvalidPhone, nil)
	}

	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}

	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newIntakeError(KindProductNotFound, err)
		}
		logger.Error("intake: product lookup failed", zap.Uint("product_id", in.ProductID), zap.Error(err))
		return nil, newIntakeError(KindOrderCreationFailed, err)
	}
	if !product.Purchasable {
		return nil, newIntakeError(KindProductNotPurchasable, nil)
	}
	if product.Stock < qty {
		return nil, newIntakeError(KindOutOfStock, nil)
	}

	customerID, err := s.resolver.Resolve(ctx, phone)
	if err != nil {
		logger.Error("intake: customer resolution failed", zap.Error(err))
		return nil, newIntakeError(KindCustomerResolutionFailed, err)
	}

	order := &model.Order{
		Number:             uuid.NewString(),
		CustomerID:         customerID,
		ProductID:          product.ID,
		ProductName:        product.Name,
		Quantity:           qty,
		BillingPhone:       phone,
		Total:              product.Price * float64(qty),
		Status:             model.OrderStatusProcessing,
		CreatedVia:         model.CreatedViaPhoneOrder,
		PaymentMethod:      "phone_order",
		PaymentMethodTitle: "Phone Order",
	}

	// Order row and stock decrement commit together, so a losing racer on
	// the last unit leaves no order behind.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewOrderRepository(tx).Create(ctx, order); err != nil {
			return err
		}
		return repository.NewProductRepository(tx).DecrementStock(ctx, product.ID, qty)
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, newIntakeError(KindOutOfStock, err)
		}
		logger.Error("intake: order persistence failed",
			zap.Uint("product_id", product.ID), zap.Uint("customer_id", customerID), zap.Error(err))
		return nil, newIntakeError(KindOrderCreationFailed, err)
	}

	// Best-effort from here on; the order is committed.
	s.analytics.RecordOrder(ctx, order.ID, phone, product.ID, in.Meta)

	if s.dispatcher != nil {
		s.dispatcher.Publish(OrderCreatedEvent{
			OrderID:     order.ID,
			OrderNumber: order.Number,
			Phone:       phone,
			ProductID:   product.ID,
			CreatedAt:   order.CreatedAt,
		})
	}

	return &SubmitResult{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Message:     s.settings.Get(ctx, SettingConfirmationMessage, ""),
	}, nil
}
