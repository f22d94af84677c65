package handler

import (
	"github.com/Open-WP-Club/phone-order-woo/internal/repository"
	"github.com/Open-WP-Club/phone-order-woo/internal/service"
)

// Handler 聚合全部 HTTP 处理器依赖
type Handler struct {
	intake    service.IntakeService
	analytics service.AnalyticsService
	settings  service.SettingsService
	orders    service.OrderService
	products  repository.ProductRepository
}

func New(intake service.IntakeService, analytics service.AnalyticsService, settings service.SettingsService, orders service.OrderService, products repository.ProductRepository) *Handler {
	return &Handler{
		intake:    intake,
		analytics: analytics,
		settings:  settings,
		orders:    orders,
		products:  products,
	}
}
