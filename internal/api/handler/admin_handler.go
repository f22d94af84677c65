package handler

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Open-WP-Club/phone-order-woo/internal/service"
	"github.com/Open-WP-Club/phone-order-woo/pkg/logger"
	"github.com/Open-WP-Club/phone-order-woo/pkg/response"
)

// Stats 看板统计
// @Summary 电话订单看板统计
// @Tags 后台
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=service.DashboardStats}
// @Failure 500 {object} response.Response
// @Router /api/v1/admin/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.analytics.DashboardStats(c.Request.Context())
	if err != nil {
		logger.Error("admin: dashboard stats failed", zap.Error(err))
		response.InternalError(c, "failed to load stats")
		return
	}

	conversion, err := h.analytics.ConversionRate(c.Request.Context())
	if err != nil {
		logger.Error("admin: conversion rate failed", zap.Error(err))
		response.InternalError(c, "failed to load stats")
		return
	}
	avg, err := h.analytics.AverageOrderValue(c.Request.Context())
	if err != nil {
		logger.Error("admin: average order value failed", zap.Error(err))
		response.InternalError(c, "failed to load stats")
		return
	}

	response.Success(c, gin.H{
		"stats":               stats,
		"conversion_rate":     conversion,
		"average_order_value": avg,
	})
}

// ExportOrders 导出指定日期区间的电话订单 CSV
// @Summary 订单 CSV 导出
// @Tags 后台
// @Produce text/csv
// @Security BearerAuth
// @Param start query string true "起始日期 (2006-01-02)"
// @Param end query string true "结束日期 (2006-01-02，含当天)"
// @Success 200 {string} string "CSV"
// @Failure 400 {object} response.Response
// @Router /api/v1/admin/orders/export [get]
func (h *Handler) ExportOrders(c *gin.Context) {
	start, err := time.ParseInLocation("2006-01-02", c.Query("start"), time.Local)
	if err != nil {
		response.BadRequest(c, "invalid start date, want YYYY-MM-DD")
		return
	}
	end, err := time.ParseInLocation("2006-01-02", c.Query("end"), time.Local)
	if err != nil {
		response.BadRequest(c, "invalid end date, want YYYY-MM-DD")
		return
	}
	// end 取闭区间：含当天整天
	end = end.AddDate(0, 0, 1)

	filename := fmt.Sprintf("phone-orders-%s-to-%s.csv", c.Query("start"), c.Query("end"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.analytics.ExportCSV(c.Request.Context(), c.Writer, start, end); err != nil {
		logger.Error("admin: csv export failed", zap.Error(err))
		response.InternalError(c, "export failed")
		return
	}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus 更新订单状态（会主动失效统计缓存）
// @Summary 更新订单状态
// @Tags 后台
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "订单ID"
// @Param request body updateStatusRequest true "目标状态"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/admin/orders/{id}/status [put]
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err = h.orders.UpdateStatus(c.Request.Context(), uint(id), req.Status)
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, "invalid order status")
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.NotFound(c, "order not found")
	case err != nil:
		logger.Error("admin: status update failed", zap.Uint64("order_id", id), zap.Error(err))
		response.InternalError(c, "failed to update order")
	default:
		response.Success(c, nil)
	}
}

// GetSettings 读取全部配置（默认值叠加存储值）
// @Summary 读取配置
// @Tags 后台
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /api/v1/admin/settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	response.Success(c, h.settings.GetAll(c.Request.Context()))
}

// UpdateSettings 批量更新配置
// @Summary 更新配置
// @Tags 后台
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body map[string]string true "配置键值"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/admin/settings [put]
func (h *Handler) UpdateSettings(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if len(values) == 0 {
		response.BadRequest(c, "no settings provided")
		return
	}
	if err := h.settings.SetMultiple(c.Request.Context(), values); err != nil {
		logger.Error("admin: settings update failed", zap.Error(err))
		response.InternalError(c, "failed to save settings")
		return
	}
	response.Success(c, nil)
}
