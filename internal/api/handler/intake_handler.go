package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Open-WP-Club/phone-order-woo/internal/service"
	"github.com/Open-WP-Club/phone-order-woo/pkg/response"
)

type submitRequest struct {
	Phone     string `json:"phone" binding:"required,phone"`
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=1"`
}

// Submit 提交电话订单
// @Summary 手机号一键下单
// @Tags 电话订单
// @Accept json
// @Produce json
// @Param request body submitRequest true "下单信息"
// @Success 200 {object} response.Response{data=service.SubmitResult}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/phone-orders [post]
func (h *Handler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, ierr := h.intake.Submit(c.Request.Context(), service.SubmitInput{
		Phone:     req.Phone,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Meta: service.ClientMeta{
			UserAgent: c.Request.UserAgent(),
			IPAddress: c.ClientIP(),
		},
	})
	if ierr != nil {
		switch ierr.Kind {
		case service.KindInvalidPhone, service.KindProductNotPurchasable:
			response.BadRequest(c, ierr.Message)
		case service.KindProductNotFound:
			response.NotFound(c, ierr.Message)
		case service.KindOutOfStock:
			response.Conflict(c, ierr.Message)
		default:
			// Detail already logged inside the service.
			response.InternalError(c, ierr.Message)
		}
		return
	}
	response.Success(c, result)
}

type availabilityResponse struct {
	Available   bool   `json:"available"`
	InStock     bool   `json:"in_stock"`
	Purchasable bool   `json:"purchasable"`
	ProductName string `json:"product_name"`
	Price       string `json:"price"`
}

// CheckAvailability 查询商品是否可电话下单
// @Summary 商品可订购检查
// @Tags 电话订单
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response{data=availabilityResponse}
// @Failure 404 {object} response.Response
// @Router /api/v1/products/{id}/availability [get]
func (h *Handler) CheckAvailability(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid product id")
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "Invalid product")
			return
		}
		response.InternalError(c, "failed to load product")
		return
	}

	response.Success(c, availabilityResponse{
		Available:   product.Purchasable && product.InStock(),
		InStock:     product.InStock(),
		Purchasable: product.Purchasable,
		ProductName: product.Name,
		Price:       strconv.FormatFloat(product.Price, 'f', 2, 64),
	})
}
