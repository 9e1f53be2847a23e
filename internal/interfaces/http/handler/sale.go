package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	salesapp "github.com/perfumery/sales/internal/application/sales"
	"github.com/perfumery/sales/internal/domain/sales"
	"github.com/perfumery/sales/internal/interfaces/http/dto"
)

// SaleHandler handles sale and receipt API endpoints
type SaleHandler struct {
	BaseHandler
	saleService *salesapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *salesapp.SaleService) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
	}
}

// ProcessSaleRequest represents a request to sell a perfume
//
//	@Description	Request body for processing a sale
type ProcessSaleRequest struct {
	SerialNumber  string  `json:"serial_number" binding:"required,min=1,max=50" example:"PRF-001"`
	Quantity      int     `json:"quantity" binding:"required,min=1" example:"7"`
	Channel       string  `json:"channel" binding:"required,oneof=RETAIL WHOLESALE" example:"RETAIL"`
	PaymentMethod string  `json:"payment_method" binding:"required,oneof=CASH CARD" example:"CASH"`
	SellerID      *string `json:"seller_id" binding:"omitempty,uuid" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
}

// ProcessSale godoc
//
//	@Summary		Process a sale
//	@Description	Runs the full sale flow: catalog lookup, dispatch, pricing and fiscal receipt
//	@Tags			sales
//	@Accept			json
//	@Produce		json
//	@Param			X-User-Role		header		string				false	"Caller role (MANAGER or SELLER)"
//	@Param			Idempotency-Key	header		string				false	"Idempotency key for safe retries"
//	@Param			request			body		ProcessSaleRequest	true	"Sale request"
//	@Success		201				{object}	dto.Response
//	@Failure		400				{object}	dto.Response
//	@Failure		404				{object}	dto.Response
//	@Failure		409				{object}	dto.Response
//	@Failure		422				{object}	dto.Response
//	@Failure		503				{object}	dto.Response
//	@Router			/sales [post]
func (h *SaleHandler) ProcessSale(c *gin.Context) {
	var req ProcessSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var sellerID *uuid.UUID
	if req.SellerID != nil {
		id, err := uuid.Parse(*req.SellerID)
		if err != nil {
			h.BadRequest(c, "Invalid seller ID")
			return
		}
		sellerID = &id
	}

	appReq := salesapp.ProcessSaleRequest{
		SerialNumber:   req.SerialNumber,
		Quantity:       req.Quantity,
		Channel:        sales.Channel(req.Channel),
		PaymentMethod:  sales.PaymentMethod(req.PaymentMethod),
		SellerID:       sellerID,
		CallerRole:     getUserRole(c),
		IdempotencyKey: getIdempotencyKey(c),
	}

	receipt, err := h.saleService.ProcessSale(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// A replayed receipt was created by an earlier request with the same key
	if receipt.Replayed {
		h.Success(c, receipt)
		return
	}
	h.Created(c, receipt)
}

// GetReceipt godoc
//
//	@Summary		Get a fiscal receipt
//	@Tags			sales
//	@Produce		json
//	@Param			id	path		string	true	"Receipt ID"
//	@Success		200	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Router			/receipts/{id} [get]
func (h *SaleHandler) GetReceipt(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}

	receipt, err := h.saleService.GetReceiptByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, receipt)
}

// ListReceipts godoc
//
//	@Summary		List fiscal receipts
//	@Description	Receipts ordered by sale timestamp, newest first
//	@Tags			sales
//	@Produce		json
//	@Param			page		query		int	false	"Page number"		default(1)
//	@Param			page_size	query		int	false	"Page size"			default(20)
//	@Success		200			{object}	dto.Response
//	@Router			/receipts [get]
func (h *SaleHandler) ListReceipts(c *gin.Context) {
	params := sales.ListParams{}
	var query struct {
		Page     int `form:"page" binding:"omitempty,min=1"`
		PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	params.Page = query.Page
	params.PageSize = query.PageSize

	receipts, total, err := h.saleService.ListReceipts(c.Request.Context(), params)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, receipts, total, page, pageSize)
}

// GetCatalog godoc
//
//	@Summary		List sellable perfumes
//	@Description	Proxies the processing service's perfume catalog
//	@Tags			sales
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Failure		503	{object}	dto.Response
//	@Router			/catalog [get]
func (h *SaleHandler) GetCatalog(c *gin.Context) {
	items, err := h.saleService.GetCatalog(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// RegisterRoutes registers sale routes on the API group
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sales", h.ProcessSale)
	rg.GET("/receipts", h.ListReceipts)
	rg.GET("/receipts/:id", h.GetReceipt)
	rg.GET("/catalog", h.GetCatalog)
}
