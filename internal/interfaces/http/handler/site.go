package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	dispatchapp "github.com/perfumery/sales/internal/application/dispatch"
	"github.com/perfumery/sales/internal/interfaces/http/dto"
)

// SiteHandler handles dispatch site API endpoints
type SiteHandler struct {
	BaseHandler
	siteService *dispatchapp.SiteService
}

// NewSiteHandler creates a new SiteHandler
func NewSiteHandler(siteService *dispatchapp.SiteService) *SiteHandler {
	return &SiteHandler{
		siteService: siteService,
	}
}

// Create godoc
//
//	@Summary		Create a dispatch site
//	@Description	Registers a new distribution center or warehouse; starts at full capacity
//	@Tags			sites
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dispatchapp.CreateSiteRequest	true	"Site creation request"
//	@Success		201		{object}	dto.Response
//	@Failure		400		{object}	dto.Response
//	@Router			/sites [post]
func (h *SiteHandler) Create(c *gin.Context) {
	var req dispatchapp.CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	site, err := h.siteService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, site)
}

// Get godoc
//
//	@Summary		Get a dispatch site
//	@Tags			sites
//	@Produce		json
//	@Param			id	path		string	true	"Site ID"
//	@Success		200	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Router			/sites/{id} [get]
func (h *SiteHandler) Get(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid site ID")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid site ID")
		return
	}

	site, err := h.siteService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, site)
}

// List godoc
//
//	@Summary		List dispatch sites
//	@Tags			sites
//	@Produce		json
//	@Success		200	{object}	dto.Response
//	@Router			/sites [get]
func (h *SiteHandler) List(c *gin.Context) {
	sites, err := h.siteService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sites)
}

// AdjustCapacity godoc
//
//	@Summary		Adjust site capacity
//	@Description	Applies a signed delta to the site's remaining capacity, clamped to [0, max]
//	@Tags			sites
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Site ID"
//	@Param			request	body		dispatchapp.AdjustCapacityRequest	true	"Capacity adjustment"
//	@Success		200		{object}	dto.Response
//	@Failure		400		{object}	dto.Response
//	@Failure		404		{object}	dto.Response
//	@Router			/sites/{id}/capacity [post]
func (h *SiteHandler) AdjustCapacity(c *gin.Context) {
	var uriReq dto.IDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		h.BadRequest(c, "Invalid site ID")
		return
	}
	id, err := uuid.Parse(uriReq.ID)
	if err != nil {
		h.BadRequest(c, "Invalid site ID")
		return
	}

	var req dispatchapp.AdjustCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	site, err := h.siteService.AdjustCapacity(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, site)
}

// SendPackaging godoc
//
//	@Summary		Dispatch packages from storage
//	@Description	Retrieves packages from the site serving the caller's role without recording a sale
//	@Tags			sites
//	@Accept			json
//	@Produce		json
//	@Param			X-User-Role	header		string								false	"Caller role (MANAGER or SELLER)"
//	@Param			request		body		dispatchapp.SendPackagingRequest	true	"Dispatch request"
//	@Success		200			{object}	dto.Response
//	@Failure		400			{object}	dto.Response
//	@Failure		409			{object}	dto.Response
//	@Failure		503			{object}	dto.Response
//	@Router			/sites/dispatch [post]
func (h *SiteHandler) SendPackaging(c *gin.Context) {
	var req dispatchapp.SendPackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.CallerRole = getUserRole(c)

	result, err := h.siteService.SendPackaging(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegisterRoutes registers site routes on the API group
func (h *SiteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sites", h.Create)
	rg.GET("/sites", h.List)
	rg.GET("/sites/:id", h.Get)
	rg.POST("/sites/:id/capacity", h.AdjustCapacity)
	rg.POST("/sites/dispatch", h.SendPackaging)
}
