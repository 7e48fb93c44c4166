// Package handler exposes the lead lifecycle engine over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crmcore_backend/internal/leads/catalog"
	"crmcore_backend/internal/leads/conversion"
	"crmcore_backend/internal/leads/lifecycle"
	"crmcore_backend/internal/leads/management"
	"crmcore_backend/internal/leads/transport"
	"crmcore_backend/platform/httpkit"
	"crmcore_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	management *management.Service
	lifecycle  *lifecycle.Service
	conversion *conversion.Orchestrator
	catalog    *catalog.Service
	val        *validator.Validator
}

func New(mgmt *management.Service, lc *lifecycle.Service, conv *conversion.Orchestrator, cat *catalog.Service, val *validator.Validator) *Handler {
	return &Handler{
		management: mgmt,
		lifecycle:  lc,
		conversion: conv,
		catalog:    cat,
		val:        val,
	}
}

// RegisterRoutes mounts the lead routes. Mutating routes go through the
// stricter write rate limiter.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, writeLimit gin.HandlerFunc) {
	rg.GET("", h.List)
	rg.GET("/grouped", h.ListGrouped)
	rg.GET("/:id", h.Get)

	rg.POST("", writeLimit, h.Create)
	rg.PATCH("/:id", writeLimit, h.Update)
	rg.DELETE("/:id", writeLimit, h.Delete)
	rg.POST("/:id/stage", writeLimit, h.ChangeStage)
	rg.POST("/:id/disqualify", writeLimit, h.Disqualify)
	rg.POST("/:id/convert", writeLimit, h.Convert)

	rg.GET("/catalog/stages", h.ListStages)
	rg.GET("/catalog/priorities", h.ListPriorities)
	rg.GET("/catalog/frameworks", h.ListFrameworks)
	rg.GET("/catalog/disqualification-reasons", h.ListReasons)
	rg.GET("/settings", h.GetSettings)
	rg.PUT("/settings", writeLimit, h.UpdateSettings)
}

func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.management.Create(c.Request.Context(), req.ToParams(identity.TenantID(), identity.UserID()))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.NewLeadResponse(lead))
}

func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	filters, err := req.ToParams(identity.TenantID())
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	leads, total, err := h.management.List(c.Request.Context(), management.ListOptions{
		Filters: filters,
		Scope:   req.Scope,
		ActorID: identity.UserID(),
	})
	if httpkit.HandleError(c, err) {
		return
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	httpkit.OK(c, transport.ListLeadsResponse{
		Items:   transport.NewLeadResponses(leads),
		Total:   total,
		Page:    page,
		PerPage: filters.Limit,
	})
}

func (h *Handler) ListGrouped(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	perStage := 0
	if raw := c.Query("perStage"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		perStage = v
	}

	groups, err := h.management.ListGroupedByStage(c.Request.Context(), identity.TenantID(), perStage)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewStageGroupResponses(groups))
}

func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	leadID, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.management.Get(c.Request.Context(), leadID, identity.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewLeadDetailResponse(detail))
}

func (h *Handler) Update(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	leadID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if req.Email.Set && req.Email.Value != nil && *req.Email.Value != "" {
		if err := h.val.Var(*req.Email.Value, "email"); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "email must be a valid address")
			return
		}
	}

	lead, err := h.management.Update(c.Request.Context(), leadID, management.UpdateParams{
		OrganizationID: identity.TenantID(),
		ActorID:        identity.UserID(),
		Fields:         req.ToParams(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewLeadResponse(lead))
}

func (h *Handler) Delete(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	leadID, ok := pathID(c)
	if !ok {
		return
	}

	err := h.management.Delete(c.Request.Context(), leadID, identity.TenantID(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) ChangeStage(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	leadID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.lifecycle.ChangeStage(c.Request.Context(), req.ToParams(leadID, identity.TenantID(), identity.UserID()))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewLeadResponse(lead))
}

func (h *Handler) Disqualify(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	leadID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.DisqualifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.lifecycle.Disqualify(c.Request.Context(), req.ToParams(leadID, identity.TenantID(), identity.UserID()))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewLeadResponse(lead))
}

func (h *Handler) Convert(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	leadID, ok := pathID(c)
	if !ok {
		return
	}

	var req transport.ConvertLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.conversion.Convert(c.Request.Context(), req.ToParams(leadID, identity.TenantID(), identity.UserID()))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewConversionResponse(result))
}

func (h *Handler) ListStages(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	stages, err := h.catalog.Stages(c.Request.Context(), identity.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewStageResponses(stages))
}

func (h *Handler) ListPriorities(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	priorities, err := h.catalog.Priorities(c.Request.Context(), identity.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewPriorityResponses(priorities))
}

func (h *Handler) ListFrameworks(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	frameworks, err := h.catalog.Frameworks(c.Request.Context(), identity.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewFrameworkResponses(frameworks))
}

func (h *Handler) ListReasons(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	reasons, err := h.catalog.DisqualificationReasons(c.Request.Context(), identity.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewReasonResponses(reasons))
}

func (h *Handler) GetSettings(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	settings, err := h.catalog.Settings(c.Request.Context(), identity.TenantID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewSettingsPayload(settings))
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.SettingsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	err := h.catalog.UpdateSettings(c.Request.Context(), req.ToDomain(identity.TenantID()))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, req)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}
