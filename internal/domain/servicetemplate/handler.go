package servicetemplate

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/praxis/praxis/internal/platform/auth"
	"github.com/praxis/praxis/internal/platform/db"
	"github.com/praxis/praxis/pkg/pagination"
)

// copyRequest is the single-copy payload.
type copyRequest struct {
	TemplateID int64   `json:"template_service_id" validate:"required,gt=0"`
	TenantID   string  `json:"tenant_id" validate:"omitempty,uuid"`
	Price      float64 `json:"price" validate:"gte=0"`
}

// batchCopyRequest is the batch-copy payload.
type batchCopyRequest struct {
	TenantID  string      `json:"tenant_id" validate:"omitempty,uuid"`
	Templates []CopyEntry `json:"service_templates" validate:"required,min=1,dive"`
}

// errorResponse is the failure envelope clients of the old API expect.
type errorResponse struct {
	Message string      `json:"message"`
	Error   int         `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func fail(c echo.Context, status int, msg string, details interface{}) error {
	return c.JSON(status, errorResponse{Message: msg, Error: -1, Details: details})
}

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "therapist", "biller"))
	read.GET("/service-templates", h.List)
	// Legacy query-param shape; static segments win over :id in echo's router.
	read.GET("/service-templates/check-forms-affected", h.CheckFormsAffected)
	read.GET("/service-templates/:id", h.Get)
	read.GET("/service-templates/:id/check-forms-affected", h.CheckFormsAffected)

	write := api.Group("", auth.RequireRole("admin"))
	write.POST("/service-templates/copy-to-tenant", h.CopyToTenant)
	write.POST("/service-templates/copy-multiple-to-tenant", h.CopyMultipleToTenant)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid id", nil)
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, http.StatusNotFound, "service template not found", nil)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) CopyToTenant(c echo.Context) error {
	var req copyRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "malformed request body", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request", err.Error())
	}
	tenantID, err := h.resolveTenant(c, req.TenantID)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}

	res, err := h.svc.CopyTemplate(c.Request().Context(), req.TemplateID, tenantID, req.Price)
	if err != nil {
		if IsNotFound(err) {
			return fail(c, http.StatusNotFound, err.Error(), nil)
		}
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) CopyMultipleToTenant(c echo.Context) error {
	var req batchCopyRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "malformed request body", nil)
	}
	if err := h.validate.Struct(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request", err.Error())
	}
	tenantID, err := h.resolveTenant(c, req.TenantID)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}

	res, err := h.svc.CopyTemplates(c.Request().Context(), tenantID, req.Templates)
	if err != nil {
		if IsNotFound(err) {
			return fail(c, http.StatusNotFound, err.Error(), nil)
		}
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}
	if len(res.Errors) > 0 {
		return fail(c, http.StatusBadRequest, "some templates could not be copied", res)
	}
	return c.JSON(http.StatusOK, res)
}

// CheckFormsAffected serves both route shapes: the template id comes from
// the :id path segment, or from the legacy template_service_id query param.
func (h *Handler) CheckFormsAffected(c echo.Context) error {
	raw := c.Param("id")
	if raw == "" {
		raw = c.QueryParam("template_service_id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid template_service_id", nil)
	}
	impact, err := h.svc.CheckFormsAffected(c.Request().Context(), id)
	if err != nil {
		if IsNotFound(err) {
			return fail(c, http.StatusNotFound, err.Error(), nil)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, impact)
}

// resolveTenant prefers an explicit tenant_id in the body, else the tenant
// bound to the request context.
func (h *Handler) resolveTenant(c echo.Context, explicit string) (uuid.UUID, error) {
	if explicit != "" {
		return uuid.Parse(explicit)
	}
	id := db.TenantFromContext(c.Request().Context())
	if id == uuid.Nil {
		return uuid.Nil, errors.New("tenant_id is required")
	}
	return id, nil
}
