package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/tenant-onboarding/internal/identity"
	"github.com/suteetoe/tenant-onboarding/internal/onboarding"
	"github.com/suteetoe/tenant-onboarding/internal/repository"
	"github.com/suteetoe/tenant-onboarding/pkg/logger"
	"go.uber.org/zap"
)

// TenantHandler serves registration and tenant lookups
type TenantHandler struct {
	orchestrator *onboarding.Orchestrator
	tenants      *repository.TenantStore
}

func NewTenantHandler(orchestrator *onboarding.Orchestrator, tenants *repository.TenantStore) *TenantHandler {
	return &TenantHandler{orchestrator: orchestrator, tenants: tenants}
}

// Register handles POST /registration
func (h *TenantHandler) Register(c echo.Context) error {
	log := logger.FromEcho(c)

	var req onboarding.RegisterRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse registration request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tenantID, err := h.orchestrator.Register(c.Request().Context(), req)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":   "Tenant registered",
		"tenant_id": tenantID,
	})
}

// GetTenant handles GET /tenants/:id
func (h *TenantHandler) GetTenant(c echo.Context) error {
	tenant, err := h.tenants.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}

	placement := identity.PlacementFor(tenant.Plan, tenant.CompanyName)
	return c.JSON(http.StatusOK, echo.Map{
		"tenant_id":    tenant.TenantID,
		"email":        tenant.Email,
		"plan":         tenant.Plan,
		"company_name": tenant.CompanyName,
		"routing_path": placement.RoutingPath,
		"isolation":    placement.Isolation,
	})
}
