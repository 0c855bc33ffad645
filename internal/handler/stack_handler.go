package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/tenant-onboarding/internal/model"
	"github.com/suteetoe/tenant-onboarding/internal/pipeline"
	"github.com/suteetoe/tenant-onboarding/internal/repository"
	"github.com/suteetoe/tenant-onboarding/pkg/logger"
	"go.uber.org/zap"
)

// StackHandler exposes deployment tracking to pipeline stages
type StackHandler struct {
	mappings *repository.StackMappingStore
	bridge   *pipeline.Bridge
}

func NewStackHandler(mappings *repository.StackMappingStore, bridge *pipeline.Bridge) *StackHandler {
	return &StackHandler{mappings: mappings, bridge: bridge}
}

// ListTenantStacks handles GET /internal/tenant-stacks?status=
func (h *StackHandler) ListTenantStacks(c echo.Context) error {
	status := model.StatusProvisioning
	if s := c.QueryParam("status"); s != "" {
		parsed, err := model.ParseDeploymentStatus(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		status = parsed
	}

	rows, err := h.mappings.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rows, "count": len(rows)})
}

// UpdateStatus handles PUT /internal/tenant-stacks/:path/status
func (h *StackHandler) UpdateStatus(c echo.Context) error {
	log := logger.FromEcho(c)

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	status, err := model.ParseDeploymentStatus(req.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	m, err := h.mappings.UpdateStatus(c.Request().Context(), c.Param("path"), status)
	if err != nil {
		return errorJSON(c, err)
	}

	log.Info("Deployment status updated",
		zap.String("routing_path", m.TenantName),
		zap.String("status", string(m.DeploymentStatus)))
	return c.JSON(http.StatusOK, m)
}

// ResolveJob handles POST /internal/pipeline/jobs/:jobId/resolve. The body
// may name the tenant path; an empty body falls back to scanning.
func (h *StackHandler) ResolveJob(c echo.Context) error {
	var req struct {
		TenantPath string `json:"tenant_path"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	out := h.bridge.Run(c.Request().Context(), pipeline.Job{ID: c.Param("jobId"), TenantPath: req.TenantPath})
	return c.JSON(http.StatusOK, out)
}
