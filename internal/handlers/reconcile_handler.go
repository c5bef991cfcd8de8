package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/socialsync/internal/models"
	"github.com/anonto42/nano-midea/socialsync/internal/repositories"
	"github.com/anonto42/nano-midea/socialsync/internal/services"
	"github.com/labstack/echo/v4"
)

const defaultDriftLimit = 50

// ReconcileHandler exposes counter reconciliation to operators
type ReconcileHandler struct {
	reconciler *services.Reconciler
	drifts     repositories.DriftRepository
}

// NewReconcileHandler creates a new ReconcileHandler. drifts may be nil when
// no drift log is configured.
func NewReconcileHandler(reconciler *services.Reconciler, drifts repositories.DriftRepository) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler, drifts: drifts}
}

// RegisterReconcileRoutes registers reconciliation routes
func (h *ReconcileHandler) RegisterReconcileRoutes(g *echo.Group) {
	g.POST("/reconcile/posts/:id", h.ReconcilePost)
	g.POST("/reconcile/users/:id", h.ReconcileUser)
	g.GET("/drifts", h.GetRecentDrifts)
}

func (h *ReconcileHandler) ReconcilePost(c echo.Context) error {
	drifts, err := h.reconciler.RecomputePost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"corrections": orEmpty(drifts)})
}

func (h *ReconcileHandler) ReconcileUser(c echo.Context) error {
	drifts, err := h.reconciler.RecomputeUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"corrections": orEmpty(drifts)})
}

// GetRecentDrifts lists the latest recorded corrections, ?limit= at most
func (h *ReconcileHandler) GetRecentDrifts(c echo.Context) error {
	if h.drifts == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Drift log is not configured")
	}

	limit := defaultDriftLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		limit = n
	}

	drifts, err := h.drifts.GetRecentDrifts(c.Request().Context(), limit)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, drifts)
}

func orEmpty(drifts []models.CounterDrift) []models.CounterDrift {
	if drifts == nil {
		return []models.CounterDrift{}
	}
	return drifts
}
