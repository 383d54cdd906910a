package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/wrtpod/wrtpod/internal/boundaries/in"
	"github.com/wrtpod/wrtpod/internal/boundaries/out"
	"github.com/wrtpod/wrtpod/internal/domain"
	"github.com/wrtpod/wrtpod/pkg/logger"
)

// Handler serves the JSON API against the input ports.
type Handler struct {
	updates  in.UpdateOrchestrator
	networks in.NetworkIntegrator
	podman   out.PodmanClient
	log      *logger.Logger
}

func NewHandler(updates in.UpdateOrchestrator, networks in.NetworkIntegrator, podman out.PodmanClient) *Handler {
	return &Handler{
		updates:  updates,
		networks: networks,
		podman:   podman,
		log:      logger.GetLogger(),
	}
}

// Register mounts all routes.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.health)

	api := e.Group("/api")
	api.GET("/updates/candidates", h.candidates)
	api.POST("/updates/check", h.checkUpdates)
	api.POST("/updates/apply", h.applyUpdates)

	api.POST("/pull", h.startPull)
	api.GET("/pull/:id", h.pullStatus)
	api.DELETE("/pull/:id", h.stopPull)

	api.GET("/networks/:name/integration", h.getIntegration)
	api.POST("/networks/:name/integration", h.createIntegration)
	api.DELETE("/networks/:name/integration", h.removeIntegration)
}

func (h *Handler) health(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.podman.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
	}

	version, err := h.podman.Version(ctx)
	if err != nil {
		version = "unknown"
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"podman": version,
	})
}

func (h *Handler) candidates(c echo.Context) error {
	candidates, err := h.updates.Candidates(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"candidates": candidates,
	})
}

type updateRequest struct {
	Containers []string `json:"containers"`
}

// selectCandidates resolves the request's container names against the
// live candidate list. An empty request selects every candidate.
func (h *Handler) selectCandidates(c echo.Context) ([]domain.AutoUpdateCandidate, error) {
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	candidates, err := h.updates.Candidates(c.Request().Context())
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if len(req.Containers) == 0 {
		return candidates, nil
	}

	wanted := map[string]bool{}
	for _, name := range req.Containers {
		wanted[name] = true
	}
	selected := []domain.AutoUpdateCandidate{}
	for _, candidate := range candidates {
		if wanted[candidate.Name] {
			selected = append(selected, candidate)
			delete(wanted, candidate.Name)
		}
	}
	for name := range wanted {
		return nil, echo.NewHTTPError(http.StatusNotFound, "no auto-update candidate named "+name)
	}
	return selected, nil
}

func (h *Handler) checkUpdates(c echo.Context) error {
	selected, err := h.selectCandidates(c)
	if err != nil {
		return err
	}

	results := h.updates.CheckForUpdates(c.Request().Context(), selected, nil)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

func (h *Handler) applyUpdates(c echo.Context) error {
	selected, err := h.selectCandidates(c)
	if err != nil {
		return err
	}

	result := h.updates.UpdateContainers(c.Request().Context(), selected, in.BatchHooks{})
	status := http.StatusOK
	if len(result.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	return c.JSON(status, result)
}

type pullRequest struct {
	Image string `json:"image"`
}

func (h *Handler) startPull(c echo.Context) error {
	var req pullRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Image == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "image is required")
	}

	sessionID, err := h.podman.PullStream(c.Request().Context(), req.Image)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"sessionId": sessionID,
	})
}

func (h *Handler) pullStatus(c echo.Context) error {
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
		offset = parsed
	}

	status, err := h.podman.PullStatus(c.Request().Context(), c.Param("id"), offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, status)
}

func (h *Handler) stopPull(c echo.Context) error {
	if err := h.podman.PullStop(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) getIntegration(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("name")

	state := h.networks.IsIntegrationComplete(ctx, name)
	integration := h.networks.GetIntegration(ctx, name)
	if integration == nil && !h.networks.HasIntegration(ctx, name) {
		return echo.NewHTTPError(http.StatusNotFound, "no integration for network "+name)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"state":       state,
		"integration": integration,
	})
}

func (h *Handler) createIntegration(c echo.Context) error {
	name := c.Param("name")

	var opts domain.IntegrationOptions
	if err := c.Bind(&opts); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	validation := h.networks.ValidateIntegration(c.Request().Context(), name, opts)
	if !validation.Valid {
		return c.JSON(http.StatusUnprocessableEntity, validation)
	}

	if err := h.networks.CreateIntegration(c.Request().Context(), name, opts); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]string{
		"network": name,
		"bridge":  opts.BridgeName,
	})
}

func (h *Handler) removeIntegration(c echo.Context) error {
	name := c.Param("name")
	bridge := c.QueryParam("bridge")
	if bridge == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "bridge query parameter is required")
	}

	if err := h.networks.RemoveIntegration(c.Request().Context(), name, bridge); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
