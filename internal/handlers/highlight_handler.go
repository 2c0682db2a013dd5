package handlers

import (
	"net/http"

	"github.com/arman306/storyloop/backend/internal/middleware"
	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/arman306/storyloop/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// HighlightHandler handles HTTP requests related to highlight albums
type HighlightHandler struct {
	highlightService *services.HighlightService
}

// NewHighlightHandler creates a new HighlightHandler
func NewHighlightHandler(highlightService *services.HighlightService) *HighlightHandler {
	return &HighlightHandler{highlightService: highlightService}
}

// RegisterHighlightRoutes registers highlight-related routes
func (h *HighlightHandler) RegisterHighlightRoutes(g *echo.Group) {
	g.POST("/highlights", h.CreateHighlight)
	g.GET("/users/:user_id/highlights", h.GetUserHighlights)
	g.POST("/highlights/:id/stories/:story_id", h.AddStory)
	g.DELETE("/highlights/:id/stories/:story_id", h.RemoveStory)
	g.DELETE("/highlights/:id", h.DeleteHighlight)
}

// CreateHighlight creates a new empty highlight album
func (h *HighlightHandler) CreateHighlight(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateHighlightRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	highlight, err := h.highlightService.CreateHighlight(c.Request().Context(), identity.UserID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"highlight": highlight}})
}

// GetUserHighlights lists a user's highlight albums
func (h *HighlightHandler) GetUserHighlights(c echo.Context) error {
	highlights, err := h.highlightService.GetHighlightsByOwner(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"highlights": highlights}})
}

// AddStory pins a story into an album, exempting it from expiration
func (h *HighlightHandler) AddStory(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.highlightService.AddStory(c.Request().Context(), c.Param("id"), c.Param("story_id"), identity.UserID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// RemoveStory unpins a story from an album
func (h *HighlightHandler) RemoveStory(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.highlightService.RemoveStory(c.Request().Context(), c.Param("id"), c.Param("story_id"), identity.UserID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeleteHighlight removes an album and releases its stories back to normal
// expiration
func (h *HighlightHandler) DeleteHighlight(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.highlightService.DeleteHighlight(c.Request().Context(), c.Param("id"), identity.UserID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
