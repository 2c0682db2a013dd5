package handlers

import (
	"net/http"

	"github.com/arman306/storyloop/backend/internal/identity"
	"github.com/arman306/storyloop/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PublicHandler serves the unauthenticated share-link view of a story
type PublicHandler struct {
	storyService      *services.StoryService
	engagementService *services.EngagementService
	viewerIdentity    *identity.ViewerIdentity
	log               *zap.Logger
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(
	storyService *services.StoryService,
	engagementService *services.EngagementService,
	viewerIdentity *identity.ViewerIdentity,
	log *zap.Logger,
) *PublicHandler {
	return &PublicHandler{
		storyService:      storyService,
		engagementService: engagementService,
		viewerIdentity:    viewerIdentity,
		log:               log,
	}
}

// RegisterPublicRoutes registers the share-link route on the root router
func (h *PublicHandler) RegisterPublicRoutes(e *echo.Echo) {
	e.GET("/story/:id", h.GetSharedStory)
}

// GetSharedStory resolves a public link to a single readable story. Anonymous
// viewers carrying a device token get a durable viewer id so their repeat
// views deduplicate like authenticated ones.
func (h *PublicHandler) GetSharedStory(c echo.Context) error {
	story, err := h.storyService.GetStoryByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	if !story.SharingEnabled {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}

	if deviceToken := c.Request().Header.Get("X-Device-Token"); deviceToken != "" {
		viewerID, err := h.viewerIdentity.ViewerID(c.Request().Context(), deviceToken)
		if err != nil {
			h.log.Warn("failed to resolve anonymous viewer id", zap.Error(err))
		} else if viewerID != story.OwnerID {
			if err := h.engagementService.RecordView(c.Request().Context(), story.ID, viewerID); err != nil {
				h.log.Warn("failed to record anonymous view",
					zap.String("story_id", story.ID), zap.Error(err))
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"story": story}})
}
