package handlers

import (
	"net/http"

	"github.com/arman306/storyloop/backend/internal/middleware"
	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/arman306/storyloop/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	storyService      *services.StoryService
	engagementService *services.EngagementService
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(storyService *services.StoryService, engagementService *services.EngagementService) *StoryHandler {
	return &StoryHandler{
		storyService:      storyService,
		engagementService: engagementService,
	}
}

// RegisterStoryRoutes registers story-related routes
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.GET("/stories", h.GetStories)
	g.GET("/users/:user_id/stories", h.GetUserStories)
	g.POST("/stories", h.CreateStory)
	g.DELETE("/stories/:id", h.DeleteStory)
	g.POST("/stories/:id/view", h.RecordView)
	g.POST("/stories/:id/like", h.ToggleLike)
}

// GetStories returns all active stories, the current user's own story group
// split out the way story trays render it
func (h *StoryHandler) GetStories(c echo.Context) error {
	identity, _ := middleware.IdentityFromContext(c)

	stories, err := h.storyService.GetActiveStories(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	var ownStories []models.Story
	otherStories := make([]models.Story, 0, len(stories))
	for _, s := range stories {
		if s.OwnerID == identity.UserID {
			ownStories = append(ownStories, s)
			continue
		}
		otherStories = append(otherStories, s)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"stories":     otherStories,
			"own_stories": ownStories,
		},
	})
}

// GetUserStories returns one owner's active stories
func (h *StoryHandler) GetUserStories(c echo.Context) error {
	stories, err := h.storyService.GetUserStories(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"stories": stories}})
}

// CreateStory uploads a new story from a multipart form
func (h *StoryHandler) CreateStory(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateStoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fileHeader, err := c.FormFile("media")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Media file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read media file")
	}
	defer file.Close()

	story, err := h.storyService.CreateStory(c.Request().Context(), identity, services.CreateStoryInput{
		MediaType: req.MediaType,
		Caption:   req.Caption,
		FileName:  fileHeader.Filename,
		Size:      fileHeader.Size,
		Content:   file,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"story": story}})
}

// DeleteStory removes the caller's own story
func (h *StoryHandler) DeleteStory(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.storyService.DeleteStory(c.Request().Context(), c.Param("id"), identity.UserID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RecordView marks a story viewed by the caller; repeat views are no-ops
func (h *StoryHandler) RecordView(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.engagementService.RecordView(c.Request().Context(), c.Param("id"), identity.UserID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ToggleLike flips the caller's like on a story
func (h *StoryHandler) ToggleLike(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	liked, err := h.engagementService.ToggleLike(c.Request().Context(), c.Param("id"), identity)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"liked": liked}})
}
