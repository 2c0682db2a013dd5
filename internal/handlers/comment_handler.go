package handlers

import (
	"net/http"
	"strconv"

	"github.com/arman306/storyloop/backend/internal/middleware"
	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/arman306/storyloop/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to story comments
type CommentHandler struct {
	engagementService *services.EngagementService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(engagementService *services.EngagementService) *CommentHandler {
	return &CommentHandler{engagementService: engagementService}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/stories/:story_id/comments", h.CreateComment)
	g.GET("/stories/:story_id/comments", h.GetCommentsByStoryID)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment appends a new comment to a story
func (h *CommentHandler) CreateComment(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.engagementService.AddComment(c.Request().Context(), c.Param("story_id"), identity, req.Text)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"comment": comment}})
}

// GetCommentsByStoryID lists a story's comments, oldest first
func (h *CommentHandler) GetCommentsByStoryID(c echo.Context) error {
	comments, err := h.engagementService.ListComments(c.Request().Context(), c.Param("story_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"comments": comments}})
}

// DeleteComment removes the caller's own comment
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	if err := h.engagementService.DeleteComment(c.Request().Context(), uint(commentID), identity.UserID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
