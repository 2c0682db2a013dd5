package handlers

import (
	"net/http"

	"github.com/arman306/storyloop/backend/internal/middleware"
	"github.com/arman306/storyloop/backend/internal/models"
	"github.com/arman306/storyloop/backend/internal/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// DeviceHandler registers device tokens for push notifications
type DeviceHandler struct {
	deviceTokenRepository repositories.DeviceTokenRepository
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(deviceTokenRepo repositories.DeviceTokenRepository) *DeviceHandler {
	return &DeviceHandler{deviceTokenRepository: deviceTokenRepo}
}

// RegisterDeviceRoutes registers device-related routes
func (h *DeviceHandler) RegisterDeviceRoutes(g *echo.Group) {
	g.POST("/devices", h.RegisterDevice)
}

// RegisterDevice saves the caller's FCM device token
func (h *DeviceHandler) RegisterDevice(c echo.Context) error {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.RegisterDeviceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.deviceTokenRepository.SaveToken(identity.UserID, req.Token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}
