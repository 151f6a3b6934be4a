package handler

import (
	"net/http"

	"invoice-backend/internal/middleware"
	"invoice-backend/internal/service"
	"invoice-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PreferenceHandler struct {
	preferenceService service.PreferenceService
}

func NewPreferenceHandler(preferenceService service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferenceService: preferenceService}
}

func (h *PreferenceHandler) RegisterRoutes(router *gin.RouterGroup) {
	prefs := router.Group("/api/preferences")
	prefs.Use(middleware.RequireAuth())
	{
		prefs.GET("", h.GetPreferences)
		prefs.PUT("", h.UpdatePreferences)
	}
}

// GetPreferences returns the caller's invoice form defaults
// @Summary      Get preferences
// @Description  Retrieves the caller's saved form defaults, seeding them on first read
// @Tags         preferences
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.PreferenceResponse}
// @Router       /api/preferences [get]
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	prefs, err := h.preferenceService.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, prefs))
}

// UpdatePreferences saves the caller's invoice form defaults
// @Summary      Update preferences
// @Description  Saves business identity, logo and the default discount/tax/payment values
// @Tags         preferences
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PreferenceRequest  true  "Preferences Payload"
// @Success      200      {object}  response.Response{data=service.PreferenceResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/preferences [put]
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	prefs, fields, err := h.preferenceService.UpdatePreferences(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	if len(fields) > 0 {
		c.JSON(http.StatusUnprocessableEntity, response.Invalid(http.StatusUnprocessableEntity, fields))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, prefs))
}
