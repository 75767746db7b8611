package handler

import (
	"net/http"

	"github.com/dealerhub/dealerhub/internal/api/response"
	"github.com/gin-gonic/gin"
)

// GetCars lists every car model with its make.
func (h *Handler) GetCars(c *gin.Context) {
	cars, err := h.cars.ListCars(c.Request.Context())
	if err != nil {
		response.Internal(c, "Failed to list cars", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"CarModels": cars})
}
