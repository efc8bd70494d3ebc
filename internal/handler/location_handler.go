package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/repository"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/utils"
)

// LocationHandler serves the location key registry.
type LocationHandler struct {
	locations repository.LocationStore
}

// NewLocationHandler constructs a LocationHandler.
func NewLocationHandler(locations repository.LocationStore) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// ListLocations returns every registered location key, ordered by key.
func (h *LocationHandler) ListLocations(c *gin.Context) {
	entries, err := h.locations.ListKeys(c.Request.Context())
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list locations")
		return
	}

	utils.Success(c, 200, "Locations retrieved successfully", gin.H{
		"locations": entries,
		"count":     len(entries),
	})
}
