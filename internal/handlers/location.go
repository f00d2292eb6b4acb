package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hqvuong/work-order-api/internal/dto"
	apierrors "github.com/hqvuong/work-order-api/internal/errors"
	"github.com/hqvuong/work-order-api/internal/middleware"
	"github.com/hqvuong/work-order-api/internal/services"
)

// LocationHandler coordinates location-related HTTP handlers.
type LocationHandler struct {
	locationService *services.LocationService
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locationService *services.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// CreateLocation creates a new location.
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateLocationRequest struct {
		Name    string   `json:"name"`
		Address string   `json:"address" binding:"required"`
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
	}

	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	location, err := h.locationService.CreateLocation(principal, services.CreateLocationInput{
		Name:    req.Name,
		Address: req.Address,
		Lat:     req.Lat,
		Lng:     req.Lng,
	})
	if err != nil {
		respondLocationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToLocationDTO(*location))
}

// GetLocation returns a location by id.
func (h *LocationHandler) GetLocation(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid location ID")
		return
	}

	location, err := h.locationService.GetLocation(id)
	if err != nil {
		respondLocationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationDTO(*location))
}

// UpdateLocation updates a location and cascades the search-text refresh
// to every task referencing it.
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid location ID")
		return
	}

	type UpdateLocationRequest struct {
		Name    *string  `json:"name"`
		Address *string  `json:"address"`
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	location, err := h.locationService.UpdateLocation(principal, id, services.UpdateLocationInput{
		Name:    req.Name,
		Address: req.Address,
		Lat:     req.Lat,
		Lng:     req.Lng,
	})
	if err != nil {
		respondLocationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationDTO(*location))
}

func respondLocationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLocationNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c, "")
	case errors.Is(err, services.ErrLocationAddressRequired):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
