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

// CustomerHandler coordinates customer-related HTTP handlers.
type CustomerHandler struct {
	customerService *services.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerService *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CreateCustomer creates a new customer.
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateCustomerRequest struct {
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone"`
	}

	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	customer, err := h.customerService.CreateCustomer(principal, services.CreateCustomerInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondCustomerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCustomerDTO(*customer))
}

// GetCustomer returns a customer by id.
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid customer ID")
		return
	}

	customer, err := h.customerService.GetCustomer(id)
	if err != nil {
		respondCustomerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCustomerDTO(*customer))
}

// UpdateCustomer updates a customer and cascades the search-text refresh
// to every task referencing it.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid customer ID")
		return
	}

	type UpdateCustomerRequest struct {
		Name  *string `json:"name"`
		Phone *string `json:"phone"`
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	customer, err := h.customerService.UpdateCustomer(principal, id, services.UpdateCustomerInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondCustomerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCustomerDTO(*customer))
}

func respondCustomerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCustomerNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c, "")
	case errors.Is(err, services.ErrCustomerNameRequired):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}
