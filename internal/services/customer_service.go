package services

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/repository"
)

var ErrCustomerNameRequired = errors.New("customer name is required")

// CustomerService handles customer business logic, including the cascading
// refresh of task search text after a customer edit.
type CustomerService struct {
	customerRepo repository.CustomerRepository
	taskRepo     repository.TaskRepository
	cfg          SearchConfig
	log          *zap.Logger
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(
	customerRepo repository.CustomerRepository,
	taskRepo repository.TaskRepository,
	cfg SearchConfig,
	log *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		taskRepo:     taskRepo,
		cfg:          cfg,
		log:          log,
	}
}

// CreateCustomerInput represents input for creating a customer.
type CreateCustomerInput struct {
	Name  string
	Phone string
}

// CreateCustomer creates a customer. Admin only.
func (s *CustomerService) CreateCustomer(p Principal, input CreateCustomerInput) (*models.Customer, error) {
	if !p.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrCustomerNameRequired
	}

	customer := &models.Customer{
		Name:  input.Name,
		Phone: input.Phone,
	}
	if err := s.customerRepo.Create(customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

// GetCustomer returns a customer by id.
func (s *CustomerService) GetCustomer(id uint64) (*models.Customer, error) {
	customer, err := s.customerRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return customer, nil
}

// UpdateCustomerInput represents input for updating a customer. Nil fields
// are left unchanged.
type UpdateCustomerInput struct {
	Name  *string
	Phone *string
}

// UpdateCustomer updates a customer and refreshes the search text of every
// task referencing it, so that a renamed customer is immediately findable
// under the new name. Admin only.
func (s *CustomerService) UpdateCustomer(p Principal, id uint64, input UpdateCustomerInput) (*models.Customer, error) {
	if !p.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	customer, err := s.GetCustomer(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrCustomerNameRequired
		}
		customer.Name = *input.Name
	}
	if input.Phone != nil {
		customer.Phone = *input.Phone
	}

	if err := s.customerRepo.Update(customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	s.refreshReferencingTasks(id)

	return customer, nil
}

// refreshReferencingTasks runs the cascading search-text refresh with a
// bounded retry. On exhaustion the affected tasks keep their previous,
// internally consistent search text; the failure goes to operational
// logging, never to the caller.
func (s *CustomerService) refreshReferencingTasks(customerID uint64) {
	var err error
	for attempt := 1; attempt <= s.cfg.RefreshRetries; attempt++ {
		err = s.taskRepo.RefreshSearchTextByCustomer(customerID, s.cfg.RefreshBatchSize)
		if err == nil {
			return
		}
		s.log.Warn("task search text refresh failed",
			zap.Error(err),
			zap.Uint64("customer_id", customerID),
			zap.Int("attempt", attempt),
		)
	}
	s.log.Error("task search text refresh exhausted retries, search results may be stale",
		zap.Error(err),
		zap.Uint64("customer_id", customerID),
	)
}
