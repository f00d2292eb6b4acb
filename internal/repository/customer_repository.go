package repository

import (
	"gorm.io/gorm"

	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/searchtext"
)

// GormCustomerRepository is a GORM implementation of CustomerRepository.
type GormCustomerRepository struct {
	db      *gorm.DB
	builder *searchtext.Builder
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(db *gorm.DB, builder *searchtext.Builder) CustomerRepository {
	return &GormCustomerRepository{db: db, builder: builder}
}

// Create persists a customer with its derived search text.
func (r *GormCustomerRepository) Create(customer *models.Customer) error {
	customer.SearchText = r.builder.CustomerText(customer)
	return r.db.Create(customer).Error
}

// FindByID finds a customer by id.
func (r *GormCustomerRepository) FindByID(id uint64) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// Update persists a customer and recomputes its search text.
func (r *GormCustomerRepository) Update(customer *models.Customer) error {
	customer.SearchText = r.builder.CustomerText(customer)
	return r.db.Save(customer).Error
}
