package dto

import (
	"time"

	"github.com/hqvuong/work-order-api/internal/models"
)

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID       uint64          `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

// CustomerDTO represents a customer in API responses.
type CustomerDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// LocationDTO represents a location in API responses.
type LocationDTO struct {
	ID      uint64   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// TaskDTO represents a task in API responses.
type TaskDTO struct {
	ID          uint64            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	CustomerID  *uint64           `json:"customer_id"`
	LocationID  *uint64           `json:"location_id"`
	ScheduledAt *time.Time        `json:"scheduled_at"`
	CompletedAt *time.Time        `json:"completed_at"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Customer    *CustomerDTO      `json:"customer,omitempty"`
	Location    *LocationDTO      `json:"location,omitempty"`
	AssigneeIDs []uint64          `json:"assignee_ids,omitempty"`
}

// TaskSearchResponse is one page of search results.
type TaskSearchResponse struct {
	Tasks       []TaskDTO `json:"tasks"`
	NextCursor  *string   `json:"next_cursor"`
	HasNextPage bool      `json:"has_next_page"`
}

// ToUserDTO converts a User model to UserDTO.
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
}

// ToCustomerDTO converts a Customer model to CustomerDTO.
func ToCustomerDTO(customer models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:    customer.ID,
		Name:  customer.Name,
		Phone: customer.Phone,
	}
}

// ToLocationDTO converts a Location model to LocationDTO.
func ToLocationDTO(location models.Location) LocationDTO {
	return LocationDTO{
		ID:      location.ID,
		Name:    location.Name,
		Address: location.Address,
		Lat:     location.Lat,
		Lng:     location.Lng,
	}
}

// ToTaskDTO converts a Task model to TaskDTO.
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		CustomerID:  task.CustomerID,
		LocationID:  task.LocationID,
		ScheduledAt: task.ScheduledAt,
		CompletedAt: task.CompletedAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	if task.Customer != nil {
		customer := ToCustomerDTO(*task.Customer)
		dto.Customer = &customer
	}
	if task.Location != nil {
		location := ToLocationDTO(*task.Location)
		dto.Location = &location
	}
	if len(task.Assignments) > 0 {
		dto.AssigneeIDs = make([]uint64, len(task.Assignments))
		for i, a := range task.Assignments {
			dto.AssigneeIDs[i] = a.UserID
		}
	}

	return dto
}

// ToTaskSearchResponse converts a result page to the wire shape.
func ToTaskSearchResponse(tasks []models.Task, nextCursor string, hasNextPage bool) TaskSearchResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	resp := TaskSearchResponse{
		Tasks:       items,
		HasNextPage: hasNextPage,
	}
	if hasNextPage {
		resp.NextCursor = &nextCursor
	}
	return resp
}
