package searchtext

import (
	"strconv"
	"strings"

	"github.com/hqvuong/work-order-api/internal/models"
)

// Builder assembles the derived search-text columns. Fields are normalized
// independently and joined with a single space; fields that normalize to
// nothing are skipped.
type Builder struct {
	normalizer *Normalizer
}

func NewBuilder(normalizer *Normalizer) *Builder {
	return &Builder{normalizer: normalizer}
}

// TaskText builds the search text for a task together with its related
// customer and location, either of which may be nil. The task id always
// comes first so that every task is findable by its identifier.
func (b *Builder) TaskText(task *models.Task, customer *models.Customer, location *models.Location) string {
	parts := []string{
		strconv.FormatUint(task.ID, 10),
		task.Title,
		task.Description,
	}
	if customer != nil {
		parts = append(parts, customer.Name, customer.Phone)
	}
	if location != nil {
		parts = append(parts, location.Address, location.Name)
	}
	return b.join(parts)
}

// CustomerText builds the search text for a customer.
func (b *Builder) CustomerText(customer *models.Customer) string {
	return b.join([]string{customer.Name, customer.Phone})
}

// LocationText builds the search text for a location.
func (b *Builder) LocationText(location *models.Location) string {
	return b.join([]string{location.Address, location.Name})
}

func (b *Builder) join(parts []string) string {
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		// A part can normalize to nothing (bare combining marks); keeping
		// it would put a double space into the stored text.
		part = b.normalizer.Normalize(part)
		if part == "" {
			continue
		}
		normalized = append(normalized, part)
	}
	return strings.Join(normalized, " ")
}
