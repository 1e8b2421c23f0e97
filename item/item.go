// Package item holds the example domain entity and its storage layer. It is
// the data the database tools introspect and the HTTP tools exercise.
package item

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no item exists for the requested id.
var ErrNotFound = errors.New("item not found")

const (
	maxNameLength        = 255
	maxDescriptionLength = 1000
)

// Item is one catalogue entry.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput carries the fields needed to create an item.
type CreateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	IsAvailable bool    `json:"is_available"`
}

// Validate checks field constraints on a create request.
func (in CreateInput) Validate() error {
	if in.Name == "" {
		return errors.New("name must not be empty")
	}
	if len(in.Name) > maxNameLength {
		return fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	if in.Description != nil && len(*in.Description) > maxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", maxDescriptionLength)
	}
	if in.Price < 0 {
		return errors.New("price must be non-negative")
	}
	return nil
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	IsAvailable *bool    `json:"is_available"`
}

// Validate checks field constraints on the fields present in an update.
func (in UpdateInput) Validate() error {
	if in.Name != nil {
		if *in.Name == "" {
			return errors.New("name must not be empty")
		}
		if len(*in.Name) > maxNameLength {
			return fmt.Errorf("name must be at most %d characters", maxNameLength)
		}
	}
	if in.Description != nil && len(*in.Description) > maxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", maxDescriptionLength)
	}
	if in.Price != nil && *in.Price < 0 {
		return errors.New("price must be non-negative")
	}
	return nil
}

// apply copies the set fields onto an item and bumps its update time.
func (in UpdateInput) apply(it *Item) {
	if in.Name != nil {
		it.Name = *in.Name
	}
	if in.Description != nil {
		it.Description = in.Description
	}
	if in.Price != nil {
		it.Price = *in.Price
	}
	if in.IsAvailable != nil {
		it.IsAvailable = *in.IsAvailable
	}
	it.UpdatedAt = time.Now().UTC()
}

// Repository is the storage contract for items.
type Repository interface {
	// List returns items in creation order, skipping offset and returning at
	// most limit entries.
	List(ctx context.Context, offset, limit int) ([]Item, error)
	Create(ctx context.Context, in CreateInput) (*Item, error)
	// Get returns ErrNotFound when the id does not exist; likewise Update
	// and Delete.
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Item, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
