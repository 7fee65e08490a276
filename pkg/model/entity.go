package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// Entity is implemented by every stored entity type.
type Entity interface {
	GetID() string
}

// Entity type names used in audit entries and change request items.
const (
	EntityTypeEnvironment   = "Environment"
	EntityTypeService       = "Service"
	EntityTypeRoute         = "Route"
	EntityTypeChangeRequest = "ChangeRequest"
)

// NewID returns a fresh 32 character lowercase hex identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Index returns the position of the entity with the given id, or -1.
func Index[T Entity](items []T, id string) int {
	for i, item := range items {
		if item.GetID() == id {
			return i
		}
	}
	return -1
}

// Find returns the entity with the given id.
func Find[T Entity](items []T, id string) (T, bool) {
	if i := Index(items, id); i >= 0 {
		return items[i], true
	}
	var zero T
	return zero, false
}
