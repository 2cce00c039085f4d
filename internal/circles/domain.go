// internal/circles/domain.go
package circles

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("circle not found")
	ErrConflict  = errors.New("circle name already taken")
	ErrForbidden = errors.New("operation not permitted for role")
)

// Circle is a local organizational unit. Names are unique across the whole
// organization, not per region.
type Circle struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Region string    `json:"region"`
}

// CirclePatch carries partial updates; nil fields keep their current value.
type CirclePatch struct {
	Name   *string `json:"name"`
	Region *string `json:"region"`
}
