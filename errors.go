package cadence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oliverbestmann/cadence/spoke"
)

// ErrWorldClosed is raised when a world is used after Close.
var ErrWorldClosed = errors.New("world is closed")

// OwnershipError is raised when an entity id is moved between owners
// in a way that would give it two owners or none.
type OwnershipError struct {
	Entity spoke.EntityId
	Reason string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("entity %s: %s", e.Entity, e.Reason)
}

// OrderingError is raised when the ordering constraints of a phase contradict each other.
type OrderingError struct {
	Phase  Phase
	Owners []string
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("cycle detected in phase %s between %s", e.Phase, strings.Join(e.Owners, ", "))
}
