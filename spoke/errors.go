package spoke

import (
	"errors"
	"fmt"
)

// ErrManagerClosed is raised when a closed Manager is used.
var ErrManagerClosed = errors.New("component manager is closed")

// ComponentNotFoundError is raised when a component of an entity is accessed
// without having been attached before.
type ComponentNotFoundError struct {
	Entity EntityId
	Type   *ComponentType
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component %s is not attached to entity %s", e.Type, e.Entity)
}
