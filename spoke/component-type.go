package spoke

import (
	"maps"
	"math"
	"reflect"
	"sync/atomic"

	"go.uber.org/zap"
)

// TypeId is the numeric tag of a component type. Tags are handed out in
// registration order starting at 1 and stay stable for the lifetime of the process.
type TypeId uint16

// NoType is never assigned to a component type.
const NoType TypeId = 0

type ComponentType struct {
	Id   TypeId
	Name string
	Type reflect.Type
}

func (c *ComponentType) String() string {
	return c.Name
}

var componentTypes atomic.Pointer[map[reflect.Type]*ComponentType]

func init() {
	componentTypes.Store(&map[reflect.Type]*ComponentType{})
}

// ComponentTypeOf returns the registered type information of C,
// registering C on first use.
func ComponentTypeOf[C any]() *ComponentType {
	reflectType := reflect.TypeFor[C]()

	if cached, ok := (*componentTypes.Load())[reflectType]; ok {
		return cached
	}

	return ensureComponentType(reflectType)
}

// TypeIdOf returns the numeric tag of C.
func TypeIdOf[C any]() TypeId {
	return ComponentTypeOf[C]().Id
}

// RegisteredTypes returns the number of component types registered so far.
func RegisteredTypes() int {
	return len(*componentTypes.Load())
}

func ensureComponentType(reflectType reflect.Type) *ComponentType {
	for {
		previousTypes := componentTypes.Load()
		if cached, ok := (*previousTypes)[reflectType]; ok {
			return cached
		}

		if len(*previousTypes) >= math.MaxUint16 {
			panic("too many component types registered")
		}

		newType := &ComponentType{
			Id:   TypeId(len(*previousTypes) + 1),
			Name: reflectType.String(),
			Type: reflectType,
		}

		newTypes := maps.Clone(*previousTypes)
		newTypes[reflectType] = newType

		if componentTypes.CompareAndSwap(previousTypes, &newTypes) {
			zap.L().Debug("New component type registered",
				zap.String("name", newType.Name),
				zap.Uint16("id", uint16(newType.Id)),
			)

			return newType
		}
	}
}
