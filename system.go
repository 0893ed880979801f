package cadence

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// System is a unit of logic living in a World. At most one instance per
// system type exists in a world.
//
// Initialize is called when the system becomes active. It typically captures the
// world and registers phase listeners using World.On. Retire is called when the
// system is removed. Listeners registered with World.On using the system as owner
// are cancelled automatically after Retire returns. A retired system can be
// initialized again.
type System interface {
	Initialize(world *World)
	Retire()
}

type SystemState uint8

const (
	SystemUninitialized SystemState = iota
	SystemActive
	SystemRetired
)

func (s SystemState) String() string {
	switch s {
	case SystemUninitialized:
		return "Uninitialized"
	case SystemActive:
		return "Active"
	case SystemRetired:
		return "Retired"
	default:
		return fmt.Sprintf("SystemState(%d)", uint8(s))
	}
}

type systemEntry struct {
	system System
	state  SystemState

	// sequence number of the last activation, used to retire in reverse order
	activation uint64
}

// systemKeyOf returns the type a system is registered by. Systems with pointer
// receivers are registered by their element type.
func systemKeyOf(system System) reflect.Type {
	ty := reflect.TypeOf(system)
	if ty != nil && ty.Kind() == reflect.Pointer {
		return ty.Elem()
	}

	return ty
}

func systemName(ty reflect.Type) string {
	if ty == nil {
		return "(anonymous)"
	}

	return ty.String()
}

// AddSystem activates the system of type T in the world. If the world already
// holds an instance of T, that instance is reused. An active system is returned
// as is, an uninitialized or retired system is initialized.
func AddSystem[T any, P interface {
	*T
	System
}](w *World) P {
	w.ensureOpen()

	key := reflect.TypeFor[T]()

	entry, ok := w.systems[key]
	if !ok {
		entry = &systemEntry{system: P(new(T))}
		w.systems[key] = entry
	}

	if entry.state != SystemActive {
		w.activationSeq++

		entry.state = SystemActive
		entry.activation = w.activationSeq

		w.log.Debug("Initialize system", zap.Stringer("system", key))
		entry.system.Initialize(w)
	}

	return entry.system.(P)
}

// RemoveSystem retires the system of type T and reports whether it was active.
// The instance is kept for a later AddSystem.
func RemoveSystem[T any](w *World) bool {
	w.ensureOpen()

	entry, ok := w.systems[reflect.TypeFor[T]()]
	if !ok || entry.state != SystemActive {
		return false
	}

	w.retireSystem(reflect.TypeFor[T](), entry)
	return true
}

// SystemOf returns the instance of T held by the world, active or not.
func SystemOf[T any, P interface {
	*T
	System
}](w *World) (P, bool) {
	entry, ok := w.systems[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}

	return entry.system.(P), true
}

// StateOf returns the lifecycle state of the system of type T.
func StateOf[T any](w *World) SystemState {
	entry, ok := w.systems[reflect.TypeFor[T]()]
	if !ok {
		return SystemUninitialized
	}

	return entry.state
}

func (w *World) retireSystem(key reflect.Type, entry *systemEntry) {
	w.log.Debug("Retire system", zap.Stringer("system", key))

	entry.system.Retire()
	entry.state = SystemRetired

	for _, stage := range w.stages {
		if stage != nil {
			stage.RemoveOwner(key)
		}
	}
}
