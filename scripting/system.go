package scripting

import (
	"fmt"
	"strings"

	"github.com/oliverbestmann/cadence"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

// System runs lua scripts in a world. Scripts added using Load are run again
// whenever the system is initialized, each time in a fresh VM.
type System struct {
	world   *cadence.World
	engine  *Engine
	scripts []script
}

func (s *System) Initialize(world *cadence.World) {
	s.world = world
	s.engine = NewEngine(world, world.Logger().Named("lua"))

	for _, script := range s.scripts {
		if err := s.engine.LoadString(script.name, script.source); err != nil {
			s.engine.log.Error("reload lua script failed", zap.String("script", script.name), zap.Error(err))
		}
	}

	world.On(cadence.PhaseVariable, s, func(dt float64) { s.engine.CallHook("on_variable", dt) })
	world.On(cadence.PhaseFixed, s, func(dt float64) { s.engine.CallHook("on_fixed", dt) })
	world.On(cadence.PhaseEndOfTick, s, func(dt float64) { s.engine.CallHook("on_end_of_tick", dt) })
}

func (s *System) Retire() {
	s.engine.Close()
	s.engine = nil
	s.world = nil
}

// LoadString runs the source in the engine of the active system and keeps it for re-initialization.
// While the system is retired, the source is only checked for syntax errors and runs
// once the system is initialized again.
func (s *System) LoadString(name, source string) error {
	if s.engine == nil {
		if _, err := parse.Parse(strings.NewReader(source), name); err != nil {
			return fmt.Errorf("parse script %s: %w", name, err)
		}
	} else if err := s.engine.LoadString(name, source); err != nil {
		return err
	}

	s.scripts = append(s.scripts, script{name: name, source: source})
	return nil
}

// LoadFiles loads the given script files in order.
func (s *System) LoadFiles(paths ...string) error {
	for _, path := range paths {
		source, err := readScript(path)
		if err != nil {
			return err
		}

		if err := s.LoadString(source.name, source.source); err != nil {
			return err
		}
	}

	return nil
}

// Engine returns the engine of the active system, or nil while the system is retired.
func (s *System) Engine() *Engine {
	return s.engine
}
