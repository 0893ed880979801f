// Package scripting runs Lua scripts as part of a world. Scripts can define the
// global hooks on_variable(dt), on_fixed(dt) and on_end_of_tick(dt) and use the
// functions of the global "cadence" table to schedule callbacks and modify entities.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jakecoffman/cp/v2"
	"github.com/oliverbestmann/cadence"
	"github.com/oliverbestmann/cadence/components"
	"github.com/oliverbestmann/cadence/spoke"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to scripts as the global API_VERSION.
const APIVersion = 1

type script struct {
	name   string
	source string
}

// Engine wraps a single gopher-lua VM bound to a world.
// Single-goroutine access only.
type Engine struct {
	vm    *lua.LState
	world *cadence.World
	log   *zap.Logger

	// callbacks scheduled from lua, keyed by the handle returned to the script
	callbacks  map[int]cadence.CallbackId
	nextHandle int
}

func NewEngine(world *cadence.World, log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{
		vm:        vm,
		world:     world,
		log:       log,
		callbacks: map[int]cadence.CallbackId{},
	}

	e.registerAPI()

	return e
}

// Close cancels all callbacks scheduled by scripts and closes the VM.
func (e *Engine) Close() {
	callbacks := e.world.Callbacks()
	for _, id := range e.callbacks {
		callbacks.Cancel(id)
	}

	clear(e.callbacks)
	e.vm.Close()
}

// LoadString runs a chunk of lua source. The name is used in error messages.
func (e *Engine) LoadString(name, source string) error {
	fn, err := e.vm.Load(strings.NewReader(source), name)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}

	e.vm.Push(fn)
	if err := e.vm.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}

	e.log.Debug("loaded lua script", zap.String("script", name))
	return nil
}

func (e *Engine) LoadFile(path string) error {
	script, err := readScript(path)
	if err != nil {
		return err
	}

	return e.LoadString(script.name, script.source)
}

func readScript(path string) (script, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return script{}, fmt.Errorf("read script %s: %w", path, err)
	}

	return script{name: filepath.Base(path), source: string(source)}, nil
}

// CallHook calls the global lua function with the given name, if it exists.
func (e *Engine) CallHook(name string, dt float64) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return
	}

	err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(dt))
	if err != nil {
		e.log.Error("lua hook failed", zap.String("hook", name), zap.Error(err))
	}
}

// PendingCallbacks returns the number of callbacks scheduled by scripts that did not finish yet.
func (e *Engine) PendingCallbacks() int {
	callbacks := e.world.Callbacks()

	var pending int
	for handle, id := range e.callbacks {
		if callbacks.Scheduled(id) {
			pending++
		} else {
			delete(e.callbacks, handle)
		}
	}

	return pending
}

func (e *Engine) registerAPI() {
	api := e.vm.NewTable()

	functions := map[string]lua.LGFunction{
		"tick":                e.luaTick,
		"elapsed":             e.luaElapsed,
		"log":                 e.luaLog,
		"call_later_frames":   e.luaCallLaterFrames,
		"call_repeat_frames":  e.luaCallRepeatFrames,
		"call_later_seconds":  e.luaCallLaterSeconds,
		"call_repeat_seconds": e.luaCallRepeatSeconds,
		"cancel":              e.luaCancel,
		"spawn":               e.luaSpawn,
		"release":             e.luaRelease,
		"count":               e.luaCount,
		"name":                e.luaName,
		"set_name":            e.luaSetName,
		"position":            e.luaPosition,
		"set_position":        e.luaSetPosition,
	}

	for name, fn := range functions {
		e.vm.SetField(api, name, e.vm.NewFunction(fn))
	}

	e.vm.SetGlobal("cadence", api)
}

func (e *Engine) luaTick(L *lua.LState) int {
	L.Push(lua.LNumber(e.world.Scheduler().TickCount()))
	return 1
}

func (e *Engine) luaElapsed(L *lua.LState) int {
	L.Push(lua.LNumber(e.world.Scheduler().Elapsed()))
	return 1
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1))
	return 0
}

// invoker returns a go function calling the lua function, logging errors.
func (e *Engine) invoker(fn *lua.LFunction) func() {
	return func() {
		if err := e.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
			e.log.Error("lua callback failed", zap.Error(err))
		}
	}
}

func (e *Engine) pushHandle(L *lua.LState, id cadence.CallbackId) int {
	e.nextHandle++
	e.callbacks[e.nextHandle] = id

	L.Push(lua.LNumber(e.nextHandle))
	return 1
}

func (e *Engine) luaCallLaterFrames(L *lua.LState) int {
	frames := L.CheckInt(1)
	fn := L.CheckFunction(2)

	if frames < 0 {
		L.ArgError(1, "frames must not be negative")
	}

	id := e.world.Callbacks().CallLaterFrame(e.invoker(fn), uint64(frames))
	return e.pushHandle(L, id)
}

func (e *Engine) luaCallRepeatFrames(L *lua.LState) int {
	frames := L.CheckInt(1)
	repeat := L.CheckInt(2)
	fn := L.CheckFunction(3)

	if frames < 0 {
		L.ArgError(1, "frames must not be negative")
	}

	id := e.world.Callbacks().CallRepeatFrame(e.invoker(fn), uint64(frames), repeat)
	return e.pushHandle(L, id)
}

func (e *Engine) luaCallLaterSeconds(L *lua.LState) int {
	seconds := float64(L.CheckNumber(1))
	fn := L.CheckFunction(2)

	if seconds < 0 {
		L.ArgError(1, "seconds must not be negative")
	}

	id := e.world.Callbacks().CallLaterSeconds(e.invoker(fn), seconds)
	return e.pushHandle(L, id)
}

func (e *Engine) luaCallRepeatSeconds(L *lua.LState) int {
	seconds := float64(L.CheckNumber(1))
	repeat := L.CheckInt(2)
	fn := L.CheckFunction(3)

	if seconds < 0 {
		L.ArgError(1, "seconds must not be negative")
	}

	id := e.world.Callbacks().CallRepeatSeconds(e.invoker(fn), seconds, repeat)
	return e.pushHandle(L, id)
}

func (e *Engine) luaCancel(L *lua.LState) int {
	handle := L.CheckInt(1)

	id, ok := e.callbacks[handle]
	if ok {
		delete(e.callbacks, handle)
	}

	L.Push(lua.LBool(ok && e.world.Callbacks().Cancel(id)))
	return 1
}

func (e *Engine) luaSpawn(L *lua.LState) int {
	count := L.OptInt(1, 1)
	if count < 0 {
		L.ArgError(1, "count must not be negative")
	}

	entities := e.world.RequestEntities(count)

	result := L.NewTable()
	for _, entity := range entities {
		result.Append(lua.LNumber(entity))
	}

	L.Push(result)
	return 1
}

func (e *Engine) luaRelease(L *lua.LState) int {
	entity := e.checkEntity(L, 1)
	e.world.ReleaseEntities([]spoke.EntityId{entity})
	return 0
}

func (e *Engine) luaCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.world.Len()))
	return 1
}

func (e *Engine) luaName(L *lua.LState) int {
	entity := e.checkEntity(L, 1)

	name, _ := spoke.Lookup[components.EntityName](e.world.Components(), entity)
	L.Push(lua.LString(name.Name))
	return 1
}

func (e *Engine) luaSetName(L *lua.LState) int {
	entity := e.checkEntity(L, 1)
	name := components.Named(L.CheckString(2))

	m := e.world.Components()
	if spoke.Has[components.EntityName](m, entity) {
		spoke.Set(m, entity, name)
	} else {
		spoke.Attach(m, entity, name)
	}

	return 0
}

func (e *Engine) luaPosition(L *lua.LState) int {
	entity := e.checkEntity(L, 1)

	transform, ok := spoke.Lookup[components.Transform](e.world.Components(), entity)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}

	L.Push(lua.LNumber(transform.Position.X))
	L.Push(lua.LNumber(transform.Position.Y))
	return 2
}

func (e *Engine) luaSetPosition(L *lua.LState) int {
	entity := e.checkEntity(L, 1)
	position := cp.Vector{X: float64(L.CheckNumber(2)), Y: float64(L.CheckNumber(3))}

	m := e.world.Components()
	if transform, ok := spoke.Lookup[components.Transform](m, entity); ok {
		transform.Position = position
		spoke.Set(m, entity, transform)
	} else {
		spoke.Attach(m, entity, components.TransformAt(position))
	}

	return 0
}

func (e *Engine) checkEntity(L *lua.LState, n int) spoke.EntityId {
	entity := spoke.EntityId(L.CheckInt(n))
	if !e.world.Owns(entity) {
		L.ArgError(n, fmt.Sprintf("entity %s is not part of world %q", entity, e.world.Name()))
	}

	return entity
}
