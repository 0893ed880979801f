package cadence

import (
	"fmt"

	"github.com/oliverbestmann/cadence/internal/assert"
)

// CallbackId identifies a scheduled callback. It combines the index of the
// pooled slot with the generation of the slot, so an id stays invalid after the
// slot was reused for another callback.
type CallbackId uint64

// NoCallback is never returned by Callbacks.
const NoCallback CallbackId = 0

func makeCallbackId(index int, generation uint32) CallbackId {
	return CallbackId(uint64(generation)<<32 | uint64(uint32(index)))
}

func (id CallbackId) Index() int         { return int(uint32(id)) }
func (id CallbackId) Generation() uint32 { return uint32(id >> 32) }

func (id CallbackId) String() string {
	return fmt.Sprintf("callback(%d@%d)", id.Index(), id.Generation())
}

type trigger uint8

const (
	triggerNone trigger = iota
	triggerFrames
	triggerSeconds
	triggerAfterCondition
	triggerWhileCondition
)

type callbackSlot struct {
	index      int
	generation uint32
	retired    bool

	trigger trigger
	repeat  int

	frames   uint64
	dueFrame uint64

	seconds    float64
	dueSeconds float64

	callback  func()
	condition func() bool

	subscription *Subscription
}

// Callbacks is a pool of reusable slots for callbacks that run delayed, repeatedly
// or while a condition holds. Slots are evaluated at the end of each tick of the
// owning Scheduler, in the order they were scheduled.
//
// The pool grows on demand and never shrinks.
type Callbacks struct {
	scheduler *Scheduler
	slots     []*callbackSlot
}

func newCallbacks(scheduler *Scheduler, initialSlots int) *Callbacks {
	c := &Callbacks{scheduler: scheduler}

	for range initialSlots {
		c.grow()
	}

	return c
}

func (c *Callbacks) grow() *callbackSlot {
	slot := &callbackSlot{index: len(c.slots), retired: true}
	c.slots = append(c.slots, slot)
	return slot
}

// acquire returns the first retired slot or appends a new one.
func (c *Callbacks) acquire() *callbackSlot {
	for _, slot := range c.slots {
		if slot.retired {
			return slot
		}
	}

	return c.grow()
}

func (c *Callbacks) arm(slot *callbackSlot, trigger trigger, callback func()) CallbackId {
	assert.That(callback != nil, "callback must not be nil")

	slot.generation++
	slot.retired = false
	slot.trigger = trigger
	slot.callback = callback

	generation := slot.generation
	slot.subscription = c.scheduler.OnEndOfTick(func(float64) {
		c.evaluate(slot, generation)
	})

	return makeCallbackId(slot.index, generation)
}

// CallLaterFrame invokes callback at the end of the tick numbered frames ticks after
// the current one. During the phases of a tick before PhaseEndOfTick, the current tick
// is the tick in progress, otherwise it is the last completed tick. Callbacks are never
// invoked before the end of the next tick to complete.
func (c *Callbacks) CallLaterFrame(callback func(), frames uint64) CallbackId {
	return c.CallRepeatFrame(callback, frames, 0)
}

// CallEndOfFrame invokes callback at the end of the tick in progress, or at the
// end of the next tick if none is in progress.
func (c *Callbacks) CallEndOfFrame(callback func()) CallbackId {
	return c.CallLaterFrame(callback, 0)
}

// CallNextFrame invokes callback at the end of the tick following the current one.
func (c *Callbacks) CallNextFrame(callback func()) CallbackId {
	return c.CallLaterFrame(callback, 1)
}

// CallRepeatFrame invokes callback every frames ticks. A negative repeat repeats forever.
// Otherwise the callback is invoked repeat+1 times.
func (c *Callbacks) CallRepeatFrame(callback func(), frames uint64, repeat int) CallbackId {
	slot := c.acquire()

	slot.repeat = repeat
	slot.frames = frames
	slot.dueFrame = c.scheduler.currentTick() + frames

	return c.arm(slot, triggerFrames, callback)
}

// CallLaterSeconds invokes callback once the scheduler's elapsed time
// has advanced by at least seconds.
func (c *Callbacks) CallLaterSeconds(callback func(), seconds float64) CallbackId {
	return c.CallRepeatSeconds(callback, seconds, 0)
}

// CallRepeatSeconds invokes callback every seconds. A negative repeat repeats forever.
// Otherwise the callback is invoked repeat+1 times.
func (c *Callbacks) CallRepeatSeconds(callback func(), seconds float64, repeat int) CallbackId {
	assert.NonNegative("seconds", seconds)
	assert.Finite("seconds", seconds)

	slot := c.acquire()

	slot.repeat = repeat
	slot.seconds = seconds
	slot.dueSeconds = c.scheduler.Elapsed() + seconds

	return c.arm(slot, triggerSeconds, callback)
}

// CallAfterCondition polls condition at the end of each tick and
// invokes callback once, the first time condition returns true.
func (c *Callbacks) CallAfterCondition(callback func(), condition func() bool) CallbackId {
	assert.That(condition != nil, "condition must not be nil")

	slot := c.acquire()
	slot.condition = condition

	return c.arm(slot, triggerAfterCondition, callback)
}

// CallWhileCondition polls condition at the end of each tick and invokes callback
// as long as condition returns true. The callback is retired the first time
// condition returns false.
func (c *Callbacks) CallWhileCondition(callback func(), condition func() bool) CallbackId {
	assert.That(condition != nil, "condition must not be nil")

	slot := c.acquire()
	slot.condition = condition

	return c.arm(slot, triggerWhileCondition, callback)
}

// Cancel retires the callback and reports whether it was still scheduled.
func (c *Callbacks) Cancel(id CallbackId) bool {
	index := id.Index()
	if id == NoCallback || index >= len(c.slots) {
		return false
	}

	slot := c.slots[index]
	if slot.retired || slot.generation != id.Generation() {
		return false
	}

	c.retire(slot)
	return true
}

// Scheduled reports whether the callback is still waiting to be invoked.
func (c *Callbacks) Scheduled(id CallbackId) bool {
	index := id.Index()
	if id == NoCallback || index >= len(c.slots) {
		return false
	}

	slot := c.slots[index]
	return !slot.retired && slot.generation == id.Generation()
}

// Len returns the number of slots in the pool.
func (c *Callbacks) Len() int {
	return len(c.slots)
}

// Active returns the number of slots holding a scheduled callback.
func (c *Callbacks) Active() int {
	var active int
	for _, slot := range c.slots {
		if !slot.retired {
			active++
		}
	}

	return active
}

// CancelAll retires every scheduled callback.
func (c *Callbacks) CancelAll() {
	for _, slot := range c.slots {
		if !slot.retired {
			c.retire(slot)
		}
	}
}

func (c *Callbacks) retire(slot *callbackSlot) {
	slot.subscription.Cancel()

	*slot = callbackSlot{
		index:      slot.index,
		generation: slot.generation,
		retired:    true,
	}
}

func (c *Callbacks) evaluate(slot *callbackSlot, generation uint32) {
	// the slot might have been retired or reused earlier in this broadcast
	if slot.retired || slot.generation != generation {
		return
	}

	switch slot.trigger {
	case triggerFrames:
		if c.scheduler.TickCount() < slot.dueFrame {
			return
		}

		slot.callback()

		if c.stillArmed(slot, generation) {
			slot.dueFrame += slot.frames
			c.countRepeat(slot)
		}

	case triggerSeconds:
		if c.scheduler.Elapsed() < slot.dueSeconds {
			return
		}

		slot.callback()

		if c.stillArmed(slot, generation) {
			slot.dueSeconds += slot.seconds
			c.countRepeat(slot)
		}

	case triggerAfterCondition:
		if !slot.condition() || !c.stillArmed(slot, generation) {
			return
		}

		slot.callback()

		if c.stillArmed(slot, generation) {
			c.retire(slot)
		}

	case triggerWhileCondition:
		holds := slot.condition()
		if !c.stillArmed(slot, generation) {
			return
		}

		if !holds {
			c.retire(slot)
			return
		}

		slot.callback()
	}
}

// stillArmed reports whether the slot still belongs to the same schedule after
// running a callback. The callback may have cancelled itself.
func (c *Callbacks) stillArmed(slot *callbackSlot, generation uint32) bool {
	return !slot.retired && slot.generation == generation
}

func (c *Callbacks) countRepeat(slot *callbackSlot) {
	switch {
	case slot.repeat > 0:
		slot.repeat--
	case slot.repeat == 0:
		c.retire(slot)
	}
}
