package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordPriorities(bus *Bus, got *[]Priority) Subscription {
	return bus.SubscribeCategory(CategorySystem, func(ev Event) {
		*got = append(*got, ev.Priority)
	})
}

func TestPriorityOrderedDispatch(t *testing.T) {
	bus := NewBus()
	var got []Priority
	recordPriorities(bus, &got)

	bus.StartBatch()
	for _, p := range []Priority{PriorityLow, PriorityCritical, PriorityNormal} {
		ev := New("tick_noise", CategorySystem, nil)
		ev.Priority = p
		bus.Emit(ev)
	}
	bus.ProcessBatch()

	require.Equal(t, []Priority{PriorityCritical, PriorityNormal, PriorityLow}, got)
}

func TestStableOrderOnTies(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.SubscribeCategory(CategorySystem, func(ev Event) {
		got = append(got, ev.Type)
	})

	bus.StartBatch()
	for _, name := range []string{"first", "second", "third"} {
		bus.Emit(New(name, CategorySystem, nil))
	}
	bus.ProcessBatch()

	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestImmediateDispatchOutsideBatch(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe("door_opened", func(ev Event) { got = append(got, ev.Type) })

	bus.Emit(New("door_opened", CategoryWorld, nil))
	assert.Equal(t, []string{"door_opened"}, got)
}

func TestTypeAndCategorySubscribersBothRun(t *testing.T) {
	bus := NewBus()
	var order []string
	bus.Subscribe("guard_change", func(Event) { order = append(order, "type") })
	bus.SubscribeCategory(CategoryTime, func(Event) { order = append(order, "category") })

	bus.Emit(New("guard_change", CategoryTime, nil))
	assert.Equal(t, []string{"type", "category"}, order)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	sub := bus.Subscribe("meal_time", func(Event) { calls++ })
	require.Equal(t, 1, bus.SubscriberCount("meal_time"))

	bus.Unsubscribe(sub)
	assert.Equal(t, 0, bus.SubscriberCount("meal_time"))

	bus.Emit(New("meal_time", CategoryTime, nil))
	assert.Equal(t, 0, calls)

	// Double unsubscribe is a no-op.
	bus.Unsubscribe(sub)
}

func TestPanickingHandlerDoesNotAbortDispatch(t *testing.T) {
	bus := NewBus()
	var survived bool
	bus.Subscribe("riot_started", func(Event) { panic("handler bug") })
	bus.Subscribe("riot_started", func(Event) { survived = true })

	bus.Emit(New("riot_started", CategoryCombat, nil))
	assert.True(t, survived)
}

func TestReentrantEmitJoinsDrain(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.SubscribeCategory(CategorySystem, func(ev Event) {
		got = append(got, ev.Type)
		if ev.Type == "root" {
			urgent := New("child_urgent", CategorySystem, nil)
			urgent.Priority = PriorityCritical
			bus.Emit(urgent)
			bus.Emit(New("child_normal", CategorySystem, nil))
		}
	})

	bus.StartBatch()
	bus.Emit(New("root", CategorySystem, nil))
	low := New("tail", CategorySystem, nil)
	low.Priority = PriorityLow
	bus.Emit(low)
	bus.ProcessBatch()

	// Children emitted during the drain are re-sorted ahead of the
	// lower-priority tail event.
	assert.Equal(t, []string{"root", "child_urgent", "child_normal", "tail"}, got)
}

func TestNoPropagateSkipsHandlersButCounts(t *testing.T) {
	bus := NewBus()
	calls := 0
	bus.Subscribe("silent", func(Event) { calls++ })

	ev := New("silent", CategorySystem, nil)
	ev.Propagate = false
	bus.Emit(ev)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, bus.GetStats().TotalEvents)
	assert.Len(t, bus.History("", "silent", 0), 1)
}

func TestPriorityClamp(t *testing.T) {
	bus := NewBus()
	var got Priority
	bus.Subscribe("overflow", func(ev Event) { got = ev.Priority })

	ev := New("overflow", CategorySystem, nil)
	ev.Priority = Priority(99)
	bus.Emit(ev)
	assert.Equal(t, PriorityCritical, got)
}

func TestHistoryRingEviction(t *testing.T) {
	bus := NewBus()
	bus.HistoryLimit = 5
	for i := 0; i < 8; i++ {
		bus.Emit(New("noise", CategorySystem, map[string]any{"i": i}))
	}
	hist := bus.History("", "", 0)
	require.Len(t, hist, 5)
	assert.Equal(t, 3, hist[0].Payload["i"])
	assert.Equal(t, 7, hist[4].Payload["i"])
}

func TestHistoryFilters(t *testing.T) {
	bus := NewBus()
	bus.Emit(New("fight", CategoryCombat, nil))
	bus.Emit(New("step", CategoryMovement, nil))
	bus.Emit(New("fight", CategoryCombat, nil))

	assert.Len(t, bus.History(CategoryCombat, "", 0), 2)
	assert.Len(t, bus.History("", "step", 0), 1)
	assert.Len(t, bus.History(CategoryMovement, "fight", 0), 0)

	bus.ClearHistory()
	assert.Empty(t, bus.History("", "", 0))
	assert.Equal(t, 3, bus.GetStats().TotalEvents)
}

func TestBatchEquivalence(t *testing.T) {
	run := func(batch bool) []string {
		bus := NewBus()
		var got []string
		bus.SubscribeCategory(CategorySystem, func(ev Event) { got = append(got, ev.Type) })
		if batch {
			bus.StartBatch()
		}
		for _, name := range []string{"a", "b", "c"} {
			bus.Emit(New(name, CategorySystem, nil))
		}
		if batch {
			bus.ProcessBatch()
		}
		return got
	}

	assert.Equal(t, run(false), run(true))
}

func TestStatsByCategoryAndType(t *testing.T) {
	bus := NewBus()
	bus.Emit(New("fight", CategoryCombat, nil))
	bus.Emit(New("fight", CategoryCombat, nil))
	bus.Emit(New("barter", CategoryTrade, nil))

	stats := bus.GetStats()
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 2, stats.EventsByCategory[CategoryCombat])
	assert.Equal(t, 1, stats.EventsByCategory[CategoryTrade])
	assert.Equal(t, 2, stats.EventsByType["fight"])
}
