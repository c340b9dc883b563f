package quests

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/prison-world/internal/consequence"
	"github.com/talgya/prison-world/internal/events"
	"github.com/talgya/prison-world/internal/npcs"
	"github.com/talgya/prison-world/internal/player"
	"github.com/talgya/prison-world/internal/worldstate"
)

// Sentinel errors for engine calls; the sim layer maps them onto its
// public error kinds.
var (
	ErrUnknownQuest = errors.New("unknown quest")
	ErrWrongState   = errors.New("quest in wrong state")
)

// perceptionThreshold gates hidden clues during a location search.
const perceptionThreshold = 5

// Engine owns the lifecycle of every emergent quest. It publishes clue
// presence into the world store so the presentation layer can surface hints
// without knowing quest internals.
type Engine struct {
	seeds     map[string]*Seed
	seedOrder []string

	active    map[string]*Quest
	completed map[string]struct{}
	failed    map[string]struct{}

	world     *worldstate.Store
	scheduler *consequence.Scheduler
	bus       *events.Bus
}

// NewEngine wires the engine to its collaborators.
func NewEngine(world *worldstate.Store, scheduler *consequence.Scheduler, bus *events.Bus) *Engine {
	return &Engine{
		seeds:     make(map[string]*Seed),
		active:    make(map[string]*Quest),
		completed: make(map[string]struct{}),
		failed:    make(map[string]struct{}),
		world:     world,
		scheduler: scheduler,
		bus:       bus,
	}
}

// RegisterSeed stores a seed by quest id. Re-registering the same id is a
// no-op; seeds are static after registration.
func (e *Engine) RegisterSeed(seed *Seed) {
	if seed == nil || seed.QuestID == "" {
		return
	}
	if _, exists := e.seeds[seed.QuestID]; exists {
		return
	}
	e.seeds[seed.QuestID] = seed
	e.seedOrder = append(e.seedOrder, seed.QuestID)
}

// Update runs one engine tick: seed scan, clue dispersal, consequence drain,
// timeout check, and consequencing flush.
func (e *Engine) Update(now time.Time, pl *player.Player, registry *npcs.Registry) []consequence.Result {
	e.scanSeeds()
	e.disperseClues()

	// Drain due consequences, recursing while cascades unlock more.
	var results []consequence.Result
	for i := 0; i < 8; i++ {
		batch := e.scheduler.ProcessDue(now, e.world, pl, registry)
		results = append(results, batch...)
		if !hasNewlyTriggered(batch) {
			break
		}
	}
	results = append(results, e.scheduler.ProcessChains(now, e.world, pl, registry)...)

	// Consequences may have force-activated new seeds this tick; seed and
	// disperse them immediately so their clues land before the next action.
	e.scanSeeds()
	e.disperseClues()

	e.checkTimeouts(now)
	e.flushConsequencing()
	return results
}

func hasNewlyTriggered(batch []consequence.Result) bool {
	for _, r := range batch {
		if len(r.NewlyTriggered) > 0 {
			return true
		}
	}
	return false
}

// scanSeeds instantiates quests whose activation conditions hold, or which
// were force-activated by a delayed effect.
func (e *Engine) scanSeeds() {
	for _, id := range e.seedOrder {
		if _, running := e.active[id]; running {
			continue
		}
		if _, done := e.completed[id]; done {
			continue
		}
		if _, lost := e.failed[id]; lost {
			continue
		}
		seed := e.seeds[id]
		forced := e.world.GetBool("quests.force_activate." + id)
		if !forced && !e.world.MatchAll(seed.ActivationConditions) {
			continue
		}
		if forced {
			e.world.Set("quests.force_activate."+id, worldstate.Bool(false))
		}
		quest := newQuest(seed)
		quest.State = StateSeeding
		e.active[id] = quest
		slog.Debug("quest seed activated", "quest", id, "forced", forced)
	}
}

// disperseClues writes each seeding quest's initial clues into the world
// under locations.<id>.clue_<quest_id>, then marks it discoverable.
func (e *Engine) disperseClues() {
	for _, quest := range e.active {
		if quest.State != StateSeeding {
			continue
		}
		for location, clue := range quest.Seed.InitialClues {
			e.world.Set("locations."+location+".clue_"+quest.ID(), worldstate.String(clue))
		}
		quest.State = StateDiscoverable
	}
}

// checkTimeouts fails time-sensitive quests whose expiry passed (inclusive).
func (e *Engine) checkTimeouts(now time.Time) {
	for id, quest := range e.active {
		if !quest.Seed.TimeSensitive || quest.StartTime.IsZero() {
			continue
		}
		if quest.State != StateActive && quest.State != StateInvestigating {
			continue
		}
		elapsed := now.Sub(quest.StartTime)
		if elapsed >= time.Duration(quest.Seed.ExpiryHours)*time.Hour {
			e.failQuest(id, quest, now, "timeout")
		}
	}
}

func (e *Engine) failQuest(id string, quest *Quest, now time.Time, reason string) {
	quest.State = StateFailed
	quest.ResolutionTime = now
	strategyFor(quest.Seed.Kind).ApplyFailure(quest, e.world)
	e.failed[id] = struct{}{}
	delete(e.active, id)

	e.bus.Emit(events.Event{
		Type: "quest_failed", Category: events.CategoryQuest,
		Priority: events.PriorityNormal, Propagate: true,
		Payload: map[string]any{"quest_id": id, "reason": reason},
	})
	slog.Info("quest failed", "quest", id, "reason", reason)
}

// Fail explicitly fails a quest (e.g. the player torched the evidence).
func (e *Engine) Fail(questID, reason string, now time.Time) error {
	quest, ok := e.active[questID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownQuest, questID)
	}
	e.failQuest(questID, quest, now, reason)
	return nil
}

// flushConsequencing resolves quests whose scheduled consequences have all
// fired.
func (e *Engine) flushConsequencing() {
	for id, quest := range e.active {
		if quest.State != StateConsequencing {
			continue
		}
		if len(e.scheduler.PendingFor(id)) > 0 {
			continue
		}
		quest.State = StateResolved
		e.completed[id] = struct{}{}
		delete(e.active, id)
		slog.Debug("quest consequences drained", "quest", id)
	}
}

// DiscoveryResult reports a successful quest discovery.
type DiscoveryResult struct {
	QuestID  string          `json:"quest_id"`
	Name     string          `json:"name"`
	Method   DiscoveryMethod `json:"method"`
	Location string          `json:"location"`
	Dialogue string          `json:"dialogue,omitempty"`
}

// DiscoverQuest searches discoverable quests with a clue planted at the
// location; the highest-priority match activates. Returns nil when nothing
// is discoverable there.
func (e *Engine) DiscoverQuest(location string, now time.Time) *DiscoveryResult {
	var best *Quest
	for _, quest := range e.active {
		if quest.State != StateDiscoverable {
			continue
		}
		clue := e.world.Get("locations." + location + ".clue_" + quest.ID())
		if clue.IsAbsent() {
			continue
		}
		if best == nil || quest.Seed.Priority > best.Seed.Priority {
			best = quest
		}
	}
	if best == nil {
		return nil
	}

	// Deterministic selection: the seed's first listed method.
	method := DiscoveryStumbled
	if len(best.Seed.DiscoveryMethods) > 0 {
		method = best.Seed.DiscoveryMethods[0]
	}
	best.State = StateActive
	best.StartTime = now

	e.bus.Emit(events.Event{
		Type: "quest_discovered", Category: events.CategoryDiscovery,
		Priority: events.PriorityNormal, Propagate: true,
		Payload: map[string]any{"quest_id": best.ID(), "location": location, "method": string(method)},
	})

	return &DiscoveryResult{
		QuestID:  best.ID(),
		Name:     best.Seed.Name,
		Method:   method,
		Location: location,
		Dialogue: best.Seed.DiscoveryDialogue[method],
	}
}

// InvestigateResult reports one investigation step as symbolic tokens.
type InvestigateResult struct {
	QuestID     string   `json:"quest_id"`
	Action      Action   `json:"action"`
	Target      string   `json:"target"`
	Success     bool     `json:"success"`
	Discoveries []string `json:"discoveries,omitempty"`
	Dialogue    []string `json:"dialogue,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Investigate advances the player's investigation of an active quest.
func (e *Engine) Investigate(questID string, action Action, target string, snap player.Snapshot) (InvestigateResult, error) {
	quest, ok := e.active[questID]
	if !ok {
		return InvestigateResult{}, fmt.Errorf("%w: %q", ErrUnknownQuest, questID)
	}
	if quest.State != StateActive && quest.State != StateInvestigating {
		return InvestigateResult{}, fmt.Errorf("%w: %q is %s", ErrWrongState, questID, quest.State)
	}

	// Kind-specific verbs first.
	if res, handled := strategyFor(quest.Seed.Kind).ExtendInvestigation(quest, e.world, action, target, snap); handled {
		if res.Success {
			quest.State = StateInvestigating
		}
		return res, nil
	}

	res := InvestigateResult{QuestID: questID, Action: action, Target: target}
	inv := quest.Investigation

	switch action {
	case ActionInterrogate:
		if !inv.markInterrogated(target) {
			res.Dialogue = append(res.Dialogue, "already_interrogated:"+target)
			break
		}
		rep := snap.Reputation[target]
		switch {
		case rep >= 30:
			clue := "clue_" + target + "_friendly"
			if inv.AddClue(clue) {
				res.Discoveries = append(res.Discoveries, clue)
			}
			res.Dialogue = append(res.Dialogue, "npc_talks_freely:"+target)
		case rep <= -30:
			// Hostile NPCs yield nothing.
			res.Dialogue = append(res.Dialogue, "npc_refuses:"+target)
		default:
			clue := "clue_" + target + "_neutral"
			if inv.AddClue(clue) {
				res.Discoveries = append(res.Discoveries, clue)
			}
			res.Dialogue = append(res.Dialogue, "npc_talks_guardedly:"+target)
		}
		res.Success = true

	case ActionSearch:
		if !inv.markVisited(target) {
			res.Dialogue = append(res.Dialogue, "already_searched:"+target)
			break
		}
		if snap.Skills["perception"] >= perceptionThreshold {
			clue := "clue_location_" + target + "_hidden"
			if inv.AddClue(clue) {
				res.Discoveries = append(res.Discoveries, clue)
				res.Dialogue = append(res.Dialogue, "found_hidden_traces:"+target)
			}
		}
		clue := "clue_location_" + target + "_obvious"
		if inv.AddClue(clue) {
			res.Discoveries = append(res.Discoveries, clue)
			res.Dialogue = append(res.Dialogue, "found_obvious_traces:"+target)
		}
		res.Success = true

	case ActionAnalyze:
		if len(inv.ClueList) < 3 {
			res.Dialogue = append(res.Dialogue, "not_enough_clues")
			break
		}
		theory := "theory_vague"
		switch {
		case len(inv.ClueList) >= 5:
			theory = "theory_complete"
		case len(inv.ClueList) >= 3:
			theory = "theory_partial"
		}
		inv.Theories = append(inv.Theories, theory)
		res.Discoveries = append(res.Discoveries, theory)
		res.Dialogue = append(res.Dialogue, "pattern_emerges")
		res.Success = true

	default:
		return res, fmt.Errorf("quest %q has no handling for action %q", questID, action)
	}

	if res.Success {
		quest.State = StateInvestigating
	}
	return res, nil
}
