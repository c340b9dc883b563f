// Package sim ties the subsystems together behind a single Simulation value:
// the tick loop, the player intent entry point, read-only views, and
// save-blob serialization. The shell constructs one Simulation and drives it;
// there is no hidden global state.
package sim

import (
	"fmt"
	"log/slog"

	"github.com/talgya/prison-world/internal/consequence"
	"github.com/talgya/prison-world/internal/content"
	"github.com/talgya/prison-world/internal/events"
	"github.com/talgya/prison-world/internal/npcs"
	"github.com/talgya/prison-world/internal/persistence"
	"github.com/talgya/prison-world/internal/player"
	"github.com/talgya/prison-world/internal/quests"
	"github.com/talgya/prison-world/internal/weather"
	"github.com/talgya/prison-world/internal/worldstate"
)

// Mode is the outer game mode the shell renders.
type Mode string

const (
	ModeMenu      Mode = "menu"
	ModePlaying   Mode = "playing"
	ModePaused    Mode = "paused"
	ModeDialogue  Mode = "dialogue"
	ModeCombat    Mode = "combat"
	ModeTrading   Mode = "trading"
	ModeCrafting  Mode = "crafting"
	ModeInventory Mode = "inventory"
	ModeDead      Mode = "dead"
)

// Calendar boundaries in game minutes.
var (
	mealTimes   = []int{420, 720, 1080}
	guardShifts = []int{360, 840, 1320}
)

// autosaveInterval is the game-minute gap between auto-saves.
const autosaveInterval = 300

// Config parameterizes a new Simulation.
type Config struct {
	PlayerName string
	Seed       int64
	ContentDir string
	DB         *persistence.DB // optional; nil disables saves
	TickDelta  int             // game minutes per player action, default 1
}

// Simulation is the root value owning every subsystem.
type Simulation struct {
	World     *worldstate.Store
	Bus       *events.Bus
	Player    *player.Player
	NPCs      *npcs.Registry
	Quests    *quests.Engine
	Scheduler *consequence.Scheduler
	Weather   *weather.System
	Content   *content.Loader

	db        *persistence.DB
	mode      Mode
	seed      int64
	tickDelta int

	// Absolute game minutes since campaign start, for autosave pacing.
	totalMinutes int
	lastAutosave int
	autosaveSlot int

	stats      Statistics
	discovered map[string]struct{} // locations
	secrets    map[string]struct{}
}

// Statistics aggregates campaign counters fed by bus subscriptions.
type Statistics struct {
	EnemiesKilled    int `json:"enemies_killed"`
	ItemsCrafted     int `json:"items_crafted"`
	QuestsCompleted  int `json:"quests_completed"`
	QuestsFailed     int `json:"quests_failed"`
	SecretsFound     int `json:"secrets_found"`
	TotalDamageDealt int `json:"total_damage_dealt"`
	TotalDamageTaken int `json:"total_damage_taken"`
	MoneyEarned      int `json:"money_earned"`
	MoneySpent       int `json:"money_spent"`
	TimesDied        int `json:"times_died"`
}

// New constructs a fully wired simulation in menu mode.
func New(cfg Config) (*Simulation, error) {
	if cfg.PlayerName == "" {
		cfg.PlayerName = "Mahan"
	}
	if cfg.TickDelta <= 0 {
		cfg.TickDelta = 1
	}

	world := worldstate.New()
	bus := events.NewBus()
	scheduler := consequence.NewScheduler()
	engine := quests.NewEngine(world, scheduler, bus)

	s := &Simulation{
		World:        world,
		Bus:          bus,
		Player:       player.New(cfg.PlayerName, cfg.Seed),
		NPCs:         npcs.NewRegistry(),
		Quests:       engine,
		Scheduler:    scheduler,
		Weather:      weather.NewSystem(cfg.Seed),
		db:           cfg.DB,
		mode:         ModeMenu,
		seed:         cfg.Seed,
		tickDelta:    cfg.TickDelta,
		totalMinutes: world.GameTime,
		lastAutosave: world.GameTime,
		autosaveSlot: 0,
		discovered:   make(map[string]struct{}),
		secrets:      make(map[string]struct{}),
	}

	if cfg.ContentDir != "" {
		s.Content = content.NewLoader(cfg.ContentDir)
		if err := s.loadContent(); err != nil {
			return nil, err
		}
	} else {
		for _, seed := range quests.BuiltinSeeds() {
			engine.RegisterSeed(seed)
		}
	}

	s.registerHandlers()
	return s, nil
}

// loadContent pulls catalogues into the live systems.
func (s *Simulation) loadContent() error {
	seeds, err := s.Content.QuestSeeds()
	if err != nil {
		return fmt.Errorf("%w: quest seeds: %v", ErrContentMissing, err)
	}
	for _, seed := range seeds {
		s.Quests.RegisterSeed(seed)
	}

	npcList, err := s.Content.NPCs()
	if err != nil {
		return fmt.Errorf("%w: npcs: %v", ErrContentMissing, err)
	}
	for i := range npcList {
		npc := npcList[i]
		s.NPCs.Add(&npc)
	}
	return nil
}

// registerHandlers wires the bus subscriptions that keep statistics and the
// player record in sync with events.
func (s *Simulation) registerHandlers() {
	s.Bus.Subscribe("quest_completed", func(ev events.Event) {
		s.stats.QuestsCompleted++
		if id, ok := ev.Payload["quest_id"].(string); ok {
			s.Player.CompleteQuest(id)
		}
	})
	s.Bus.Subscribe("quest_failed", func(ev events.Event) {
		s.stats.QuestsFailed++
	})
	s.Bus.Subscribe("secret_discovered", func(ev events.Event) {
		if id, ok := ev.Payload["secret"].(string); ok {
			if _, seen := s.secrets[id]; !seen {
				s.secrets[id] = struct{}{}
				s.stats.SecretsFound++
			}
		}
	})
	s.Bus.Subscribe("location_discovered", func(ev events.Event) {
		if id, ok := ev.Payload["location"].(string); ok {
			s.discovered[id] = struct{}{}
		}
	})
	s.Bus.Subscribe("player_death", func(events.Event) {
		s.stats.TimesDied++
	})
	s.Bus.SubscribeCategory(events.CategoryCombat, func(ev events.Event) {
		if dmg, ok := asInt(ev.Payload["damage"]); ok {
			if ev.Target == "player" {
				s.stats.TotalDamageTaken += dmg
			} else {
				s.stats.TotalDamageDealt += dmg
			}
		}
		if killed, _ := ev.Payload["killed"].(bool); killed && ev.Target != "player" {
			s.stats.EnemiesKilled++
		}
	})
	s.Bus.SubscribeCategory(events.CategoryTrade, func(ev events.Event) {
		if price, ok := asInt(ev.Payload["price"]); ok {
			if ev.Source == "player" {
				s.stats.MoneyEarned += price
			} else {
				s.stats.MoneySpent += price
			}
		}
	})
	s.Bus.SubscribeCategory(events.CategoryCraft, func(events.Event) {
		s.stats.ItemsCrafted++
	})
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Start leaves menu mode and begins play.
func (s *Simulation) Start() {
	s.mode = ModePlaying
	s.World.Set("player.imprisoned", worldstate.Bool(true))
	slog.Info("simulation started", "player", s.Player.Name, "seed", s.seed)
}

// Mode returns the current outer mode.
func (s *Simulation) Mode() Mode { return s.mode }

// SetMode switches the outer mode (dialogue, trading, paused...).
func (s *Simulation) SetMode(m Mode) { s.mode = m }

// Stats returns a copy of the campaign counters.
func (s *Simulation) Stats() Statistics { return s.stats }

// tick advances the simulation by delta game minutes, running every
// subsystem in a fixed order: clock, calendar, weather, NPCs, quests and
// consequences, player upkeep, autosave. Later systems always read the
// effects of earlier ones.
func (s *Simulation) tick(delta int) {
	if s.mode != ModePlaying {
		return
	}

	oldTime := s.World.GameTime
	rolled := s.World.AdvanceClock(delta)
	s.totalMinutes += delta
	newTime := s.World.GameTime

	if rolled {
		s.onNewDay()
	}
	s.fireCalendarEvents(oldTime, newTime, rolled)

	// Time-of-day and weather.
	s.World.Set("time.minute", worldstate.Int(int64(s.World.GameTime)))
	s.World.Set("time.day", worldstate.Int(int64(s.World.Day)))
	s.Weather.Update(s.World, s.World.Day, s.World.GameTime)

	// NPC schedules and dispositions.
	s.NPCs.Update(s.World, s.Bus)

	// Track days inside for seeds that care.
	s.World.Set("player.days_inside", worldstate.Int(int64(s.World.Day-1)))

	// Quest engine: seed scan, clue dispersal, consequence drain, timeouts.
	now := s.World.Now()
	s.Quests.Update(now, s.Player, s.NPCs)

	// Spawned event tokens from consequences are emitted on this tick.
	s.drainSpawnedEvents()

	// Player upkeep.
	s.Player.Regenerate(delta)
	if s.Player.UpdateState() {
		s.mode = ModeDead
		ev := events.New("player_death", events.CategoryDeath, map[string]any{
			"death_count": s.Player.DeathCount,
		})
		ev.Priority = events.PriorityCritical
		ev.Source = "player"
		s.Bus.Emit(ev)
		return
	}

	s.maybeAutosave()
}

// onNewDay handles the day rollover: daily limits, degradation, effect
// durations, statistics history.
func (s *Simulation) onNewDay() {
	s.Bus.Emit(events.New("new_day", events.CategoryTime, map[string]any{"day": s.World.Day}))
	s.Player.Skills.ResetDailyLimits()
	s.Player.Skills.ApplyDegradation(s.World.Now(), 1)
	s.Player.TickEffects(24)

	if s.db != nil {
		karma := s.Scheduler.KarmaScore()
		err := s.db.RecordDayStats(persistence.DayStats{
			Day:             s.World.Day - 1,
			QuestsCompleted: s.stats.QuestsCompleted,
			QuestsFailed:    s.stats.QuestsFailed,
			EventsTotal:     s.Bus.GetStats().TotalEvents,
			KarmaGood:       karma.Good,
			KarmaEvil:       karma.Evil,
			KarmaChaos:      karma.Chaos,
			KarmaOrder:      karma.Order,
		})
		if err != nil {
			slog.Warn("stats history write failed", "error", err)
		}
	}
}

// fireCalendarEvents emits meal and guard-shift events whose boundary the
// tick crossed, handling midnight wrap.
func (s *Simulation) fireCalendarEvents(oldTime, newTime int, rolled bool) {
	crossed := func(boundary int) bool {
		if rolled {
			return oldTime < boundary || boundary <= newTime
		}
		return oldTime < boundary && boundary <= newTime
	}
	for _, m := range mealTimes {
		if crossed(m) {
			s.Bus.Emit(events.New("meal_time", events.CategoryTime, map[string]any{"time": m}))
		}
	}
	for _, g := range guardShifts {
		if crossed(g) {
			s.Bus.Emit(events.New("guard_change", events.CategoryTime, map[string]any{"time": g}))
		}
	}
}

// drainSpawnedEvents emits tokens consequences pushed into events.pending.
func (s *Simulation) drainSpawnedEvents() {
	pending := s.World.Get("events.pending")
	if pending.Kind != worldstate.KindList || len(pending.L) == 0 {
		return
	}
	for _, token := range pending.L {
		name, ok := token.AsString()
		if !ok {
			continue
		}
		ev := events.New(name, events.CategoryWorld, map[string]any{"spawned": true})
		ev.Priority = events.PriorityHigh
		s.Bus.Emit(ev)
	}
	s.World.Set("events.pending", worldstate.List())
}

// maybeAutosave writes the autosave slot when enough game time has passed.
// Failures warn but never halt the simulation.
func (s *Simulation) maybeAutosave() {
	if s.db == nil || s.totalMinutes-s.lastAutosave < autosaveInterval {
		return
	}
	s.lastAutosave = s.totalMinutes
	if err := s.SaveSlot(s.autosaveSlot); err != nil {
		slog.Warn("autosave failed", "error", err)
		ev := events.New("autosave_failed", events.CategorySystem, map[string]any{"error": err.Error()})
		ev.Priority = events.PriorityLow
		s.Bus.Emit(ev)
	}
}
