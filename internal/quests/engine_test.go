package quests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/prison-world/internal/consequence"
	"github.com/talgya/prison-world/internal/events"
	"github.com/talgya/prison-world/internal/npcs"
	"github.com/talgya/prison-world/internal/player"
	"github.com/talgya/prison-world/internal/worldstate"
)

var t0 = time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)

type fixtureEnv struct {
	engine    *Engine
	world     *worldstate.Store
	scheduler *consequence.Scheduler
	bus       *events.Bus
	player    *player.Player
	registry  *npcs.Registry
}

func newFixture(t *testing.T) *fixtureEnv {
	t.Helper()
	world := worldstate.New()
	scheduler := consequence.NewScheduler()
	bus := events.NewBus()
	env := &fixtureEnv{
		engine:    NewEngine(world, scheduler, bus),
		world:     world,
		scheduler: scheduler,
		bus:       bus,
		player:    player.New("Mahan", 1),
		registry:  npcs.NewRegistry(),
	}
	for _, seed := range BuiltinSeeds() {
		env.engine.RegisterSeed(seed)
	}
	return env
}

func (env *fixtureEnv) tick(now time.Time) {
	env.engine.Update(now, env.player, env.registry)
}

func TestSeedActivationAndDiscovery(t *testing.T) {
	env := newFixture(t)

	// Nothing activates on an empty world.
	env.tick(t0)
	assert.Empty(t, env.engine.ActiveQuests())

	// S2: low food supplies activate the conflict and plant clues.
	env.world.Set("prison.food_supplies", worldstate.Int(8))
	env.tick(t0)

	quest, ok := env.engine.Quest("food_conflict")
	require.True(t, ok)
	assert.Equal(t, StateDiscoverable, quest.State)
	assert.Equal(t, "raised voices", env.world.GetString("locations.corridor.clue_food_conflict"))

	res := env.engine.DiscoverQuest("corridor", t0)
	require.NotNil(t, res)
	assert.Equal(t, "food_conflict", res.QuestID)
	assert.Equal(t, DiscoveryOverheard, res.Method)
	assert.Equal(t, StateActive, quest.State)
	assert.Equal(t, t0, quest.StartTime)

	// Nothing left to discover there.
	assert.Nil(t, env.engine.DiscoverQuest("corridor", t0))
	assert.Nil(t, env.engine.DiscoverQuest("chapel", t0))
}

func TestReRegisterSeedIsNoOp(t *testing.T) {
	env := newFixture(t)
	original := env.engine.seeds["food_conflict"]
	env.engine.RegisterSeed(&Seed{QuestID: "food_conflict", Name: "impostor"})
	assert.Same(t, original, env.engine.seeds["food_conflict"])
	count := len(env.engine.seedOrder)
	env.engine.RegisterSeed(original)
	assert.Equal(t, count, len(env.engine.seedOrder))
}

func TestDiscoveryPicksHighestPriority(t *testing.T) {
	env := newFixture(t)
	env.world.Set("prison.food_supplies", worldstate.Int(8)) // priority 7
	env.world.Set("gang_tensions", worldstate.Float(0.8))    // priority 9
	env.world.Set("recent_violence", worldstate.Bool(true))
	env.tick(t0)

	// Both planted clues in the canteen; gang_war outranks food_conflict.
	res := env.engine.DiscoverQuest("canteen", t0)
	require.NotNil(t, res)
	assert.Equal(t, "gang_war", res.QuestID)
}

func activateFoodConflict(t *testing.T, env *fixtureEnv) *Quest {
	t.Helper()
	env.world.Set("prison.food_supplies", worldstate.Int(8))
	env.tick(t0)
	require.NotNil(t, env.engine.DiscoverQuest("corridor", t0))
	quest, _ := env.engine.Quest("food_conflict")
	return quest
}

func TestInvestigateInterrogate(t *testing.T) {
	env := newFixture(t)
	quest := activateFoodConflict(t, env)

	snap := env.player.Snapshot()
	snap.Reputation["wojtek"] = 50
	snap.Reputation["jenkins"] = -60

	res, err := env.engine.Investigate("food_conflict", ActionInterrogate, "wojtek", snap)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Discoveries, "clue_wojtek_friendly")
	assert.Equal(t, StateInvestigating, quest.State)

	// Hostile NPC yields no clue.
	res, err = env.engine.Investigate("food_conflict", ActionInterrogate, "jenkins", snap)
	require.NoError(t, err)
	assert.Empty(t, res.Discoveries)

	// Repeat interrogation adds nothing.
	res, err = env.engine.Investigate("food_conflict", ActionInterrogate, "wojtek", snap)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestInvestigateSearchPerceptionGate(t *testing.T) {
	env := newFixture(t)
	activateFoodConflict(t, env)

	snap := env.player.Snapshot()
	snap.Skills["perception"] = 2
	res, err := env.engine.Investigate("food_conflict", ActionSearch, "canteen", snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"clue_location_canteen_obvious"}, res.Discoveries)

	snap.Skills["perception"] = 5
	res, err = env.engine.Investigate("food_conflict", ActionSearch, "kitchen", snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"clue_location_kitchen_hidden", "clue_location_kitchen_obvious"}, res.Discoveries)
}

func TestInvestigateAnalyzeTiers(t *testing.T) {
	env := newFixture(t)
	quest := activateFoodConflict(t, env)
	snap := env.player.Snapshot()

	res, err := env.engine.Investigate("food_conflict", ActionAnalyze, "", snap)
	require.NoError(t, err)
	assert.False(t, res.Success)

	quest.Investigation.AddClue("c1")
	quest.Investigation.AddClue("c2")
	quest.Investigation.AddClue("c3")
	res, err = env.engine.Investigate("food_conflict", ActionAnalyze, "", snap)
	require.NoError(t, err)
	assert.Contains(t, res.Discoveries, "theory_partial")

	quest.Investigation.AddClue("c4")
	quest.Investigation.AddClue("c5")
	res, err = env.engine.Investigate("food_conflict", ActionAnalyze, "", snap)
	require.NoError(t, err)
	assert.Contains(t, res.Discoveries, "theory_complete")
}

func TestInvestigateUnknownQuest(t *testing.T) {
	env := newFixture(t)
	_, err := env.engine.Investigate("ghost_quest", ActionSearch, "cells", env.player.Snapshot())
	assert.Error(t, err)
}

func TestInvestigateWrongState(t *testing.T) {
	env := newFixture(t)
	env.world.Set("prison.food_supplies", worldstate.Int(8))
	env.tick(t0)
	// Discoverable but not yet discovered.
	_, err := env.engine.Investigate("food_conflict", ActionSearch, "cells", env.player.Snapshot())
	assert.Error(t, err)
}

func TestResolveSchedulesDelayedEffect(t *testing.T) {
	env := newFixture(t)
	// S3: keys_lost with branch return_keys and a 72h delayed effect.
	env.world.Set("guard.jenkins.lost_keys", worldstate.Bool(true))
	env.tick(t0)
	require.NotNil(t, env.engine.DiscoverQuest("courtyard", t0))

	env.player.AddItem("warden_keys")
	res, err := env.engine.Resolve("keys_lost", "return_keys", env.player.Snapshot(), t0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ScheduledCount)

	quest, _ := env.engine.Quest("keys_lost")
	assert.Equal(t, StateConsequencing, quest.State)
	assert.False(t, env.world.GetBool("guard.jenkins.offers_help"))
	assert.GreaterOrEqual(t, quest.ResolutionTime.Unix(), quest.StartTime.Unix())
	require.Len(t, quest.ConsequenceIDs, 1)

	pending := env.scheduler.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, t0.Add(72*time.Hour), pending[0].TriggerTime)

	// quest_completed event emitted at high priority.
	hist := env.bus.History(events.CategoryQuest, "quest_completed", 0)
	require.Len(t, hist, 1)
	assert.Equal(t, events.PriorityHigh, hist[0].Priority)

	// Advance 72h: effect applies, pending drains, quest resolves.
	env.tick(t0.Add(72 * time.Hour))
	assert.True(t, env.world.GetBool("guard.jenkins.offers_help"))
	assert.Empty(t, env.scheduler.Pending())
	assert.True(t, env.engine.IsCompleted("keys_lost"))
	_, stillActive := env.engine.Quest("keys_lost")
	assert.False(t, stillActive)
}

func TestResolveRequirementFailure(t *testing.T) {
	env := newFixture(t)
	env.world.Set("guard.jenkins.lost_keys", worldstate.Bool(true))
	env.tick(t0)
	require.NotNil(t, env.engine.DiscoverQuest("courtyard", t0))

	// No warden_keys in inventory.
	_, err := env.engine.Resolve("keys_lost", "return_keys", env.player.Snapshot(), t0)
	var reqErr *RequirementsError
	require.ErrorAs(t, err, &reqErr)
	require.Len(t, reqErr.Unmet, 1)
	assert.Equal(t, ReqItem, reqErr.Unmet[0].Kind)

	// Failed resolve mutates nothing.
	quest, _ := env.engine.Quest("keys_lost")
	assert.Equal(t, StateActive, quest.State)
	assert.Empty(t, env.scheduler.Pending())
}

func TestResolveUnknownBranch(t *testing.T) {
	env := newFixture(t)
	activateFoodConflict(t, env)
	_, err := env.engine.Resolve("food_conflict", "teleport_away", env.player.Snapshot(), t0)
	assert.Error(t, err)
}

func TestMoralWeightAndImpact(t *testing.T) {
	env := newFixture(t)
	env.world.Set("guard.jenkins.lost_keys", worldstate.Bool(true))
	env.tick(t0)
	require.NotNil(t, env.engine.DiscoverQuest("courtyard", t0))
	env.player.AddItem("warden_keys")

	res, err := env.engine.Resolve("keys_lost", "betrayal", env.player.Snapshot(), t0)
	require.NoError(t, err)
	assert.Equal(t, -50, res.MoralWeight)

	// 1 world change (0.10) + 2 relationships (0.30) + 1 new seed (0.25)
	// + 1 delayed (0.20) = 0.85.
	assert.InDelta(t, 0.85, res.ImpactScore, 1e-9)
}

func TestDelayedEffectForceActivatesNewSeed(t *testing.T) {
	env := newFixture(t)
	env.world.Set("guard.jenkins.lost_keys", worldstate.Bool(true))
	env.tick(t0)
	require.NotNil(t, env.engine.DiscoverQuest("courtyard", t0))
	env.player.AddItem("warden_keys")

	_, err := env.engine.Resolve("keys_lost", "betrayal", env.player.Snapshot(), t0)
	require.NoError(t, err)

	// 120h later the delayed effect fires and seeds the revenge quest.
	env.tick(t0.Add(120 * time.Hour))
	assert.True(t, env.world.GetBool("guard.jenkins.demoted"))

	revenge, ok := env.engine.Quest("jenkins_revenge")
	require.True(t, ok)
	assert.Equal(t, StateDiscoverable, revenge.State)
	assert.Equal(t, "your bunk has been searched",
		env.world.GetString("locations.cell_block.clue_jenkins_revenge"))
}

func TestTimeoutInclusiveBoundary(t *testing.T) {
	env := newFixture(t)
	quest := activateFoodConflict(t, env) // expiry 96h, time sensitive

	// One minute before expiry: still alive.
	env.tick(t0.Add(96*time.Hour - time.Minute))
	assert.Equal(t, StateActive, quest.State)

	// Exactly at expiry: failed.
	env.tick(t0.Add(96 * time.Hour))
	assert.True(t, env.engine.IsFailed("food_conflict"))
	assert.True(t, env.world.GetBool("quest.food_conflict.ignored"))

	failedEvents := env.bus.History(events.CategoryQuest, "quest_failed", 0)
	require.Len(t, failedEvents, 1)
}

func TestUndiscoveredQuestsNeverTimeOut(t *testing.T) {
	env := newFixture(t)
	env.world.Set("prison.food_supplies", worldstate.Int(8))
	env.tick(t0)
	// Discoverable, never discovered: no start time, no timeout.
	env.tick(t0.Add(500 * time.Hour))
	quest, ok := env.engine.Quest("food_conflict")
	require.True(t, ok)
	assert.Equal(t, StateDiscoverable, quest.State)
}

func TestExplicitFail(t *testing.T) {
	env := newFixture(t)
	activateFoodConflict(t, env)
	require.NoError(t, env.engine.Fail("food_conflict", "player_torched_evidence", t0))
	assert.True(t, env.engine.IsFailed("food_conflict"))
	assert.Error(t, env.engine.Fail("food_conflict", "again", t0))
}

func TestQueries(t *testing.T) {
	env := newFixture(t)
	quest := activateFoodConflict(t, env)

	assert.Len(t, env.engine.ActiveQuests(), 1)
	assert.Empty(t, env.engine.DiscoverableQuests())

	snap := env.player.Snapshot()
	snap.Skills["persuasion"] = 6
	branches := env.engine.AvailableBranches("food_conflict", snap)
	require.Len(t, branches, 1)
	assert.Equal(t, "diplomacy", branches[0].ID)

	quest.Investigation.AddClue("c1")
	st := env.engine.QuestStatus("food_conflict", t0.Add(24*time.Hour))
	assert.Equal(t, StateActive, st.State)
	assert.InDelta(t, 10.0, st.InvestigationPercent, 1e-9)
	assert.InDelta(t, 72.0, st.TimeRemainingHours, 1e-9)

	assert.Equal(t, State("unknown"), env.engine.QuestStatus("ghost", t0).State)
}

func TestEscapeStrategyVerbs(t *testing.T) {
	env := newFixture(t)
	env.world.Set("player.imprisoned", worldstate.Bool(true))
	env.world.Set("player.days_inside", worldstate.Int(5))
	env.tick(t0)
	require.NotNil(t, env.engine.DiscoverQuest("cell_5", t0))

	snap := env.player.Snapshot()
	snap.Reputation["wojtek"] = 50
	snap.Reputation["szpicel"] = -10

	// Scout reveals weaknesses in order and raises suspicion.
	res, err := env.engine.Investigate("prison_escape", ActionScout, "walls", snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"weakness_crack_north_wall"}, res.Discoveries)

	for i := 0; i < 5; i++ {
		res, err = env.engine.Investigate("prison_escape", ActionScout, "walls", snap)
		require.NoError(t, err)
	}
	assert.Contains(t, res.Dialogue, "scout_exhausted:walls")
	assert.Contains(t, res.Warnings, "guards_suspicious")

	// Recruit needs trust.
	res, err = env.engine.Investigate("prison_escape", ActionRecruit, "wojtek", snap)
	require.NoError(t, err)
	assert.Contains(t, res.Discoveries, "ally_wojtek")
	assert.True(t, env.world.GetBool("quest.prison_escape.accomplices.wojtek"))

	res, err = env.engine.Investigate("prison_escape", ActionRecruit, "szpicel", snap)
	require.NoError(t, err)
	assert.False(t, res.Success)

	// Prepare advances route progress in steps of 10, capped at 100.
	for i := 0; i < 12; i++ {
		res, err = env.engine.Investigate("prison_escape", ActionPrepare, "tunnel", snap)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(100), env.world.GetInt("quest.prison_escape.routes.tunnel.progress"))
	assert.Contains(t, res.Dialogue, "route_ready:tunnel")
}

func TestSerdeRoundTrip(t *testing.T) {
	env := newFixture(t)
	quest := activateFoodConflict(t, env)
	snap := env.player.Snapshot()
	snap.Reputation["wojtek"] = 50
	_, err := env.engine.Investigate("food_conflict", ActionInterrogate, "wojtek", snap)
	require.NoError(t, err)
	_, err = env.engine.Investigate("food_conflict", ActionSearch, "canteen", snap)
	require.NoError(t, err)

	blob := env.engine.ToBlob()

	fresh := NewEngine(env.world, env.scheduler, env.bus)
	for _, seed := range BuiltinSeeds() {
		fresh.RegisterSeed(seed)
	}
	require.NoError(t, fresh.Restore(blob))

	restored, ok := fresh.Quest("food_conflict")
	require.True(t, ok)
	assert.Equal(t, StateInvestigating, restored.State)
	assert.Equal(t, quest.StartTime, restored.StartTime)
	assert.ElementsMatch(t, quest.Investigation.ClueList, restored.Investigation.ClueList)
	_, hasClue := restored.Investigation.DiscoveredClues["clue_wojtek_friendly"]
	assert.True(t, hasClue)

	// The restored engine keeps working: repeat search is rejected.
	res, err := fresh.Investigate("food_conflict", ActionSearch, "canteen", snap)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestRestoreRejectsUnknownSeed(t *testing.T) {
	env := newFixture(t)
	blob := Blob{Active: []Quest{{SeedID: "not_registered"}}}
	assert.Error(t, env.engine.Restore(blob))
}
