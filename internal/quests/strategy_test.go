package quests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/prison-world/internal/worldstate"
)

func activateCustom(t *testing.T, env *fixtureEnv, seed *Seed) *Quest {
	t.Helper()
	env.engine.RegisterSeed(seed)
	env.world.Set("trigger."+seed.QuestID, worldstate.Bool(true))
	env.tick(t0)
	clueLoc := ""
	for loc := range seed.InitialClues {
		clueLoc = loc
	}
	require.NotNil(t, env.engine.DiscoverQuest(clueLoc, t0))
	quest, ok := env.engine.Quest(seed.QuestID)
	require.True(t, ok)
	return quest
}

func customSeed(id string, kind Kind) *Seed {
	return &Seed{
		QuestID: id,
		Name:    id,
		Kind:    kind,
		ActivationConditions: map[string]worldstate.Condition{
			"trigger." + id: worldstate.Literal(worldstate.Bool(true)),
		},
		DiscoveryMethods: []DiscoveryMethod{DiscoveryFound},
		InitialClues:     map[string]string{"somewhere": "a loose thread"},
		Priority:         5,
		Branches: []Branch{
			{ID: "blackmail"},
			{ID: "forgive"},
			{ID: "violence"},
		},
	}
}

func TestCorruptionEvidenceTrail(t *testing.T) {
	env := newFixture(t)
	quest := activateCustom(t, env, customSeed("dirty_books", KindCorruption))
	snap := env.player.Snapshot()

	// Evidence locations yield documents in a fixed order.
	res, err := env.engine.Investigate("dirty_books", ActionSearch, "warden_office", snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"evidence_ledger_discrepancy"}, res.Discoveries)

	res, err = env.engine.Investigate("dirty_books", ActionSearch, "storeroom", snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"evidence_missing_inventory"}, res.Discoveries)
	assert.Len(t, quest.Investigation.Evidence, 2)

	// Non-evidence locations fall through to the generic search.
	res, err = env.engine.Investigate("dirty_books", ActionSearch, "canteen", snap)
	require.NoError(t, err)
	assert.Contains(t, res.Discoveries, "clue_location_canteen_obvious")

	// The trail runs dry after every document is found.
	for i := 0; i < 3; i++ {
		res, _ = env.engine.Investigate("dirty_books", ActionSearch, "warden_office", snap)
	}
	assert.Contains(t, res.Dialogue, "evidence_exhausted:warden_office")
}

func TestCorruptionMoralOverride(t *testing.T) {
	env := newFixture(t)
	activateCustom(t, env, customSeed("dirty_books", KindCorruption))

	res, err := env.engine.Resolve("dirty_books", "blackmail", env.player.Snapshot(), t0)
	require.NoError(t, err)
	assert.Equal(t, -35, res.MoralWeight)
}

func TestRevengeStrategy(t *testing.T) {
	env := newFixture(t)
	quest := activateCustom(t, env, customSeed("old_grudge", KindRevenge))
	snap := env.player.Snapshot()

	res, err := env.engine.Investigate("old_grudge", ActionScout, "jenkins", snap)
	require.NoError(t, err)
	assert.Equal(t, []string{"routine_jenkins"}, res.Discoveries)
	assert.True(t, env.world.GetBool("quest.old_grudge.marked.jenkins"))

	// Forgiveness outweighs the shared diplomacy entry; violence is worse
	// than the table default when it's personal.
	resolved, err := env.engine.Resolve("old_grudge", "forgive", snap, t0)
	require.NoError(t, err)
	assert.Equal(t, 35, resolved.MoralWeight)

	assert.Equal(t, quest, mustQuest(env, "old_grudge"))
}

func mustQuest(env *fixtureEnv, id string) *Quest {
	q, _ := env.engine.Quest(id)
	return q
}
