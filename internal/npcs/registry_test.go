package npcs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/prison-world/internal/events"
	"github.com/talgya/prison-world/internal/worldstate"
)

func guardJenkins() *NPC {
	return &NPC{
		ID:       "jenkins",
		Name:     "Jenkins",
		Role:     "guard",
		Location: "guardroom",
		Schedule: []ScheduleEntry{
			{FromMinute: 360, Location: "courtyard"},
			{FromMinute: 840, Location: "guardroom"},
			{FromMinute: 1320, Location: "barracks"},
		},
	}
}

func TestAddGetRemove(t *testing.T) {
	r := NewRegistry()
	r.Add(guardJenkins())

	npc, err := r.Get("jenkins")
	require.NoError(t, err)
	assert.True(t, npc.Alive)

	_, err = r.Get("nobody")
	assert.Error(t, err)

	r.Remove("jenkins")
	_, err = r.Get("jenkins")
	assert.Error(t, err)
	assert.Empty(t, r.All())
}

func TestScheduleFollowsClock(t *testing.T) {
	r := NewRegistry()
	r.Add(guardJenkins())
	world := worldstate.New()
	bus := events.NewBus()

	world.GameTime = 400
	r.Update(world, bus)
	npc, _ := r.Get("jenkins")
	assert.Equal(t, "courtyard", npc.Location)

	// Overnight wrap: before the first entry the last entry holds.
	world.GameTime = 100
	r.Update(world, bus)
	assert.Equal(t, "barracks", npc.Location)

	moves := bus.History("", "npc_moved", 0)
	assert.Len(t, moves, 2)
}

func TestUpdateMirrorsIntoWorld(t *testing.T) {
	r := NewRegistry()
	jenkins := guardJenkins()
	jenkins.Disposition = -40
	r.Add(jenkins)

	world := worldstate.New()
	world.GameTime = 400
	r.Update(world, events.NewBus())

	assert.Equal(t, "Jenkins", world.GetString("npcs.jenkins.name"))
	assert.Equal(t, "courtyard", world.GetString("npcs.jenkins.location"))
	assert.Equal(t, int64(-40), world.GetInt("relationships.jenkins"))
}

func TestDispositionClamp(t *testing.T) {
	r := NewRegistry()
	r.Add(guardJenkins())
	r.AdjustDisposition("jenkins", -150)
	npc, _ := r.Get("jenkins")
	assert.Equal(t, -100, npc.Disposition)
	r.AdjustDisposition("jenkins", 300)
	assert.Equal(t, 100, npc.Disposition)
	// Unknown id is a no-op.
	r.AdjustDisposition("ghost", 10)
}

func TestAtSortsIds(t *testing.T) {
	r := NewRegistry()
	r.Add(&NPC{ID: "wojtek", Name: "Wojtek", Role: "prisoner", Location: "cell_5"})
	r.Add(&NPC{ID: "brutus", Name: "Brutus", Role: "prisoner", Location: "cell_5"})
	assert.Equal(t, []string{"brutus", "wojtek"}, r.At("cell_5"))
	assert.Empty(t, r.At("chapel"))
}

func TestReputationView(t *testing.T) {
	r := NewRegistry()
	r.Add(&NPC{ID: "a", Role: "guard", Disposition: 20})
	r.Add(&NPC{ID: "b", Role: "guard", Disposition: -40})
	r.Add(&NPC{ID: "c", Role: "prisoner", Disposition: 50})

	view := r.ReputationView()
	assert.Equal(t, -10, view["guard"])
	assert.Equal(t, 50, view["prisoner"])
}

func TestBlobRoundTrip(t *testing.T) {
	r := NewRegistry()
	jenkins := guardJenkins()
	jenkins.Disposition = 15
	r.Add(jenkins)
	dead := &NPC{ID: "stary_jan", Name: "Stary Jan", Role: "prisoner", Location: "infirmary"}
	r.Add(dead)
	dead.Alive = false

	raw, err := json.Marshal(r.ToBlob())
	require.NoError(t, err)

	var blob Blob
	require.NoError(t, json.Unmarshal(raw, &blob))
	restored := FromBlob(blob)

	npc, err := restored.Get("jenkins")
	require.NoError(t, err)
	assert.Equal(t, 15, npc.Disposition)
	assert.Len(t, npc.Schedule, 3)

	jan, err := restored.Get("stary_jan")
	require.NoError(t, err)
	assert.False(t, jan.Alive)
}
