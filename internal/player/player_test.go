package player

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/prison-world/internal/skills"
)

func TestRegenerate(t *testing.T) {
	p := New("Mahan", 1)
	p.Health = 50
	p.Stamina = 0
	p.Pain = 40
	p.Injuries["torso"] = 10

	p.Regenerate(60)

	assert.InDelta(t, 51.2, p.Health, 1e-9)
	assert.InDelta(t, 30, p.Stamina, 1e-9)
	assert.InDelta(t, 34, p.Pain, 1e-9)
	assert.InDelta(t, 9.4, p.Injuries["torso"], 1e-9)
}

func TestUpdateStateTransitions(t *testing.T) {
	p := New("Mahan", 1)
	assert.Equal(t, StateHealthy, p.Stat)

	p.Health = 40
	assert.False(t, p.UpdateState())
	assert.Equal(t, StateWounded, p.Stat)

	p.Health = 10
	p.UpdateState()
	assert.Equal(t, StateCritical, p.Stat)

	p.Health = 0
	assert.True(t, p.UpdateState())
	assert.Equal(t, StateDead, p.Stat)
	assert.Equal(t, 1, p.DeathCount)

	// Already dead: no second death event, no regen.
	assert.False(t, p.UpdateState())
	p.Regenerate(600)
	assert.Equal(t, 0.0, p.Health)
}

func TestInventoryTokens(t *testing.T) {
	p := New("Mahan", 1)
	p.AddItem("lina")
	p.AddItem("lom")
	assert.True(t, p.HasItem("lina"))
	assert.True(t, p.RemoveItem("lina"))
	assert.False(t, p.HasItem("lina"))
	assert.False(t, p.RemoveItem("lina"))
}

func TestReputationClamped(t *testing.T) {
	p := New("Mahan", 1)
	p.AdjustReputation("guards", -150)
	assert.Equal(t, -100, p.Reputation["guards"])
	p.AdjustReputation("guards", 250)
	assert.Equal(t, 100, p.Reputation["guards"])
}

func TestTemporaryEffectsExpire(t *testing.T) {
	p := New("Mahan", 1)
	p.Curses = []TemporaryEffect{
		{Name: "marked", Strength: 1, HoursLeft: 5},
		{Name: "cursed_blood", Strength: 2, Indefinite: true},
	}
	p.TickEffects(5)
	require.Len(t, p.Curses, 1)
	assert.Equal(t, "cursed_blood", p.Curses[0].Name)
}

func TestSnapshotIsCopy(t *testing.T) {
	p := New("Mahan", 1)
	p.AddItem("klucz")
	p.AdjustReputation("prisoners", 40)
	p.CompleteQuest("food_conflict")

	snap := p.Snapshot()
	snap.Reputation["prisoners"] = -99
	snap.Inventory[0] = "zmiana"

	assert.Equal(t, 40, p.Reputation["prisoners"])
	assert.Equal(t, "klucz", p.Inventory[0])
	_, ok := snap.CompletedQuests["food_conflict"]
	assert.True(t, ok)
	assert.Equal(t, p.Skills.Level(skills.Swords), snap.Skills[skills.Swords])
}

func TestBlobRoundTrip(t *testing.T) {
	p := New("Mahan", 42)
	p.Gold = 120
	p.Pain = 15
	p.Injuries["right_arm"] = 30
	p.AddItem("mapa")
	p.AdjustReputation("guards", -20)
	p.CompleteQuest("keys_lost")

	raw, err := json.Marshal(p.ToBlob())
	require.NoError(t, err)

	var blob Blob
	require.NoError(t, json.Unmarshal(raw, &blob))
	restored := FromBlob(blob, 7)

	assert.Equal(t, p.Gold, restored.Gold)
	assert.Equal(t, p.Pain, restored.Pain)
	assert.Equal(t, p.Injuries["right_arm"], restored.Injuries["right_arm"])
	assert.True(t, restored.HasItem("mapa"))
	assert.Equal(t, -20, restored.Reputation["guards"])
	_, ok := restored.CompletedQuests["keys_lost"]
	assert.True(t, ok)
	assert.Equal(t, p.Skills.Level(skills.Swords), restored.Skills.Level(skills.Swords))
}
