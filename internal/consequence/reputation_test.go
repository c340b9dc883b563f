package consequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReputationTitleLadder(t *testing.T) {
	cases := map[int]string{
		100: "legendary", 80: "revered", 50: "respected", 30: "accepted",
		0: "neutral", -10: "disliked", -40: "despised", -60: "hated", -100: "public_enemy",
	}
	for rep, want := range cases {
		assert.Equal(t, want, ReputationTitle(rep), "rep=%d", rep)
	}
}

func TestReputationEffectsThresholds(t *testing.T) {
	current := map[string]int{"prisoners": 20, "guards": -20}
	changes := map[string]int{"prisoners": 35, "guards": -10}

	shifts := ReputationEffects(changes, current)
	require.Len(t, shifts, 2)

	// Sorted by faction name.
	guards, prisoners := shifts[0], shifts[1]

	assert.Equal(t, "guards", guards.Faction)
	assert.Contains(t, guards.LostOpportunities, "guards_hostile")

	assert.Equal(t, "prisoners", prisoners.Faction)
	assert.Equal(t, "neutral", prisoners.OldTitle)
	assert.Equal(t, "respected", prisoners.NewTitle)
	assert.Contains(t, prisoners.NewOpportunities, "prisoners_allied_quests")
}

func TestReputationEffectsNoCrossing(t *testing.T) {
	shifts := ReputationEffects(map[string]int{"guards": 2}, map[string]int{"guards": 10})
	assert.Empty(t, shifts)
}

func TestApplyReportsReputationShifts(t *testing.T) {
	s, world, pl, reg := fixture()
	pl.Reputation["prisoners"] = 20
	s.Register(&Consequence{
		ID: "hero_moment", Kind: KindDelayed, TriggerTime: t0,
		Effects: []Effect{{TargetKind: TargetRelationship, TargetPath: "prisoners", Magnitude: 40}},
	})

	results := s.ProcessDue(t0, world, pl, reg)
	require.Len(t, results, 1)
	require.Len(t, results[0].ReputationShifts, 1)
	shift := results[0].ReputationShifts[0]
	assert.Equal(t, "neutral", shift.OldTitle)
	assert.Equal(t, "respected", shift.NewTitle)
}
