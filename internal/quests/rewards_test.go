package quests

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewardScalesWithQuality(t *testing.T) {
	base := CalculateReward(3, 1.0)
	assert.Equal(t, 50, base.Gold)
	assert.Equal(t, 500, base.Experience)
	assert.Equal(t, []string{"metal_tools"}, base.Items)

	half := CalculateReward(3, 0.5)
	assert.Equal(t, 25, half.Gold)
	assert.Empty(t, half.Items)

	// Quality clamps to 0.5..1.5 and difficulty to 1..5.
	assert.Equal(t, CalculateReward(3, 0.1), CalculateReward(3, 0.5))
	assert.Equal(t, CalculateReward(99, 1.0).Gold, CalculateReward(5, 1.0).Gold)
	assert.Equal(t, CalculateReward(-2, 1.0).Gold, CalculateReward(1, 1.0).Gold)
}

func TestRewardTier(t *testing.T) {
	assert.Equal(t, 1, rewardTier(1))
	assert.Equal(t, 3, rewardTier(6))
	assert.Equal(t, 5, rewardTier(10))
	assert.Equal(t, 1, rewardTier(0))
}
