package quests

// Reward is the payout for finishing a quest of a given difficulty tier.
type Reward struct {
	Gold       int      `json:"gold"`
	Experience int      `json:"experience"`
	Reputation int      `json:"reputation"`
	Items      []string `json:"items,omitempty"`
}

// rewardTable is indexed by difficulty tier 1..5.
var rewardTable = map[int]Reward{
	1: {Gold: 10, Experience: 100, Reputation: 5, Items: []string{"bread", "water"}},
	2: {Gold: 25, Experience: 250, Reputation: 10, Items: []string{"shiv", "shield"}},
	3: {Gold: 50, Experience: 500, Reputation: 15, Items: []string{"metal_tools", "rope"}},
	4: {Gold: 100, Experience: 1000, Reputation: 25, Items: []string{"master_key", "secret_map"}},
	5: {Gold: 200, Experience: 2000, Reputation: 50, Items: []string{"artifact", "skill_scroll"}},
}

// CalculateReward scales the tier payout by completion quality (clamped
// 0.5..1.5). An item is included only at full quality or better.
func CalculateReward(difficulty int, quality float64) Reward {
	if difficulty < 1 {
		difficulty = 1
	}
	if difficulty > 5 {
		difficulty = 5
	}
	if quality < 0.5 {
		quality = 0.5
	}
	if quality > 1.5 {
		quality = 1.5
	}

	base := rewardTable[difficulty]
	reward := Reward{
		Gold:       int(float64(base.Gold) * quality),
		Experience: int(float64(base.Experience) * quality),
		Reputation: int(float64(base.Reputation) * quality),
	}
	if quality >= 1.0 && len(base.Items) > 0 {
		reward.Items = []string{base.Items[0]}
	}
	return reward
}
