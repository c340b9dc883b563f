package sim

import (
	"github.com/talgya/prison-world/internal/consequence"
	"github.com/talgya/prison-world/internal/player"
	"github.com/talgya/prison-world/internal/quests"
	"github.com/talgya/prison-world/internal/weather"
)

// GameStateView is the read-only projection the presentation layer renders.
type GameStateView struct {
	PlayerName     string             `json:"player_name"`
	PlayerSnapshot player.Snapshot    `json:"player_snapshot"`
	Health         float64            `json:"health"`
	Pain           float64            `json:"pain"`
	Gold           int                `json:"gold"`
	Location       string             `json:"location"`
	GameTime       int                `json:"game_time"` // minutes into the day
	Day            int                `json:"day"`
	Mode           Mode               `json:"mode"`
	Weather        weather.Conditions `json:"weather"`
	Quests         []quests.Status    `json:"quests"`
	PendingEffects int                `json:"pending_effects"`
	Karma          consequence.Karma  `json:"karma"`
	Statistics     Statistics         `json:"statistics"`
}

// View builds the current projection.
func (s *Simulation) View() GameStateView {
	now := s.World.Now()
	var questStatuses []quests.Status
	for _, q := range s.Quests.ActiveQuests() {
		questStatuses = append(questStatuses, s.Quests.QuestStatus(q.ID(), now))
	}
	return GameStateView{
		PlayerName:     s.Player.Name,
		PlayerSnapshot: s.buildSnapshot(),
		Health:         s.Player.Health,
		Pain:           s.Player.Pain,
		Gold:           s.Player.Gold,
		Location:       s.Player.Location,
		GameTime:       s.World.GameTime,
		Day:            s.World.Day,
		Mode:           s.mode,
		Weather:        s.Weather.Current(),
		Quests:         questStatuses,
		PendingEffects: len(s.Scheduler.Pending()),
		Karma:          s.Scheduler.KarmaScore(),
		Statistics:     s.stats,
	}
}
