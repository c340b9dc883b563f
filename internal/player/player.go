// Package player holds the player character record: vital stats, pain and
// injuries, inventory, reputation, and the snapshot projection the quest
// engine evaluates branch requirements against.
package player

import (
	"math"

	"github.com/talgya/prison-world/internal/skills"
)

// State describes the player's overall condition.
type State string

const (
	StateHealthy  State = "healthy"
	StateWounded  State = "wounded"
	StateCritical State = "critical"
	StateDead     State = "dead"
)

// TemporaryEffect is a curse or blessing applied by a consequence, with an
// optional duration in game hours (0 = indefinite).
type TemporaryEffect struct {
	Name       string  `json:"name"`
	Strength   float64 `json:"strength"`
	HoursLeft  int     `json:"hours_left"`
	Indefinite bool    `json:"indefinite"`
}

// Player is the character record. Skills are owned here via the skill
// system; everything else is plain state.
type Player struct {
	Name       string  `json:"name"`
	Health     float64 `json:"health"` // 0..MaxHealth
	MaxHealth  float64 `json:"max_health"`
	Stamina    float64 `json:"stamina"`
	MaxStamina float64 `json:"max_stamina"`
	Pain       float64 `json:"pain"` // 0..100
	Gold       int     `json:"gold"`
	Experience int     `json:"experience"`
	DeathCount int     `json:"death_count"`

	Injuries   map[string]float64 `json:"injuries"` // body part -> 0..100
	Inventory  []string           `json:"inventory"`
	Reputation map[string]int     `json:"reputation"` // faction/npc -> -100..100
	Stats      map[string]int     `json:"stats"`      // strength, agility, ...
	Curses     []TemporaryEffect  `json:"curses,omitempty"`
	Blessings  []TemporaryEffect  `json:"blessings,omitempty"`

	CompletedQuests map[string]struct{} `json:"-"`
	CompletedList   []string            `json:"completed_quests"`

	Location string `json:"location"`
	Stat     State  `json:"state"`

	Skills *skills.System `json:"-"`
}

// New creates a fresh player in the starting cell.
func New(name string, skillSeed int64) *Player {
	return &Player{
		Name:       name,
		Health:     100,
		MaxHealth:  100,
		Stamina:    100,
		MaxStamina: 100,
		Injuries:   make(map[string]float64),
		Reputation: make(map[string]int),
		Stats: map[string]int{
			"strength": 10, "agility": 10, "endurance": 10,
			"intelligence": 10, "willpower": 10,
		},
		CompletedQuests: make(map[string]struct{}),
		Location:        "cell_1",
		Stat:            StateHealthy,
		Skills:          skills.NewSystem(skillSeed),
	}
}

// Regenerate advances passive recovery by minutes of game time: stamina
// refills quickly, health and injuries knit slowly, pain fades.
func (p *Player) Regenerate(minutes int) {
	if p.Stat == StateDead {
		return
	}
	m := float64(minutes)
	p.Stamina = math.Min(p.MaxStamina, p.Stamina+0.5*m)
	p.Health = math.Min(p.MaxHealth, p.Health+0.02*m)
	p.Pain = math.Max(0, p.Pain-0.1*m)
	for part, level := range p.Injuries {
		p.Injuries[part] = math.Max(0, level-0.01*m)
	}
}

// TickEffects counts down curse/blessing durations by the given game hours
// and drops expired ones.
func (p *Player) TickEffects(hours int) {
	p.Curses = tickEffectList(p.Curses, hours)
	p.Blessings = tickEffectList(p.Blessings, hours)
}

func tickEffectList(list []TemporaryEffect, hours int) []TemporaryEffect {
	out := list[:0]
	for _, eff := range list {
		if !eff.Indefinite {
			eff.HoursLeft -= hours
			if eff.HoursLeft <= 0 {
				continue
			}
		}
		out = append(out, eff)
	}
	return out
}

// UpdateState recomputes the condition from health; returns true when the
// player just died.
func (p *Player) UpdateState() bool {
	if p.Stat == StateDead {
		return false
	}
	switch {
	case p.Health <= 0:
		p.Stat = StateDead
		p.DeathCount++
		return true
	case p.Health < 25:
		p.Stat = StateCritical
	case p.Health < 60:
		p.Stat = StateWounded
	default:
		p.Stat = StateHealthy
	}
	return false
}

// HasItem reports whether an inventory token is present.
func (p *Player) HasItem(token string) bool {
	for _, it := range p.Inventory {
		if it == token {
			return true
		}
	}
	return false
}

// AddItem appends an inventory token.
func (p *Player) AddItem(token string) { p.Inventory = append(p.Inventory, token) }

// RemoveItem drops the first matching token; returns false when absent.
func (p *Player) RemoveItem(token string) bool {
	for i, it := range p.Inventory {
		if it == token {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return true
		}
	}
	return false
}

// AdjustReputation shifts standing with a faction, clamped to -100..100.
func (p *Player) AdjustReputation(faction string, delta int) {
	v := p.Reputation[faction] + delta
	if v > 100 {
		v = 100
	}
	if v < -100 {
		v = -100
	}
	p.Reputation[faction] = v
}

// CompleteQuest records a finished quest id.
func (p *Player) CompleteQuest(questID string) {
	if _, ok := p.CompletedQuests[questID]; ok {
		return
	}
	p.CompletedQuests[questID] = struct{}{}
	p.CompletedList = append(p.CompletedList, questID)
}

// Snapshot is the read-only projection the quest engine evaluates
// requirements against.
type Snapshot struct {
	Skills          map[skills.ID]int   `json:"skills"`
	Inventory       []string            `json:"inventory"`
	Reputation      map[string]int      `json:"reputation"`
	CompletedQuests map[string]struct{} `json:"-"`
	Stats           map[string]int      `json:"stats"`
	Location        string              `json:"location"`
}

// Snapshot builds a copy-safe view of the player.
func (p *Player) Snapshot() Snapshot {
	rep := make(map[string]int, len(p.Reputation))
	for k, v := range p.Reputation {
		rep[k] = v
	}
	stats := make(map[string]int, len(p.Stats))
	for k, v := range p.Stats {
		stats[k] = v
	}
	completed := make(map[string]struct{}, len(p.CompletedQuests))
	for k := range p.CompletedQuests {
		completed[k] = struct{}{}
	}
	inv := make([]string, len(p.Inventory))
	copy(inv, p.Inventory)
	return Snapshot{
		Skills:          p.Skills.Levels(),
		Inventory:       inv,
		Reputation:      rep,
		CompletedQuests: completed,
		Stats:           stats,
		Location:        p.Location,
	}
}

// Blob is the serializable image of the player, including skills.
type Blob struct {
	Player Player          `json:"player"`
	Skills skills.Snapshot `json:"skills"`
}

// ToBlob captures the player for save-game serialization.
func (p *Player) ToBlob() Blob {
	copied := *p
	copied.CompletedList = append([]string(nil), p.CompletedList...)
	return Blob{Player: copied, Skills: p.Skills.Snapshot()}
}

// FromBlob restores a player from a save blob. skillSeed seeds the RNG for
// post-load rolls; all persistent skill state comes from the blob.
func FromBlob(blob Blob, skillSeed int64) *Player {
	p := blob.Player
	if p.Injuries == nil {
		p.Injuries = make(map[string]float64)
	}
	if p.Reputation == nil {
		p.Reputation = make(map[string]int)
	}
	if p.Stats == nil {
		p.Stats = make(map[string]int)
	}
	p.CompletedQuests = make(map[string]struct{}, len(p.CompletedList))
	for _, id := range p.CompletedList {
		p.CompletedQuests[id] = struct{}{}
	}
	p.Skills = skills.NewSystem(skillSeed)
	p.Skills.Restore(blob.Skills)
	return &p
}
