// Package consequence owns deferred effects: delayed, recurring,
// conditional, and cascading consequences of quest resolutions, with karma
// accounting over everything that has been applied.
package consequence

import (
	"strings"
	"time"

	"github.com/talgya/prison-world/internal/npcs"
	"github.com/talgya/prison-world/internal/player"
	"github.com/talgya/prison-world/internal/skills"
	"github.com/talgya/prison-world/internal/worldstate"
)

// Kind classifies when and how a consequence fires.
type Kind string

const (
	KindImmediate   Kind = "immediate"
	KindDelayed     Kind = "delayed"
	KindRecurring   Kind = "recurring"
	KindConditional Kind = "conditional"
	KindCascading   Kind = "cascading"
	KindPermanent   Kind = "permanent"
)

// Severity grades a consequence from trivial (1) to critical (5).
type Severity int

const (
	SeverityTrivial  Severity = 1
	SeverityMinor    Severity = 2
	SeverityModerate Severity = 3
	SeverityMajor    Severity = 4
	SeverityCritical Severity = 5
)

// Target kinds for atomic effects.
const (
	TargetWorld        = "world"
	TargetRelationship = "relationship"
	TargetLocation     = "location"
	TargetEconomy      = "economy"
	TargetPlayer       = "player"
	TargetSpawnNPC     = "spawn_npc"
	TargetRemoveNPC    = "remove_npc"
	TargetSpawnEvent   = "spawn_event"
)

// Ops for world-path effects.
const (
	OpSet = "set"
	OpAdd = "add"
	OpMul = "mul"
)

// Effect is one atomic change. Which fields matter depends on TargetKind:
// world effects use TargetPath+Op+Value/Magnitude, relationship effects use
// TargetPath as the npc id and Magnitude as the delta, location effects
// merge Payload into locations.<TargetPath>, player effects use SubKind
// (reputation/skill/curse/blessing), spawn effects use Payload.
type Effect struct {
	TargetKind string                      `json:"target_kind"`
	TargetPath string                      `json:"target_path,omitempty"`
	SubKind    string                      `json:"sub_kind,omitempty"`
	Op         string                      `json:"op,omitempty"`
	Value      worldstate.Value            `json:"value,omitempty"`
	Magnitude  float64                     `json:"magnitude,omitempty"`
	Duration   int                         `json:"duration,omitempty"` // game hours
	Payload    map[string]worldstate.Value `json:"payload,omitempty"`
}

// Consequence is a deferred effect bundle owned by the scheduler. Quests
// hold only the id.
type Consequence struct {
	ID                string                          `json:"id"`
	SourceQuest       string                          `json:"source_quest"`
	Kind              Kind                            `json:"kind"`
	Severity          Severity                        `json:"severity"`
	Description       string                          `json:"description,omitempty"`
	TriggerTime       time.Time                       `json:"trigger_time,omitzero"`
	ExpiryTime        time.Time                       `json:"expiry_time,omitzero"`
	TriggerConditions map[string]worldstate.Condition `json:"trigger_conditions,omitempty"`
	Effects           []Effect                        `json:"effects"`
	NextIDs           []string                        `json:"next_ids,omitempty"`
	RecurEvery        time.Duration                   `json:"recur_every,omitempty"`
	Triggered         bool                            `json:"triggered"`
}

// CanTrigger reports whether the consequence may fire at now against the
// world state. Non-recurring consequences fire at most once.
func (c *Consequence) CanTrigger(world *worldstate.Store, now time.Time) bool {
	if c.Triggered && c.Kind != KindRecurring {
		return false
	}
	if !c.TriggerTime.IsZero() && now.Before(c.TriggerTime) {
		return false
	}
	if !c.ExpiryTime.IsZero() && now.After(c.ExpiryTime) {
		return false
	}
	return world.MatchAll(c.TriggerConditions)
}

// applyEffect mutates world/player/npcs for one atomic effect and reports
// symbolic change tokens.
func applyEffect(eff Effect, world *worldstate.Store, pl *player.Player, registry *npcs.Registry, reverse bool) map[string]any {
	changes := make(map[string]any)
	mag := eff.Magnitude
	if reverse {
		mag = -mag
	}

	switch eff.TargetKind {
	case TargetWorld:
		switch eff.Op {
		case OpAdd:
			world.Add(eff.TargetPath, mag)
		case OpMul:
			factor := mag
			if reverse && factor != 0 {
				factor = 1 / eff.Magnitude
			}
			world.Mul(eff.TargetPath, factor)
		default: // set
			world.Set(eff.TargetPath, eff.Value)
		}
		changes[eff.TargetPath] = eff.Op

	case TargetRelationship:
		delta := int(mag)
		if pl != nil {
			pl.AdjustReputation(eff.TargetPath, delta)
		}
		if registry != nil {
			registry.AdjustDisposition(eff.TargetPath, delta)
		}
		world.AddInt("relationships."+eff.TargetPath, int64(delta))
		changes["relationship_"+eff.TargetPath] = delta

	case TargetLocation:
		world.MergeMapping("locations."+eff.TargetPath, eff.Payload)
		changes["location_"+eff.TargetPath] = len(eff.Payload)

	case TargetEconomy:
		switch eff.SubKind {
		case "inflation":
			factor := 1 + mag
			world.Mul("economy.inflation_rate", factor)
			if world.Get("economy.inflation_rate").IsAbsent() {
				world.Set("economy.inflation_rate", worldstate.Float(factor))
			}
			changes["inflation"] = mag
		case "shortage":
			world.Add("economy.shortages."+eff.TargetPath, mag)
			changes["shortage_"+eff.TargetPath] = mag
		case "trade_route":
			if mag > 0 {
				world.Set("economy.trade_routes."+eff.TargetPath, worldstate.Bool(true))
			} else {
				world.Set("economy.trade_routes."+eff.TargetPath, worldstate.Bool(false))
			}
			changes["trade_route_"+eff.TargetPath] = mag > 0
		}

	case TargetPlayer:
		if pl == nil {
			break
		}
		switch eff.SubKind {
		case "reputation":
			pl.AdjustReputation(eff.TargetPath, int(mag))
			changes["rep_"+eff.TargetPath] = int(mag)
		case "skill":
			if s := pl.Skills.Get(skills.ID(eff.TargetPath)); s != nil {
				s.Level += int(mag)
				if s.Level < 0 {
					s.Level = 0
				}
				changes["skill_"+eff.TargetPath] = int(mag)
			}
		case "curse":
			if !reverse {
				pl.Curses = append(pl.Curses, player.TemporaryEffect{
					Name: eff.TargetPath, Strength: mag,
					HoursLeft: eff.Duration, Indefinite: eff.Duration == 0,
				})
				changes["curse"] = eff.TargetPath
			}
		case "blessing":
			if !reverse {
				pl.Blessings = append(pl.Blessings, player.TemporaryEffect{
					Name: eff.TargetPath, Strength: mag,
					HoursLeft: eff.Duration, Indefinite: eff.Duration == 0,
				})
				changes["blessing"] = eff.TargetPath
			}
		}

	case TargetSpawnNPC:
		if reverse {
			break
		}
		if registry != nil {
			npc := &npcs.NPC{ID: eff.TargetPath}
			if name, ok := eff.Payload["name"]; ok {
				npc.Name, _ = name.AsString()
			}
			if role, ok := eff.Payload["role"]; ok {
				npc.Role, _ = role.AsString()
			}
			if loc, ok := eff.Payload["location"]; ok {
				npc.Location, _ = loc.AsString()
			}
			registry.Add(npc)
		}
		world.MergeMapping("npcs."+eff.TargetPath, eff.Payload)
		changes["new_npc_"+eff.TargetPath] = true

	case TargetRemoveNPC:
		if reverse {
			break
		}
		if registry != nil {
			registry.Remove(eff.TargetPath)
		}
		world.Delete("npcs." + eff.TargetPath)
		changes["removed_npc_"+eff.TargetPath] = true

	case TargetSpawnEvent:
		if reverse {
			break
		}
		pending := world.Get("events.pending")
		if pending.Kind != worldstate.KindList {
			pending = worldstate.List()
		}
		pending.L = append(pending.L, worldstate.String(eff.TargetPath))
		world.Set("events.pending", pending)
		changes["spawn_event"] = eff.TargetPath
	}

	return changes
}

// isChaotic/isOrderly classify effect paths for karma accounting.
func isChaotic(eff Effect) bool {
	return pathHasAny(eff, "danger", "unrest", "riot", "violence")
}

func isOrderly(eff Effect) bool {
	return pathHasAny(eff, "security", "order", "reform")
}

func pathHasAny(eff Effect, words ...string) bool {
	hay := eff.TargetPath + " " + eff.SubKind
	for _, w := range words {
		if strings.Contains(hay, w) {
			return true
		}
	}
	return false
}
