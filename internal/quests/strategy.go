package quests

import (
	"fmt"
	"sort"

	"github.com/talgya/prison-world/internal/player"
	"github.com/talgya/prison-world/internal/worldstate"
)

// Action is an investigation verb.
type Action string

const (
	ActionInterrogate Action = "interrogate"
	ActionSearch      Action = "search"
	ActionAnalyze     Action = "analyze"
	ActionScout       Action = "scout"
	ActionRecruit     Action = "recruit"
	ActionPrepare     Action = "prepare"
)

// Strategy extends the shared quest machinery with kind-specific behavior.
// Strategies are stateless; any mutable per-quest state lives in the world
// store under quest.<id>.* so saves round-trip for free.
type Strategy interface {
	// ExtendInvestigation handles scout/recruit/prepare (and may veto or
	// enrich the generic verbs). handled=false falls through to the core.
	ExtendInvestigation(q *Quest, world *worldstate.Store, action Action, target string, snap player.Snapshot) (res InvestigateResult, handled bool)

	// MoralWeight overrides the default table for a branch; ok=false defers.
	MoralWeight(branchID string) (weight int, ok bool)

	// ApplyFailure writes the quest's failure consequences into the world.
	ApplyFailure(q *Quest, world *worldstate.Store)
}

// strategyFor returns the strategy for a seed kind.
func strategyFor(kind Kind) Strategy {
	switch kind {
	case KindEscape:
		return escapeStrategy{}
	case KindContraband:
		return contrabandStrategy{}
	case KindGangWar:
		return gangWarStrategy{}
	case KindDisease:
		return diseaseStrategy{}
	case KindCorruption:
		return corruptionStrategy{}
	case KindRevenge:
		return revengeStrategy{}
	default:
		return genericStrategy{}
	}
}

// genericStrategy marks ignored quests and defers everything else.
type genericStrategy struct{}

func (genericStrategy) ExtendInvestigation(*Quest, *worldstate.Store, Action, string, player.Snapshot) (InvestigateResult, bool) {
	return InvestigateResult{}, false
}

func (genericStrategy) MoralWeight(string) (int, bool) { return 0, false }

func (genericStrategy) ApplyFailure(q *Quest, world *worldstate.Store) {
	world.Set("quest."+q.ID()+".ignored", worldstate.Bool(true))
}

// escapeStrategy tracks escape routes, accomplices, and guard suspicion in
// the world store.
type escapeStrategy struct{}

// Escape route definitions: target token -> ordered weaknesses revealed by
// scouting.
var escapeWeaknesses = map[string][]string{
	"walls":  {"crack_north_wall", "loose_bricks_kitchen", "undermined_cell5"},
	"bars":   {"rusted_window_bar", "loose_hinges", "weak_storeroom_lock"},
	"guards": {"night_watch_sleeps", "captain_drinks_fridays", "distracted_recruit"},
}

func (escapeStrategy) ExtendInvestigation(q *Quest, world *worldstate.Store, action Action, target string, snap player.Snapshot) (InvestigateResult, bool) {
	base := "quest." + q.ID() + "."
	res := InvestigateResult{QuestID: q.ID(), Action: action, Target: target}

	switch action {
	case ActionScout:
		pool, ok := escapeWeaknesses[target]
		if !ok {
			res.Dialogue = append(res.Dialogue, "scout_nothing_there")
			return res, true
		}
		// Reveal the next undiscovered weakness for this target.
		found := int(world.GetInt(base + "scouted." + target))
		if found < len(pool) {
			weakness := pool[found]
			world.AddInt(base+"scouted."+target, 1)
			q.Investigation.AddClue("weakness_" + weakness)
			res.Discoveries = append(res.Discoveries, "weakness_"+weakness)
			res.Dialogue = append(res.Dialogue, "scout_found:"+weakness)
		} else {
			res.Dialogue = append(res.Dialogue, "scout_exhausted:"+target)
		}
		// Scouting raises suspicion.
		world.Add(base+"guard_suspicion", 0.1)
		if world.GetFloat(base+"guard_suspicion") > 0.5 {
			res.Warnings = append(res.Warnings, "guards_suspicious")
		}
		res.Success = true
		return res, true

	case ActionRecruit:
		rep := snap.Reputation[target]
		if rep > 30 {
			key := base + "accomplices." + target
			if !world.GetBool(key) {
				world.Set(key, worldstate.Bool(true))
				res.Discoveries = append(res.Discoveries, "ally_"+target)
				res.Dialogue = append(res.Dialogue, "recruit_joined:"+target)
			} else {
				res.Dialogue = append(res.Dialogue, "recruit_already_in:"+target)
			}
			res.Success = true
		} else {
			res.Dialogue = append(res.Dialogue, "recruit_distrusts:"+target)
		}
		return res, true

	case ActionPrepare:
		key := base + "routes." + target + ".progress"
		progress := world.GetInt(key)
		world.Set(key, worldstate.Int(minInt64(progress+10, 100)))
		progress = world.GetInt(key)
		res.Discoveries = append(res.Discoveries, fmt.Sprintf("progress_%s_%d", target, progress))
		if progress >= 100 {
			res.Dialogue = append(res.Dialogue, "route_ready:"+target)
		}
		res.Success = true
		return res, true
	}
	return res, false
}

func (escapeStrategy) MoralWeight(branchID string) (int, bool) {
	// Abandoning fellow prisoners mid-escape weighs heavier here.
	if branchID == "betrayal" {
		return -60, true
	}
	return 0, false
}

func (escapeStrategy) ApplyFailure(q *Quest, world *worldstate.Store) {
	world.Set("quest."+q.ID()+".ignored", worldstate.Bool(true))
	world.Add("quest."+q.ID()+".guard_suspicion", 0.2)
}

// contrabandStrategy prices goods off the shortage table.
type contrabandStrategy struct{}

func (contrabandStrategy) ExtendInvestigation(q *Quest, world *worldstate.Store, action Action, target string, snap player.Snapshot) (InvestigateResult, bool) {
	if action != ActionScout {
		return InvestigateResult{}, false
	}
	res := InvestigateResult{QuestID: q.ID(), Action: action, Target: target, Success: true}
	// Scouting the market reveals which goods are short, worst first.
	shortages := world.Get("economy.shortages")
	if shortages.Kind != worldstate.KindMapping || len(shortages.M) == 0 {
		res.Dialogue = append(res.Dialogue, "market_calm")
		return res, true
	}
	goods := make([]string, 0, len(shortages.M))
	for g := range shortages.M {
		goods = append(goods, g)
	}
	sort.Slice(goods, func(i, j int) bool {
		a, _ := shortages.M[goods[i]].AsFloat()
		b, _ := shortages.M[goods[j]].AsFloat()
		if a != b {
			return a > b
		}
		return goods[i] < goods[j]
	})
	for _, g := range goods {
		clue := "shortage_" + g
		if q.Investigation.AddClue(clue) {
			res.Discoveries = append(res.Discoveries, clue)
			break
		}
	}
	return res, true
}

func (contrabandStrategy) MoralWeight(branchID string) (int, bool) {
	if branchID == "undercut_gangs" {
		return -25, true
	}
	return 0, false
}

func (contrabandStrategy) ApplyFailure(q *Quest, world *worldstate.Store) {
	world.Set("quest."+q.ID()+".ignored", worldstate.Bool(true))
	world.Add("economy.shortages.bread", 0.2)
}

// gangWarStrategy tracks escalation between the two sides.
type gangWarStrategy struct{}

func (gangWarStrategy) ExtendInvestigation(q *Quest, world *worldstate.Store, action Action, target string, snap player.Snapshot) (InvestigateResult, bool) {
	if action != ActionScout {
		return InvestigateResult{}, false
	}
	base := "quest." + q.ID() + "."
	res := InvestigateResult{QuestID: q.ID(), Action: action, Target: target, Success: true}
	tension := world.GetFloat("gang_tensions")
	clue := "tension_low"
	switch {
	case tension > 0.9:
		clue = "tension_boiling"
	case tension > 0.7:
		clue = "tension_high"
	case tension > 0.4:
		clue = "tension_rising"
	}
	if q.Investigation.AddClue(clue) {
		res.Discoveries = append(res.Discoveries, clue)
	}
	world.Set(base+"last_observed_tension", worldstate.Float(tension))
	return res, true
}

func (gangWarStrategy) MoralWeight(branchID string) (int, bool) {
	if branchID == "fuel_conflict" {
		return -45, true
	}
	return 0, false
}

func (gangWarStrategy) ApplyFailure(q *Quest, world *worldstate.Store) {
	// An ignored gang war erupts.
	world.Set("quest."+q.ID()+".ignored", worldstate.Bool(true))
	world.Set("prison.riot_active", worldstate.Bool(true))
	world.Add("prison.violence_level", 3)
}

// diseaseStrategy spreads infection while the quest is unresolved.
type diseaseStrategy struct{}

func (diseaseStrategy) ExtendInvestigation(q *Quest, world *worldstate.Store, action Action, target string, snap player.Snapshot) (InvestigateResult, bool) {
	if action != ActionAnalyze {
		return InvestigateResult{}, false
	}
	// Medical analysis needs herbalism or first aid.
	if snap.Skills["herbalism"] < 3 && snap.Skills["first_aid"] < 3 {
		return InvestigateResult{
			QuestID: q.ID(), Action: action, Target: target,
			Dialogue: []string{"analyze_needs_medical_skill"},
		}, true
	}
	return InvestigateResult{}, false // fall through to generic analyze
}

func (diseaseStrategy) MoralWeight(branchID string) (int, bool) {
	if branchID == "quarantine_force" {
		return -15, true
	}
	return 0, false
}

func (diseaseStrategy) ApplyFailure(q *Quest, world *worldstate.Store) {
	world.Set("quest."+q.ID()+".ignored", worldstate.Bool(true))
	world.AddInt("prison.death_count", 3)
}

// corruptionStrategy builds an evidence trail; exposing the network needs
// documents, not hearsay.
type corruptionStrategy struct{}

// Evidence tokens in the order a careful search uncovers them.
var corruptionEvidence = []string{
	"ledger_discrepancy", "missing_inventory", "bribe_note", "warden_signature",
}

func (corruptionStrategy) ExtendInvestigation(q *Quest, world *worldstate.Store, action Action, target string, snap player.Snapshot) (InvestigateResult, bool) {
	if action != ActionSearch {
		return InvestigateResult{}, false
	}
	// Evidence-bearing locations yield a document in place of the generic
	// search clues; everything else falls through.
	if target != "warden_office" && target != "storeroom" {
		return InvestigateResult{}, false
	}
	res := InvestigateResult{QuestID: q.ID(), Action: action, Target: target, Success: true}
	found := int(world.GetInt("quest." + q.ID() + ".evidence_found"))
	if found < len(corruptionEvidence) {
		token := "evidence_" + corruptionEvidence[found]
		world.AddInt("quest."+q.ID()+".evidence_found", 1)
		q.Investigation.Evidence = append(q.Investigation.Evidence, token)
		q.Investigation.AddClue(token)
		res.Discoveries = append(res.Discoveries, token)
	} else {
		res.Dialogue = append(res.Dialogue, "evidence_exhausted:"+target)
	}
	return res, true
}

func (corruptionStrategy) MoralWeight(branchID string) (int, bool) {
	// Blackmailing the warden with the evidence is its own sin.
	if branchID == "blackmail" {
		return -35, true
	}
	return 0, false
}

func (corruptionStrategy) ApplyFailure(q *Quest, world *worldstate.Store) {
	world.Set("quest."+q.ID()+".ignored", worldstate.Bool(true))
	world.Add("prison.corruption_level", 0.1)
}

// revengeStrategy tracks how personal the vendetta has become.
type revengeStrategy struct{}

func (revengeStrategy) ExtendInvestigation(q *Quest, world *worldstate.Store, action Action, target string, snap player.Snapshot) (InvestigateResult, bool) {
	if action != ActionScout {
		return InvestigateResult{}, false
	}
	// Scouting the mark reveals routine gaps to exploit.
	res := InvestigateResult{QuestID: q.ID(), Action: action, Target: target, Success: true}
	clue := "routine_" + target
	if q.Investigation.AddClue(clue) {
		res.Discoveries = append(res.Discoveries, clue)
	}
	world.Set("quest."+q.ID()+".marked."+target, worldstate.Bool(true))
	return res, true
}

func (revengeStrategy) MoralWeight(branchID string) (int, bool) {
	// Letting a grudge go is worth more than the table's diplomacy default.
	switch branchID {
	case "forgive":
		return 35, true
	case "violence":
		return -40, true
	}
	return 0, false
}

func (revengeStrategy) ApplyFailure(q *Quest, world *worldstate.Store) {
	world.Set("quest."+q.ID()+".ignored", worldstate.Bool(true))
	world.Set("player.in_danger", worldstate.Bool(true))
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
