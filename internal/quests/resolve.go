package quests

import (
	"fmt"
	"sort"
	"time"

	"github.com/talgya/prison-world/internal/consequence"
	"github.com/talgya/prison-world/internal/events"
	"github.com/talgya/prison-world/internal/player"
	"github.com/talgya/prison-world/internal/skills"
	"github.com/talgya/prison-world/internal/worldstate"
)

// UnmetRequirement names one failed branch predicate.
type UnmetRequirement struct {
	Kind      string `json:"kind"`
	Target    string `json:"target"`
	Threshold int    `json:"threshold,omitempty"`
}

// ResolutionResult reports a successful resolution.
type ResolutionResult struct {
	QuestID          string         `json:"quest_id"`
	BranchID         string         `json:"branch_id"`
	ImmediateChanges map[string]any `json:"immediate_changes"`
	ScheduledCount   int            `json:"scheduled_count"`
	MoralWeight      int            `json:"moral_weight"`
	ImpactScore      float64        `json:"world_impact_score"`
	Reward           Reward         `json:"reward"`
	Dialogue         string         `json:"dialogue,omitempty"`
}

// rewardTier maps a seed's 1..10 priority to the 1..5 payout tier.
func rewardTier(priority int) int {
	tier := (priority + 1) / 2
	if tier < 1 {
		tier = 1
	}
	if tier > 5 {
		tier = 5
	}
	return tier
}

// checkRequirements evaluates branch requirements against a snapshot and
// returns every unmet predicate.
func checkRequirements(reqs []Requirement, snap player.Snapshot) []UnmetRequirement {
	var unmet []UnmetRequirement
	for _, req := range reqs {
		ok := false
		switch req.Kind {
		case ReqSkill:
			ok = snap.Skills[skills.ID(req.Target)] >= req.Threshold
		case ReqItem:
			for _, token := range snap.Inventory {
				if token == req.Target {
					ok = true
					break
				}
			}
		case ReqReputation:
			ok = snap.Reputation[req.Target] >= req.Threshold
		case ReqQuestComplete:
			_, ok = snap.CompletedQuests[req.Target]
		case ReqStat:
			ok = snap.Stats[req.Target] >= req.Threshold
		}
		if !ok {
			unmet = append(unmet, UnmetRequirement{Kind: req.Kind, Target: req.Target, Threshold: req.Threshold})
		}
	}
	return unmet
}

// RequirementsError carries the unmet predicates of a failed resolve call.
type RequirementsError struct {
	QuestID  string
	BranchID string
	Unmet    []UnmetRequirement
}

func (e *RequirementsError) Error() string {
	return fmt.Sprintf("quest %q branch %q: %d requirement(s) unmet", e.QuestID, e.BranchID, len(e.Unmet))
}

// Resolve resolves an active or investigated quest through a branch: apply
// immediate consequences, schedule delayed ones, compute moral weight and
// world impact, and move the quest into consequencing.
func (e *Engine) Resolve(questID, branchID string, snap player.Snapshot, now time.Time) (ResolutionResult, error) {
	quest, ok := e.active[questID]
	if !ok {
		return ResolutionResult{}, fmt.Errorf("%w: %q", ErrUnknownQuest, questID)
	}
	if quest.State != StateActive && quest.State != StateInvestigating {
		return ResolutionResult{}, fmt.Errorf("%w: %q is %s", ErrWrongState, questID, quest.State)
	}
	branch := quest.Branch(branchID)
	if branch == nil {
		return ResolutionResult{}, fmt.Errorf("%w: quest %q has no branch %q", ErrUnknownQuest, questID, branchID)
	}
	if unmet := checkRequirements(branch.Requirements, snap); len(unmet) > 0 {
		return ResolutionResult{}, &RequirementsError{QuestID: questID, BranchID: branchID, Unmet: unmet}
	}

	quest.ChosenBranch = branchID
	quest.ResolutionTime = now

	res := ResolutionResult{
		QuestID:          questID,
		BranchID:         branchID,
		ImmediateChanges: make(map[string]any),
		Dialogue:         branch.Dialogue["resolution"],
	}

	// Immediate consequences: world overwrites and relationship deltas.
	for path, value := range branch.Consequences.WorldState {
		e.world.Set(path, value)
		res.ImmediateChanges[path] = "set"
	}
	for npc, delta := range branch.Consequences.Relationships {
		e.world.AddInt("relationships."+npc, int64(delta))
		res.ImmediateChanges["relationship_"+npc] = delta
	}

	// Delayed consequences enter the scheduler; the quest keeps only ids.
	delays := make([]int, 0, len(branch.Consequences.Delayed))
	for h := range branch.Consequences.Delayed {
		delays = append(delays, h)
	}
	sort.Ints(delays)
	for _, hours := range delays {
		effect := branch.Consequences.Delayed[hours]
		cons := &consequence.Consequence{
			ID:          fmt.Sprintf("%s_%s_%dh", questID, branchID, hours),
			SourceQuest: questID,
			Kind:        consequence.KindDelayed,
			Severity:    consequence.SeverityModerate,
			Description: effect.Description,
			TriggerTime: now.Add(time.Duration(hours) * time.Hour),
			Effects:     delayedEffects(effect),
		}
		e.scheduler.Register(cons)
		quest.ConsequenceIDs = append(quest.ConsequenceIDs, cons.ID)
		res.ScheduledCount++
	}

	quest.MoralWeight = e.moralWeight(quest, branch)
	quest.ImpactScore = worldImpact(branch)
	res.MoralWeight = quest.MoralWeight
	res.ImpactScore = quest.ImpactScore

	// Completion quality scales with how thorough the investigation was.
	quality := 1.0 + quest.Investigation.CompletionPercent(expectedClueCount)/200
	res.Reward = CalculateReward(rewardTier(quest.Seed.Priority), quality)

	quest.State = StateConsequencing

	ev := events.New("quest_completed", events.CategoryQuest, map[string]any{
		"quest_id":   questID,
		"quest_name": quest.Seed.Name,
		"branch_id":  branchID,
		"priority":   quest.Seed.Priority,
	})
	ev.Priority = events.PriorityHigh
	ev.Source = "quest_engine"
	e.bus.Emit(ev)

	return res, nil
}

// delayedEffects converts a branch's delayed block into scheduler effects.
func delayedEffects(effect DelayedEffect) []consequence.Effect {
	var effs []consequence.Effect
	paths := make([]string, 0, len(effect.WorldChanges))
	for p := range effect.WorldChanges {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, path := range paths {
		effs = append(effs, consequence.Effect{
			TargetKind: consequence.TargetWorld,
			TargetPath: path,
			Op:         consequence.OpSet,
			Value:      effect.WorldChanges[path],
		})
	}
	npcIDs := make([]string, 0, len(effect.NPCReactions))
	for n := range effect.NPCReactions {
		npcIDs = append(npcIDs, n)
	}
	sort.Strings(npcIDs)
	for _, npc := range npcIDs {
		effs = append(effs, consequence.Effect{
			TargetKind: consequence.TargetWorld,
			TargetPath: "npc_reactions." + npc,
			Op:         consequence.OpSet,
			Value:      worldstate.String(effect.NPCReactions[npc]),
		})
	}
	for _, seedID := range effect.NewQuestSeeds {
		effs = append(effs, consequence.Effect{
			TargetKind: consequence.TargetWorld,
			TargetPath: "quests.force_activate." + seedID,
			Op:         consequence.OpSet,
			Value:      worldstate.Bool(true),
		})
	}
	return effs
}

// moralWeight resolves the branch's moral semantic through the strategy
// override, then the shared table.
func (e *Engine) moralWeight(quest *Quest, branch *Branch) int {
	if w, ok := strategyFor(quest.Seed.Kind).MoralWeight(branch.ID); ok {
		return w
	}
	semantic := branch.MoralCategory
	if semantic == "" {
		semantic = branch.ID
	}
	return moralWeights[semantic]
}

// worldImpact scores how much a branch reshapes the world, clamped to 1.0.
func worldImpact(branch *Branch) float64 {
	impact := float64(len(branch.Consequences.WorldState)) * 0.10
	impact += float64(len(branch.Consequences.Relationships)) * 0.15
	newSeeds := 0
	for _, eff := range branch.Consequences.Delayed {
		newSeeds += len(eff.NewQuestSeeds)
	}
	impact += float64(newSeeds) * 0.25
	impact += float64(len(branch.Consequences.Delayed)) * 0.20
	if impact > 1.0 {
		impact = 1.0
	}
	return impact
}
