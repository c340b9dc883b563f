package sim

import (
	"fmt"

	"github.com/talgya/prison-world/internal/events"
	"github.com/talgya/prison-world/internal/player"
	"github.com/talgya/prison-world/internal/quests"
	"github.com/talgya/prison-world/internal/skills"
)

// IntentKind tags a player intent.
type IntentKind string

const (
	IntentMove         IntentKind = "move"
	IntentInteract     IntentKind = "interact"
	IntentUseSkill     IntentKind = "use_skill"
	IntentResolveQuest IntentKind = "resolve_quest"
	IntentInvestigate  IntentKind = "investigate"
	IntentWait         IntentKind = "wait"
	IntentSave         IntentKind = "save"
	IntentLoad         IntentKind = "load"
	IntentQuit         IntentKind = "quit"
)

// Intent is the tagged record the presentation layer submits; only the
// fields relevant to the kind are read.
type Intent struct {
	Kind       IntentKind    `json:"kind"`
	Direction  string        `json:"direction,omitempty"`
	NPCID      string        `json:"npc_id,omitempty"`
	Verb       string        `json:"verb,omitempty"`
	SkillID    skills.ID     `json:"skill_id,omitempty"`
	Difficulty int           `json:"difficulty,omitempty"`
	QuestID    string        `json:"quest_id,omitempty"`
	BranchID   string        `json:"branch_id,omitempty"`
	Action     quests.Action `json:"action,omitempty"`
	Target     string        `json:"target,omitempty"`
	Minutes    int           `json:"minutes,omitempty"`
	Slot       int           `json:"slot,omitempty"`
}

// Token is a symbolic message; the shell localizes and formats.
type Token struct {
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

func token(kind string, kv ...any) Token {
	t := Token{Kind: kind}
	if len(kv) > 0 {
		t.Params = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			t.Params[kv[i].(string)] = kv[i+1]
		}
	}
	return t
}

// StepResult is the outcome of one player intent.
type StepResult struct {
	OK       bool                    `json:"ok"`
	Messages []Token                 `json:"messages,omitempty"`
	Hint     *quests.DiscoveryResult `json:"hint,omitempty"`
	Err      error                   `json:"-"`
}

func failure(err error) StepResult {
	return StepResult{OK: false, Err: err, Messages: []Token{token("error", "detail", err.Error())}}
}

// Step is the only write entry point: it executes the intent, then advances
// the simulation by the configured tick delta. Single-operation failures
// return a structured result without advancing time.
func (s *Simulation) Step(intent Intent) StepResult {
	if s.mode == ModeDead && intent.Kind != IntentLoad && intent.Kind != IntentQuit {
		return failure(fmt.Errorf("%w: player is dead", ErrInvalidTransition))
	}

	var res StepResult
	switch intent.Kind {
	case IntentMove:
		res = s.doMove(intent.Direction)
	case IntentInteract:
		res = s.doInteract(intent.NPCID, intent.Verb)
	case IntentUseSkill:
		res = s.doUseSkill(intent.SkillID, intent.Difficulty)
	case IntentResolveQuest:
		res = s.doResolveQuest(intent.QuestID, intent.BranchID)
	case IntentInvestigate:
		res = s.doInvestigate(intent.QuestID, intent.Action, intent.Target)
	case IntentWait:
		res = s.doWait(intent.Minutes)
		return res // doWait ticks itself
	case IntentSave:
		if err := s.SaveSlot(intent.Slot); err != nil {
			return failure(err)
		}
		return StepResult{OK: true, Messages: []Token{token("game_saved", "slot", intent.Slot)}}
	case IntentLoad:
		if err := s.LoadSlot(intent.Slot); err != nil {
			return failure(err)
		}
		return StepResult{OK: true, Messages: []Token{token("game_loaded", "slot", intent.Slot)}}
	case IntentQuit:
		s.mode = ModeMenu
		return StepResult{OK: true, Messages: []Token{token("quit")}}
	default:
		return failure(fmt.Errorf("%w: intent %q", ErrUnknownEntity, intent.Kind))
	}

	if !res.OK {
		return res
	}
	s.tick(s.tickDelta)
	return res
}

func (s *Simulation) doMove(direction string) StepResult {
	if s.Content == nil {
		return failure(fmt.Errorf("%w: no location catalogue loaded", ErrContentMissing))
	}
	loc, err := s.Content.Location(s.Player.Location)
	if err != nil {
		return failure(fmt.Errorf("%w: location %q", ErrContentMissing, s.Player.Location))
	}
	dest, ok := loc.Exits[direction]
	if !ok {
		return StepResult{OK: false, Messages: []Token{token("no_exit", "direction", direction)}}
	}

	from := s.Player.Location
	s.Player.Location = dest
	ev := events.New("player_moved", events.CategoryMovement, map[string]any{"from": from, "to": dest})
	ev.Source = "player"
	s.Bus.Emit(ev)

	res := StepResult{OK: true, Messages: []Token{token("moved", "from", from, "to", dest)}}

	if _, seen := s.discovered[dest]; !seen {
		s.Bus.Emit(events.New("location_discovered", events.CategoryDiscovery, map[string]any{"location": dest}))
		res.Messages = append(res.Messages, token("location_discovered", "location", dest))
	}

	// Arriving somewhere is the discovery attempt.
	if hint := s.Quests.DiscoverQuest(dest, s.World.Now()); hint != nil {
		res.Hint = hint
		res.Messages = append(res.Messages, token("quest_hint", "quest_id", hint.QuestID, "method", string(hint.Method)))
	}
	return res
}

func (s *Simulation) doInteract(npcID, verb string) StepResult {
	npc, err := s.NPCs.Get(npcID)
	if err != nil {
		return failure(fmt.Errorf("%w: npc %q", ErrUnknownEntity, npcID))
	}
	if !npc.Alive {
		return StepResult{OK: false, Messages: []Token{token("npc_gone", "npc", npcID)}}
	}

	ev := events.New("dialogue_spoken", events.CategoryDialogue, map[string]any{"verb": verb})
	ev.Source = "player"
	ev.Target = npcID
	s.Bus.Emit(ev)

	msgs := []Token{token("interaction", "npc", npcID, "verb", verb, "disposition", npc.Disposition)}
	if verb == "talk" && npc.DialogueTree != "" {
		msgs = append(msgs, token("dialogue_tree", "tree", npc.DialogueTree))
	}
	return StepResult{OK: true, Messages: msgs}
}

func (s *Simulation) doUseSkill(id skills.ID, difficulty int) StepResult {
	res, err := s.Player.Skills.Use(id, difficulty, s.Player.Pain, s.Player.Injuries, s.World.Now())
	if err != nil {
		return failure(fmt.Errorf("%w: skill %q", ErrUnknownEntity, id))
	}

	ev := events.New("skill_used", events.CategoryPlayerAction, map[string]any{
		"skill": string(id), "difficulty": difficulty, "success": res.Success,
	})
	ev.Source = "player"
	s.Bus.Emit(ev)

	msgs := []Token{token("skill_result",
		"skill", string(id), "success", res.Success, "chance", res.Chance,
		"pain_penalty", res.PainPenalty, "injury_penalty", res.InjuryPenalty)}
	if res.LeveledUp {
		msgs = append(msgs, token("skill_level_up", "skill", string(id), "level", res.NewLevel))
	}
	return StepResult{OK: true, Messages: msgs}
}

func (s *Simulation) doResolveQuest(questID, branchID string) StepResult {
	res, err := s.Quests.Resolve(questID, branchID, s.buildSnapshot(), s.World.Now())
	if err != nil {
		return failure(classify(err))
	}

	s.Player.Gold += res.Reward.Gold
	s.Player.Experience += res.Reward.Experience
	for _, item := range res.Reward.Items {
		s.Player.AddItem(item)
	}

	return StepResult{OK: true, Messages: []Token{token("quest_resolved",
		"quest_id", res.QuestID, "branch_id", res.BranchID,
		"moral_weight", res.MoralWeight, "world_impact", res.ImpactScore,
		"scheduled", res.ScheduledCount,
		"reward_gold", res.Reward.Gold, "reward_xp", res.Reward.Experience)}}
}

func (s *Simulation) doInvestigate(questID string, action quests.Action, target string) StepResult {
	res, err := s.Quests.Investigate(questID, action, target, s.buildSnapshot())
	if err != nil {
		return failure(classify(err))
	}
	msgs := []Token{token("investigation",
		"quest_id", questID, "action", string(action), "success", res.Success)}
	for _, d := range res.Discoveries {
		msgs = append(msgs, token("discovery", "id", d))
	}
	for _, w := range res.Warnings {
		msgs = append(msgs, token("warning", "id", w))
	}
	return StepResult{OK: res.Success || len(msgs) > 1, Messages: msgs}
}

func (s *Simulation) doWait(minutes int) StepResult {
	if minutes <= 0 {
		minutes = s.tickDelta
	}
	for passed := 0; passed < minutes && s.mode == ModePlaying; passed += s.tickDelta {
		s.tick(s.tickDelta)
	}
	if s.mode == ModeDead {
		return StepResult{OK: true, Messages: []Token{token("died_waiting")}}
	}
	return StepResult{OK: true, Messages: []Token{token("waited", "minutes", minutes)}}
}

// buildSnapshot merges player state with NPC-derived faction reputation.
func (s *Simulation) buildSnapshot() player.Snapshot {
	snap := s.Player.Snapshot()
	for faction, rep := range s.NPCs.ReputationView() {
		if _, explicit := snap.Reputation[faction]; !explicit {
			snap.Reputation[faction] = rep
		}
	}
	// Per-NPC dispositions fill in ids that no entry above already covers.
	for _, npc := range s.NPCs.All() {
		if npc.Alive {
			if _, explicit := snap.Reputation[npc.ID]; !explicit {
				snap.Reputation[npc.ID] = npc.Disposition
			}
		}
	}
	return snap
}
