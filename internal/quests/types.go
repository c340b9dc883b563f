// Package quests implements the emergent quest engine: seeds activate from
// world state, clues disperse into locations, the player discovers and
// investigates, and branching resolutions schedule consequences.
package quests

import (
	"time"

	"github.com/talgya/prison-world/internal/worldstate"
)

// State is the quest lifecycle position.
type State string

const (
	StateDormant       State = "dormant"
	StateSeeding       State = "seeding"
	StateDiscoverable  State = "discoverable"
	StateActive        State = "active"
	StateInvestigating State = "investigating"
	StateResolved      State = "resolved"
	StateFailed        State = "failed"
	StateConsequencing State = "consequencing"
)

// DiscoveryMethod describes how the player can stumble onto a quest.
type DiscoveryMethod string

const (
	DiscoveryOverheard     DiscoveryMethod = "overheard"
	DiscoveryWitnessed     DiscoveryMethod = "witnessed"
	DiscoveryFound         DiscoveryMethod = "found"
	DiscoveryTold          DiscoveryMethod = "told"
	DiscoveryStumbled      DiscoveryMethod = "stumbled"
	DiscoveryConsequence   DiscoveryMethod = "consequence"
	DiscoveryEnvironmental DiscoveryMethod = "environmental"
)

// Kind selects the investigation strategy for a seed.
type Kind string

const (
	KindGeneric     Kind = "generic"
	KindEscape      Kind = "escape"
	KindContraband  Kind = "contraband"
	KindGangWar     Kind = "gang_war"
	KindCorruption  Kind = "corruption"
	KindDisease     Kind = "disease"
	KindInformation Kind = "information"
	KindRevenge     Kind = "revenge"
)

// Seed is the static template describing when a quest becomes discoverable
// and what clues it plants. Seeds are immutable after registration.
type Seed struct {
	QuestID              string                          `json:"quest_id"`
	Name                 string                          `json:"name"`
	Kind                 Kind                            `json:"kind,omitempty"`
	ActivationConditions map[string]worldstate.Condition `json:"activation_conditions"`
	DiscoveryMethods     []DiscoveryMethod               `json:"discovery_methods"`
	InitialClues         map[string]string               `json:"initial_clues"` // location -> clue text
	TimeSensitive        bool                            `json:"time_sensitive"`
	ExpiryHours          int                             `json:"expiry_hours"`
	Priority             int                             `json:"priority"` // 1..10
	Branches             []Branch                        `json:"branches,omitempty"`
	DiscoveryDialogue    map[DiscoveryMethod]string      `json:"discovery_dialogue,omitempty"`
}

// Requirement kinds for branch gating.
const (
	ReqSkill         = "skill"
	ReqItem          = "item"
	ReqReputation    = "reputation"
	ReqQuestComplete = "quest_complete"
	ReqStat          = "stat"
)

// Requirement is one predicate a player snapshot must satisfy to choose a
// branch.
type Requirement struct {
	Kind      string `json:"kind"`
	Target    string `json:"target"`
	Threshold int    `json:"threshold,omitempty"`
}

// DelayedEffect is the payload of one entry in a branch's delayed block.
type DelayedEffect struct {
	Description   string                      `json:"description,omitempty"`
	WorldChanges  map[string]worldstate.Value `json:"world_changes,omitempty"`
	NPCReactions  map[string]string           `json:"npc_reactions,omitempty"`
	NewQuestSeeds []string                    `json:"new_quests,omitempty"`
}

// BranchConsequences groups the four consequence subsections of a branch.
type BranchConsequences struct {
	WorldState    map[string]worldstate.Value `json:"world_state,omitempty"`
	Relationships map[string]int              `json:"relationships,omitempty"`
	Delayed       map[int]DelayedEffect       `json:"delayed,omitempty"` // hours -> effect
	Items         []string                    `json:"items,omitempty"`
	Stats         map[string]int              `json:"stats,omitempty"`
}

// Branch is one possible resolution of a quest.
type Branch struct {
	ID           string             `json:"id"`
	Description  string             `json:"description"`
	Requirements []Requirement      `json:"requirements,omitempty"`
	Consequences BranchConsequences `json:"consequences"`
	Dialogue     map[string]string  `json:"dialogue,omitempty"`
	// MoralCategory overrides the semantic used for the moral weight table;
	// empty means the branch id itself is the semantic.
	MoralCategory string `json:"moral_category,omitempty"`
}

// Investigation accumulates the player's exploration of one quest.
type Investigation struct {
	DiscoveredClues  map[string]struct{} `json:"-"`
	ClueList         []string            `json:"discovered_clues"`
	InterrogatedNPCs map[string]struct{} `json:"-"`
	InterrogatedList []string            `json:"interrogated_npcs"`
	VisitedLocations map[string]struct{} `json:"-"`
	VisitedList      []string            `json:"visited_locations"`
	Theories         []string            `json:"theories,omitempty"`
	Evidence         []string            `json:"evidence,omitempty"`
}

func newInvestigation() *Investigation {
	return &Investigation{
		DiscoveredClues:  make(map[string]struct{}),
		InterrogatedNPCs: make(map[string]struct{}),
		VisitedLocations: make(map[string]struct{}),
	}
}

// AddClue records a clue id; returns false when already known.
func (inv *Investigation) AddClue(id string) bool {
	if _, ok := inv.DiscoveredClues[id]; ok {
		return false
	}
	inv.DiscoveredClues[id] = struct{}{}
	inv.ClueList = append(inv.ClueList, id)
	return true
}

func (inv *Investigation) markInterrogated(npc string) bool {
	if _, ok := inv.InterrogatedNPCs[npc]; ok {
		return false
	}
	inv.InterrogatedNPCs[npc] = struct{}{}
	inv.InterrogatedList = append(inv.InterrogatedList, npc)
	return true
}

func (inv *Investigation) markVisited(location string) bool {
	if _, ok := inv.VisitedLocations[location]; ok {
		return false
	}
	inv.VisitedLocations[location] = struct{}{}
	inv.VisitedList = append(inv.VisitedList, location)
	return true
}

// CompletionPercent reports clue progress against an expected total.
func (inv *Investigation) CompletionPercent(totalClues int) float64 {
	if totalClues <= 0 {
		return 0
	}
	pct := float64(len(inv.ClueList)) / float64(totalClues) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// rebuildSets reconstructs the lookup sets after deserialization.
func (inv *Investigation) rebuildSets() {
	inv.DiscoveredClues = make(map[string]struct{}, len(inv.ClueList))
	for _, c := range inv.ClueList {
		inv.DiscoveredClues[c] = struct{}{}
	}
	inv.InterrogatedNPCs = make(map[string]struct{}, len(inv.InterrogatedList))
	for _, n := range inv.InterrogatedList {
		inv.InterrogatedNPCs[n] = struct{}{}
	}
	inv.VisitedLocations = make(map[string]struct{}, len(inv.VisitedList))
	for _, l := range inv.VisitedList {
		inv.VisitedLocations[l] = struct{}{}
	}
}

// Quest is a live instance of a seed.
type Quest struct {
	Seed           *Seed          `json:"-"`
	SeedID         string         `json:"seed_id"`
	State          State          `json:"state"`
	Investigation  *Investigation `json:"investigation"`
	ChosenBranch   string         `json:"chosen_branch,omitempty"`
	StartTime      time.Time      `json:"start_time,omitzero"`
	ResolutionTime time.Time      `json:"resolution_time,omitzero"`
	MoralWeight    int            `json:"moral_weight"`
	ImpactScore    float64        `json:"world_impact_score"`
	ConsequenceIDs []string       `json:"consequence_ids,omitempty"`
}

func newQuest(seed *Seed) *Quest {
	return &Quest{
		Seed:          seed,
		SeedID:        seed.QuestID,
		State:         StateDormant,
		Investigation: newInvestigation(),
	}
}

// ID returns the quest id (same as the seed id).
func (q *Quest) ID() string { return q.SeedID }

// Branch looks up a branch by id.
func (q *Quest) Branch(id string) *Branch {
	for i := range q.Seed.Branches {
		if q.Seed.Branches[i].ID == id {
			return &q.Seed.Branches[i]
		}
	}
	return nil
}

// moralWeights maps branch semantics to their weight; per-quest strategies
// may override.
var moralWeights = map[string]int{
	"violence":  -30,
	"stealth":   -10,
	"diplomacy": 20,
	"sacrifice": 40,
	"betrayal":  -50,
	"ignore":    -20,
}
