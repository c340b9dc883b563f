package quests

import (
	"sort"
	"time"

	"github.com/talgya/prison-world/internal/player"
)

// ActiveQuests returns the live quests sorted by id. Callers get the real
// pointers but mutate only through engine methods.
func (e *Engine) ActiveQuests() []*Quest {
	out := make([]*Quest, 0, len(e.active))
	for _, q := range e.active {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// DiscoverableQuests returns the subset waiting to be found.
func (e *Engine) DiscoverableQuests() []*Quest {
	var out []*Quest
	for _, q := range e.ActiveQuests() {
		if q.State == StateDiscoverable {
			out = append(out, q)
		}
	}
	return out
}

// Quest returns a live quest by id.
func (e *Engine) Quest(id string) (*Quest, bool) {
	q, ok := e.active[id]
	return q, ok
}

// IsCompleted reports whether a quest id finished successfully.
func (e *Engine) IsCompleted(id string) bool {
	_, ok := e.completed[id]
	return ok
}

// IsFailed reports whether a quest id failed or timed out.
func (e *Engine) IsFailed(id string) bool {
	_, ok := e.failed[id]
	return ok
}

// BranchOption is a branch the player presently qualifies for, with UI
// metadata.
type BranchOption struct {
	ID           string        `json:"id"`
	Description  string        `json:"description"`
	Requirements []Requirement `json:"requirements,omitempty"`
	Preview      string        `json:"preview,omitempty"`
}

// AvailableBranches lists branches whose requirements presently hold.
func (e *Engine) AvailableBranches(questID string, snap player.Snapshot) []BranchOption {
	quest, ok := e.active[questID]
	if !ok {
		return nil
	}
	var out []BranchOption
	for i := range quest.Seed.Branches {
		branch := &quest.Seed.Branches[i]
		if len(checkRequirements(branch.Requirements, snap)) > 0 {
			continue
		}
		out = append(out, BranchOption{
			ID:           branch.ID,
			Description:  branch.Description,
			Requirements: branch.Requirements,
			Preview:      branch.Dialogue["preview"],
		})
	}
	return out
}

// Status summarizes one quest for the UI.
type Status struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name,omitempty"`
	State                State   `json:"state"`
	InvestigationPercent float64 `json:"investigation_percent"`
	DiscoveredClues      int     `json:"discovered_clues"`
	TimeRemainingHours   float64 `json:"time_remaining_hours,omitempty"`
	TimeSensitive        bool    `json:"time_sensitive"`
}

// expectedClueCount is the denominator for investigation progress.
const expectedClueCount = 10

// QuestStatus reports a quest's lifecycle position; completed and failed
// quests report their terminal state, unknown ids report state "unknown".
func (e *Engine) QuestStatus(id string, now time.Time) Status {
	if quest, ok := e.active[id]; ok {
		st := Status{
			ID:                   id,
			Name:                 quest.Seed.Name,
			State:                quest.State,
			InvestigationPercent: quest.Investigation.CompletionPercent(expectedClueCount),
			DiscoveredClues:      len(quest.Investigation.ClueList),
			TimeSensitive:        quest.Seed.TimeSensitive,
		}
		if quest.Seed.TimeSensitive {
			if quest.StartTime.IsZero() {
				st.TimeRemainingHours = float64(quest.Seed.ExpiryHours)
			} else {
				remaining := float64(quest.Seed.ExpiryHours) - now.Sub(quest.StartTime).Hours()
				if remaining < 0 {
					remaining = 0
				}
				st.TimeRemainingHours = remaining
			}
		}
		return st
	}
	if e.IsCompleted(id) {
		return Status{ID: id, State: StateResolved}
	}
	if e.IsFailed(id) {
		return Status{ID: id, State: StateFailed}
	}
	return Status{ID: id, State: "unknown"}
}

// CompletedIDs returns the finished quest ids, sorted.
func (e *Engine) CompletedIDs() []string { return sortedKeys(e.completed) }

// FailedIDs returns the failed quest ids, sorted.
func (e *Engine) FailedIDs() []string { return sortedKeys(e.failed) }

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
