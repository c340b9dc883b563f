package consequence

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/prison-world/internal/npcs"
	"github.com/talgya/prison-world/internal/player"
	"github.com/talgya/prison-world/internal/worldstate"
)

// defaultRecurrence is applied to recurring consequences that don't specify
// their own interval: 24 in-game hours.
const defaultRecurrence = 24 * time.Hour

// Result reports one applied consequence.
type Result struct {
	ID               string            `json:"id"`
	SourceQuest      string            `json:"source_quest"`
	Kind             Kind              `json:"kind"`
	Severity         Severity          `json:"severity"`
	Changes          map[string]any    `json:"changes"`
	NewlyTriggered   []string          `json:"newly_triggered,omitempty"`
	ReputationShifts []ReputationShift `json:"reputation_shifts,omitempty"`
	Reversed         bool              `json:"reversed,omitempty"`
}

// Record is a history entry.
type Record struct {
	Time        time.Time `json:"time"`
	ID          string    `json:"id"`
	SourceQuest string    `json:"source_quest"`
	Reversed    bool      `json:"reversed,omitempty"`
}

// Karma is the five-channel aggregate of applied effects.
type Karma struct {
	Good    float64 `json:"good"`
	Evil    float64 `json:"evil"`
	Neutral float64 `json:"neutral"`
	Chaos   float64 `json:"chaos"`
	Order   float64 `json:"order"`
}

// Scheduler owns every registered consequence, the time-ordered schedule,
// chains, and webs.
type Scheduler struct {
	consequences map[string]*Consequence
	schedule     []string // ids ordered by trigger time; conditional-only ids last
	chains       map[string]*Chain
	webs         map[string]*Web
	history      []Record
	karma        Karma
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		consequences: make(map[string]*Consequence),
		chains:       make(map[string]*Chain),
		webs:         make(map[string]*Web),
	}
}

// NewID mints a consequence id.
func NewID() string { return uuid.NewString() }

// Register adds a consequence to the owned map and to the schedule, which is
// ordered by trigger time with entries lacking one last. Re-registering an id
// replaces it.
func (s *Scheduler) Register(c *Consequence) {
	if c.ID == "" {
		c.ID = NewID()
	}
	if _, exists := s.consequences[c.ID]; !exists {
		s.schedule = append(s.schedule, c.ID)
	}
	s.consequences[c.ID] = c
	s.sortSchedule()
}

// Get returns a registered consequence, or nil.
func (s *Scheduler) Get(id string) *Consequence { return s.consequences[id] }

func (s *Scheduler) sortSchedule() {
	sort.SliceStable(s.schedule, func(i, j int) bool {
		a, b := s.consequences[s.schedule[i]], s.consequences[s.schedule[j]]
		switch {
		case a.TriggerTime.IsZero():
			return false
		case b.TriggerTime.IsZero():
			return true
		default:
			return a.TriggerTime.Before(b.TriggerTime)
		}
	})
}

// ProcessDue applies every consequence whose trigger conditions hold at now.
// Cascading targets that become triggerable are listed in the result's
// NewlyTriggered set; the tick loop recurses by calling ProcessDue again.
// Expired reversible consequences are reversed and retired.
func (s *Scheduler) ProcessDue(now time.Time, world *worldstate.Store, pl *player.Player, registry *npcs.Registry) []Result {
	var results []Result

	for _, id := range append([]string(nil), s.schedule...) {
		c, ok := s.consequences[id]
		if !ok {
			continue
		}
		if !c.CanTrigger(world, now) {
			continue
		}
		results = append(results, s.apply(c, now, world, pl, registry))
	}

	s.retireExpired(now, world, pl, registry, &results)
	return results
}

func (s *Scheduler) apply(c *Consequence, now time.Time, world *worldstate.Store, pl *player.Player, registry *npcs.Registry) Result {
	res := Result{
		ID:          c.ID,
		SourceQuest: c.SourceQuest,
		Kind:        c.Kind,
		Severity:    c.Severity,
		Changes:     make(map[string]any),
	}

	// Snapshot standings so threshold crossings can be reported.
	var repBefore map[string]int
	repDeltas := make(map[string]int)
	if pl != nil {
		repBefore = make(map[string]int, len(pl.Reputation))
		for k, v := range pl.Reputation {
			repBefore[k] = v
		}
	}

	for _, eff := range c.Effects {
		for k, v := range applyEffect(eff, world, pl, registry, false) {
			res.Changes[k] = v
		}
		if eff.TargetKind == TargetRelationship {
			repDeltas[eff.TargetPath] += int(eff.Magnitude)
		}
		s.accountKarma(eff)
	}
	if len(repDeltas) > 0 {
		res.ReputationShifts = ReputationEffects(repDeltas, repBefore)
	}

	c.Triggered = true
	s.history = append(s.history, Record{Time: now, ID: c.ID, SourceQuest: c.SourceQuest})

	// Cascading: collect connected consequences that can fire now.
	for _, nextID := range c.NextIDs {
		next, ok := s.consequences[nextID]
		if ok && next.CanTrigger(world, now) {
			res.NewlyTriggered = append(res.NewlyTriggered, nextID)
		}
	}

	if c.Kind == KindRecurring {
		interval := c.RecurEvery
		if interval <= 0 {
			interval = defaultRecurrence
		}
		base := c.TriggerTime
		if base.IsZero() {
			base = now
		}
		c.TriggerTime = base.Add(interval)
		c.Triggered = false
		s.sortSchedule()
	} else if c.ExpiryTime.IsZero() || c.Kind == KindPermanent {
		s.remove(c.ID)
	}
	// Applied reversible consequences with an expiry stay tracked so
	// retireExpired can undo them.

	slog.Debug("consequence applied", "id", c.ID, "quest", c.SourceQuest, "kind", c.Kind, "changes", len(res.Changes))
	return res
}

// retireExpired reverses and retires applied reversible consequences whose
// expiry passed, and drops unapplied ones that can no longer fire.
func (s *Scheduler) retireExpired(now time.Time, world *worldstate.Store, pl *player.Player, registry *npcs.Registry, results *[]Result) {
	for _, id := range append([]string(nil), s.schedule...) {
		c, ok := s.consequences[id]
		if !ok || c.ExpiryTime.IsZero() || now.Before(c.ExpiryTime) {
			continue
		}
		if c.Triggered && c.Kind != KindPermanent {
			res := Result{ID: c.ID, SourceQuest: c.SourceQuest, Kind: c.Kind,
				Severity: c.Severity, Changes: make(map[string]any), Reversed: true}
			for _, eff := range c.Effects {
				for k, v := range applyEffect(eff, world, pl, registry, true) {
					res.Changes[k] = v
				}
			}
			s.history = append(s.history, Record{Time: now, ID: c.ID, SourceQuest: c.SourceQuest, Reversed: true})
			*results = append(*results, res)
		}
		s.remove(c.ID)
	}
}

func (s *Scheduler) remove(id string) {
	delete(s.consequences, id)
	for i, sid := range s.schedule {
		if sid == id {
			s.schedule = append(s.schedule[:i], s.schedule[i+1:]...)
			break
		}
	}
}

func (s *Scheduler) accountKarma(eff Effect) {
	mag := eff.Magnitude
	switch {
	case eff.TargetKind == TargetRelationship && mag > 0:
		s.karma.Good += mag
	case eff.TargetKind == TargetRelationship && mag < 0:
		s.karma.Evil += -mag
	case isChaotic(eff):
		s.karma.Chaos += abs(mag)
	case isOrderly(eff):
		s.karma.Order += abs(mag)
	default:
		s.karma.Neutral += abs(mag)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Pending lists registered consequences still waiting to fire, in schedule
// order.
func (s *Scheduler) Pending() []*Consequence {
	out := make([]*Consequence, 0, len(s.schedule))
	for _, id := range s.schedule {
		if c, ok := s.consequences[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// PendingFor lists pending consequence ids attributed to a quest.
func (s *Scheduler) PendingFor(questID string) []string {
	var ids []string
	for _, id := range s.schedule {
		if c, ok := s.consequences[id]; ok && c.SourceQuest == questID {
			ids = append(ids, id)
		}
	}
	return ids
}

// History returns past applications, optionally filtered by quest id.
func (s *Scheduler) History(questID string) []Record {
	if questID == "" {
		return append([]Record(nil), s.history...)
	}
	var out []Record
	for _, rec := range s.history {
		if rec.SourceQuest == questID {
			out = append(out, rec)
		}
	}
	return out
}

// KarmaScore returns the five channels normalized to percentages.
func (s *Scheduler) KarmaScore() Karma {
	k := s.karma
	total := k.Good + k.Evil + k.Neutral + k.Chaos + k.Order
	if total == 0 {
		return Karma{}
	}
	return Karma{
		Good:    k.Good / total * 100,
		Evil:    k.Evil / total * 100,
		Neutral: k.Neutral / total * 100,
		Chaos:   k.Chaos / total * 100,
		Order:   k.Order / total * 100,
	}
}

// Blob is the serializable image of the scheduler.
type Blob struct {
	Consequences []Consequence `json:"consequences"`
	Schedule     []string      `json:"schedule"`
	History      []Record      `json:"history"`
	Karma        Karma         `json:"karma"`
	Chains       []chainBlob   `json:"chains,omitempty"`
}

// ToBlob captures active consequences, history, and karma.
func (s *Scheduler) ToBlob() Blob {
	blob := Blob{
		Schedule: append([]string(nil), s.schedule...),
		History:  append([]Record(nil), s.history...),
		Karma:    s.karma,
	}
	for _, id := range s.schedule {
		if c, ok := s.consequences[id]; ok {
			blob.Consequences = append(blob.Consequences, *c)
		}
	}
	for _, chain := range s.chains {
		blob.Chains = append(blob.Chains, chain.toBlob())
	}
	sort.Slice(blob.Chains, func(i, j int) bool { return blob.Chains[i].ID < blob.Chains[j].ID })
	return blob
}

// FromBlob restores a scheduler; trigger instants are parsed back and the
// schedule re-sorted.
func FromBlob(blob Blob) *Scheduler {
	s := NewScheduler()
	for i := range blob.Consequences {
		c := blob.Consequences[i]
		s.consequences[c.ID] = &c
		s.schedule = append(s.schedule, c.ID)
	}
	s.sortSchedule()
	s.history = append([]Record(nil), blob.History...)
	s.karma = blob.Karma
	for _, cb := range blob.Chains {
		s.chains[cb.ID] = chainFromBlob(cb, s)
	}
	return s
}
