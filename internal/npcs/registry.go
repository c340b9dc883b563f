// Package npcs provides the NPC registry: schedules, relationships to the
// player, and the per-tick update that keeps NPC positions and dispositions
// flowing into the world store.
package npcs

import (
	"fmt"
	"sort"

	"github.com/talgya/prison-world/internal/events"
	"github.com/talgya/prison-world/internal/worldstate"
)

// ScheduleEntry sends an NPC to a location from a given game minute onward.
type ScheduleEntry struct {
	FromMinute int    `json:"from_minute"`
	Location   string `json:"location"`
}

// NPC is one inhabitant of the prison world.
type NPC struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Role         string          `json:"role"` // guard, prisoner, merchant, warden...
	Location     string          `json:"location"`
	Gang         string          `json:"gang,omitempty"`
	Traits       []string        `json:"traits,omitempty"`
	Disposition  int             `json:"disposition"` // toward the player, -100..100
	Schedule     []ScheduleEntry `json:"schedule,omitempty"`
	DialogueTree string          `json:"dialogue_tree,omitempty"`
	Alive        bool            `json:"alive"`
}

// Registry owns every NPC and mirrors their state into the world store under
// npcs.<id> and relationships.<id>.
type Registry struct {
	npcs  map[string]*NPC
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{npcs: make(map[string]*NPC)}
}

// Add registers an NPC. Re-adding an existing id replaces the record but
// keeps its position in iteration order.
func (r *Registry) Add(npc *NPC) {
	if npc.ID == "" {
		return
	}
	if _, exists := r.npcs[npc.ID]; !exists {
		r.order = append(r.order, npc.ID)
	}
	npc.Alive = true
	r.npcs[npc.ID] = npc
}

// Remove deletes an NPC from the registry.
func (r *Registry) Remove(id string) {
	if _, ok := r.npcs[id]; !ok {
		return
	}
	delete(r.npcs, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns an NPC, or an error for unknown ids.
func (r *Registry) Get(id string) (*NPC, error) {
	npc, ok := r.npcs[id]
	if !ok {
		return nil, fmt.Errorf("unknown npc %q", id)
	}
	return npc, nil
}

// All returns the NPCs in insertion order.
func (r *Registry) All() []*NPC {
	out := make([]*NPC, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.npcs[id])
	}
	return out
}

// At lists living NPC ids present in a location, sorted for determinism.
func (r *Registry) At(location string) []string {
	var ids []string
	for id, npc := range r.npcs {
		if npc.Alive && npc.Location == location {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// AdjustDisposition shifts an NPC's attitude toward the player, clamped to
// -100..100.
func (r *Registry) AdjustDisposition(id string, delta int) {
	npc, ok := r.npcs[id]
	if !ok {
		return
	}
	npc.Disposition += delta
	if npc.Disposition > 100 {
		npc.Disposition = 100
	}
	if npc.Disposition < -100 {
		npc.Disposition = -100
	}
}

// Update runs one NPC tick: follow schedules for the current game minute and
// mirror positions and dispositions into the world store. Movement emits
// npc_action events through the bus.
func (r *Registry) Update(world *worldstate.Store, bus *events.Bus) {
	minute := world.GameTime
	for _, id := range r.order {
		npc := r.npcs[id]
		if !npc.Alive {
			continue
		}

		if dest := scheduledLocation(npc.Schedule, minute); dest != "" && dest != npc.Location {
			from := npc.Location
			npc.Location = dest
			bus.Emit(events.Event{
				Type:      "npc_moved",
				Category:  events.CategoryNPCAction,
				Priority:  events.PriorityLow,
				Propagate: true,
				Source:    npc.ID,
				Payload:   map[string]any{"from": from, "to": dest},
			})
		}

		world.MergeMapping("npcs."+npc.ID, map[string]worldstate.Value{
			"name":     worldstate.String(npc.Name),
			"role":     worldstate.String(npc.Role),
			"location": worldstate.String(npc.Location),
		})
		world.Set("relationships."+npc.ID, worldstate.Int(int64(npc.Disposition)))
	}
}

// scheduledLocation picks the entry with the greatest FromMinute not after
// the current minute; before the first entry the last one (overnight) wins.
func scheduledLocation(schedule []ScheduleEntry, minute int) string {
	if len(schedule) == 0 {
		return ""
	}
	best := schedule[len(schedule)-1]
	for _, entry := range schedule {
		if entry.FromMinute <= minute {
			best = entry
		}
	}
	return best.Location
}

// ReputationView aggregates disposition per faction role for player
// snapshots: the average disposition of living NPCs sharing a role.
func (r *Registry) ReputationView() map[string]int {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, npc := range r.npcs {
		if !npc.Alive {
			continue
		}
		sums[npc.Role] += npc.Disposition
		counts[npc.Role]++
	}
	out := make(map[string]int, len(sums))
	for role, sum := range sums {
		out[role] = sum / counts[role]
	}
	return out
}

// Blob is the serializable image of the registry.
type Blob struct {
	NPCs []NPC `json:"npcs"`
}

// ToBlob captures the registry for save-game serialization.
func (r *Registry) ToBlob() Blob {
	blob := Blob{NPCs: make([]NPC, 0, len(r.order))}
	for _, id := range r.order {
		blob.NPCs = append(blob.NPCs, *r.npcs[id])
	}
	return blob
}

// FromBlob restores a registry from a save blob.
func FromBlob(blob Blob) *Registry {
	r := NewRegistry()
	for i := range blob.NPCs {
		npc := blob.NPCs[i]
		alive := npc.Alive
		r.Add(&npc)
		npc.Alive = alive
	}
	return r
}
